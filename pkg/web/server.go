package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

var API_ROOT = "/api"

func api(subpath string) string {
	if !strings.HasSuffix(subpath, "/") {
		subpath += "/"
	}
	return fmt.Sprintf("%s/%s", API_ROOT, subpath)
}

// BuildServer wires the status endpoints over the registry.
func BuildServer(reg *Registry, loglevel string) *echo.Echo {

	e := echo.New()

	switch strings.ToLower(loglevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
	}

	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}

	e.Pre(middleware.AddTrailingSlash())

	// logging for server-side latency.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			meth := c.Request().Method
			path := c.Request().URL
			BEGIN := time.Now()
			c.Logger().Infof(
				"< request @[%s] %s %s", BEGIN, meth, path,
			)

			var err error

			defer func() {
				END := time.Now()
				c.Logger().Infof(
					"> response @[%s] status = %d (for request @[%s] %s %s) in %v / error = %+v",
					END, c.Response().Status, BEGIN, meth, path, END.Sub(BEGIN), err,
				)
			}()

			err = next(c)
			return err
		}
	})

	e.GET(api("workflows"), WorkflowsHandler(reg))
	e.GET(api("workflows/:groupId"), WorkflowHandler(reg, "groupId"))

	return e
}

// WorkflowsHandler lists all workflows the process has seen since start.
func WorkflowsHandler(reg *Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, reg.Workflows())
	}
}

// WorkflowHandler returns the full status of one workflow, message log
// included.
func WorkflowHandler(reg *Registry, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		groupID := c.Param(paramKey)
		status, ok := reg.Workflow(groupID)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("workflow %s is not known", groupID))
		}
		return c.JSON(http.StatusOK, status)
	}
}
