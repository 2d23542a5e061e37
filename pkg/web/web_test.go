package web_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/scgcore/quantd/pkg/utils/try"
	"github.com/scgcore/quantd/pkg/web"
)

func TestRegistry(t *testing.T) {

	t.Run("it keeps at most the latest 25 messages", func(t *testing.T) {
		reg := web.NewRegistry()
		reg.Register("PG1", "SS2", nil)

		for i := 1; i <= 30; i++ {
			reg.AddMessage("PG1", false, fmt.Sprintf("message %d", i))
		}

		status, ok := reg.Workflow("PG1")
		if !ok {
			t.Fatal("workflow PG1 should be known")
		}
		if len(status.Messages) != 25 {
			t.Fatalf("unmatch message count: %d, expected 25", len(status.Messages))
		}
		if status.Messages[0].Text != "message 6" {
			t.Errorf("oldest kept message should be 6, got: %s", status.Messages[0].Text)
		}
		if status.Messages[24].Text != "message 30" {
			t.Errorf("newest message should be 30, got: %s", status.Messages[24].Text)
		}
	})

	t.Run("it ignores messages for unknown workflows", func(t *testing.T) {
		reg := web.NewRegistry()
		reg.AddMessage("PG404", false, "lost")
		if _, ok := reg.Workflow("PG404"); ok {
			t.Error("an unknown workflow should stay unknown")
		}
	})

	t.Run("it tracks stage and outcome", func(t *testing.T) {
		reg := web.NewRegistry()
		reg.Register("PG1", "SS2", []web.PlateSummary{
			{Name: "DNAQ_source_1", Barcode: "DN1", StackPosition: 5},
		})
		reg.SetStage("PG1", "standards", "MonitoringRun")
		reg.SetOutcome("PG1", "complete")

		list := reg.Workflows()
		if len(list) != 1 {
			t.Fatalf("unmatch workflow count: %d", len(list))
		}
		if list[0].Stage != "standards" || list[0].State != "MonitoringRun" || list[0].Outcome != "complete" {
			t.Errorf("unexpected summary: %+v", list[0])
		}
	})
}

func TestHandlers(t *testing.T) {

	t.Run("it lists workflows", func(t *testing.T) {
		reg := web.NewRegistry()
		reg.Register("PG1", "SS2", nil)
		reg.Register("PG2", "SS2", nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/workflows/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := web.WorkflowsHandler(reg)(c); err != nil {
			t.Fatalf("handler failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("unmatch status: %d", rec.Code)
		}

		summaries := []web.WorkflowSummary{}
		if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
			t.Fatalf("response is not valid json: %v", err)
		}
		if len(summaries) != 2 || summaries[0].GroupID != "PG1" || summaries[1].GroupID != "PG2" {
			t.Errorf("unexpected listing: %+v", summaries)
		}
	})

	t.Run("it returns the full status of one workflow", func(t *testing.T) {
		reg := web.NewRegistry()
		reg.Register("PG1", "SS2", []web.PlateSummary{
			{Name: "DNAQ_source_2", Barcode: "DN2", StackPosition: 6},
			{Name: "DNAQ_source_1", Barcode: "DN1", StackPosition: 5},
		})
		reg.AddMessage("PG1", true, "something broke")

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/workflows/PG1/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("groupId")
		c.SetParamValues("PG1")

		if err := web.WorkflowHandler(reg, "groupId")(c); err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		status := web.WorkflowStatus{}
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("response is not valid json: %v", err)
		}
		if status.GroupID != "PG1" || status.StandardsType != "SS2" {
			t.Errorf("unexpected status: %+v", status)
		}
		if len(status.Plates) != 2 || status.Plates[0].Name != "DNAQ_source_2" {
			t.Errorf("unexpected plates: %+v", status.Plates)
		}
		if len(status.Messages) != 1 || !status.Messages[0].IsError {
			t.Errorf("unexpected messages: %+v", status.Messages)
		}
	})

	t.Run("it 404s for an unknown workflow", func(t *testing.T) {
		reg := web.NewRegistry()

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/workflows/PG404/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("groupId")
		c.SetParamValues("PG404")

		err := web.WorkflowHandler(reg, "groupId")(c)
		herr := try.To(asHTTPError(err)).OrFatal(t)
		if herr.Code != http.StatusNotFound {
			t.Errorf("unmatch status: %d", herr.Code)
		}
	})
}

func asHTTPError(err error) (*echo.HTTPError, error) {
	if herr, ok := err.(*echo.HTTPError); ok {
		return herr, nil
	}
	return nil, fmt.Errorf("not an echo.HTTPError: %v", err)
}
