package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/scgcore/quantd/pkg/configs"
	"github.com/scgcore/quantd/pkg/domain/standards"
	"github.com/scgcore/quantd/pkg/runlog"
	"github.com/scgcore/quantd/pkg/utils/filewatch"
	"github.com/scgcore/quantd/pkg/utils/try"
	"github.com/scgcore/quantd/pkg/web"
	"github.com/scgcore/quantd/pkg/workflow"
)

// modes this binary supports. Quantification is the only one wired in;
// the selector is here so sibling assay modes slot in without changing
// the invocation contract.
var supportedModes = []string{"quant"}

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	// call cancel() when this function exits
	defer cancel()

	pmode := flag.String("mode", "quant", "processing mode to run")
	pconfig := flag.String(
		"config", os.Getenv("QUANTD_CONFIG"), "path to config file",
	)
	pgroupFile := flag.String("group-file", "", "path to the LIMS plate grouping file")
	pblackPlates := flag.Int("black-plates", 0, "number of black plates loaded in the deck stack")
	ploglevel := flag.String("loglevel", "info", "status API log level. debug|info|warn|error|off")
	pdebug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	mode := *pmode
	known := false
	for _, m := range supportedModes {
		if m == mode {
			known = true
			break
		}
	}
	if !known {
		logger.Fatalf("unknown mode %q. supported modes: %v", mode, supportedModes)
	}

	if *pdebug {
		logger.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	conf := try.To(configs.LoadSystemConfig(*pconfig)).OrFatal(logger)

	{
		// the config and the standards files are versioned site data;
		// quit on modification so a restart picks the new content up.
		watched := []string{*pconfig}
		for _, name := range conf.Quant().StandardsFiles() {
			watched = append(watched, filepath.Join(conf.Quant().StandardsDir(), name))
		}
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, watched...)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	profiles := standards.NewCache(func(standardsType string) ([]byte, error) {
		name, ok := conf.Quant().StandardsFiles()[standardsType]
		if !ok {
			return nil, fmt.Errorf("no standards configuration for type %q", standardsType)
		}
		return os.ReadFile(filepath.Join(conf.Quant().StandardsDir(), name))
	})

	events := try.To(runlog.Open(
		filepath.Join(conf.Common().ExptRootDir(), conf.Quant().RunlogFile()),
	)).OrFatal(logger)
	defer events.Close()

	registry := web.NewRegistry()
	if listen := conf.Common().WebListen(); listen != "" {
		server := web.BuildServer(registry, *ploglevel)
		go func() {
			if err := server.Start(listen); err != nil {
				logger.Printf("status API stopped: %s", err)
			}
		}()
		defer func() {
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(graceful); err != nil {
				logger.Printf("error on status API shutdown: %s", err)
			}
		}()
	}

	wf := &workflow.Workflow{
		Conf:     conf,
		Profiles: profiles,
		Logger:   logger,
		Registry: registry,
		Events:   events,
	}

	if *pgroupFile == "" {
		logger.Fatal("-group-file is required")
	}

	outcome, err := wf.Run(ctx, *pgroupFile, *pblackPlates)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Fatal(err, "(interrupted by:", context.Cause(ctx), ")")
		}
		logger.Fatalf("workflow failed: %s", err)
	}
	logger.Printf("workflow finished: %s", outcome)
}
