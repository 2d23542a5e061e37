// Package workflow drives one plate group from grouping document to
// terminal outcome: validate, plan transfers, generate the control
// documents, submit them stage by stage and supervise the runs.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/scgcore/quantd/pkg/configs"
	"github.com/scgcore/quantd/pkg/domain/monitor"
	"github.com/scgcore/quantd/pkg/domain/plategroup"
	"github.com/scgcore/quantd/pkg/domain/rundef"
	"github.com/scgcore/quantd/pkg/domain/standards"
	"github.com/scgcore/quantd/pkg/domain/transfer"
	xerrors "github.com/scgcore/quantd/pkg/errors"
	"github.com/scgcore/quantd/pkg/runlog"
	"github.com/scgcore/quantd/pkg/web"
)

// Outcome is the terminal state of a workflow.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeStopped  Outcome = "stopped"
	OutcomeAborted  Outcome = "aborted"
)

// Workflow owns the processing of plate groups. One Workflow serves many
// groups; each Run call owns its experiment directory until terminal.
type Workflow struct {
	Conf     *configs.SystemConfig
	Profiles *standards.Cache
	Logger   *log.Logger

	// Registry receives status updates for the web API. Optional.
	Registry *web.Registry

	// Events is the persistent experiment event log. Optional; failures
	// to record are logged and swallowed.
	Events *runlog.Log

	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// event fans one message out to the logger, the status registry and the
// persistent event log.
func (w *Workflow) event(ctx context.Context, groupID, stage string, isError bool, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.Logger.Printf("[%s] %s", groupID, msg)
	if w.Registry != nil {
		w.Registry.AddMessage(groupID, isError, msg)
	}
	if w.Events != nil {
		level := runlog.Info
		if isError {
			level = runlog.Error
		}
		err := w.Events.Append(ctx, runlog.Event{
			At:      w.now(),
			GroupID: groupID,
			Stage:   stage,
			Level:   level,
			Message: msg,
		})
		if err != nil {
			w.Logger.Printf("[%s] recording event: %s", groupID, err)
		}
	}
}

// SupportedStandards is the set of standards types this installation has
// configuration files for, sorted.
func (w *Workflow) SupportedStandards() []string {
	files := w.Conf.Quant().StandardsFiles()
	types := make([]string, 0, len(files))
	for t := range files {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Run processes one plate grouping document end to end.
//
// Validation failures surface before anything is written to disk. Once
// the experiment directory exists, protocol errors and stopped runs take
// the abort path: the directory is archived into the error area and the
// error (if any) returned.
func (w *Workflow) Run(ctx context.Context, groupFilePath string, blackPlatesLoaded int) (Outcome, error) {
	common := w.Conf.Common()
	quant := w.Conf.Quant()

	raw, err := os.ReadFile(groupFilePath)
	if err != nil {
		return "", xerrors.Wrap(err)
	}

	group, err := plategroup.Parse(raw, w.SupportedStandards())
	if err != nil {
		return "", err
	}
	groupID := group.GroupID

	if max := quant.MaxSourcePlates(); max < len(group.Plates) {
		return "", fmt.Errorf(
			"plate group %s has %d source plates, this installation supports at most %d",
			groupID, len(group.Plates), max,
		)
	}

	profile, err := w.Profiles.Get(group.StandardsType)
	if err != nil {
		return "", err
	}
	if profile.MaxSources() < len(group.Plates) {
		return "", standards.ProfileCapacityError{
			GroupID:    groupID,
			Plates:     len(group.Plates),
			MaxSources: profile.MaxSources(),
		}
	}

	if err := transfer.ValidateBlackPlateCount(groupID, group.BlackPlatesRequired(), blackPlatesLoaded); err != nil {
		return "", err
	}

	layout := transfer.StackLayout{
		SourcesInitial:    common.SourcesInitialStackPosition(),
		StandardsPosition: profile.StackPosition,
		BlackLoaded:       blackPlatesLoaded,
	}

	plans, err := transfer.Plan(group, profile)
	if err != nil {
		return "", err
	}

	if w.Registry != nil {
		w.Registry.Register(groupID, group.StandardsType, plateSummaries(group, layout))
	}

	exptDir := filepath.Join(common.ExptRootDir(), groupID)
	if err := os.MkdirAll(exptDir, 0o755); err != nil {
		return "", xerrors.Wrap(err)
	}
	w.event(ctx, groupID, "setup", false, "experiment directory created at %s", exptDir)

	outcome, err := w.runInDir(ctx, group, layout, plans, groupFilePath, exptDir)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// shutdown, not a protocol failure; leave the directory in place
		// so the group can be re-run.
		return "", err
	}
	if err != nil || outcome == OutcomeStopped {
		w.abort(ctx, groupID, exptDir)
		if w.Registry != nil {
			w.Registry.SetOutcome(groupID, string(OutcomeAborted))
		}
		return OutcomeAborted, err
	}

	// completed: file the experiment directory under the processed area
	processedDir := filepath.Join(common.ExptProcessedDir(), groupID)
	if err := os.Rename(exptDir, processedDir); err != nil {
		return "", xerrors.Wrap(err)
	}
	w.event(ctx, groupID, "done", false, "experiment complete, directory filed at %s", processedDir)
	if w.Registry != nil {
		w.Registry.SetOutcome(groupID, string(OutcomeComplete))
	}
	return OutcomeComplete, nil
}

// runInDir is the part of the pipeline that owns an experiment directory.
func (w *Workflow) runInDir(
	ctx context.Context,
	group *plategroup.PlateGroup,
	layout transfer.StackLayout,
	plans *transfer.Plans,
	groupFilePath string,
	exptDir string,
) (Outcome, error) {
	common := w.Conf.Common()
	quant := w.Conf.Quant()
	groupID := group.GroupID

	art := rundef.Artifacts{
		ExptDir:             exptDir,
		ECP384Dest:          common.Ecp384DestFilepath(),
		ECPCorningBlack:     common.Ecp384CorningBlackFilepath(),
		CSVSourcesToPool:    filepath.Join(exptDir, quant.SourcesToStandardsCSV()),
		CSVSourcesToBlack:   filepath.Join(exptDir, quant.SourcesToBlackCSV()),
		CSVStandardsToBlack: filepath.Join(exptDir, quant.StandardsToBlackCSV()),
	}

	for _, c := range []struct {
		path string
		rows []transfer.Row
	}{
		{art.CSVSourcesToPool, plans.SourcesToPool},
		{art.CSVSourcesToBlack, plans.SourcesToBlack},
		{art.CSVStandardsToBlack, plans.StandardsToBlack},
	} {
		if err := transfer.WriteCSVFile(c.path, c.rows); err != nil {
			return "", err
		}
	}
	w.event(ctx, groupID, "setup", false, "transfer CSV files written")

	gen := rundef.Generator{Tokens: rundef.Tokens(group, layout, art)}

	standardsDoc := filepath.Join(exptDir, rundef.StandardsFilename(groupID))
	sourcesDoc := filepath.Join(exptDir, rundef.SourcesFilename(groupID))
	templates := common.RundefTemplatesDir()
	if err := gen.RenderFile(standardsDoc, filepath.Join(templates, quant.StandardsRundefTemplate())); err != nil {
		return "", err
	}
	if err := gen.RenderFile(sourcesDoc, filepath.Join(templates, quant.SourcesRundefTemplate())); err != nil {
		return "", err
	}
	w.event(ctx, groupID, "setup", false, "RunDef documents generated")

	// keep the input document with the experiment for traceability
	if err := copyFile(filepath.Join(exptDir, filepath.Base(groupFilePath)), groupFilePath); err != nil {
		return "", err
	}

	mon := w.monitor(ctx, groupID)

	stages := []struct {
		stage monitor.Stage
		doc   string
	}{
		{monitor.StageStandards, standardsDoc},
		{monitor.StageSources, sourcesDoc},
	}
	for _, s := range stages {
		if err := rundef.Deliver(s.doc, common.TempoInboxDir()); err != nil {
			return "", err
		}
		w.event(ctx, groupID, s.stage.String(), false, "RunDef %s submitted", filepath.Base(s.doc))

		result, err := mon.WatchStage(ctx, groupID, s.stage, filepath.Base(s.doc))
		if err != nil {
			return "", err
		}
		if result == monitor.Stopped {
			return OutcomeStopped, nil
		}
		w.event(ctx, groupID, s.stage.String(), false, "stage complete")
	}

	return OutcomeComplete, nil
}

// monitor builds the stage monitor wired back into this workflow's
// event fan-out, with the post-run actions per run class.
func (w *Workflow) monitor(ctx context.Context, groupID string) *monitor.Monitor {
	common := w.Conf.Common()

	handler := func(class monitor.RunClass) monitor.Handler {
		return monitor.Handler{
			OnComplete: func() error {
				w.event(ctx, groupID, class.String(), false, "post-run actions for %s completed", class)
				return nil
			},
			OnStopped: func() error {
				w.event(ctx, groupID, class.String(), true, "stopped-run actions for %s completed", class)
				return nil
			},
		}
	}

	return &monitor.Monitor{
		OutboxDir: common.TempoOutboxDir(),
		ErrorDir:  common.TempoErrorDir(),
		RunsRoot:  common.TempoRunsRootDir(),
		Interval:  common.PollInterval(),
		Logger:    w.Logger,
		Notify: func(isError bool, msg string) {
			w.Logger.Printf("[%s] %s", groupID, msg)
			if w.Registry != nil {
				w.Registry.AddMessage(groupID, isError, msg)
			}
		},
		Transition: func(stage monitor.Stage, state monitor.State) {
			if w.Registry != nil {
				w.Registry.SetStage(groupID, stage.String(), string(state))
			}
			w.event(ctx, groupID, stage.String(), false, "stage is now %s", state)
		},
		Handlers: map[monitor.RunClass]monitor.Handler{
			monitor.StandardsRun1: handler(monitor.StandardsRun1),
			monitor.StandardsRun2: handler(monitor.StandardsRun2),
			monitor.SourcesRun1:   handler(monitor.SourcesRun1),
		},
	}
}

func (w *Workflow) abort(ctx context.Context, groupID, exptDir string) {
	dest, err := monitor.AbortExperiment(exptDir, w.Conf.Common().ExptErrorDir(), groupID, w.now())
	if err != nil {
		w.event(ctx, groupID, "abort", true, "aborting the experiment: %s", err)
		return
	}
	w.event(ctx, groupID, "abort", true, "experiment aborted, directory moved to %s", dest)
}

// plateSummaries lists the deck plates for the status API, top of each
// stack first so the view matches what the operator sees.
func plateSummaries(group *plategroup.PlateGroup, layout transfer.StackLayout) []web.PlateSummary {
	summaries := []web.PlateSummary{}
	for i := len(group.Plates) - 1; 0 <= i; i-- {
		p := group.Plates[i]
		summaries = append(summaries, web.PlateSummary{
			Name:          transfer.SourcePlateName(p.Ordinal),
			Barcode:       p.Barcode,
			StackPosition: layout.SourcePosition(p.Ordinal),
		})
	}
	summaries = append(summaries, web.PlateSummary{
		Name:          transfer.StandardsPlateName,
		StackPosition: layout.StandardsPosition,
	})
	for n := 1; n <= group.BlackPlatesRequired(); n++ {
		summaries = append(summaries, web.PlateSummary{
			Name:          transfer.BlackPlateName(n),
			StackPosition: layout.BlackPosition(n),
		})
	}
	return summaries
}

func copyFile(dest, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return xerrors.Wrap(err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return xerrors.Wrap(err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return xerrors.Wrap(err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return xerrors.Wrap(err)
	}
	return nil
}
