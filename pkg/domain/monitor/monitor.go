package monitor

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scgcore/quantd/pkg/domain/rundef"
	xerrors "github.com/scgcore/quantd/pkg/errors"
	"github.com/scgcore/quantd/pkg/loop"
)

// State is where a supervised stage currently is. Exposed for status
// reporting; transitions are one-way except the per-run loop.
type State string

const (
	AwaitingDocumentAcceptance State = "AwaitingDocumentAcceptance"
	AwaitingRunIDs             State = "AwaitingRunIds"
	MonitoringRun              State = "MonitoringRun"
	StageComplete              State = "StageComplete"
	StageStopped               State = "StageStopped"
	Rejected                   State = "Rejected"
)

// Outcome is how a stage ended when no protocol error occurred.
type Outcome int

const (
	// Completed: every run of the stage reached Complete.
	Completed Outcome = iota

	// Stopped: the instrument software stopped a run; the stage will not
	// continue.
	Stopped
)

// Monitor supervises RunDef stages through the instrument software's
// filesystem protocol: the outbox and error drop directories, and the
// per-run state files under the runs root.
type Monitor struct {
	OutboxDir string
	ErrorDir  string
	RunsRoot  string

	// Interval is the poll cadence for every directory and state check.
	Interval time.Duration

	Logger *log.Logger

	// Notify receives operator-facing progress messages. Optional.
	Notify func(isError bool, msg string)

	// Transition receives state changes. Optional.
	Transition func(stage Stage, state State)

	// Handlers maps each run class to its terminal-state actions.
	Handlers map[RunClass]Handler
}

func (m *Monitor) notify(isError bool, format string, args ...any) {
	if m.Notify != nil {
		m.Notify(isError, fmt.Sprintf(format, args...))
	}
}

func (m *Monitor) transition(stage Stage, state State) {
	if m.Transition != nil {
		m.Transition(stage, state)
	}
}

// WatchStage supervises one submitted RunDef until the stage completes,
// stops, or fails.
//
// Protocol violations (rejection, run-id or run-count mismatch) come back
// as errors; the caller decides whether to abort the experiment. A Stopped
// run is not an error: it is the Stopped outcome.
func (m *Monitor) WatchStage(ctx context.Context, groupID string, stage Stage, filename string) (Outcome, error) {
	m.transition(stage, AwaitingDocumentAcceptance)
	processedPath, err := m.awaitProcessed(ctx, filename)
	if err != nil {
		if _, ok := err.(RejectedError); ok {
			m.transition(stage, Rejected)
		}
		return 0, err
	}

	m.transition(stage, AwaitingRunIDs)
	m.notify(false, "RunDef %s processed into the outbox, extracting run ids", filename)
	runIDs, err := m.extractRunIDs(processedPath, groupID, stage)
	if err != nil {
		return 0, err
	}

	classes := stage.RunClasses()
	for i, runID := range runIDs {
		m.transition(stage, MonitoringRun)
		outcome, err := m.watchRun(ctx, runID, classes[i])
		if err != nil {
			return 0, err
		}
		if outcome == Stopped {
			m.transition(stage, StageStopped)
			return Stopped, nil
		}
	}

	m.transition(stage, StageComplete)
	return Completed, nil
}

// awaitProcessed polls the error and outbox directories until the
// document shows up in one of them. The instrument software prefixes a
// timestamp in the outbox but keeps the name unchanged in the error
// directory, so both are matched by suffix.
func (m *Monitor) awaitProcessed(ctx context.Context, filename string) (string, error) {
	return loop.Start(ctx, "", func(_ context.Context, _ string) (string, loop.Next) {
		if name, found := m.findBySuffix(m.ErrorDir, filename); found {
			detail := m.readErrDetail(name)
			return "", loop.Break(RejectedError{Filename: filename, Detail: detail})
		}
		if name, found := m.findBySuffix(m.OutboxDir, filename); found {
			return filepath.Join(m.OutboxDir, name), loop.Break(nil)
		}
		m.notify(false, "Waiting for the RunDef %s to be processed", filename)
		return "", loop.Continue(m.Interval)
	})
}

// findBySuffix scans dir for an entry ending in suffix. Directory read
// errors are transient: logged and treated as not-found.
func (m *Monitor) findBySuffix(dir, suffix string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.Logger.Printf("transient: reading %s: %s", dir, err)
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			return e.Name(), true
		}
	}
	return "", false
}

// readErrDetail reads the .err file the instrument software writes next
// to a rejected document. Missing detail is not an error.
func (m *Monitor) readErrDetail(rejectedName string) string {
	raw, err := os.ReadFile(filepath.Join(m.ErrorDir, rejectedName+".err"))
	if err != nil {
		return ""
	}
	return string(raw)
}

func (m *Monitor) extractRunIDs(processedPath, groupID string, stage Stage) ([]string, error) {
	f, err := os.Open(processedPath)
	if err != nil {
		return nil, xerrors.Wrap(err)
	}
	defer f.Close()

	runs, err := rundef.ReadProcessedRuns(f)
	if err != nil {
		return nil, err
	}

	want := len(stage.RunClasses())
	if len(runs) != want {
		return nil, RunCountMismatchError{Stage: stage, Want: want, Got: len(runs)}
	}

	runIDs := make([]string, 0, len(runs))
	for _, run := range runs {
		if run.GroupID != groupID {
			return nil, RunIDMismatchError{
				GroupID: groupID,
				Found:   run.GroupID,
				RunID:   run.RunID,
				Reason:  "run belongs to another plate group",
			}
		}
		if run.RunID == "" || run.RunID == "0" {
			return nil, RunIDMismatchError{
				GroupID: groupID,
				Found:   run.GroupID,
				RunID:   run.RunID,
				Reason:  "run id is null or zero",
			}
		}
		runIDs = append(runIDs, run.RunID)
	}
	return runIDs, nil
}

// watchRun polls the run's state file until Complete or Stopped.
//
// An absent run directory or state file means the run has not started:
// keep polling. An unreadable or unparsable state file is transient:
// logged, state unchanged, retried next tick. The class's OnComplete
// fires exactly once, on the first observation of Complete.
func (m *Monitor) watchRun(ctx context.Context, runID string, class RunClass) (Outcome, error) {
	statePath := filepath.Join(m.RunsRoot, rundef.RunDirName(runID), rundef.RunFileName(runID))

	return loop.Start(ctx, Outcome(0), func(_ context.Context, o Outcome) (Outcome, loop.Next) {
		f, err := os.Open(statePath)
		if err != nil {
			if os.IsNotExist(err) {
				m.notify(false, "Waiting for the run file of run %s (%s) to appear", runID, class)
			} else {
				m.Logger.Printf("transient: opening %s: %s", statePath, err)
			}
			return o, loop.Continue(m.Interval)
		}
		state, err := rundef.ReadRunState(f)
		f.Close()
		if err != nil {
			m.Logger.Printf("transient: parsing %s: %s", statePath, err)
			return o, loop.Continue(m.Interval)
		}

		switch state {
		case rundef.StateComplete:
			if h, ok := m.Handlers[class]; ok && h.OnComplete != nil {
				if err := h.OnComplete(); err != nil {
					return o, loop.Break(err)
				}
			}
			m.notify(false, "Run %s (%s) is complete", runID, class)
			return Completed, loop.Break(nil)

		case rundef.StateStopped:
			if h, ok := m.Handlers[class]; ok && h.OnStopped != nil {
				if err := h.OnStopped(); err != nil {
					return o, loop.Break(err)
				}
			}
			m.notify(true, "Run %s (%s) was stopped by the instrument software", runID, class)
			return Stopped, loop.Break(nil)

		default:
			m.notify(false, "Run %s (%s) is %s", runID, class, state)
			return o, loop.Continue(m.Interval)
		}
	})
}
