package rundef

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	xerrors "github.com/scgcore/quantd/pkg/errors"
)

// ProcessedRun is one <Run> element of a RunDef that Tempo has accepted
// and written to its outbox, now carrying an assigned run id.
type ProcessedRun struct {
	RunID   string
	RunName string

	// GroupID and Stage come from the Definition's ReferenceID, which has
	// the form "<groupID>;<stageNumber>".
	GroupID string
	Stage   int
}

type processedRunsDoc struct {
	Runs []struct {
		RunID      string `xml:"RunID,attr"`
		RunName    string `xml:"RunName,attr"`
		Definition struct {
			ReferenceID string `xml:"ReferenceID"`
		} `xml:"Definition"`
	} `xml:"Run"`
}

// ReadProcessedRuns parses a processed RunDef document and returns its
// runs in document order. A ReferenceID not of the form
// "<groupID>;<stageNumber>" is an error.
func ReadProcessedRuns(r io.Reader) ([]ProcessedRun, error) {
	doc := processedRunsDoc{}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, xerrors.Wrap(err)
	}

	runs := make([]ProcessedRun, 0, len(doc.Runs))
	for _, rn := range doc.Runs {
		ref := rn.Definition.ReferenceID
		groupID, stageStr, found := strings.Cut(ref, ";")
		if !found || groupID == "" {
			return nil, xerrors.Wrap(fmt.Errorf(
				"run %q: ReferenceID %q is not of the form <groupID>;<stage>", rn.RunName, ref,
			))
		}
		stage, err := strconv.Atoi(stageStr)
		if err != nil {
			return nil, xerrors.Wrap(fmt.Errorf(
				"run %q: ReferenceID %q has non-numeric stage: %w", rn.RunName, ref, err,
			))
		}
		runs = append(runs, ProcessedRun{
			RunID:   rn.RunID,
			RunName: rn.RunName,
			GroupID: groupID,
			Stage:   stage,
		})
	}
	return runs, nil
}

// RunState is the protocol execution state Tempo reports in a run's
// .run file.
type RunState string

const (
	StatePending  RunState = "Pending"
	StateRunning  RunState = "Running"
	StatePaused   RunState = "Paused"
	StateComplete RunState = "Complete"
	StateAborting RunState = "Aborting"
	StateStopped  RunState = "Stopped"
	StateWaiting  RunState = "Waiting"
)

// Known reports whether s is one of the documented run states.
func (s RunState) Known() bool {
	switch s {
	case StatePending, StateRunning, StatePaused, StateComplete,
		StateAborting, StateStopped, StateWaiting:
		return true
	}
	return false
}

type runFileDoc struct {
	RunState string `xml:"RunState"`
}

// ReadRunState extracts the <RunState> of a .run file.
func ReadRunState(r io.Reader) (RunState, error) {
	doc := runFileDoc{}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return "", xerrors.Wrap(err)
	}
	state := RunState(doc.RunState)
	if !state.Known() {
		return "", xerrors.Wrap(fmt.Errorf("unrecognised RunState %q", doc.RunState))
	}
	return state, nil
}

// RunDirName is the per-run directory Tempo creates under its runs root.
func RunDirName(runID string) string {
	return "Run_" + runID
}

// RunFileName is the state file inside a run's directory.
func RunFileName(runID string) string {
	return RunDirName(runID) + ".run"
}
