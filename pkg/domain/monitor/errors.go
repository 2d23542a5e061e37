package monitor

import (
	"fmt"
	"strings"
)

// RejectedError reports a RunDef the instrument software moved to its
// error directory. Detail carries the content of the sibling .err file
// when one exists.
type RejectedError struct {
	Filename string
	Detail   string
}

func (e RejectedError) Error() string {
	msg := fmt.Sprintf("RunDef %s was rejected", e.Filename)
	if e.Detail != "" {
		msg += ": " + strings.TrimSpace(e.Detail)
	}
	return msg
}

// RunIDMismatchError reports a processed RunDef whose runs do not belong
// to the supervised plate group, or carry a null/zero run id.
type RunIDMismatchError struct {
	GroupID string
	Found   string
	RunID   string
	Reason  string
}

func (e RunIDMismatchError) Error() string {
	return fmt.Sprintf(
		"processed RunDef for group %s: %s (reference %q, run id %q)",
		e.GroupID, e.Reason, e.Found, e.RunID,
	)
}

// RunCountMismatchError reports a processed RunDef with the wrong number
// of runs for its stage.
type RunCountMismatchError struct {
	Stage Stage
	Want  int
	Got   int
}

func (e RunCountMismatchError) Error() string {
	return fmt.Sprintf(
		"processed RunDef for %s stage: found %d runs, expected %d",
		e.Stage, e.Got, e.Want,
	)
}
