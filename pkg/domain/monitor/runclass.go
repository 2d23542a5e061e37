// Package monitor supervises one submitted RunDef stage: it waits for the
// instrument software to accept or reject the document, extracts the
// assigned run ids, and follows each run's state file to completion.
package monitor

import "fmt"

// RunClass identifies which run of which stage is being supervised. The
// set is closed: post-run and stopped-run behaviour is looked up by class,
// never by matching names.
type RunClass int

const (
	// StandardsRun1 pools source wells into the standards plate.
	StandardsRun1 RunClass = iota

	// StandardsRun2 lays ladder and pools onto the standards black plate
	// and reads it.
	StandardsRun2

	// SourcesRun1 copies source wells to their black plates and reads them.
	SourcesRun1
)

func (c RunClass) String() string {
	switch c {
	case StandardsRun1:
		return "standards run 1"
	case StandardsRun2:
		return "standards run 2"
	case SourcesRun1:
		return "sources run 1"
	}
	return fmt.Sprintf("unknown run class %d", int(c))
}

// Stage is one RunDef submission. Each stage expects a fixed sequence of
// run classes in document order.
type Stage int

const (
	StageStandards Stage = 1
	StageSources   Stage = 2
)

func (s Stage) String() string {
	switch s {
	case StageStandards:
		return "standards"
	case StageSources:
		return "sources"
	}
	return fmt.Sprintf("unknown stage %d", int(s))
}

// RunClasses is the expected run sequence of the stage. Its length is the
// run count the processed RunDef must carry.
func (s Stage) RunClasses() []RunClass {
	switch s {
	case StageStandards:
		return []RunClass{StandardsRun1, StandardsRun2}
	case StageSources:
		return []RunClass{SourcesRun1}
	}
	return nil
}

// Handler holds the per-class actions fired on terminal run states.
// OnComplete runs exactly once per run, when Complete is first observed.
type Handler struct {
	OnComplete func() error
	OnStopped  func() error
}
