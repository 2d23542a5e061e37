package transfer

import "fmt"

// StackLayout computes where every plate of a group sits on the deck.
//
// Source plates occupy a contiguous range in their stack, first plate at
// the configured initial position, one step per plate in group order. The
// black plates live in their own stack and are consumed last-in-first-out,
// so black plate n (as numbered on its label and in the RunDef) sits at
// position loaded−n+1: the externally visible numbering runs opposite to
// the physical loading order.
type StackLayout struct {
	// SourcesInitial is the stack position of source plate 1.
	SourcesInitial int

	// StandardsPosition is the fixed deck position of the standards
	// plate, taken from the standards profile.
	StandardsPosition int

	// BlackLoaded is how many black plates the operator loaded.
	BlackLoaded int
}

// SourcePosition is the stack position of the source plate with the given
// 1-based ordinal.
func (l StackLayout) SourcePosition(ordinal int) int {
	return l.SourcesInitial + ordinal - 1
}

// BlackPosition is the stack position of black plate n (1-based, LIFO).
func (l StackLayout) BlackPosition(n int) int {
	return l.BlackLoaded - n + 1
}

// InsufficientBlackPlatesError reports fewer black plates loaded than the
// group needs (one per source plus one for the standards plate).
type InsufficientBlackPlatesError struct {
	GroupID  string
	Required int
	Loaded   int
}

func (e InsufficientBlackPlatesError) Error() string {
	return fmt.Sprintf(
		"plate group %s needs %d black plates (incl. standards), %d loaded",
		e.GroupID, e.Required, e.Loaded,
	)
}

// ValidateBlackPlateCount checks the operator-reported black plate count
// against what the group requires. This is a workflow precondition: the
// planner itself assumes it has been checked.
func ValidateBlackPlateCount(groupID string, required, loaded int) error {
	if loaded < required {
		return InsufficientBlackPlatesError{GroupID: groupID, Required: required, Loaded: loaded}
	}
	return nil
}
