package transfer

import (
	"fmt"
	"strconv"
)

// PlateColumns is the column count of the supported 384-well plate format.
const PlateColumns = 24

// WellPosition is a parsed well coordinate: row letter + 1-based column.
type WellPosition struct {
	Row    byte
	Column int
}

func (w WellPosition) String() string {
	return string(w.Row) + strconv.Itoa(w.Column)
}

// ParseWellPosition parses coordinates like "A1" or "P24".
func ParseWellPosition(s string) (WellPosition, error) {
	if len(s) < 2 {
		return WellPosition{}, fmt.Errorf("well position %q is too short", s)
	}
	row := s[0]
	if row < 'A' || 'P' < row {
		return WellPosition{}, fmt.Errorf("well position %q: row should be A..P", s)
	}
	col, err := strconv.Atoi(s[1:])
	if err != nil || col < 1 || PlateColumns < col {
		return WellPosition{}, fmt.Errorf("well position %q: column should be 1..%d", s, PlateColumns)
	}
	return WellPosition{Row: row, Column: col}, nil
}

// PlateBoundaryError reports replicate arithmetic walking off the plate.
type PlateBoundaryError struct {
	Initial   WellPosition
	Replicate int
	Column    int
}

func (e PlateBoundaryError) Error() string {
	return fmt.Sprintf(
		"replicate %d of %s lands on column %d, beyond the plate's %d columns",
		e.Replicate, e.Initial, e.Column, PlateColumns,
	)
}

// ReplicateDestination computes the destination well of the i-th replicate
// (1-based) laid out along the row of the initial position: same row,
// column = initial column + (i - 1).
//
// Used when a profile encodes replicate destinations relatively instead of
// as explicit well lists. Fails rather than wraps when the column would
// pass the edge of the plate.
func ReplicateDestination(initial WellPosition, replicate int) (WellPosition, error) {
	if replicate < 1 {
		return WellPosition{}, fmt.Errorf("replicate index %d should be 1-based", replicate)
	}
	col := initial.Column + (replicate - 1)
	if PlateColumns < col {
		return WellPosition{}, PlateBoundaryError{
			Initial:   initial,
			Replicate: replicate,
			Column:    col,
		}
	}
	return WellPosition{Row: initial.Row, Column: col}, nil
}
