// Package plategroup parses and validates the LIMS plate-grouping document.
//
// The document describes the group of DNA source plates about to be
// quantified: a group id used as the correlation key for the whole
// experiment, and per plate a barcode, parameter tags and the well layout.
// Nothing downstream (transfer planning, RunDef generation, monitoring)
// runs until a group has passed validation here.
package plategroup

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// WellRole is the declared role of a well on a source plate.
type WellRole string

const (
	RoleSample  WellRole = "SAMPLE"
	RoleControl WellRole = "CONTROL"
	RoleEmpty   WellRole = "EMPTY"
)

func (r WellRole) String() string {
	return string(r)
}

// Transferred reports whether wells with this role take part in the
// liquid transfers. Only samples and controls are picked by the Echo.
func (r WellRole) Transferred() bool {
	return r == RoleSample || r == RoleControl
}

// Well is one well of a source plate. Immutable once parsed.
type Well struct {
	Position string
	Role     WellRole
}

// SourcePlate is one DNA source plate within a group.
type SourcePlate struct {
	// Ordinal is the 1-based index of the plate within the group.
	// It is also the plate's position in stack loading order.
	Ordinal int

	Barcode          string
	LibraryPrepTag   string
	StandardsTag     string
	Wells            []Well
	SampleWellCount  int
	ControlWellCount int
}

// TransferWells returns the wells taking part in transfers, in layout order.
func (p *SourcePlate) TransferWells() []Well {
	picked := make([]Well, 0, len(p.Wells))
	for _, w := range p.Wells {
		if w.Role.Transferred() {
			picked = append(picked, w)
		}
	}
	return picked
}

// PlateGroup is the validated content of one plate-grouping document.
type PlateGroup struct {
	// GroupID is the LIMS plate group id, used as the experiment
	// correlation key throughout the workflow.
	GroupID string

	// Plates in ordinal (stack loading) order.
	Plates []SourcePlate

	// StandardsType is the single standards type all plates agreed on.
	StandardsType string
}

// BlackPlatesRequired is how many black (read) plates this group needs:
// one per source plate plus one for the standards intermediate plate.
func (g *PlateGroup) BlackPlatesRequired() int {
	return len(g.Plates) + 1
}

// Plate returns the source plate with the given 1-based ordinal.
func (g *PlateGroup) Plate(ordinal int) (*SourcePlate, bool) {
	if ordinal < 1 || len(g.Plates) < ordinal {
		return nil, false
	}
	return &g.Plates[ordinal-1], true
}

// ErrMissingField reports that a required top-level field is absent.
type ErrMissingField struct {
	Field string
}

func (e ErrMissingField) Error() string {
	return fmt.Sprintf("plate grouping document: required field %s is missing", e.Field)
}

// ErrEmptyGroup reports a document whose plate list holds no plates.
type ErrEmptyGroup struct {
	GroupID string
}

func (e ErrEmptyGroup) Error() string {
	return fmt.Sprintf("plate group %s: no plates in group", e.GroupID)
}

// UnsupportedStandardsTypeError reports a plate declaring a standards type
// quantd has no standards configuration for.
type UnsupportedStandardsTypeError struct {
	GroupID       string
	Barcode       string
	StandardsType string
	Supported     []string
}

func (e UnsupportedStandardsTypeError) Error() string {
	return fmt.Sprintf(
		"plate group %s: plate %s declares standards type %q, not one of the supported set %v",
		e.GroupID, e.Barcode, e.StandardsType, e.Supported,
	)
}

// MixedStandardsTypeError reports a group whose plates do not agree on a
// single standards type.
type MixedStandardsTypeError struct {
	GroupID string
	Types   []string
}

func (e MixedStandardsTypeError) Error() string {
	return fmt.Sprintf(
		"plate group %s: plates reference %d standards types %v, exactly one is required",
		e.GroupID, len(e.Types), e.Types,
	)
}

// document mirrors the LIMS wire format. PLATES is an object keyed by the
// 1-based plate ordinal as a string ("1", "2", ...).
type document struct {
	GroupID *string                  `json:"LIMS_PLATE_GROUP_ID"`
	Plates  map[string]documentPlate `json:"PLATES"`
}

type documentPlate struct {
	Barcode           string         `json:"BARCODE"`
	LibraryPrepParams string         `json:"LIBRARY_PREP_PARAMS"`
	StandardsParams   string         `json:"STANDARDS_PARAMS"`
	Wells             []documentWell `json:"WELLS"`
}

type documentWell struct {
	Position string `json:"POSITION"`
	Role     string `json:"ROLE"`
}

// Parse reads a plate-grouping document and validates it against the
// supported standards types.
//
// Errors are typed so callers can react: ErrMissingField, ErrEmptyGroup,
// UnsupportedStandardsTypeError, MixedStandardsTypeError. Parse has no
// side effects; it never touches the filesystem.
func Parse(raw []byte, supportedStandards []string) (*PlateGroup, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("plate grouping document is not valid JSON: %w", err)
	}

	if doc.GroupID == nil || *doc.GroupID == "" {
		return nil, ErrMissingField{Field: "LIMS_PLATE_GROUP_ID"}
	}
	if doc.Plates == nil {
		return nil, ErrMissingField{Field: "PLATES"}
	}

	groupID := *doc.GroupID
	if len(doc.Plates) == 0 {
		return nil, ErrEmptyGroup{GroupID: groupID}
	}

	supported := map[string]bool{}
	for _, s := range supportedStandards {
		supported[s] = true
	}

	plates := make([]SourcePlate, 0, len(doc.Plates))
	typesSeen := map[string]bool{}

	for ordinal := 1; ordinal <= len(doc.Plates); ordinal++ {
		dp, ok := doc.Plates[strconv.Itoa(ordinal)]
		if !ok {
			return nil, fmt.Errorf(
				"plate group %s: PLATES should be keyed 1..%d, key %d is missing",
				groupID, len(doc.Plates), ordinal,
			)
		}
		if dp.Barcode == "" {
			return nil, fmt.Errorf("plate group %s: plate %d has no barcode", groupID, ordinal)
		}

		if !supported[dp.StandardsParams] {
			return nil, UnsupportedStandardsTypeError{
				GroupID:       groupID,
				Barcode:       dp.Barcode,
				StandardsType: dp.StandardsParams,
				Supported:     supportedStandards,
			}
		}
		typesSeen[dp.StandardsParams] = true

		plate := SourcePlate{
			Ordinal:        ordinal,
			Barcode:        dp.Barcode,
			LibraryPrepTag: dp.LibraryPrepParams,
			StandardsTag:   dp.StandardsParams,
			Wells:          make([]Well, 0, len(dp.Wells)),
		}
		for _, dw := range dp.Wells {
			w := Well{Position: dw.Position, Role: WellRole(dw.Role)}
			switch w.Role {
			case RoleSample:
				plate.SampleWellCount++
			case RoleControl:
				plate.ControlWellCount++
			}
			plate.Wells = append(plate.Wells, w)
		}
		plates = append(plates, plate)
	}

	if len(typesSeen) != 1 {
		types := make([]string, 0, len(typesSeen))
		for t := range typesSeen {
			types = append(types, t)
		}
		sort.Strings(types)
		return nil, MixedStandardsTypeError{GroupID: groupID, Types: types}
	}

	var standardsType string
	for t := range typesSeen {
		standardsType = t
	}

	return &PlateGroup{
		GroupID:       groupID,
		Plates:        plates,
		StandardsType: standardsType,
	}, nil
}
