// Package transfer computes the Echo liquid-transfer plans for one plate
// group: which well goes where, at what volume, and which stack position
// every plate occupies while it happens.
package transfer

import (
	"fmt"

	"github.com/scgcore/quantd/pkg/domain/plategroup"
	"github.com/scgcore/quantd/pkg/domain/standards"
)

// Plate naming as the instrument protocols know it. The names tie the
// transfer CSVs to the Echo templates referenced from the RunDef.
const (
	StandardsPlateName = "DNAQ_standards"

	PlateTypeSource        = "384PP_AQ_SP_High"
	PlateTypeStandardsDest = "384PP_Dest"
	PlateTypeBlack         = "Corning_384PS_Black"
)

// SourcePlateName is the Echo-facing name of source plate n.
func SourcePlateName(ordinal int) string {
	return fmt.Sprintf("DNAQ_source_%d", ordinal)
}

// BlackPlateName is the Echo-facing name of black plate n. Black plate
// N+1 (N = sources in the group) is the standards plate's read plate.
func BlackPlateName(n int) string {
	return fmt.Sprintf("DNAQ_black_%d", n)
}

// Row is one liquid-transfer instruction.
type Row struct {
	SourcePlateName string
	SourceBarcode   string
	SourcePlateType string
	SourceWell      string
	Volume          float64
	DestPlateName   string
	DestBarcode     string
	DestPlateType   string
	DestWell        string
}

// Plans holds the three ordered transfer plans of one plate group.
type Plans struct {
	// SourcesToPool: every sample/control well pooled into the plate's
	// pooling well on the standards plate.
	SourcesToPool []Row

	// SourcesToBlack: every sample/control well copied to the identical
	// coordinate on the plate's own black plate.
	SourcesToBlack []Row

	// StandardsToBlack: ladder wells then source pools, replicated onto
	// the standards black plate.
	StandardsToBlack []Row
}

// UnresolvedPoolPositionError reports a source plate ordinal the standards
// profile has no pooling well for.
type UnresolvedPoolPositionError struct {
	GroupID string
	Barcode string
	Ordinal int
}

func (e UnresolvedPoolPositionError) Error() string {
	return fmt.Sprintf(
		"plate group %s: no pooling position for source plate %d (barcode %s) in standards profile",
		e.GroupID, e.Ordinal, e.Barcode,
	)
}

// Plan computes the three transfer plans for the group.
//
// Row order is deterministic (group order, then layout order, then
// replicate structure) for traceability; it does not affect correctness.
func Plan(group *plategroup.PlateGroup, profile *standards.Profile) (*Plans, error) {
	plans := &Plans{}

	// 1. sources -> pooling wells on the standards plate
	for _, plate := range group.Plates {
		pool, ok := profile.Pool(plate.Ordinal)
		if !ok {
			return nil, UnresolvedPoolPositionError{
				GroupID: group.GroupID,
				Barcode: plate.Barcode,
				Ordinal: plate.Ordinal,
			}
		}
		for _, well := range plate.TransferWells() {
			plans.SourcesToPool = append(plans.SourcesToPool, Row{
				SourcePlateName: SourcePlateName(plate.Ordinal),
				SourceBarcode:   plate.Barcode,
				SourcePlateType: PlateTypeSource,
				SourceWell:      well.Position,
				Volume:          profile.VolSourceToPool,
				DestPlateName:   StandardsPlateName,
				DestPlateType:   PlateTypeStandardsDest,
				DestWell:        pool.PoolPosition,
			})
		}
	}

	// 2. sources -> black plates, each well keeps its coordinate
	for _, plate := range group.Plates {
		for _, well := range plate.TransferWells() {
			plans.SourcesToBlack = append(plans.SourcesToBlack, Row{
				SourcePlateName: SourcePlateName(plate.Ordinal),
				SourceBarcode:   plate.Barcode,
				SourcePlateType: PlateTypeSource,
				SourceWell:      well.Position,
				Volume:          profile.VolSourceToBlack,
				DestPlateName:   BlackPlateName(plate.Ordinal),
				DestPlateType:   PlateTypeBlack,
				DestWell:        well.Position,
			})
		}
	}

	// 3. standards plate -> its black plate: the ladder block first
	// (replicate-major), then the pools block (plate-major).
	standardsBlack := BlackPlateName(len(group.Plates) + 1)

	for rep := 0; rep < profile.LadderReplicates; rep++ {
		for _, ladder := range profile.Ladder {
			plans.StandardsToBlack = append(plans.StandardsToBlack, Row{
				SourcePlateName: StandardsPlateName,
				SourcePlateType: PlateTypeSource,
				SourceWell:      ladder.Position,
				Volume:          ladder.DispenseVolume,
				DestPlateName:   standardsBlack,
				DestPlateType:   PlateTypeBlack,
				DestWell:        ladder.BlackPlateWells[rep],
			})
		}
	}

	for _, plate := range group.Plates {
		pool, ok := profile.Pool(plate.Ordinal)
		if !ok {
			return nil, UnresolvedPoolPositionError{
				GroupID: group.GroupID,
				Barcode: plate.Barcode,
				Ordinal: plate.Ordinal,
			}
		}
		for rep := 0; rep < profile.PoolReplicates; rep++ {
			plans.StandardsToBlack = append(plans.StandardsToBlack, Row{
				SourcePlateName: StandardsPlateName,
				SourcePlateType: PlateTypeSource,
				SourceWell:      pool.PoolPosition,
				Volume:          profile.VolPoolToBlack,
				DestPlateName:   standardsBlack,
				DestPlateType:   PlateTypeBlack,
				DestWell:        pool.BlackPlateWells[rep],
			})
		}
	}

	return plans, nil
}
