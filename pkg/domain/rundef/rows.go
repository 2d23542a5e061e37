// Package rundef builds the Tempo RunDef control documents and reads the
// documents Tempo produces back: the processed RunDef (carrying assigned
// run ids) and the per-run state file.
//
// A RunDef is generated by literal token substitution over a site-managed
// template. The dynamic parts are blocks of <Plate .../> descriptor rows
// and plate-storage rows; their wire format is fixed by the instrument
// software and reproduced here attribute for attribute.
package rundef

import (
	"fmt"
	"strings"

	"github.com/scgcore/quantd/pkg/domain/plategroup"
	"github.com/scgcore/quantd/pkg/domain/transfer"
)

// plate-storage ids come from fixed numbering pools: the standards plate
// has its own id, source plates count up from 1845 and black plates count
// down from 1880.
const (
	storageIDStandards   = 1844
	storageIDSourcesBase = 1845
	storageIDBlackBase   = 1880
)

func sourceDescriptorRow(echoID int, plateNum int, barcode string, stackPos int) string {
	num := fmt.Sprintf("%02d", plateNum)
	return fmt.Sprintf(
		"\t\t<Plate EchoPlateID=\"%d\" PlateName=\"DNAQ_source_%s\" PlateType=\"384PP\" Barcode=\"%s\" LidType=\"\" PlateCategory=\"Source\" "+
			"LocationURL=\"deck://Deck/1/%d/\" FinalLocation=\"deck://Deck/1/%d/\" PlateAccess=\"Sequential\" PreRunActionSetName=\"Source\" RunActionSetName=\"Source\" "+
			"PostRunActionSetName=\"Source\" StorageDeviceSetName=\"\" EchoTemplate=\"DNAQ_source_%s\" />\n",
		echoID, num, barcode, stackPos, stackPos, num,
	)
}

func blackDescriptorRow(echoID int, plateNum int, stackPos int) string {
	num := fmt.Sprintf("%02d", plateNum)
	return fmt.Sprintf(
		"\t\t<Plate EchoPlateID=\"%d\" PlateName=\"DNAQ_black_%s\" PlateType=\"Corning_384PS_Black\" Barcode=\"\" LidType=\"\" PlateCategory=\"Destination\" "+
			"LocationURL=\"deck://Deck/4/%d/\" FinalLocation=\"deck://Deck/3/*/\" PlateAccess=\"Sequential\" PreRunActionSetName=\"Destination\" RunActionSetName=\"Destination\" "+
			"PostRunActionSetName=\"Destination\" StorageDeviceSetName=\"\" EchoTemplate=\"DNAQ_black_%s\" />\n",
		echoID, num, stackPos, num,
	)
}

func standardsDescriptorRow(echoID int, category string, plateType string, stackPos int) string {
	return fmt.Sprintf(
		"\t\t<Plate EchoPlateID=\"%d\" PlateName=\"DNAQ_standards\" PlateType=\"%s\" Barcode=\"\" LidType=\"\" PlateCategory=\"%s\" "+
			"LocationURL=\"deck://Deck/1/%d/\" FinalLocation=\"deck://Deck/1/%d/\" PlateAccess=\"Sequential\" PreRunActionSetName=\"%s\" RunActionSetName=\"%s\" "+
			"PostRunActionSetName=\"%s\" StorageDeviceSetName=\"\" EchoTemplate=\"DNAQ_standards\" />\n",
		echoID, plateType, category, stackPos, stackPos, category, category, category,
	)
}

// poolingRows describes the pooling run. The standards destination row
// comes right after the first source plate, then the remaining sources;
// the instrument keeps the destination in its drawer while sources cycle.
func poolingRows(group *plategroup.PlateGroup, layout transfer.StackLayout) string {
	var b strings.Builder
	for _, p := range group.Plates {
		b.WriteString(sourceDescriptorRow(p.Ordinal, p.Ordinal, p.Barcode, layout.SourcePosition(p.Ordinal)))
		if p.Ordinal == 1 {
			b.WriteString(standardsDescriptorRow(
				len(group.Plates)+1, "Destination", transfer.PlateTypeStandardsDest, layout.StandardsPosition,
			))
		}
	}
	return b.String()
}

// sourcesRows describes the sources-to-black run: source/black pairs, the
// black plates drawn LIFO from their stack.
func sourcesRows(group *plategroup.PlateGroup, layout transfer.StackLayout) string {
	var b strings.Builder
	n := len(group.Plates)
	for _, p := range group.Plates {
		b.WriteString(sourceDescriptorRow(p.Ordinal, p.Ordinal, p.Barcode, layout.SourcePosition(p.Ordinal)))
		b.WriteString(blackDescriptorRow(n+p.Ordinal, p.Ordinal, layout.BlackPosition(p.Ordinal)))
	}
	return b.String()
}

// standardsRows describes the standards-to-black run: the standards plate
// as source plus its own black plate (number N+1).
func standardsRows(group *plategroup.PlateGroup, layout transfer.StackLayout) string {
	var b strings.Builder
	blackNum := len(group.Plates) + 1
	b.WriteString(standardsDescriptorRow(1, "Source", "384PP", layout.StandardsPosition))
	b.WriteString(blackDescriptorRow(2, blackNum, layout.BlackPosition(blackNum)))
	return b.String()
}

// storage row wire format:
// PlateID,EchoPlateID,PlateName,PlateBarcode,PlateType,PlateCategory,LidType,
// Sealed,PlateStatus,OriginalLocation,FinalLocation,CurrentLocation,RunLocation,
// CurrentRotation,PlateRename,PlateState,LidLocation
// EchoPlateIDs are zero in storage rows.

func storageStandardsRow(layout transfer.StackLayout) string {
	p := layout.StandardsPosition
	return fmt.Sprintf(
		"%d,0,DNAQ_standards,,384PP_Dest,Destination,,False,Unknown,deck://Deck/1/%d/,deck://Deck/1/%d/,deck://Deck/1/%d/,,0,,Unknown,,\n",
		storageIDStandards, p, p, p,
	)
}

func storageSourcesRows(group *plategroup.PlateGroup, layout transfer.StackLayout) string {
	var b strings.Builder
	for _, p := range group.Plates {
		pos := layout.SourcePosition(p.Ordinal)
		fmt.Fprintf(&b,
			"%d,0,DNAQ_source_%d,%s,384PP,Source,,False,Unknown,deck://Deck/1/%d/,deck://Deck/1/%d/,deck://Deck/1/%d/,,0,,Unknown,,\n",
			storageIDSourcesBase+p.Ordinal-1, p.Ordinal, p.Barcode, pos, pos, pos,
		)
	}
	return b.String()
}

func storageBlackRows(layout transfer.StackLayout) string {
	var b strings.Builder
	// one row per loaded plate; names run top-down (LIFO), positions bottom-up.
	name := layout.BlackLoaded
	id := storageIDBlackBase
	for pos := 1; pos <= layout.BlackLoaded; pos++ {
		fmt.Fprintf(&b,
			"%d,0,DNAQ_black_%d,,Corning_384PS_Black,Destination,,False,Unknown,deck://Deck/4/%d/,deck://Deck/3/*/,deck://Deck/4/%d/,,0,,Unknown,,\n",
			id, name, pos, pos,
		)
		id--
		name--
	}
	return b.String()
}
