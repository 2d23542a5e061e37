package transfer_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/scgcore/quantd/pkg/domain/plategroup"
	"github.com/scgcore/quantd/pkg/domain/standards"
	"github.com/scgcore/quantd/pkg/domain/transfer"
	"github.com/scgcore/quantd/pkg/utils/try"
)

const planProfileYaml = `
version: 1.0
information:
    standardsPlateStackPosition: 4
kit:
    name: "AccuClear UHS"
ladder:
    numLadderWells: 2
    shearedDnaSizeKb: 0.45
    blackPlateReplicates: 2
    wells:
        "1":
            position: "A1"
            concentrationNgUl: 0.0
            dispenseVolumeNl: 1000
            blackPlateWells: ["A23", "A24"]
        "2":
            position: "B1"
            concentrationNgUl: 2.5
            dispenseVolumeNl: 800
            blackPlateWells: ["B23", "B24"]
pools:
    blackPlateReplicates: 2
    volSourceToPoolNl: 100
    volSourceToBlackNl: 50
    volPoolToBlackNl: 1000
    maxSources: 2
    sources:
        "1":
            poolPosition: "P1"
            blackPlateWells: ["P21", "P22"]
        "2":
            poolPosition: "P2"
            blackPlateWells: ["O21", "O22"]
`

const planGroupDoc = `{
	"LIMS_PLATE_GROUP_ID": "PG0100",
	"PLATES": {
		"1": {
			"BARCODE": "DN1", "STANDARDS_PARAMS": "SS2",
			"WELLS": [
				{"POSITION": "A1", "ROLE": "SAMPLE"},
				{"POSITION": "A2", "ROLE": "CONTROL"},
				{"POSITION": "A3", "ROLE": "EMPTY"}
			]
		},
		"2": {
			"BARCODE": "DN2", "STANDARDS_PARAMS": "SS2",
			"WELLS": [
				{"POSITION": "B1", "ROLE": "SAMPLE"}
			]
		}
	}
}`

func TestPlan(t *testing.T) {
	group := try.To(plategroup.Parse([]byte(planGroupDoc), []string{"SS2"})).OrFatal(t)
	profile := try.To(standards.Load("SS2", []byte(planProfileYaml))).OrFatal(t)

	t.Run("it plans the three transfer sets", func(t *testing.T) {
		plans, err := transfer.Plan(group, profile)
		if err != nil {
			t.Fatalf("failed to plan: %v", err)
		}

		// 3 transfer wells pooled, one row each
		if len(plans.SourcesToPool) != 3 {
			t.Fatalf("unmatch sources->pool rows: %d, expected 3", len(plans.SourcesToPool))
		}
		first := plans.SourcesToPool[0]
		if first.SourcePlateName != "DNAQ_source_1" ||
			first.SourceBarcode != "DN1" ||
			first.SourcePlateType != "384PP_AQ_SP_High" ||
			first.SourceWell != "A1" ||
			first.Volume != 100 ||
			first.DestPlateName != "DNAQ_standards" ||
			first.DestPlateType != "384PP_Dest" ||
			first.DestWell != "P1" {
			t.Errorf("unexpected first pooling row: %+v", first)
		}
		if plans.SourcesToPool[2].DestWell != "P2" {
			t.Errorf("plate 2 should pool into P2: %+v", plans.SourcesToPool[2])
		}

		// same wells copied to the per-plate black plates, same coordinates
		if len(plans.SourcesToBlack) != 3 {
			t.Fatalf("unmatch sources->black rows: %d, expected 3", len(plans.SourcesToBlack))
		}
		for _, row := range plans.SourcesToBlack {
			if row.SourceWell != row.DestWell {
				t.Errorf("black copy should keep the coordinate: %+v", row)
			}
		}
		if plans.SourcesToBlack[2].DestPlateName != "DNAQ_black_2" {
			t.Errorf("plate 2 should read on DNAQ_black_2: %+v", plans.SourcesToBlack[2])
		}

		// ladder: 2 wells x 2 replicates; pools: 2 plates x 2 replicates
		if len(plans.StandardsToBlack) != 8 {
			t.Fatalf("unmatch standards->black rows: %d, expected 8", len(plans.StandardsToBlack))
		}
		// ladder block is replicate-major: A1, B1, A1, B1
		ladderWells := []string{}
		for _, row := range plans.StandardsToBlack[:4] {
			ladderWells = append(ladderWells, row.SourceWell)
			if row.DestPlateName != "DNAQ_black_3" {
				t.Errorf("standards rows should target DNAQ_black_3: %+v", row)
			}
		}
		if strings.Join(ladderWells, ",") != "A1,B1,A1,B1" {
			t.Errorf("unmatch ladder block order: %v", ladderWells)
		}
		if plans.StandardsToBlack[1].Volume != 800 {
			t.Errorf("ladder rows should use the well's dispense volume: %+v", plans.StandardsToBlack[1])
		}
		// pool block is plate-major: P1, P1, P2, P2
		poolWells := []string{}
		for _, row := range plans.StandardsToBlack[4:] {
			poolWells = append(poolWells, row.SourceWell)
			if row.Volume != 1000 {
				t.Errorf("pool rows should use the pool->black volume: %+v", row)
			}
		}
		if strings.Join(poolWells, ",") != "P1,P1,P2,P2" {
			t.Errorf("unmatch pool block order: %v", poolWells)
		}
	})

	t.Run("it reports a source plate the profile has no pool for", func(t *testing.T) {
		bigGroup := try.To(plategroup.Parse([]byte(`{
			"LIMS_PLATE_GROUP_ID": "PG0101",
			"PLATES": {
				"1": {"BARCODE": "DN1", "STANDARDS_PARAMS": "SS2", "WELLS": []},
				"2": {"BARCODE": "DN2", "STANDARDS_PARAMS": "SS2", "WELLS": []},
				"3": {"BARCODE": "DN3", "STANDARDS_PARAMS": "SS2", "WELLS": []}
			}
		}`), []string{"SS2"})).OrFatal(t)

		_, err := transfer.Plan(bigGroup, profile)
		var unresolved transfer.UnresolvedPoolPositionError
		if !errors.As(err, &unresolved) {
			t.Fatalf("expected UnresolvedPoolPositionError, got: %v", err)
		}
		if unresolved.Ordinal != 3 || unresolved.Barcode != "DN3" {
			t.Errorf("unexpected error detail: %+v", unresolved)
		}
	})
}

func TestWriteCSV(t *testing.T) {

	t.Run("it writes the fixed Echo cherry-pick header and rows", func(t *testing.T) {
		buf := bytes.Buffer{}
		err := transfer.WriteCSV(&buf, []transfer.Row{
			{
				SourcePlateName: "DNAQ_source_1",
				SourceBarcode:   "DN1",
				SourcePlateType: "384PP_AQ_SP_High",
				SourceWell:      "A1",
				Volume:          100,
				DestPlateName:   "DNAQ_standards",
				DestPlateType:   "384PP_Dest",
				DestWell:        "P1",
			},
			{
				SourcePlateName: "DNAQ_standards",
				SourcePlateType: "384PP_AQ_SP_High",
				SourceWell:      "A1",
				Volume:          12.5,
				DestPlateName:   "DNAQ_black_3",
				DestPlateType:   "Corning_384PS_Black",
				DestWell:        "A23",
			},
		})
		if err != nil {
			t.Fatalf("failed to write csv: %v", err)
		}

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("unmatch line count: %d, expected 3", len(lines))
		}
		expectedHeader := "Source Plate Name,Source Plate Barcode,Source Plate Type,Source Well,Transfer Volume,Destination Plate Name,Destination Plate Barcode,Destination Plate Type,Destination well"
		if lines[0] != expectedHeader {
			t.Errorf("unmatch header:\n%s\nexpected:\n%s", lines[0], expectedHeader)
		}
		if lines[1] != "DNAQ_source_1,DN1,384PP_AQ_SP_High,A1,100,DNAQ_standards,,384PP_Dest,P1" {
			t.Errorf("unmatch row 1: %s", lines[1])
		}
		if lines[2] != "DNAQ_standards,,384PP_AQ_SP_High,A1,12.5,DNAQ_black_3,,Corning_384PS_Black,A23" {
			t.Errorf("unmatch row 2: %s", lines[2])
		}
	})
}
