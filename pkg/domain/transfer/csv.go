package transfer

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	xerrors "github.com/scgcore/quantd/pkg/errors"
)

// csvHeader is the fixed column set the Echo cherry-pick protocol expects.
// The casing of "Destination well" is what the instrument software ships
// with; keep it.
var csvHeader = []string{
	"Source Plate Name",
	"Source Plate Barcode",
	"Source Plate Type",
	"Source Well",
	"Transfer Volume",
	"Destination Plate Name",
	"Destination Plate Barcode",
	"Destination Plate Type",
	"Destination well",
}

// WriteCSV writes one transfer plan in the Echo cherry-pick CSV format.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return xerrors.Wrap(err)
	}
	for _, r := range rows {
		record := []string{
			r.SourcePlateName,
			r.SourceBarcode,
			r.SourcePlateType,
			r.SourceWell,
			strconv.FormatFloat(r.Volume, 'f', -1, 64),
			r.DestPlateName,
			r.DestBarcode,
			r.DestPlateType,
			r.DestWell,
		}
		if err := cw.Write(record); err != nil {
			return xerrors.Wrap(err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes one transfer plan to filepath, whole or not at all:
// on write error the partial file is removed.
func WriteCSVFile(filepath string, rows []Row) error {
	f, err := os.Create(filepath)
	if err != nil {
		return xerrors.Wrap(err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		os.Remove(filepath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(filepath)
		return xerrors.Wrap(err)
	}
	return nil
}
