package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"getaround-insights/internal/model"
	"getaround-insights/internal/parse"
)

// LoadRentals reads the delay analysis table. Spreadsheets (.xlsx) are read
// from their first sheet; anything else is treated as CSV.
func LoadRentals(path string) ([]model.Rental, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readSheet(path)
	default:
		rows, err = readCSVFile(path)
	}
	if err != nil {
		return nil, err
	}

	rentals, err := decodeRentals(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("rows", len(rentals)).Msg("rental table loaded")
	return rentals, nil
}

func readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

func decodeRentals(rows [][]string) ([]model.Rental, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
	}
	h := newHeader(rows[0])
	if err := h.require(model.CarIDColumn, model.CheckinTypeColumn, model.DelayAtCheckoutColumn, model.TimeDeltaColumn); err != nil {
		return nil, err
	}

	rentals := make([]model.Rental, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		r, err := decodeRental(h, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rentals = append(rentals, r)
	}
	return rentals, nil
}

func decodeRental(h header, row []string) (model.Rental, error) {
	var (
		r   model.Rental
		err error
	)
	if raw := h.cell(row, model.RentalIDColumn); !parse.IsMissing(raw) {
		if r.RentalID, err = parse.Int(raw); err != nil {
			return r, err
		}
	}
	if r.CarID, err = parse.Int(h.cell(row, model.CarIDColumn)); err != nil {
		return r, err
	}
	r.CheckinType = model.CheckinType(strings.ToLower(strings.TrimSpace(h.cell(row, model.CheckinTypeColumn))))
	r.State = strings.TrimSpace(h.cell(row, model.StateColumn))
	if r.DelayAtCheckout, err = parse.OptionalFloat(h.cell(row, model.DelayAtCheckoutColumn)); err != nil {
		return r, err
	}
	if r.PreviousEndedRentalID, err = parse.OptionalInt(h.cell(row, model.PreviousEndedRentalIDColumn)); err != nil {
		return r, err
	}
	if r.TimeDeltaWithPrevious, err = parse.OptionalFloat(h.cell(row, model.TimeDeltaColumn)); err != nil {
		return r, err
	}
	return r, nil
}
