package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"getaround-insights/internal/model"
	"getaround-insights/internal/parse"
)

// LoadPricing reads the pricing table. The training target and any index
// column are dropped; only the feature columns are kept.
func LoadPricing(path string) ([]model.Car, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cars, err := DecodeCars(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("rows", len(cars)).Msg("pricing table loaded")
	return cars, nil
}

// DecodeCars reads CSV rows holding the feature columns. Columns outside the
// schema are ignored; a missing feature column is an ErrMissingColumn.
func DecodeCars(r io.Reader) ([]model.Car, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	h := newHeader(first)
	names := make([]string, len(model.Columns))
	for i, c := range model.Columns {
		names[i] = string(c)
	}
	if err := h.require(names...); err != nil {
		return nil, err
	}

	var cars []model.Car
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		car, err := decodeCar(h, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		cars = append(cars, car)
	}
	return cars, nil
}

func decodeCar(h header, row []string) (model.Car, error) {
	car := model.Car{
		ModelKey:   h.cell(row, string(model.ColModelKey)),
		Fuel:       h.cell(row, string(model.ColFuel)),
		PaintColor: h.cell(row, string(model.ColPaintColor)),
		CarType:    h.cell(row, string(model.ColCarType)),
	}

	numbers := []struct {
		col model.Column
		dst *float64
	}{
		{model.ColMileage, &car.Mileage},
		{model.ColEnginePower, &car.EnginePower},
	}
	for _, n := range numbers {
		v, err := parse.Float(h.cell(row, string(n.col)))
		if err != nil {
			return car, fmt.Errorf("%s: %w", n.col, err)
		}
		*n.dst = v
	}

	flags := []struct {
		col model.Column
		dst *bool
	}{
		{model.ColPrivateParking, &car.PrivateParkingAvailable},
		{model.ColHasGPS, &car.HasGPS},
		{model.ColHasAirConditioning, &car.HasAirConditioning},
		{model.ColAutomaticCar, &car.AutomaticCar},
		{model.ColHasGetaroundConnect, &car.HasGetaroundConnect},
		{model.ColHasSpeedRegulator, &car.HasSpeedRegulator},
		{model.ColWinterTires, &car.WinterTires},
	}
	for _, f := range flags {
		v, err := parse.Bool(h.cell(row, string(f.col)))
		if err != nil {
			return car, fmt.Errorf("%s: %w", f.col, err)
		}
		*f.dst = v
	}
	return car, nil
}
