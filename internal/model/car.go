package model

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownColumn is returned when a column name is not part of the pricing schema.
var ErrUnknownColumn = errors.New("unknown column")

// Column is one of the permitted pricing table columns.
type Column string

const (
	ColModelKey            Column = "model_key"
	ColMileage             Column = "mileage"
	ColEnginePower         Column = "engine_power"
	ColFuel                Column = "fuel"
	ColPaintColor          Column = "paint_color"
	ColCarType             Column = "car_type"
	ColPrivateParking      Column = "private_parking_available"
	ColHasGPS              Column = "has_gps"
	ColHasAirConditioning  Column = "has_air_conditioning"
	ColAutomaticCar        Column = "automatic_car"
	ColHasGetaroundConnect Column = "has_getaround_connect"
	ColHasSpeedRegulator   Column = "has_speed_regulator"
	ColWinterTires         Column = "winter_tires"
)

// RentalPricePerDayColumn is the training target; it is never served.
const RentalPricePerDayColumn = "rental_price_per_day"

// Columns lists the feature columns in the order the model was trained on.
var Columns = []Column{
	ColModelKey,
	ColMileage,
	ColEnginePower,
	ColFuel,
	ColPaintColor,
	ColCarType,
	ColPrivateParking,
	ColHasGPS,
	ColHasAirConditioning,
	ColAutomaticCar,
	ColHasGetaroundConnect,
	ColHasSpeedRegulator,
	ColWinterTires,
}

// Kind classifies a column by the type of its values.
type Kind int

const (
	KindCategorical Kind = iota
	KindNumeric
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	}
	return "unknown"
}

// Kind reports the value kind of the column.
func (c Column) Kind() Kind {
	switch c {
	case ColModelKey, ColFuel, ColPaintColor, ColCarType:
		return KindCategorical
	case ColMileage, ColEnginePower:
		return KindNumeric
	}
	return KindBoolean
}

// ParseColumn checks name against the permitted column set.
func ParseColumn(name string) (Column, error) {
	for _, c := range Columns {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownColumn, name)
}

// Car holds the characteristics of a car listed for rent. It is both a row of
// the pricing table and the input of a price prediction.
type Car struct {
	ModelKey                string  `json:"model_key"`
	Mileage                 float64 `json:"mileage"`
	EnginePower             float64 `json:"engine_power"`
	Fuel                    string  `json:"fuel"`
	PaintColor              string  `json:"paint_color"`
	CarType                 string  `json:"car_type"`
	PrivateParkingAvailable bool    `json:"private_parking_available"`
	HasGPS                  bool    `json:"has_gps"`
	HasAirConditioning      bool    `json:"has_air_conditioning"`
	AutomaticCar            bool    `json:"automatic_car"`
	HasGetaroundConnect     bool    `json:"has_getaround_connect"`
	HasSpeedRegulator       bool    `json:"has_speed_regulator"`
	WinterTires             bool    `json:"winter_tires"`
}

// Value returns the cell of the given column: a string for categorical
// columns, a float64 for numeric ones and a bool for flags.
func (c Car) Value(col Column) any {
	switch col {
	case ColModelKey:
		return c.ModelKey
	case ColMileage:
		return c.Mileage
	case ColEnginePower:
		return c.EnginePower
	case ColFuel:
		return c.Fuel
	case ColPaintColor:
		return c.PaintColor
	case ColCarType:
		return c.CarType
	case ColPrivateParking:
		return c.PrivateParkingAvailable
	case ColHasGPS:
		return c.HasGPS
	case ColHasAirConditioning:
		return c.HasAirConditioning
	case ColAutomaticCar:
		return c.AutomaticCar
	case ColHasGetaroundConnect:
		return c.HasGetaroundConnect
	case ColHasSpeedRegulator:
		return c.HasSpeedRegulator
	case ColWinterTires:
		return c.WinterTires
	}
	return nil
}

// Number returns the cell as a float64; flags count as 0 or 1.
// ok is false for categorical columns.
func (c Car) Number(col Column) (v float64, ok bool) {
	switch x := c.Value(col).(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Text returns the cell formatted the way it is compared against category filters.
func (c Car) Text(col Column) string {
	switch x := c.Value(col).(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// Row returns the cells in schema order.
func (c Car) Row() []any {
	row := make([]any, len(Columns))
	for i, col := range Columns {
		row[i] = c.Value(col)
	}
	return row
}
