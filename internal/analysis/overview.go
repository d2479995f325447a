package analysis

import (
	"math"

	"getaround-insights/internal/model"
	"getaround-insights/internal/stats"
)

// HeadRows is how many rows the overview previews.
const HeadRows = 5

// ColumnInfo is the per-column type and completeness line of the overview.
type ColumnInfo struct {
	Name           string  `json:"name"`
	Dtype          string  `json:"dtype"`
	NonNull        int     `json:"non_null"`
	MissingPercent float64 `json:"missing_percent"`
}

// Description is one column of the describe table. Numeric columns fill the
// moment and quantile fields, object columns fill Unique, Top and Freq.
type Description struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Unique *int     `json:"unique,omitempty"`
	Top    *string  `json:"top,omitempty"`
	Freq   *int     `json:"freq,omitempty"`
	Mean   *float64 `json:"mean,omitempty"`
	Std    *float64 `json:"std,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Q25    *float64 `json:"25%,omitempty"`
	Q50    *float64 `json:"50%,omitempty"`
	Q75    *float64 `json:"75%,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Overview describes the raw rental table before any derivation.
type Overview struct {
	Rows     int            `json:"rows"`
	Columns  int            `json:"columns"`
	Info     []ColumnInfo   `json:"info"`
	Head     []model.Rental `json:"head"`
	Describe []Description  `json:"describe"`
}

// rawColumn reads one source column; exactly one of number and text is set.
type rawColumn struct {
	name   string
	dtype  string
	number func(model.Rental) (float64, bool)
	text   func(model.Rental) (string, bool)
}

var rawColumns = []rawColumn{
	{name: model.RentalIDColumn, dtype: "int64", number: func(r model.Rental) (float64, bool) { return float64(r.RentalID), true }},
	{name: model.CarIDColumn, dtype: "int64", number: func(r model.Rental) (float64, bool) { return float64(r.CarID), true }},
	{name: model.CheckinTypeColumn, dtype: "object", text: func(r model.Rental) (string, bool) { return string(r.CheckinType), r.CheckinType != "" }},
	{name: model.StateColumn, dtype: "object", text: func(r model.Rental) (string, bool) { return r.State, r.State != "" }},
	{name: model.DelayAtCheckoutColumn, dtype: "float64", number: optionalFloat(func(r model.Rental) *float64 { return r.DelayAtCheckout })},
	{name: model.PreviousEndedRentalIDColumn, dtype: "float64", number: func(r model.Rental) (float64, bool) {
		if r.PreviousEndedRentalID == nil {
			return 0, false
		}
		return float64(*r.PreviousEndedRentalID), true
	}},
	{name: model.TimeDeltaColumn, dtype: "float64", number: optionalFloat(func(r model.Rental) *float64 { return r.TimeDeltaWithPrevious })},
}

func optionalFloat(get func(model.Rental) *float64) func(model.Rental) (float64, bool) {
	return func(r model.Rental) (float64, bool) {
		v := get(r)
		if v == nil {
			return 0, false
		}
		return *v, true
	}
}

// Describe builds the data overview of the raw rental table.
func Describe(rentals []model.Rental) Overview {
	ov := Overview{
		Rows:    len(rentals),
		Columns: len(rawColumns),
		Head:    rentals[:min(HeadRows, len(rentals))],
	}

	for _, col := range rawColumns {
		var (
			numbers []float64
			texts   []string
		)
		for _, r := range rentals {
			if col.number != nil {
				if v, ok := col.number(r); ok {
					numbers = append(numbers, v)
				}
				continue
			}
			if v, ok := col.text(r); ok {
				texts = append(texts, v)
			}
		}

		nonNull := len(numbers) + len(texts)
		info := ColumnInfo{Name: col.name, Dtype: col.dtype, NonNull: nonNull}
		if len(rentals) > 0 {
			info.MissingPercent = math.RoundToEven(100 * float64(len(rentals)-nonNull) / float64(len(rentals)))
		}
		ov.Info = append(ov.Info, info)

		if col.number != nil {
			ov.Describe = append(ov.Describe, describeNumbers(col.name, numbers))
		} else {
			ov.Describe = append(ov.Describe, describeTexts(col.name, texts))
		}
	}
	return ov
}

func describeNumbers(name string, x []float64) Description {
	d := Description{Column: name, Count: len(x)}
	if len(x) == 0 {
		return d
	}
	box := stats.Summarize(x)
	d.Mean = finite(stats.Mean(x))
	d.Std = finite(stats.StdDev(x))
	d.Min = finite(box.Min)
	d.Q25 = finite(box.Q1)
	d.Q50 = finite(box.Median)
	d.Q75 = finite(box.Q3)
	d.Max = finite(box.Max)
	return d
}

func describeTexts(name string, x []string) Description {
	d := Description{Column: name, Count: len(x)}
	shares := countShares(x)
	unique := len(shares)
	d.Unique = &unique
	if len(shares) > 0 {
		top, freq := shares[0].Label, shares[0].Count
		d.Top, d.Freq = &top, &freq
	}
	return d
}

// finite returns nil for NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
