package store

import (
	"fmt"

	"getaround-insights/internal/model"
	"getaround-insights/internal/stats"
)

// Frame is a table returned by the query endpoints.
type Frame struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func newFrame(columns []model.Column) Frame {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = string(c)
	}
	return Frame{Columns: names, Rows: [][]any{}}
}

func carFrame(cars []model.Car) Frame {
	f := newFrame(model.Columns)
	for _, c := range cars {
		f.Rows = append(f.Rows, c.Row())
	}
	return f
}

// Method is the aggregation applied by GroupBy.
type Method string

const (
	MethodMean   Method = "mean"
	MethodMedian Method = "median"
	MethodMin    Method = "min"
	MethodMax    Method = "max"
	MethodSum    Method = "sum"
	MethodCount  Method = "count"
)

// DefaultMethod is used when a group by request names no method.
const DefaultMethod = MethodMean

var aggregations = map[Method]func([]float64) float64{
	MethodMean:   stats.Mean,
	MethodMedian: stats.Median,
	MethodMin:    stats.Min,
	MethodMax:    stats.Max,
	MethodSum:    stats.Sum,
	MethodCount:  func(x []float64) float64 { return float64(len(x)) },
}

// ParseMethod validates an aggregation name; the empty string selects DefaultMethod.
func ParseMethod(name string) (Method, error) {
	if name == "" {
		return DefaultMethod, nil
	}
	m := Method(name)
	if _, ok := aggregations[m]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownMethod, name)
	}
	return m, nil
}
