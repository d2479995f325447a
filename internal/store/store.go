// Package store answers the read-only queries of the prediction service over
// the pricing table loaded at startup.
package store

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"getaround-insights/internal/model"
	"getaround-insights/internal/stats"
)

var (
	// ErrUnknownColumn is returned for a column outside the pricing schema.
	ErrUnknownColumn = model.ErrUnknownColumn
	// ErrNotNumeric is returned when a numeric operation targets a text or flag column.
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrSampleTooLarge is returned when a preview asks for more rows than the table holds.
	ErrSampleTooLarge = errors.New("sample size out of range")
	// ErrUnknownMethod is returned for an aggregation outside the supported set.
	ErrUnknownMethod = errors.New("unknown aggregation method")
)

// Store defines the queries served over the pricing table.
type Store interface {
	Len() int
	Preview(rows int) (Frame, error)
	UniqueValues(column string) ([]any, error)
	Quantile(column string, percent float64, top bool) (Frame, error)
	GroupBy(column string, method Method) (Frame, error)
	FilterBy(column string, categories []string) (Frame, error)
}

// pricingStore implements Store over an in-memory slice. The slice is never
// written after construction, so concurrent queries need no locking.
type pricingStore struct {
	cars    []model.Car
	shuffle func(n int) []int
}

// Option customizes a store.
type Option func(*pricingStore)

// WithShuffle replaces the permutation used to sample previews.
func WithShuffle(shuffle func(n int) []int) Option {
	return func(s *pricingStore) {
		s.shuffle = shuffle
	}
}

// New creates a store over cars.
func New(cars []model.Car, opts ...Option) Store {
	s := &pricingStore{cars: cars, shuffle: rand.Perm}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *pricingStore) Len() int {
	return len(s.cars)
}

// Preview samples rows cars without replacement.
func (s *pricingStore) Preview(rows int) (Frame, error) {
	if rows < 0 || rows > len(s.cars) {
		return Frame{}, fmt.Errorf("%w: %d rows requested, table has %d", ErrSampleTooLarge, rows, len(s.cars))
	}
	perm := s.shuffle(len(s.cars))
	sample := make([]model.Car, rows)
	for i := range sample {
		sample[i] = s.cars[perm[i]]
	}
	return carFrame(sample), nil
}

// UniqueValues lists the distinct values of a column in first-seen order.
func (s *pricingStore) UniqueValues(column string) ([]any, error) {
	col, err := model.ParseColumn(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[any]struct{})
	values := []any{}
	for _, c := range s.cars {
		v := c.Value(col)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values, nil
}

// Quantile returns the rows strictly above the (1-percent) quantile when top
// is set, or strictly below the percent quantile otherwise.
func (s *pricingStore) Quantile(column string, percent float64, top bool) (Frame, error) {
	col, err := numericColumn(column)
	if err != nil {
		return Frame{}, err
	}
	values := make([]float64, len(s.cars))
	for i, c := range s.cars {
		values[i], _ = c.Number(col)
	}

	var selected []model.Car
	if top {
		cut := stats.Quantile(1-percent, values)
		for i, c := range s.cars {
			if values[i] > cut {
				selected = append(selected, c)
			}
		}
	} else {
		cut := stats.Quantile(percent, values)
		for i, c := range s.cars {
			if values[i] < cut {
				selected = append(selected, c)
			}
		}
	}
	return carFrame(selected), nil
}

type group struct {
	key  any
	cars []model.Car
}

// GroupBy aggregates the other columns per distinct value of column. Text
// columns only take part in a count.
func (s *pricingStore) GroupBy(column string, method Method) (Frame, error) {
	col, err := model.ParseColumn(column)
	if err != nil {
		return Frame{}, err
	}
	agg, ok := aggregations[method]
	if !ok {
		return Frame{}, fmt.Errorf("%w %q", ErrUnknownMethod, method)
	}

	targets := []model.Column{}
	for _, c := range model.Columns {
		if c == col {
			continue
		}
		if method == MethodCount || c.Kind() != model.KindCategorical {
			targets = append(targets, c)
		}
	}

	index := make(map[any]int)
	var groups []group
	for _, c := range s.cars {
		k := c.Value(col)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].cars = append(groups[i].cars, c)
	}
	slices.SortFunc(groups, func(a, b group) int { return compareKeys(a.key, b.key) })

	f := newFrame(append([]model.Column{col}, targets...))
	for _, g := range groups {
		row := []any{g.key}
		for _, t := range targets {
			values := make([]float64, len(g.cars))
			for i, c := range g.cars {
				values[i], _ = c.Number(t)
			}
			row = append(row, agg(values))
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

// FilterBy keeps the rows whose value, in text form, is one of categories.
// Flags compare case-insensitively so "True" matches true.
func (s *pricingStore) FilterBy(column string, categories []string) (Frame, error) {
	col, err := model.ParseColumn(column)
	if err != nil {
		return Frame{}, err
	}
	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if col.Kind() == model.KindBoolean {
			c = strings.ToLower(c)
		}
		wanted[c] = struct{}{}
	}

	var selected []model.Car
	for _, c := range s.cars {
		if _, ok := wanted[c.Text(col)]; ok {
			selected = append(selected, c)
		}
	}
	return carFrame(selected), nil
}

func numericColumn(name string) (model.Column, error) {
	col, err := model.ParseColumn(name)
	if err != nil {
		return "", err
	}
	if col.Kind() != model.KindNumeric {
		return "", fmt.Errorf("%w: %s", ErrNotNumeric, name)
	}
	return col, nil
}

// compareKeys orders group keys of the same column type; false sorts before true.
func compareKeys(a, b any) int {
	switch x := a.(type) {
	case string:
		return cmp.Compare(x, b.(string))
	case float64:
		return cmp.Compare(x, b.(float64))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	return 0
}
