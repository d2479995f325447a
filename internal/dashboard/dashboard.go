// Package dashboard serves the rental delay insights and the price estimation
// form backed by the prediction service.
package dashboard

import (
	"context"

	"getaround-insights/internal/analysis"
	"getaround-insights/internal/model"
	"getaround-insights/internal/store"
)

// Estimator prices a single car.
type Estimator interface {
	Predict(ctx context.Context, car model.Car) (float64, error)
}

// Dashboard holds the tables loaded at startup and the views derived from
// them. Nothing is written after New returns.
type Dashboard struct {
	table        analysis.Table
	overview     analysis.Overview
	numerical    analysis.NumericalView
	categorical  analysis.CategoricalView
	inDepth      analysis.InDepthView
	priceOptions map[string][]any
	estimator    Estimator
}

// New derives every static view once.
func New(rentals []model.Rental, cars []model.Car, estimator Estimator) (*Dashboard, error) {
	table := analysis.Derive(rentals)
	options, err := priceOptions(store.New(cars))
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		table:        table,
		overview:     analysis.Describe(rentals),
		numerical:    analysis.Numerical(table),
		categorical:  analysis.Categorical(table),
		inDepth:      analysis.InDepth(table),
		priceOptions: options,
		estimator:    estimator,
	}, nil
}

// priceOptions lists the choices offered for each categorical feature.
func priceOptions(s store.Store) (map[string][]any, error) {
	options := make(map[string][]any)
	for _, col := range model.Columns {
		if col.Kind() != model.KindCategorical {
			continue
		}
		values, err := s.UniqueValues(string(col))
		if err != nil {
			return nil, err
		}
		options[string(col)] = values
	}
	return options, nil
}
