package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"getaround-insights/internal/model"
)

// LinearModel is a regression exported as plain coefficients. Numeric and
// flag columns are multiplied by their weight; categorical columns are one-hot
// encoded, and a category absent from the table contributes nothing.
type LinearModel struct {
	Name       string                        `json:"name"`
	Version    string                        `json:"version"`
	Intercept  float64                       `json:"intercept"`
	Weights    map[string]float64            `json:"weights"`
	Categories map[string]map[string]float64 `json:"categories"`

	source string
	terms  []term
}

// term is the compiled contribution of one column. Terms are kept in schema
// order so every prediction sums in the same order.
type term struct {
	col    model.Column
	weight float64
	levels map[string]float64
}

// LoadLinear reads a linear model from a JSON file.
func LoadLinear(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model file %s: %w", path, err)
	}
	if err := m.compile(); err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", path, err)
	}

	m.source = path
	if abs, err := filepath.Abs(path); err == nil {
		m.source = "file://" + abs
	}
	return &m, nil
}

// compile checks the coefficient names against the pricing schema.
func (m *LinearModel) compile() error {
	for name := range m.Weights {
		col, err := model.ParseColumn(name)
		if err != nil {
			return err
		}
		if col.Kind() == model.KindCategorical {
			return fmt.Errorf("column %s is categorical and needs per-category weights", name)
		}
	}
	for name := range m.Categories {
		col, err := model.ParseColumn(name)
		if err != nil {
			return err
		}
		if col.Kind() != model.KindCategorical {
			return fmt.Errorf("column %s is not categorical", name)
		}
	}

	m.terms = m.terms[:0]
	for _, col := range model.Columns {
		if w, ok := m.Weights[string(col)]; ok {
			m.terms = append(m.terms, term{col: col, weight: w})
		}
		if levels, ok := m.Categories[string(col)]; ok {
			m.terms = append(m.terms, term{col: col, levels: levels})
		}
	}
	return nil
}

// Score returns the prediction for one car.
func (m *LinearModel) Score(c model.Car) float64 {
	y := m.Intercept
	for _, t := range m.terms {
		if t.levels != nil {
			y += t.levels[c.Text(t.col)]
			continue
		}
		x, _ := c.Number(t.col)
		y += t.weight * x
	}
	return y
}

func (m *LinearModel) Predict(ctx context.Context, cars []model.Car) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(cars))
	for i, c := range cars {
		out[i] = m.Score(c)
	}
	return out, nil
}

func (m *LinearModel) Info() Info {
	return Info{Name: m.Name, Version: m.Version, ArtifactURI: m.source}
}
