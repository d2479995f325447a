// Package predictor scores cars with the rental price regression model,
// either a linear model read from disk or a model registered in MLflow.
package predictor

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"getaround-insights/config"
	"getaround-insights/internal/model"
)

// ErrScoring is returned when the model could not produce predictions.
var ErrScoring = errors.New("model scoring failed")

// Info identifies the model that serves predictions.
type Info struct {
	Name        string `json:"model_name"`
	Version     string `json:"model_version"`
	ArtifactURI string `json:"mlflow_artifact_uri"`
	TrackingURI string `json:"mlflow_tracking_uri"`
}

// Predictor scores cars. Predictions are aligned with the input order and a
// failure yields no partial result.
type Predictor interface {
	Predict(ctx context.Context, cars []model.Car) ([]float64, error)
	Info() Info
}

// New resolves the configured model once. A local path takes precedence over
// the registry.
func New(ctx context.Context, cfg config.ModelConfig) (Predictor, error) {
	if cfg.LocalPath != "" {
		m, err := LoadLinear(cfg.LocalPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.LocalPath).Str("version", m.Version).Msg("loaded local linear model")
		return m, nil
	}

	client := NewMLflowClient(cfg.TrackingURI, cfg.ServingURI, &http.Client{Timeout: cfg.Timeout})
	p, err := client.Load(ctx, cfg.Name, cfg.Workers, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	info := p.Info()
	log.Info().Str("model", info.Name).Str("version", info.Version).Str("source", info.ArtifactURI).Msg("resolved registered model")
	return p, nil
}
