package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"getaround-insights/internal/model"
)

// MLflowClient talks to the MLflow tracking server REST API and to the
// serving endpoint of a deployed model.
type MLflowClient struct {
	trackingURI string
	servingURI  string
	client      *http.Client
}

// NewMLflowClient creates a client. servingURI is the base URL of the model
// server exposing /invocations.
func NewMLflowClient(trackingURI, servingURI string, client *http.Client) *MLflowClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &MLflowClient{
		trackingURI: strings.TrimRight(trackingURI, "/"),
		servingURI:  strings.TrimRight(servingURI, "/"),
		client:      client,
	}
}

// ModelVersion is one entry of a registered model's latest versions.
type ModelVersion struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Source       string `json:"source"`
	RunID        string `json:"run_id"`
	CurrentStage string `json:"current_stage"`
}

type registeredModelResponse struct {
	RegisteredModel struct {
		Name           string         `json:"name"`
		LatestVersions []ModelVersion `json:"latest_versions"`
	} `json:"registered_model"`
}

// LatestVersion returns the highest of the latest versions of a registered model.
func (m *MLflowClient) LatestVersion(ctx context.Context, name string) (ModelVersion, error) {
	endpoint := m.trackingURI + "/api/2.0/mlflow/registered-models/get?name=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ModelVersion{}, fmt.Errorf("failed to create request: %w", err)
	}

	var body registeredModelResponse
	if err := m.do(req, &body); err != nil {
		return ModelVersion{}, fmt.Errorf("failed to get registered model %q: %w", name, err)
	}

	versions := body.RegisteredModel.LatestVersions
	if len(versions) == 0 {
		return ModelVersion{}, fmt.Errorf("registered model %q has no versions", name)
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if versionNumber(v.Version) > versionNumber(best.Version) {
			best = v
		}
	}
	if best.Name == "" {
		best.Name = name
	}
	return best, nil
}

func versionNumber(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

// Load resolves the serving version of name and returns a predictor scoring
// against the serving endpoint, batchSize rows per request over workers
// concurrent requests.
func (m *MLflowClient) Load(ctx context.Context, name string, workers, batchSize int) (*RemoteModel, error) {
	v, err := m.LatestVersion(ctx, name)
	if err != nil {
		return nil, err
	}
	return &RemoteModel{client: m, version: v, pool: NewWorkerPool(workers, batchSize, m.Invoke)}, nil
}

type dataframeSplit struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

type invocationRequest struct {
	DataframeSplit dataframeSplit `json:"dataframe_split"`
}

// Invoke scores cars against the serving endpoint.
func (m *MLflowClient) Invoke(ctx context.Context, cars []model.Car) ([]float64, error) {
	payload := invocationRequest{DataframeSplit: dataframeSplit{
		Columns: make([]string, len(model.Columns)),
		Data:    make([][]any, len(cars)),
	}}
	for i, c := range model.Columns {
		payload.DataframeSplit.Columns[i] = string(c)
	}
	for i, c := range cars {
		payload.DataframeSplit.Data[i] = c.Row()
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invocation payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.servingURI+"/invocations", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var raw json.RawMessage
	if err := m.do(req, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoring, err)
	}
	predictions, err := decodePredictions(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoring, err)
	}
	if len(predictions) != len(cars) {
		return nil, fmt.Errorf("%w: got %d predictions for %d rows", ErrScoring, len(predictions), len(cars))
	}
	return predictions, nil
}

// decodePredictions accepts both the {"predictions": [...]} envelope of
// MLflow 2 and the bare list returned by older servers.
func decodePredictions(raw json.RawMessage) ([]float64, error) {
	var envelope struct {
		Predictions []float64 `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Predictions != nil {
		return envelope.Predictions, nil
	}
	var list []float64
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal predictions: %w", err)
	}
	return list, nil
}

func (m *MLflowClient) do(req *http.Request, out any) error {
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// RemoteModel is a registered model version scored over HTTP.
type RemoteModel struct {
	client  *MLflowClient
	version ModelVersion
	pool    *WorkerPool
}

func (r *RemoteModel) Predict(ctx context.Context, cars []model.Car) ([]float64, error) {
	if len(cars) == 0 {
		return []float64{}, nil
	}
	return r.pool.Predict(ctx, cars)
}

func (r *RemoteModel) Info() Info {
	return Info{
		Name:        r.version.Name,
		Version:     r.version.Version,
		ArtifactURI: r.version.Source,
		TrackingURI: r.client.trackingURI,
	}
}
