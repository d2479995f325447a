// Package apiclient calls the prediction service on behalf of the dashboard.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"getaround-insights/internal/model"
)

// ErrUpstream is returned when the prediction service answers with an error.
var ErrUpstream = errors.New("prediction service error")

// Client posts single-car estimates to the prediction service. It never retries.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	Prediction *float64 `json:"prediction"`
	Error      string   `json:"error"`
}

// Predict returns the rental price per day estimated for car.
func (c *Client) Predict(ctx context.Context, car model.Car) (float64, error) {
	jsonBody, err := json.Marshal(car)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewBuffer(jsonBody))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp predictResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal api response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if apiResp.Error != "" {
			return 0, fmt.Errorf("%w: %d: %s", ErrUpstream, resp.StatusCode, apiResp.Error)
		}
		return 0, fmt.Errorf("%w: received non-200 status code: %d", ErrUpstream, resp.StatusCode)
	}
	if apiResp.Prediction == nil {
		return 0, fmt.Errorf("%w: response carries no prediction", ErrUpstream)
	}

	return *apiResp.Prediction, nil
}
