package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Predictor estimates whether a certificate image is genuine
type Predictor interface {
	Predict(ctx context.Context, in Input) (*Output, error)
	Health(ctx context.Context) error
}

// HTTPPredictor calls an external model service over JSON/HTTP
type HTTPPredictor struct {
	baseURL      string
	modelVersion string
	httpClient   *http.Client
}

func NewHTTPPredictor(baseURL, modelVersion string, timeout time.Duration) *HTTPPredictor {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPPredictor{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		modelVersion: modelVersion,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type predictError struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (p *HTTPPredictor) Predict(ctx context.Context, in Input) (*Output, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr predictError
		if json.Unmarshal(raw, &apiErr) == nil && (apiErr.Error != "" || apiErr.Detail != "") {
			return nil, fmt.Errorf("model service error (HTTP %d): %s%s", resp.StatusCode, apiErr.Error, apiErr.Detail)
		}
		return nil, fmt.Errorf("model service returned HTTP %d", resp.StatusCode)
	}

	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	if out.Probability < 0 || out.Probability > 1 {
		return nil, fmt.Errorf("model returned probability %.4f outside [0,1]", out.Probability)
	}
	if out.ModelVersion == "" {
		out.ModelVersion = p.modelVersion
	}
	return &out, nil
}

func (p *HTTPPredictor) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model service health check returned HTTP %d", resp.StatusCode)
	}
	return nil
}
