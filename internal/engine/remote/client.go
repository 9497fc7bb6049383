// internal/engine/remote/client.go

// Package remote implements the engine boundary as a thin HTTP client against
// a hosted planning service. It carries instructions and page snapshots over
// the wire and returns the service's typed answers; no planning logic lives
// on this side of the connection.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pagepilot-ai/pagepilot/internal/config"
	"github.com/pagepilot-ai/pagepilot/internal/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to a hosted planning engine over HTTPS.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// errorBody is the service's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// New builds a remote engine client. The API key is mandatory: a missing key
// is a construction error so the caller can exit before opening a browser.
func New(cfg config.EngineConfig, model string, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("remote engine requires an API key (set PAGEPILOT_ENGINE_API_KEY)")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("remote engine requires an endpoint")
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    model,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		logger:   logger.Named("remote_engine"),
	}, nil
}

// PlanActions implements engine.Engine.
func (c *Client) PlanActions(ctx context.Context, req engine.PlanRequest) (*engine.Plan, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	var plan engine.Plan
	if err := c.post(ctx, "/plan", req, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// EvaluateCondition implements engine.Engine.
func (c *Client) EvaluateCondition(ctx context.Context, req engine.EvalRequest) (engine.Verdict, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	var verdict engine.Verdict
	if err := c.post(ctx, "/evaluate", req, &verdict); err != nil {
		return engine.Verdict{}, err
	}
	return verdict, nil
}

// ExtractValue implements engine.Engine.
func (c *Client) ExtractValue(ctx context.Context, req engine.ExtractRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	var resp struct {
		Value string `json:"value"`
	}
	if err := c.post(ctx, "/extract", req, &resp); err != nil {
		return "", err
	}
	return resp.Value, nil
}

// post serializes the payload, applies the call budget, and decodes the
// response into out.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for engine call budget: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding engine request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building engine request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calling engine %s: %w", path, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading engine response: %w", err)
	}

	c.logger.Debug("Engine call completed",
		zap.String("path", path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if httpResp.StatusCode != http.StatusOK {
		var envelope errorBody
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != "" {
			return fmt.Errorf("engine %s returned %d: %s", path, httpResp.StatusCode, envelope.Error)
		}
		return fmt.Errorf("engine %s returned unexpected status %d", path, httpResp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding engine response: %w", err)
	}
	return nil
}
