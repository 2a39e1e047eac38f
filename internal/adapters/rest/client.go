// Package rest implements the portal's backend boundary over the REST API.
// It normalizes the backend's response envelope into port-level results and
// keeps the error taxonomy intact: step-up requirements are a result branch,
// credential failures carry the backend's message, and transport trouble
// collapses into domain.ErrUnavailable.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every backend call. The source portal had no timeout
// at all; this default is the decided gap-fill, overridable via Config.
const DefaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Config struct {
	// BaseURL is the backend origin, e.g. "http://localhost:8090".
	BaseURL string
	// Timeout applies per request; zero means DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the transport when set; Timeout is ignored then.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("rest: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("rest: parse base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger: logger.With(
			"service", "digiplot-portal",
			"module", "rest",
			"layer", "adapter",
		),
	}, nil
}

// envelope mirrors the backend's normalized response shape.
type envelope struct {
	Success     bool            `json:"success"`
	Requires2FA bool            `json:"requires2FA"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
}

// do performs one JSON round trip. A nil error with a non-nil envelope means
// the backend answered something parseable; HTTP status mapping is left to
// the operation because the same status carries different meaning per call.
func (c *Client) do(ctx context.Context, method, path, token string, body any) (*envelope, int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("rest: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("rest: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			"operation", "http_request",
			"outcome", "failure",
			"method", method,
			"path", path,
			"error", err,
		)
		return nil, 0, c.unavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, c.unavailable(err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("backend envelope unparseable",
				"operation", "http_request",
				"outcome", "failure",
				"method", method,
				"path", path,
				"status_code", resp.StatusCode,
				"error", err,
			)
			return nil, resp.StatusCode, c.unavailable(err)
		}
	}
	return &env, resp.StatusCode, nil
}
