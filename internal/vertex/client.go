// Package vertex is a minimal Vertex AI generateContent client for Gemini
// models, authenticated with Google application default credentials.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	defaultTimeout     = 30 * time.Second
	maxResponseBytes   = 1 << 20
)

// Sentinel errors.
var (
	// ErrMissingProject is returned when no GCP project is configured.
	ErrMissingProject = errors.New("missing GCP project (set GCP_PROJECT or GOOGLE_CLOUD_PROJECT)")

	// ErrCredentials is returned when application default credentials cannot
	// be resolved.
	ErrCredentials = errors.New("resolving google credentials")

	// ErrAPI is returned for non-2xx replies.
	ErrAPI = errors.New("vertex API error")
)

// Config identifies the model endpoint.
type Config struct {
	Project         string
	Location        string
	Model           string
	BaseURL         string        // defaults to the regional aiplatform endpoint
	Timeout         time.Duration // per request, defaults to 30s
	TokenCachePath  string        // optional on-disk token cache
	MaxOutputTokens int
	Temperature     float64
}

// Client calls generateContent on a single model.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource replaces application default credentials.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithHTTPClient sets the base HTTP client. Its transport is wrapped with
// bearer-token auth; its Timeout is kept when non-zero.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New initialises a client. It fails fast when the project is unset or
// credentials cannot be found, so callers can decide whether to run without a
// remote model. ctx is used for token refreshes and should outlive the client.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.Project == "" {
		return nil, ErrMissingProject
	}
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.Model == "" {
		return nil, errors.New("missing vertex model id")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", cfg.Location)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.tokens == nil {
		ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCredentials, err)
		}
		c.tokens = ts
	}
	if cfg.TokenCachePath != "" {
		c.tokens = CachedTokenSource(c.tokens, NewTokenCache(cfg.TokenCachePath))
	}
	c.tokens = oauth2.ReuseTokenSource(nil, c.tokens)

	base := c.httpClient
	if base == nil {
		base = &http.Client{}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := base.Timeout
	if timeout == 0 {
		timeout = cfg.Timeout
	}
	c.httpClient = &http.Client{
		Transport: &oauth2.Transport{Source: c.tokens, Base: transport},
		Timeout:   timeout,
	}

	c.endpoint = fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		cfg.BaseURL, cfg.Project, cfg.Location, cfg.Model)

	return c, nil
}

// Model returns the configured model id.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Generate sends a single-turn prompt and returns the raw reply.
func (c *Client) Generate(ctx context.Context, prompt string) (*Response, error) {
	body := generateRequest{
		Contents: []Content{{
			Role:  "user",
			Parts: []Part{{Text: prompt}},
		}},
	}
	if c.cfg.MaxOutputTokens > 0 || c.cfg.Temperature > 0 {
		body.GenerationConfig = &GenerationConfig{
			MaxOutputTokens: c.cfg.MaxOutputTokens,
			Temperature:     c.cfg.Temperature,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrAPI, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrAPI, resp.StatusCode)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
