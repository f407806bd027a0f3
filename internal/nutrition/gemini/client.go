// Package gemini provides a client for the Gemini generateContent API with
// structured (schema-constrained) JSON output.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/nutriweek/nutriweek/internal/nutrition"
)

const (
	// ProviderName identifies this generation provider.
	ProviderName = "gemini"

	// DefaultBaseURL is the Generative Language API base URL.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the model used for all plan generation.
	DefaultModel = "gemini-3-flash-preview"

	// DefaultTimeout is the per-request timeout. Plan generation is slow;
	// the budget is generous compared to ordinary API clients.
	DefaultTimeout = 90 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Gemini client.
type ClientConfig struct {
	// APIKey is the Generative Language API key (required).
	APIKey string

	// BaseURL overrides the API base URL (optional).
	BaseURL string

	// Model overrides the model name (optional).
	Model string

	// HTTPClient overrides the HTTP client (optional).
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 90s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client calls the generateContent endpoint and returns the model's JSON
// document. It implements nutrition.Generator.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient HTTPDoer
	breaker    *gobreaker.CircuitBreaker[[]byte]
	metrics    *generationMetrics
	logger     zerolog.Logger
}

// NewClient creates a new Gemini client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	// The gateway retry ladder makes 6 attempts per user action. The
	// breaker must only open on sustained failure across actions, so the
	// threshold sits well above a single exhausted ladder.
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        ProviderName,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 12
		},
	})

	metrics, err := newGenerationMetrics()
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("generation metrics disabled")
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		breaker:    breaker,
		metrics:    metrics,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// BreakerState returns the current circuit breaker state, exposed through
// the ops status endpoint.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// generateContent request/response shapes.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string            `json:"responseMimeType"`
	ResponseSchema   *nutrition.Schema `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateJSON sends the instruction with a response schema and returns the
// raw JSON document produced by the model.
func (c *Client) GenerateJSON(ctx context.Context, instruction string, schema *nutrition.Schema) ([]byte, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: instruction}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	start := time.Now()
	out, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		c.logger.Debug().
			Str("model", c.model).
			Int("instruction_bytes", len(instruction)).
			Msg("requesting generation")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("calling generation api: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck // read-only body

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, upstreamError(resp.StatusCode, respBody)
		}

		var parsed generateResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("%w: %s", nutrition.ErrMalformedResponse, err.Error())
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("%w: empty candidates", nutrition.ErrMalformedResponse)
		}

		return []byte(parsed.Candidates[0].Content.Parts[0].Text), nil
	})
	c.metrics.record(c.model, time.Since(start), err)
	return out, err
}

// upstreamError maps a non-200 response to an UpstreamError, preserving the
// status code and message the retry policy classifies on.
func upstreamError(status int, body []byte) error {
	var parsed apiError
	message := http.StatusText(status)
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
		if parsed.Error.Status != "" {
			message = parsed.Error.Status + ": " + message
		}
	}
	return &nutrition.UpstreamError{StatusCode: status, Message: message}
}

// Ensure Client implements the generator interface.
var _ nutrition.Generator = (*Client)(nil)
