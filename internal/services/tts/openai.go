package tts

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
)

const (
	defaultOpenAITimeout = 60 * time.Second
	// resetHintHeader carries the rate-limit reset time, e.g. "2s".
	resetHintHeader = "x-ratelimit-reset-requests"
)

// OpenAIConfig captures the runtime settings for the commercial speech API.
// The key is scoped to this client; it is never written into the process
// environment.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Voice          string
	TimeoutSeconds int
}

// OpenAIOption customizes the client.
type OpenAIOption func(*OpenAI)

// WithHTTPClient overrides the default HTTP client (used in tests).
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(c *OpenAI) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// OpenAI calls the OpenAI-compatible speech endpoint. One Synthesize call is
// one HTTP request; retrying on rate limits belongs to the Synthesizer
// wrapper, not this client.
type OpenAI struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAI constructs the commercial API backend.
func NewOpenAI(cfg OpenAIConfig, opts ...OpenAIOption) (*OpenAI, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Voice = strings.TrimSpace(cfg.Voice)
	if cfg.APIKey == "" {
		return nil, errors.New("tts api key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1/audio/speech"
	}
	timeout := defaultOpenAITimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &OpenAI{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the backend in logs.
func (c *OpenAI) Name() string { return "openai" }

type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

// Synthesize posts the text and returns the mp3 payload. A 429 response is
// converted into a *RateLimitError carrying the reset hint from the
// response headers.
func (c *OpenAI) Synthesize(ctx context.Context, text string) (Audio, error) {
	if strings.TrimSpace(text) == "" {
		return Audio{}, errors.New("tts synthesize: empty text")
	}

	encoded, err := json.Marshal(speechRequest{Model: c.cfg.Model, Voice: c.cfg.Voice, Input: text})
	if err != nil {
		return Audio{}, fmt.Errorf("tts request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return Audio{}, fmt.Errorf("tts request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Audio{}, fmt.Errorf("tts request: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Audio{}, &RateLimitError{
			Wait:   ParseResetHint(resp.Header.Get(resetHintHeader)),
			Detail: strings.TrimSpace(string(body)),
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Audio{}, fmt.Errorf("tts request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Audio{}, fmt.Errorf("tts request: read body: %w", err)
	}
	if len(data) == 0 {
		return Audio{}, errors.New("tts request: empty audio payload")
	}
	return Audio{Data: data, Format: FormatMP3}, nil
}
