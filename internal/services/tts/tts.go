package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"slidecast/internal/config"
)

// Format identifies the encoding of synthesized audio bytes.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
	// FormatPCM is raw signed 16-bit little-endian samples; SampleRate and
	// Channels describe the stream.
	FormatPCM Format = "pcm"
)

// Audio is the payload returned by a synthesis backend.
type Audio struct {
	Data       []byte
	Format     Format
	SampleRate int
	Channels   int
}

// Client converts note text into audio. Implementations are one synthesis
// backend each; selection is a configuration value, not a type hierarchy.
type Client interface {
	// Synthesize performs a single synthesis call. Rate-limit rejections are
	// reported as *RateLimitError so the retry wrapper can honor the server's
	// reset hint; every other error is terminal for the call.
	Synthesize(ctx context.Context, text string) (Audio, error)
	// Name identifies the backend in logs.
	Name() string
}

// RateLimitError reports a rate-limited synthesis call together with the
// wait the server asked for before the next attempt.
type RateLimitError struct {
	Wait   time.Duration
	Detail string
}

func (e *RateLimitError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("rate limited (retry in %s): %s", e.Wait, e.Detail)
	}
	return fmt.Sprintf("rate limited (retry in %s)", e.Wait)
}

// defaultResetWait applies when the rate-limit response carries no usable
// reset hint.
const defaultResetWait = time.Second

// ParseResetHint extracts a wait duration from a reset-time header value of
// the form "<seconds>s" (e.g. "2s", "12s"). Only the leading integer is
// read; anything unusable falls back to one second.
func ParseResetHint(value string) time.Duration {
	trimmed := strings.TrimSpace(value)
	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return defaultResetWait
	}
	seconds := 0
	for _, c := range trimmed[:digits] {
		seconds = seconds*10 + int(c-'0')
	}
	if seconds <= 0 {
		return defaultResetWait
	}
	return time.Duration(seconds) * time.Second
}

// NewFromConfig constructs the configured synthesis backend.
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch cfg.TTS.Engine {
	case "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:         cfg.TTS.APIKey,
			BaseURL:        cfg.TTS.BaseURL,
			Model:          cfg.TTS.Model,
			Voice:          cfg.TTS.Voice,
			TimeoutSeconds: cfg.TTS.TimeoutSeconds,
		})
	case "gemini":
		return NewGemini(GeminiConfig{
			APIKey: cfg.TTS.APIKey,
			Model:  cfg.TTS.GeminiModel,
			Voice:  cfg.TTS.Voice,
		})
	case "espeak":
		return NewEspeak(cfg.Tools.Espeak, cfg.TTS.Voice)
	default:
		return nil, fmt.Errorf("unknown tts engine %q", cfg.TTS.Engine)
	}
}
