package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiSampleRate is the PCM sample rate the Gemini speech models emit.
const geminiSampleRate = 24000

// GeminiConfig captures the settings for the cloud neural backend.
type GeminiConfig struct {
	APIKey string
	Model  string
	Voice  string
}

// Gemini synthesizes speech through Google's generative speech models. The
// response is raw 16-bit PCM; the narrate stage transcodes it before use.
type Gemini struct {
	cfg    GeminiConfig
	client *genai.Client
}

// NewGemini constructs the cloud neural backend.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Voice = strings.TrimSpace(cfg.Voice)
	if cfg.APIKey == "" {
		return nil, errors.New("tts api key required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-preview-tts"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("tts gemini: create client: %w", err)
	}
	return &Gemini{cfg: cfg, client: client}, nil
}

// Name identifies the backend in logs.
func (c *Gemini) Name() string { return "gemini" }

// Synthesize requests an audio response for the text and returns the PCM
// payload from the first candidate part.
func (c *Gemini) Synthesize(ctx context.Context, text string) (Audio, error) {
	if strings.TrimSpace(text) == "" {
		return Audio{}, errors.New("tts synthesize: empty text")
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
	}
	if c.cfg.Voice != "" {
		config.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.cfg.Voice},
			},
		}
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: text}}}}
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, config)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == 429 {
			return Audio{}, &RateLimitError{Wait: defaultResetWait, Detail: apiErr.Message}
		}
		return Audio{}, fmt.Errorf("tts gemini: generate: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return Audio{
					Data:       part.InlineData.Data,
					Format:     FormatPCM,
					SampleRate: geminiSampleRate,
					Channels:   1,
				}, nil
			}
		}
	}
	return Audio{}, errors.New("tts gemini: response contains no audio part")
}
