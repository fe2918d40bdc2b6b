package config

import (
	"fmt"
	"strings"
)

var knownEngines = map[string]struct{}{
	"openai": {},
	"gemini": {},
	"espeak": {},
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.AssetsDir) == "" {
		problems = append(problems, "paths.assets_dir must be set")
	}
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		problems = append(problems, "paths.input_dir must be set")
	}
	if c.Video.FrameRate < 1 || c.Video.FrameRate > 120 {
		problems = append(problems, fmt.Sprintf("video.frame_rate %d out of range 1-120", c.Video.FrameRate))
	}
	if c.Video.CRF < 0 || c.Video.CRF > 51 {
		problems = append(problems, fmt.Sprintf("video.crf %d out of range 0-51", c.Video.CRF))
	}
	if c.Video.MinClipSeconds < 0 {
		problems = append(problems, fmt.Sprintf("video.min_clip_seconds %g must not be negative", c.Video.MinClipSeconds))
	}
	if _, ok := knownEngines[c.TTS.Engine]; !ok {
		problems = append(problems, fmt.Sprintf("tts.engine %q is not one of openai, gemini, espeak", c.TTS.Engine))
	}
	if c.TTS.Workers > 16 {
		problems = append(problems, fmt.Sprintf("tts.workers %d out of range 1-16", c.TTS.Workers))
	}
	if c.TTS.MinIntervalMS < 0 {
		problems = append(problems, fmt.Sprintf("tts.min_interval_ms %d must not be negative", c.TTS.MinIntervalMS))
	}
	if c.Render.DPI < 36 || c.Render.DPI > 1200 {
		problems = append(problems, fmt.Sprintf("render.dpi %d out of range 36-1200", c.Render.DPI))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
