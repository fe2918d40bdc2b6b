package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVideo()
	c.normalizeRender()
	c.normalizeTTS()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.AssetsDir, err = expandPath(c.Paths.AssetsDir); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVideo() {
	if c.Video.FrameRate <= 0 {
		c.Video.FrameRate = defaultFrameRate
	}
	if c.Video.CRF <= 0 {
		c.Video.CRF = defaultCRF
	}
	c.Video.Preset = strings.ToLower(strings.TrimSpace(c.Video.Preset))
	if c.Video.Preset == "" {
		c.Video.Preset = defaultPreset
	}
	c.Video.AudioBitrate = strings.TrimSpace(c.Video.AudioBitrate)
	if c.Video.AudioBitrate == "" {
		c.Video.AudioBitrate = defaultAudioBitrate
	}
	if c.Video.ComposeTimeout <= 0 {
		c.Video.ComposeTimeout = defaultComposeTimeout
	}
	if c.Video.AssembleTimeout <= 0 {
		c.Video.AssembleTimeout = defaultAssembleTimeout
	}
	c.Video.OutputName = strings.TrimSpace(c.Video.OutputName)
	if c.Video.OutputName == "" {
		c.Video.OutputName = defaultOutputName
	}
}

func (c *Config) normalizeRender() {
	if c.Render.DPI <= 0 {
		c.Render.DPI = defaultDPI
	}
	if c.Render.MaxWidth <= 0 {
		c.Render.MaxWidth = defaultMaxWidth
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.Engine = strings.ToLower(strings.TrimSpace(c.TTS.Engine))
	if c.TTS.Engine == "" {
		c.TTS.Engine = defaultTTSEngine
	}
	c.TTS.Voice = strings.TrimSpace(c.TTS.Voice)
	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultTTSVoice
	}
	c.TTS.Model = strings.TrimSpace(c.TTS.Model)
	if c.TTS.Model == "" {
		c.TTS.Model = defaultTTSModel
	}
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	if c.TTS.APIKey == "" {
		if value, ok := os.LookupEnv("SLIDECAST_TTS_API_KEY"); ok {
			c.TTS.APIKey = strings.TrimSpace(value)
		}
	}
	c.TTS.BaseURL = strings.TrimSpace(c.TTS.BaseURL)
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
	if c.TTS.MaxAttempts <= 0 {
		c.TTS.MaxAttempts = defaultTTSMaxAttempts
	}
	if c.TTS.Workers <= 0 {
		c.TTS.Workers = defaultTTSWorkers
	}
	c.TTS.GeminiModel = strings.TrimSpace(c.TTS.GeminiModel)
	if c.TTS.GeminiModel == "" {
		c.TTS.GeminiModel = defaultGeminiModel
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	if strings.TrimSpace(c.Tools.Soffice) == "" {
		c.Tools.Soffice = "libreoffice"
	}
	if strings.TrimSpace(c.Tools.PDFToPPM) == "" {
		c.Tools.PDFToPPM = "pdftoppm"
	}
	if strings.TrimSpace(c.Tools.Espeak) == "" {
		c.Tools.Espeak = "espeak-ng"
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
