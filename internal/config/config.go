package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for the asset pipeline.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	AssetsDir string `toml:"assets_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Video contains settings for clip composition and final assembly.
type Video struct {
	FrameRate       int     `toml:"frame_rate"`
	CRF             int     `toml:"crf"`
	Preset          string  `toml:"preset"`
	AudioBitrate    string  `toml:"audio_bitrate"`
	MinClipSeconds  float64 `toml:"min_clip_seconds"`
	ComposeTimeout  int     `toml:"compose_timeout"`
	AssembleTimeout int     `toml:"assemble_timeout"`
	OutputName      string  `toml:"output_name"`
}

// Render contains settings for slide rasterization.
type Render struct {
	DPI      int `toml:"dpi"`
	MaxWidth int `toml:"max_width"`
}

// TTS contains speech synthesis settings. The API key is passed into the
// synthesis client explicitly; it is never exported into the process
// environment.
type TTS struct {
	Engine         string `toml:"engine"`
	Voice          string `toml:"voice"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
	Workers        int    `toml:"workers"`
	MinIntervalMS  int    `toml:"min_interval_ms"`
	GeminiModel    string `toml:"gemini_model"`
	FailFast       bool   `toml:"fail_fast"`
}

// Tools contains the external binaries the pipeline shells out to.
type Tools struct {
	FFmpeg   string `toml:"ffmpeg"`
	FFprobe  string `toml:"ffprobe"`
	Soffice  string `toml:"soffice"`
	PDFToPPM string `toml:"pdftoppm"`
	Espeak   string `toml:"espeak"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for slidecast.
//
// Configuration sections by subsystem:
//   - Paths: input deck, asset store, output, and log directories
//   - Video: encoder parameters for clips and final assembly
//   - Render: rasterization DPI and width cap
//   - TTS: speech synthesis engine selection and credentials
//   - Tools: external binary locations
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Video   Video   `toml:"video"`
	Render  Render  `toml:"render"`
	TTS     TTS     `toml:"tts"`
	Tools   Tools   `toml:"tools"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/slidecast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("slidecast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.AssetsDir, c.Paths.OutputDir, c.Paths.LogDir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the given path,
// refusing to clobber an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// ImagesDir returns the rendered slide image directory inside the asset store.
func (c *Config) ImagesDir() string { return filepath.Join(c.Paths.AssetsDir, "images") }

// NotesDir returns the speaker-note text directory inside the asset store.
func (c *Config) NotesDir() string { return filepath.Join(c.Paths.AssetsDir, "notes") }

// VoiceoversDir returns the voiceover audio directory inside the asset store.
func (c *Config) VoiceoversDir() string { return filepath.Join(c.Paths.AssetsDir, "voiceovers") }

// ClipsDir returns the composed clip directory inside the asset store.
func (c *Config) ClipsDir() string { return filepath.Join(c.Paths.AssetsDir, "videoclips") }

// SilencePath returns the path of the pre-supplied silence track.
func (c *Config) SilencePath() string { return filepath.Join(c.Paths.AssetsDir, "silence.mp3") }

// OutputPath returns the final video location.
func (c *Config) OutputPath() string {
	return filepath.Join(c.Paths.OutputDir, c.Video.OutputName)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
