package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Video.FrameRate != defaultFrameRate {
		t.Fatalf("expected default frame rate, got %d", cfg.Video.FrameRate)
	}
	if cfg.TTS.Engine != "openai" {
		t.Fatalf("expected default engine, got %q", cfg.TTS.Engine)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
assets_dir = "` + filepath.Join(dir, "assets") + `"
input_dir = "` + filepath.Join(dir, "input") + `"

[video]
frame_rate = 24
preset = "  Slow  "

[tts]
engine = "ESPEAK"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Video.FrameRate != 24 {
		t.Fatalf("frame rate not applied: %d", cfg.Video.FrameRate)
	}
	if cfg.Video.Preset != "slow" {
		t.Fatalf("preset not normalized: %q", cfg.Video.Preset)
	}
	if cfg.TTS.Engine != "espeak" {
		t.Fatalf("engine not normalized: %q", cfg.TTS.Engine)
	}
	if cfg.Video.CRF != defaultCRF {
		t.Fatalf("expected default crf, got %d", cfg.Video.CRF)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	cfg.Video.FrameRate = 500
	cfg.TTS.Engine = "tape-recorder"
	cfg.TTS.MinIntervalMS = -10
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"frame_rate", "tts.engine", "min_interval_ms"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s problem reported, got %v", want, err)
		}
	}
}

func TestAssetPathHelpers(t *testing.T) {
	cfg := Default()
	cfg.Paths.AssetsDir = "/srv/assets"
	cfg.Paths.OutputDir = "/srv/out"

	if got := cfg.ImagesDir(); got != "/srv/assets/images" {
		t.Fatalf("unexpected images dir: %s", got)
	}
	if got := cfg.SilencePath(); got != "/srv/assets/silence.mp3" {
		t.Fatalf("unexpected silence path: %s", got)
	}
	if got := cfg.OutputPath(); got != "/srv/out/video.mp4" {
		t.Fatalf("unexpected output path: %s", got)
	}
}

func TestTTSAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("SLIDECAST_TTS_API_KEY", "sk-test")
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	if cfg.TTS.APIKey != "sk-test" {
		t.Fatalf("expected env fallback, got %q", cfg.TTS.APIKey)
	}
}
