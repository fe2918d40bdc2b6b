package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Espeak is the local low-fidelity backend. It shells out to espeak-ng and
// never rate-limits, which makes it useful for offline runs and tests of the
// surrounding pipeline.
type Espeak struct {
	binary string
	voice  string
	exec   func(ctx context.Context, binary string, args []string) ([]byte, error)
}

// NewEspeak constructs the local backend.
func NewEspeak(binary, voice string) (*Espeak, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("espeak binary required")
	}
	return &Espeak{
		binary: binary,
		voice:  strings.TrimSpace(voice),
		exec: func(ctx context.Context, binary string, args []string) ([]byte, error) {
			return exec.CommandContext(ctx, binary, args...).CombinedOutput()
		},
	}, nil
}

// Name identifies the backend in logs.
func (c *Espeak) Name() string { return "espeak" }

// Synthesize writes a wav to a scratch file and returns its bytes. espeak
// has no stdout wav mode that is stable across versions, so the temp file
// detour stays.
func (c *Espeak) Synthesize(ctx context.Context, text string) (Audio, error) {
	if strings.TrimSpace(text) == "" {
		return Audio{}, errors.New("tts synthesize: empty text")
	}

	scratch, err := os.MkdirTemp("", "slidecast-espeak-*")
	if err != nil {
		return Audio{}, fmt.Errorf("tts espeak: scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	wavPath := filepath.Join(scratch, "speech.wav")
	args := []string{"-w", wavPath}
	if c.voice != "" {
		args = append(args, "-v", c.voice)
	}
	args = append(args, text)

	if output, err := c.exec(ctx, c.binary, args); err != nil {
		return Audio{}, fmt.Errorf("tts espeak: %w: %s", err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(wavPath)
	if err != nil {
		return Audio{}, fmt.Errorf("tts espeak: read output: %w", err)
	}
	if len(data) == 0 {
		return Audio{}, errors.New("tts espeak: empty audio payload")
	}
	return Audio{Data: data, Format: FormatWAV}, nil
}
