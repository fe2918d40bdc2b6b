// Package soffice wraps the headless LibreOffice invocation that turns a
// slide deck into a PDF for rasterization.
package soffice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"slidecast/internal/services"
)

const defaultTimeout = 180 * time.Second

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// Option configures the converter.
type Option func(*Converter)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Converter) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithTimeout overrides the conversion deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Converter) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// Converter runs the office suite in headless mode to produce PDFs.
type Converter struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a converter around the given binary.
func New(binary string, opts ...Option) (*Converter, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("soffice binary required")
	}
	converter := &Converter{binary: binary, timeout: defaultTimeout, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(converter)
	}
	return converter, nil
}

// Convert renders the deck at deckPath into a PDF inside outDir and returns
// the PDF path. The tool names the output after the input stem; a missing
// output file after a zero exit still counts as failure.
func (c *Converter) Convert(ctx context.Context, deckPath, outDir string) (string, error) {
	if strings.TrimSpace(deckPath) == "" {
		return "", errors.New("deck path required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"--headless", "--convert-to", "pdf", deckPath, "--outdir", outDir}
	output, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "render", "convert deck to pdf",
				fmt.Sprintf("timed out after %s", c.timeout), err)
		}
		return "", services.Wrap(services.ErrExternalTool, "render", "convert deck to pdf",
			strings.TrimSpace(output), err)
	}

	stem := strings.TrimSuffix(filepath.Base(deckPath), filepath.Ext(deckPath))
	pdfPath := filepath.Join(outDir, stem+".pdf")
	if info, statErr := os.Stat(pdfPath); statErr != nil || info.Size() == 0 {
		return "", services.Wrap(services.ErrExternalTool, "render", "convert deck to pdf",
			fmt.Sprintf("converter exited cleanly but %s was not created", pdfPath), nil)
	}
	return pdfPath, nil
}
