package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"slidecast/internal/assets"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/services/soffice"
)

const (
	defaultDPI       = 300
	defaultTimeout   = 300 * time.Second
	rasterPagePrefix = "page"
	rasterPageFormat = "png"
)

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

// Option configures the renderer.
type Option func(*Renderer)

// WithExecutor injects a custom executor for the rasterizer (for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Renderer) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithDPI overrides the rasterization resolution.
func WithDPI(dpi int) Option {
	return func(r *Renderer) {
		if dpi > 0 {
			r.dpi = dpi
		}
	}
}

// WithMaxWidth caps the rendered image width. Zero disables the cap.
func WithMaxWidth(width int) Option {
	return func(r *Renderer) { r.maxWidth = width }
}

// WithTimeout overrides the rasterization deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Renderer) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// Renderer turns a slide deck into the numbered image sequence. It runs the
// office converter for the PDF step and pdftoppm for rasterization, then
// normalizes every page to even pixel dimensions for the video encoder.
type Renderer struct {
	converter *soffice.Converter
	pdftoppm  string
	exec      Executor
	dpi       int
	maxWidth  int
	timeout   time.Duration
	logger    *slog.Logger
}

// Result summarizes one render run.
type Result struct {
	PDFPath    string
	SlideCount int
	Images     []string
}

// New constructs a renderer.
func New(converter *soffice.Converter, pdftoppm string, logger *slog.Logger, opts ...Option) (*Renderer, error) {
	if converter == nil {
		return nil, errors.New("converter required")
	}
	pdftoppm = strings.TrimSpace(pdftoppm)
	if pdftoppm == "" {
		return nil, errors.New("pdftoppm binary required")
	}
	renderer := &Renderer{
		converter: converter,
		pdftoppm:  pdftoppm,
		exec:      commandExecutor{},
		dpi:       defaultDPI,
		timeout:   defaultTimeout,
		logger:    logging.NewComponentLogger(logger, "render"),
	}
	for _, opt := range opts {
		opt(renderer)
	}
	return renderer, nil
}

// Render converts the deck to PDF, rasterizes one PNG per page into
// imagesDir as image_<n>.png, and normalizes each page to even dimensions.
// The intermediate PDF lives in a scratch directory that is removed on
// return.
func (r *Renderer) Render(ctx context.Context, deckPath, imagesDir string) (Result, error) {
	scratch, err := os.MkdirTemp("", "slidecast-render-*")
	if err != nil {
		return Result{}, fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	r.logger.Info("converting deck to pdf", logging.Asset(deckPath))
	pdfPath, err := r.converter.Convert(ctx, deckPath, scratch)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create images directory: %w", err)
	}

	pages, err := r.rasterize(ctx, pdfPath, scratch)
	if err != nil {
		return Result{}, err
	}
	if len(pages) == 0 {
		return Result{}, services.Wrap(services.ErrExternalTool, "render", "rasterize pdf",
			"rasterizer produced no pages", nil)
	}

	result := Result{PDFPath: pdfPath, SlideCount: len(pages)}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		target := filepath.Join(imagesDir, assets.FileName(assets.KindImage, page.number))
		if err := os.Rename(page.path, target); err != nil {
			return result, fmt.Errorf("move page %d into place: %w", page.number, err)
		}
		resized, err := NormalizeImage(target, r.maxWidth)
		if err != nil {
			return result, services.Wrap(services.ErrExternalTool, "render", "normalize image",
				target, err)
		}
		if resized {
			r.logger.Debug("adjusted image dimensions", logging.Slide(page.number), logging.Asset(target))
		}
		result.Images = append(result.Images, target)
		r.logger.Info("rendered slide", logging.Slide(page.number), logging.Asset(target))
	}

	r.logger.Info("render complete", logging.Int("slides", result.SlideCount))
	return result, nil
}

type rasterPage struct {
	number int
	path   string
}

// rasterize shells out to pdftoppm, which names pages <prefix>-<n>.png with
// the page number zero-padded to the width of the last page.
func (r *Renderer) rasterize(ctx context.Context, pdfPath, outDir string) ([]rasterPage, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prefix := filepath.Join(outDir, rasterPagePrefix)
	args := []string{"-" + rasterPageFormat, "-r", strconv.Itoa(r.dpi), pdfPath, prefix}
	output, err := r.exec.Run(runCtx, r.pdftoppm, args)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "render", "rasterize pdf",
				fmt.Sprintf("timed out after %s", r.timeout), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "render", "rasterize pdf",
			strings.TrimSpace(output), err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("list rasterized pages: %w", err)
	}
	var pages []rasterPage
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, rasterPagePrefix+"-") || !strings.HasSuffix(name, "."+rasterPageFormat) {
			continue
		}
		digits := strings.TrimSuffix(strings.TrimPrefix(name, rasterPagePrefix+"-"), "."+rasterPageFormat)
		number, err := strconv.Atoi(digits)
		if err != nil || number < 1 {
			continue
		}
		pages = append(pages, rasterPage{number: number, path: filepath.Join(outDir, name)})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })
	return pages, nil
}
