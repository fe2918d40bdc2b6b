package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slidecast/internal/assets"
	"slidecast/internal/fileutil"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/services/ffmpeg"
)

// Option configures the assembler.
type Option func(*Assembler)

// WithEncoding sets the final encode parameters.
func WithEncoding(frameRate, crf int, preset string) Option {
	return func(a *Assembler) {
		if frameRate > 0 {
			a.frameRate = frameRate
		}
		if crf > 0 {
			a.crf = crf
		}
		if preset != "" {
			a.preset = preset
		}
	}
}

// WithTimeout bounds the final concat encode.
func WithTimeout(timeout time.Duration) Option {
	return func(a *Assembler) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

// Result summarizes one assembly run.
type Result struct {
	ManifestPath string
	OutputPath   string
	ClipCount    int
	Skipped      bool
}

// Assembler concatenates the clip sequence into the final video. The
// manifest lists clips in ascending slide order; the encode lands in a
// temporary file that is renamed into place only on success, so a failed
// run never leaves a partial final video behind.
type Assembler struct {
	ffmpeg    *ffmpeg.Runner
	frameRate int
	crf       int
	preset    string
	timeout   time.Duration
	logger    *slog.Logger
}

// New constructs an assembler.
func New(runner *ffmpeg.Runner, logger *slog.Logger, opts ...Option) (*Assembler, error) {
	if runner == nil {
		return nil, errors.New("ffmpeg runner required")
	}
	assembler := &Assembler{
		ffmpeg:    runner,
		frameRate: 30,
		crf:       22,
		preset:    "fast",
		timeout:   600 * time.Second,
		logger:    logging.NewComponentLogger(logger, "assemble"),
	}
	for _, opt := range opts {
		opt(assembler)
	}
	return assembler, nil
}

// Run writes the concat manifest and encodes the final video at outputPath.
// When expected is non-empty the clip sequence must cover exactly those
// slide indices; any gap is a validation error and nothing is encoded. An
// existing output is kept unless overwrite is set.
func (a *Assembler) Run(ctx context.Context, assetsRoot, outputPath string, expected []int, overwrite bool) (Result, error) {
	clips, err := assets.Scan(assetsRoot, assets.KindClip)
	if err != nil {
		return Result{}, fmt.Errorf("scan clips: %w", err)
	}
	if len(clips) == 0 {
		return Result{}, services.Wrap(services.ErrNotFound, "assemble", "scan clips",
			"no video clips found; run compose first", nil)
	}
	if len(expected) > 0 {
		if err := validateCoverage(clips, expected); err != nil {
			return Result{}, err
		}
	}

	result := Result{ClipCount: len(clips), OutputPath: outputPath}
	if !overwrite && fileutil.ExistsNonEmpty(outputPath) {
		a.logger.Info("final video exists, skipping", logging.Asset(outputPath))
		result.Skipped = true
		return result, nil
	}

	manifestPath, err := a.writeManifest(assetsRoot, clips)
	if err != nil {
		return Result{}, err
	}
	result.ManifestPath = manifestPath

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	a.logger.Info("assembling final video",
		logging.Int("clips", len(clips)),
		logging.Asset(outputPath),
	)

	tempPath := outputPath + ".temp" + filepath.Ext(outputPath)
	err = a.ffmpeg.Concat(ctx, manifestPath, tempPath, ffmpeg.ConcatOptions{
		FrameRate: a.frameRate,
		Preset:    a.preset,
		CRF:       a.crf,
		Timeout:   a.timeout,
	})
	if err != nil {
		os.Remove(tempPath)
		return result, err
	}
	if err := os.Rename(tempPath, outputPath); err != nil {
		os.Remove(tempPath)
		return result, fmt.Errorf("move final video into place: %w", err)
	}

	a.logger.Info("final video ready", logging.Asset(outputPath))
	return result, nil
}

// writeManifest emits the concat demuxer manifest inside the clips
// directory, one line per clip in ascending slide order. Names are relative
// to the manifest, which is how the demuxer resolves them.
func (a *Assembler) writeManifest(assetsRoot string, clips assets.Sequence) (string, error) {
	var b strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&b, "file '%s'\n", filepath.Base(clip.Path))
	}
	manifestPath := filepath.Join(assets.Dir(assetsRoot, assets.KindClip), assets.ManifestName)
	if err := os.WriteFile(manifestPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write concat manifest: %w", err)
	}
	return manifestPath, nil
}

func validateCoverage(clips assets.Sequence, expected []int) error {
	have := make(map[int]bool, len(clips))
	for _, clip := range clips {
		have[clip.Index] = true
	}
	var missing []int
	for _, index := range expected {
		if !have[index] {
			missing = append(missing, index)
		}
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrValidation, "assemble", "check clip coverage",
			fmt.Sprintf("missing clips for slides %v", missing), nil)
	}
	return nil
}
