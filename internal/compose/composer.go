package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"slidecast/internal/assets"
	"slidecast/internal/fileutil"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/services/ffmpeg"
)

// Option configures the composer.
type Option func(*Composer)

// WithAudioBitrate sets the AAC bitrate for clip audio.
func WithAudioBitrate(bitrate string) Option {
	return func(c *Composer) {
		if bitrate != "" {
			c.bitrate = bitrate
		}
	}
}

// WithTimeout bounds each single clip encode.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Composer) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// DurationFunc reports an audio file's playback length.
type DurationFunc func(ctx context.Context, path string) (time.Duration, error)

// WithMinDuration enforces a floor on clip length. probe reads each
// voiceover's duration; a clip whose narration is shorter holds the still
// frame until min elapses.
func WithMinDuration(min time.Duration, probe DurationFunc) Option {
	return func(c *Composer) {
		if min > 0 && probe != nil {
			c.minDuration = min
			c.probe = probe
		}
	}
}

// SlideFailure records a slide whose clip could not be encoded.
type SlideFailure struct {
	Index int
	Err   error
}

// Result summarizes one composition run.
type Result struct {
	Composed []int
	Skipped  []int
	Failures []SlideFailure
}

// Failed reports whether any clip failed to encode.
func (r Result) Failed() bool { return len(r.Failures) > 0 }

// Composer pairs each slide image with its voiceover and encodes one video
// clip per slide. The image and voiceover sequences must correspond
// one-to-one by index before any encoding starts.
type Composer struct {
	ffmpeg      *ffmpeg.Runner
	bitrate     string
	timeout     time.Duration
	minDuration time.Duration
	probe       DurationFunc
	logger      *slog.Logger
}

// New constructs a composer.
func New(runner *ffmpeg.Runner, logger *slog.Logger, opts ...Option) (*Composer, error) {
	if runner == nil {
		return nil, errors.New("ffmpeg runner required")
	}
	composer := &Composer{
		ffmpeg:  runner,
		bitrate: "128k",
		timeout: 300 * time.Second,
		logger:  logging.NewComponentLogger(logger, "compose"),
	}
	for _, opt := range opts {
		opt(composer)
	}
	return composer, nil
}

// Run validates the image/voiceover correspondence and encodes the clip
// sequence. A correspondence mismatch is fatal and nothing is encoded;
// individual encode failures are recorded per slide and the rest proceed.
func (c *Composer) Run(ctx context.Context, assetsRoot string, overwrite bool) (Result, error) {
	images, err := assets.Scan(assetsRoot, assets.KindImage)
	if err != nil {
		return Result{}, fmt.Errorf("scan images: %w", err)
	}
	voiceovers, err := assets.Scan(assetsRoot, assets.KindVoiceover)
	if err != nil {
		return Result{}, fmt.Errorf("scan voiceovers: %w", err)
	}
	if len(images) == 0 {
		return Result{}, services.Wrap(services.ErrNotFound, "compose", "scan images",
			"no slide images found; run render first", nil)
	}
	if err := assets.ValidateCorrespondence(images, voiceovers, assets.KindImage, assets.KindVoiceover); err != nil {
		return Result{}, err
	}

	clipsDir := assets.Dir(assetsRoot, assets.KindClip)
	if err := os.MkdirAll(clipsDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create clips directory: %w", err)
	}

	c.logger.Info("composing clips", logging.Int("slides", len(images)))

	var result Result
	for position, image := range images {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		index := image.Index
		slideCtx := services.WithSlide(ctx, index)
		logger := logging.WithContext(slideCtx, c.logger)
		target := assets.Path(assetsRoot, assets.KindClip, index)
		if !overwrite && fileutil.ExistsNonEmpty(target) {
			logger.Debug("clip exists, skipping")
			result.Skipped = append(result.Skipped, index)
			continue
		}

		// Encode into a temp name: an interrupted encode must never leave a
		// partial file the next run's skip check mistakes for a finished clip.
		tempTarget := target + ".temp" + filepath.Ext(target)
		err := c.ffmpeg.ComposeClip(slideCtx, image.Path, voiceovers[position].Path, tempTarget, ffmpeg.ClipOptions{
			AudioBitrate: c.bitrate,
			Duration:     c.clipDuration(slideCtx, voiceovers[position].Path),
			Timeout:      c.timeout,
		})
		if err == nil {
			err = os.Rename(tempTarget, target)
		}
		if err != nil {
			os.Remove(tempTarget)
			result.Failures = append(result.Failures, SlideFailure{Index: index, Err: err})
			logger.Error("clip encode failed", logging.Error(err))
			continue
		}
		result.Composed = append(result.Composed, index)
		logger.Info("clip ready", logging.Asset(target))
	}

	c.logger.Info("composition finished",
		logging.Int("composed", len(result.Composed)),
		logging.Int("skipped", len(result.Skipped)),
		logging.Int("failed", len(result.Failures)),
	)
	return result, nil
}

// clipDuration returns the explicit clip length for a slide, or zero when the
// audio track should drive it. A failed probe falls back to audio-driven
// length rather than failing the slide.
func (c *Composer) clipDuration(ctx context.Context, audioPath string) time.Duration {
	if c.minDuration <= 0 || c.probe == nil {
		return 0
	}
	audioLen, err := c.probe(ctx, audioPath)
	if err != nil {
		logging.WithContext(ctx, c.logger).Warn("audio duration probe failed", logging.Error(err))
		return 0
	}
	if audioLen >= c.minDuration {
		return 0
	}
	return c.minDuration
}
