package narrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"slidecast/internal/assets"
	"slidecast/internal/fileutil"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/services/ffmpeg"
	"slidecast/internal/services/tts"
	"slidecast/internal/textutil"
)

// tempSuffix marks in-flight synthesis output. A crash mid-write leaves a
// temp file behind, never a truncated voiceover_<n>.mp3.
const tempSuffix = ".temp"

// Option configures the narrator.
type Option func(*Narrator)

// WithWorkers sets the number of concurrent synthesis workers.
func WithWorkers(workers int) Option {
	return func(n *Narrator) {
		if workers > 0 {
			n.workers = workers
		}
	}
}

// WithFailFast makes the first slide failure cancel the remaining work
// instead of being recorded and skipped over.
func WithFailFast(failFast bool) Option {
	return func(n *Narrator) { n.failFast = failFast }
}

// SlideFailure records a slide whose voiceover could not be produced.
type SlideFailure struct {
	Index int
	Err   error
}

// Result summarizes one narration run.
type Result struct {
	Synthesized []int
	Silent      []int
	Skipped     []int
	Failures    []SlideFailure
}

// Failed reports whether any slide failed.
func (r Result) Failed() bool { return len(r.Failures) > 0 }

// Narrator turns the note sequence into the voiceover sequence. Slides with
// empty notes get a copy of the silence track; everything else goes through
// the synthesis backend and is padded with leading and trailing silence.
type Narrator struct {
	synth    *tts.Synthesizer
	ffmpeg   *ffmpeg.Runner
	workers  int
	failFast bool
	logger   *slog.Logger
}

// New constructs a narrator.
func New(synth *tts.Synthesizer, runner *ffmpeg.Runner, logger *slog.Logger, opts ...Option) (*Narrator, error) {
	if synth == nil {
		return nil, errors.New("synthesizer required")
	}
	if runner == nil {
		return nil, errors.New("ffmpeg runner required")
	}
	narrator := &Narrator{
		synth:   synth,
		ffmpeg:  runner,
		workers: 1,
		logger:  logging.NewComponentLogger(logger, "narrate"),
	}
	for _, opt := range opts {
		opt(narrator)
	}
	return narrator, nil
}

// Run produces one voiceover per slide under assetsRoot. Slides up to
// expectedSlides that have no note file at all are narrated as silence, so
// the voiceover sequence always covers the image sequence; expectedSlides
// zero narrates exactly the note files present. Existing voiceovers are kept
// unless overwrite is set. Per-slide failures are recorded in the result;
// only setup problems (no notes at all, missing silence track) are returned
// as errors.
func (n *Narrator) Run(ctx context.Context, assetsRoot, silencePath string, expectedSlides int, overwrite bool) (Result, error) {
	notes, err := assets.Scan(assetsRoot, assets.KindNote)
	if err != nil {
		return Result{}, fmt.Errorf("scan notes: %w", err)
	}
	if len(notes) == 0 {
		return Result{}, services.Wrap(services.ErrNotFound, "narrate", "scan notes",
			"no note files found; run notes extraction first", nil)
	}
	notes = fillMissingSlides(notes, expectedSlides)
	if !fileutil.ExistsNonEmpty(silencePath) {
		return Result{}, services.Wrap(services.ErrNotFound, "narrate", "load silence track",
			silencePath, nil)
	}
	voiceoverDir := assets.Dir(assetsRoot, assets.KindVoiceover)
	if err := os.MkdirAll(voiceoverDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create voiceover directory: %w", err)
	}

	n.logger.Info("starting narration",
		logging.Int("notes", len(notes)),
		logging.Int("workers", n.workers),
		logging.String("backend", n.synth.Backend()),
	)

	var (
		mu     sync.Mutex
		result Result
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(n.workers)

	for _, entry := range notes {
		entry := entry
		group.Go(func() error {
			slideCtx := services.WithSlide(groupCtx, entry.Index)
			outcome, err := n.narrateSlide(slideCtx, entry, assetsRoot, silencePath, overwrite)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && outcome == outcomeSkipped:
				result.Skipped = append(result.Skipped, entry.Index)
			case err == nil && outcome == outcomeSilent:
				result.Silent = append(result.Silent, entry.Index)
			case err == nil:
				result.Synthesized = append(result.Synthesized, entry.Index)
			default:
				if errors.Is(err, context.Canceled) {
					return err
				}
				result.Failures = append(result.Failures, SlideFailure{Index: entry.Index, Err: err})
				logging.WithContext(slideCtx, n.logger).Error("voiceover failed", logging.Error(err))
				if n.failFast || services.IsFatal(err) {
					return err
				}
			}
			return nil
		})
	}
	err = group.Wait()
	sortResult(&result)

	n.logger.Info("narration finished",
		logging.Int("synthesized", len(result.Synthesized)),
		logging.Int("silent", len(result.Silent)),
		logging.Int("skipped", len(result.Skipped)),
		logging.Int("failed", len(result.Failures)),
	)
	return result, err
}

type slideOutcome int

const (
	outcomeSynthesized slideOutcome = iota
	outcomeSilent
	outcomeSkipped
)

func (n *Narrator) narrateSlide(ctx context.Context, entry assets.Entry, assetsRoot, silencePath string, overwrite bool) (slideOutcome, error) {
	logger := logging.WithContext(ctx, n.logger)
	target := assets.Path(assetsRoot, assets.KindVoiceover, entry.Index)
	if !overwrite && fileutil.ExistsNonEmpty(target) {
		logger.Debug("voiceover exists, skipping")
		return outcomeSkipped, nil
	}

	var text string
	if entry.Path != "" {
		raw, err := os.ReadFile(entry.Path)
		if err != nil {
			return 0, fmt.Errorf("read note: %w", err)
		}
		text = strings.TrimSpace(string(raw))
	}
	if text == "" {
		if err := fileutil.CopyFileVerified(silencePath, target); err != nil {
			return 0, fmt.Errorf("copy silence track: %w", err)
		}
		logger.Info("slide has no narration, using silence")
		return outcomeSilent, nil
	}

	logger.Info("synthesizing voiceover", logging.Int("chars", len(text)))
	logger.Debug("narration text", logging.String("preview", textutil.WrapPreview(text, 0)))

	audio, err := n.synth.Synthesize(ctx, text)
	if err != nil {
		return 0, err
	}

	speechPath, cleanup, err := n.writeSpeech(ctx, target, audio)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	if err := n.ffmpeg.WrapSilence(ctx, silencePath, speechPath, target); err != nil {
		return 0, err
	}
	logger.Info("voiceover ready", logging.Asset(target))
	return outcomeSynthesized, nil
}

// writeSpeech lands the synthesized audio next to the target under the temp
// suffix and, for raw PCM backends, transcodes it to an encoded stream the
// silence wrap can consume.
func (n *Narrator) writeSpeech(ctx context.Context, target string, audio tts.Audio) (string, func(), error) {
	rawPath := target + tempSuffix + "." + string(audio.Format)
	if err := os.WriteFile(rawPath, audio.Data, 0o644); err != nil {
		return "", nil, fmt.Errorf("write synthesized audio: %w", err)
	}
	if audio.Format != tts.FormatPCM {
		return rawPath, func() { os.Remove(rawPath) }, nil
	}

	encodedPath := target + tempSuffix + ".mp3"
	if err := n.ffmpeg.EncodePCM(ctx, rawPath, audio.SampleRate, audio.Channels, encodedPath); err != nil {
		os.Remove(rawPath)
		return "", nil, err
	}
	os.Remove(rawPath)
	return encodedPath, func() { os.Remove(encodedPath) }, nil
}

// fillMissingSlides pads the note sequence with empty-path entries up to
// expected. A slide whose deck has no notes part never got a note file, but
// it still needs a voiceover for the clip pairing downstream.
func fillMissingSlides(notes assets.Sequence, expected int) assets.Sequence {
	if expected <= 0 {
		return notes
	}
	present := make(map[int]bool, len(notes))
	for _, entry := range notes {
		present[entry.Index] = true
	}
	for slide := 1; slide <= expected; slide++ {
		if !present[slide] {
			notes = append(notes, assets.Entry{Index: slide})
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Index < notes[j].Index })
	return notes
}

func sortResult(result *Result) {
	sort.Ints(result.Synthesized)
	sort.Ints(result.Silent)
	sort.Ints(result.Skipped)
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Index < result.Failures[j].Index
	})
}
