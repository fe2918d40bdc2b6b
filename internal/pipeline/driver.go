package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"slidecast/internal/assemble"
	"slidecast/internal/compose"
	"slidecast/internal/config"
	"slidecast/internal/ledger"
	"slidecast/internal/logging"
	"slidecast/internal/media/ffprobe"
	"slidecast/internal/narrate"
	"slidecast/internal/notes"
	"slidecast/internal/render"
	"slidecast/internal/services"
	"slidecast/internal/services/ffmpeg"
	"slidecast/internal/services/soffice"
	"slidecast/internal/services/tts"
	"slidecast/internal/stage"
)

// lockFileName guards against two pipeline runs sharing one asset store.
const lockFileName = "slidecast.lock"

// RunOptions controls one pipeline invocation.
type RunOptions struct {
	// Overwrite regenerates assets that already exist on disk.
	Overwrite bool
	// Stages restricts the run to the named stages, in pipeline order.
	// Empty means the full pipeline.
	Stages []string
}

// Summary reports what a pipeline run did.
type Summary struct {
	RunID      string
	DeckPath   string
	SlideCount int
	OutputPath string
	Stages     []string
	Failures   []stage.Failure
	Duration   time.Duration
}

// Failed reports whether any stage recorded a failure.
func (s *Summary) Failed() bool { return len(s.Failures) > 0 }

// Driver wires the stages together and walks a deck through them in order.
type Driver struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *ledger.Store

	ffmpeg    *ffmpeg.Runner
	renderer  *render.Renderer
	extractor *notes.Extractor
	composer  *compose.Composer
	assembler *assemble.Assembler

	// The narrator needs synthesis credentials, which render-only runs do
	// not. Construction failures are deferred until the narrate stage runs.
	narrator    *narrate.Narrator
	narratorErr error

	stages []stage.Handler
	lock   *flock.Flock
}

// Option configures the driver.
type Option func(*Driver)

// WithLedger attaches a run ledger. Without one the driver still works;
// history is simply not recorded.
func WithLedger(store *ledger.Store) Option {
	return func(d *Driver) { d.store = store }
}

// WithTTSClient overrides the synthesis backend (for tests).
func WithTTSClient(client tts.Client) Option {
	return func(d *Driver) {
		d.narrator, d.narratorErr = d.buildNarrator(client)
	}
}

// New constructs a driver from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Driver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	driver := &Driver{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}

	runner, err := ffmpeg.New(cfg.Tools.FFmpeg)
	if err != nil {
		return nil, err
	}
	driver.ffmpeg = runner

	converter, err := soffice.New(cfg.Tools.Soffice)
	if err != nil {
		return nil, err
	}
	driver.renderer, err = render.New(converter, cfg.Tools.PDFToPPM, logger,
		render.WithDPI(cfg.Render.DPI),
		render.WithMaxWidth(cfg.Render.MaxWidth),
	)
	if err != nil {
		return nil, err
	}

	driver.extractor = notes.NewExtractor(logger)

	client, clientErr := tts.NewFromConfig(cfg)
	if clientErr != nil {
		driver.narratorErr = clientErr
	} else {
		driver.narrator, driver.narratorErr = driver.buildNarrator(client)
	}

	driver.composer, err = compose.New(runner, logger,
		compose.WithAudioBitrate(cfg.Video.AudioBitrate),
		compose.WithTimeout(time.Duration(cfg.Video.ComposeTimeout)*time.Second),
		compose.WithMinDuration(secondsToDuration(cfg.Video.MinClipSeconds), audioDurationProbe(cfg.Tools.FFprobe)),
	)
	if err != nil {
		return nil, err
	}

	driver.assembler, err = assemble.New(runner, logger,
		assemble.WithEncoding(cfg.Video.FrameRate, cfg.Video.CRF, cfg.Video.Preset),
		assemble.WithTimeout(time.Duration(cfg.Video.AssembleTimeout)*time.Second),
	)
	if err != nil {
		return nil, err
	}

	driver.lock = flock.New(filepath.Join(cfg.Paths.LogDir, lockFileName))
	driver.stages = []stage.Handler{
		&renderStage{driver},
		&notesStage{driver},
		&narrateStage{driver},
		&composeStage{driver},
		&assembleStage{driver},
	}

	for _, opt := range opts {
		opt(driver)
	}
	return driver, nil
}

func (d *Driver) buildNarrator(client tts.Client) (*narrate.Narrator, error) {
	synth, err := tts.NewSynthesizer(client,
		tts.WithMaxAttempts(d.cfg.TTS.MaxAttempts),
		tts.WithGate(tts.NewGate(time.Duration(d.cfg.TTS.MinIntervalMS)*time.Millisecond)),
		tts.WithLogger(d.logger),
	)
	if err != nil {
		return nil, err
	}
	return narrate.New(synth, d.ffmpeg, d.logger,
		narrate.WithWorkers(d.cfg.TTS.Workers),
		narrate.WithFailFast(d.cfg.TTS.FailFast),
	)
}

// FindDeck locates the input deck: exactly one .pptx file directly inside
// the input directory. Zero or several decks is a configuration problem.
func (d *Driver) FindDeck() (string, error) {
	entries, err := os.ReadDir(d.cfg.Paths.InputDir)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "pipeline", "find deck",
			d.cfg.Paths.InputDir, err)
	}
	var decks []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".pptx") {
			decks = append(decks, filepath.Join(d.cfg.Paths.InputDir, name))
		}
	}
	switch len(decks) {
	case 0:
		return "", services.Wrap(services.ErrValidation, "pipeline", "find deck",
			fmt.Sprintf("no .pptx deck in %s", d.cfg.Paths.InputDir), nil)
	case 1:
		return decks[0], nil
	default:
		sort.Strings(decks)
		return "", services.Wrap(services.ErrValidation, "pipeline", "find deck",
			fmt.Sprintf("%d .pptx decks in %s, expected exactly one: %s",
				len(decks), d.cfg.Paths.InputDir, strings.Join(decks, ", ")), nil)
	}
}

// Run walks the deck through the selected stages. Recoverable per-slide
// failures are aggregated into the summary; fatal problems abort the run.
func (d *Driver) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "ensure directories", "", err)
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire pipeline lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "acquire lock",
			"another run is already using this asset store", nil)
	}
	defer func() { _ = d.lock.Unlock() }()

	deckPath, err := d.FindDeck()
	if err != nil {
		return nil, err
	}

	selected, err := d.selectStages(opts.Stages)
	if err != nil {
		return nil, err
	}

	run := &stage.Run{
		DeckPath:   deckPath,
		AssetsRoot: d.cfg.Paths.AssetsDir,
		OutputPath: d.cfg.OutputPath(),
		Overwrite:  opts.Overwrite,
	}
	if d.store != nil {
		record, err := d.store.BeginRun(ctx, deckPath)
		if err != nil {
			d.logger.Warn("ledger unavailable", logging.Error(err))
		} else {
			run.ID = record.ID
		}
	}

	summary := &Summary{RunID: run.ID, DeckPath: deckPath, OutputPath: run.OutputPath}
	started := time.Now()
	d.logger.Info("pipeline starting",
		logging.Asset(deckPath),
		logging.String("stages", strings.Join(stageNames(selected), ",")),
		logging.String(logging.FieldRunID, run.ID),
	)

	for _, handler := range selected {
		stageCtx := services.WithStage(ctx, handler.Name())
		if run.ID != "" {
			stageCtx = services.WithRunID(stageCtx, run.ID)
		}
		d.logger.Info("stage starting", logging.String(logging.FieldStage, handler.Name()))
		if err := handler.Execute(stageCtx, run); err != nil {
			d.finishRun(ctx, run, ledger.StatusFailed, err.Error())
			summary.SlideCount = run.SlideCount
			summary.Failures = run.Failures
			summary.Stages = stageNames(selected)
			summary.Duration = time.Since(started)
			return summary, err
		}
		summary.Stages = append(summary.Stages, handler.Name())
	}

	summary.SlideCount = run.SlideCount
	summary.Failures = run.Failures
	summary.Duration = time.Since(started)

	if run.Failed() {
		d.finishRun(ctx, run, ledger.StatusFailed,
			fmt.Sprintf("%d slide failures", len(run.Failures)))
		d.logger.Warn("pipeline finished with failures",
			logging.Int("failures", len(run.Failures)))
		return summary, nil
	}

	d.finishRun(ctx, run, ledger.StatusCompleted,
		fmt.Sprintf("%d slides", run.SlideCount))
	d.logger.Info("pipeline complete",
		logging.Int("slides", run.SlideCount),
		logging.String("duration", summary.Duration.Round(time.Second).String()),
	)
	return summary, nil
}

// Health reports per-stage readiness for the status command.
func (d *Driver) Health(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(d.stages))
	for _, handler := range d.stages {
		out = append(out, handler.HealthCheck(ctx))
	}
	return out
}

// StageNames lists the pipeline stages in execution order.
func (d *Driver) StageNames() []string { return stageNames(d.stages) }

func (d *Driver) selectStages(names []string) ([]stage.Handler, error) {
	if len(names) == 0 {
		return d.stages, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[strings.ToLower(strings.TrimSpace(name))] = true
	}
	var selected []stage.Handler
	for _, handler := range d.stages {
		if wanted[handler.Name()] {
			selected = append(selected, handler)
			delete(wanted, handler.Name())
		}
	}
	if len(wanted) > 0 {
		var unknown []string
		for name := range wanted {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, services.Wrap(services.ErrValidation, "pipeline", "select stages",
			fmt.Sprintf("unknown stages: %s (valid: %s)",
				strings.Join(unknown, ", "), strings.Join(stageNames(d.stages), ", ")), nil)
	}
	return selected, nil
}

func (d *Driver) finishRun(ctx context.Context, run *stage.Run, status ledger.Status, detail string) {
	if d.store == nil || run.ID == "" {
		return
	}
	if err := d.store.UpdateRun(ctx, run.ID, status, detail); err != nil {
		d.logger.Warn("failed to record run outcome", logging.Error(err))
	}
}

func (d *Driver) recordSlide(ctx context.Context, run *stage.Run, slide int, stageName string, status ledger.Status, detail string) {
	if d.store == nil || run.ID == "" {
		return
	}
	if err := d.store.RecordSlide(ctx, run.ID, slide, stageName, status, detail); err != nil {
		d.logger.Warn("failed to record slide state", logging.Slide(slide), logging.Error(err))
	}
}

func stageNames(handlers []stage.Handler) []string {
	names := make([]string, len(handlers))
	for i, handler := range handlers {
		names[i] = handler.Name()
	}
	return names
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// audioDurationProbe adapts ffprobe into the composer's duration lookup.
func audioDurationProbe(binary string) compose.DurationFunc {
	return func(ctx context.Context, path string) (time.Duration, error) {
		probed, err := ffprobe.Inspect(ctx, binary, path)
		if err != nil {
			return 0, err
		}
		return secondsToDuration(probed.DurationSeconds()), nil
	}
}
