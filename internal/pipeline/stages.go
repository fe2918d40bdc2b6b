package pipeline

import (
	"context"
	"fmt"
	"os/exec"

	"slidecast/internal/assets"
	"slidecast/internal/fileutil"
	"slidecast/internal/ledger"
	"slidecast/internal/services"
	"slidecast/internal/stage"
)

// renderStage rasterizes the deck into the image sequence.
type renderStage struct{ d *Driver }

func (s *renderStage) Name() string { return "render" }

func (s *renderStage) Execute(ctx context.Context, run *stage.Run) error {
	imagesDir := assets.Dir(run.AssetsRoot, assets.KindImage)
	if !run.Overwrite {
		existing, err := assets.Scan(run.AssetsRoot, assets.KindImage)
		if err == nil && len(existing) > 0 {
			s.d.logger.Info("images exist, skipping render")
			s.setSlideCount(run, len(existing))
			return nil
		}
	}

	result, err := s.d.renderer.Render(ctx, run.DeckPath, imagesDir)
	if err != nil {
		return err
	}
	s.setSlideCount(run, result.SlideCount)
	for slide := 1; slide <= result.SlideCount; slide++ {
		s.d.recordSlide(ctx, run, slide, s.Name(), ledger.StatusRendered, "")
	}
	return nil
}

func (s *renderStage) setSlideCount(run *stage.Run, count int) {
	run.SlideCount = count
}

func (s *renderStage) HealthCheck(ctx context.Context) stage.Health {
	for _, binary := range []string{s.d.cfg.Tools.Soffice, s.d.cfg.Tools.PDFToPPM} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy(s.Name(), fmt.Sprintf("binary %q not found", binary))
		}
	}
	return stage.Healthy(s.Name())
}

// notesStage extracts speaker notes from the deck.
type notesStage struct{ d *Driver }

func (s *notesStage) Name() string { return "notes" }

func (s *notesStage) Execute(ctx context.Context, run *stage.Run) error {
	result, err := s.d.extractor.Extract(ctx, run.DeckPath, assets.Dir(run.AssetsRoot, assets.KindNote))
	if err != nil {
		return err
	}
	if run.SlideCount > 0 && result.SlideCount != run.SlideCount {
		return services.Wrap(services.ErrValidation, s.Name(), "check slide count",
			fmt.Sprintf("deck has %d slides but %d images were rendered", result.SlideCount, run.SlideCount), nil)
	}
	if run.SlideCount == 0 {
		run.SlideCount = result.SlideCount
	}
	for _, slide := range result.Written {
		s.d.recordSlide(ctx, run, slide, s.Name(), ledger.StatusNoted, "")
	}
	return nil
}

func (s *notesStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(s.Name())
}

// narrateStage synthesizes the voiceover sequence, generating the shared
// silence track on first use.
type narrateStage struct{ d *Driver }

func (s *narrateStage) Name() string { return "narrate" }

func (s *narrateStage) Execute(ctx context.Context, run *stage.Run) error {
	if s.d.narrator == nil {
		return services.Wrap(services.ErrConfiguration, s.Name(), "build synthesizer", "", s.d.narratorErr)
	}

	silencePath := s.d.cfg.SilencePath()
	if !fileutil.ExistsNonEmpty(silencePath) {
		if err := s.d.ffmpeg.GenerateSilence(ctx, silencePath, 0); err != nil {
			return err
		}
	}

	result, err := s.d.narrator.Run(ctx, run.AssetsRoot, silencePath, run.SlideCount, run.Overwrite)
	if err != nil {
		return err
	}
	for _, slide := range result.Synthesized {
		s.d.recordSlide(ctx, run, slide, s.Name(), ledger.StatusNarrated, "")
	}
	for _, slide := range result.Silent {
		s.d.recordSlide(ctx, run, slide, s.Name(), ledger.StatusNarrated, "silence")
	}
	for _, failure := range result.Failures {
		run.AddFailure(s.Name(), failure.Index, failure.Err)
		s.d.recordSlide(ctx, run, failure.Index, s.Name(), ledger.StatusFailed, failure.Err.Error())
	}
	return nil
}

func (s *narrateStage) HealthCheck(ctx context.Context) stage.Health {
	if s.d.narrator == nil {
		return stage.Unhealthy(s.Name(), s.d.narratorErr.Error())
	}
	return stage.Healthy(s.Name())
}

// composeStage encodes one clip per image/voiceover pair.
type composeStage struct{ d *Driver }

func (s *composeStage) Name() string { return "compose" }

func (s *composeStage) Execute(ctx context.Context, run *stage.Run) error {
	result, err := s.d.composer.Run(ctx, run.AssetsRoot, run.Overwrite)
	if err != nil {
		return err
	}
	for _, slide := range result.Composed {
		s.d.recordSlide(ctx, run, slide, s.Name(), ledger.StatusComposed, "")
	}
	for _, failure := range result.Failures {
		run.AddFailure(s.Name(), failure.Index, failure.Err)
		s.d.recordSlide(ctx, run, failure.Index, s.Name(), ledger.StatusFailed, failure.Err.Error())
	}
	return nil
}

func (s *composeStage) HealthCheck(ctx context.Context) stage.Health {
	if _, err := exec.LookPath(s.d.cfg.Tools.FFmpeg); err != nil {
		return stage.Unhealthy(s.Name(), fmt.Sprintf("binary %q not found", s.d.cfg.Tools.FFmpeg))
	}
	return stage.Healthy(s.Name())
}

// assembleStage concatenates the clips into the final video. It refuses to
// run while earlier stages have outstanding failures: a final video with
// silently missing slides is worse than no video.
type assembleStage struct{ d *Driver }

func (s *assembleStage) Name() string { return "assemble" }

func (s *assembleStage) Execute(ctx context.Context, run *stage.Run) error {
	if run.Failed() {
		s.d.logger.Warn("skipping assembly, earlier stages had failures")
		return nil
	}
	var expected []int
	for slide := 1; slide <= run.SlideCount; slide++ {
		expected = append(expected, slide)
	}

	result, err := s.d.assembler.Run(ctx, run.AssetsRoot, run.OutputPath, expected, run.Overwrite)
	if err != nil {
		return err
	}
	if run.SlideCount == 0 {
		run.SlideCount = result.ClipCount
	}
	return nil
}

func (s *assembleStage) HealthCheck(ctx context.Context) stage.Health {
	if _, err := exec.LookPath(s.d.cfg.Tools.FFmpeg); err != nil {
		return stage.Unhealthy(s.Name(), fmt.Sprintf("binary %q not found", s.d.cfg.Tools.FFmpeg))
	}
	return stage.Healthy(s.Name())
}
