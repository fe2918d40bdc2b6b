package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"slidecast/internal/services"
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

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// Runner wraps the ffmpeg CLI invocations the pipeline depends on. Every
// call carries "-y": regenerated outputs always replace their predecessors.
type Runner struct {
	binary string
	exec   Executor
}

// New constructs an ffmpeg runner.
func New(binary string, opts ...Option) (*Runner, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	runner := &Runner{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// ClipOptions carries the encoder parameters for a still-image clip. A
// non-zero Duration pins the clip length explicitly; otherwise the audio
// track length drives it.
type ClipOptions struct {
	AudioBitrate string
	Duration     time.Duration
	Timeout      time.Duration
}

// ComposeClip renders one still image plus one audio track into a clip. The
// image is shown for the duration of the audio ("-shortest" against an
// infinite "-loop 1" image stream), or for opts.Duration when the caller
// wants a longer hold than the narration. The scale filter drops any odd
// trailing pixel and the output is pinned to yuv420p, which rejects odd
// dimensions.
func (r *Runner) ComposeClip(ctx context.Context, imagePath, audioPath, outputPath string, opts ClipOptions) error {
	bitrate := strings.TrimSpace(opts.AudioBitrate)
	if bitrate == "" {
		bitrate = "128k"
	}
	args := []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", bitrate,
		"-vf", "scale='iw-mod(iw,2)':'ih-mod(ih,2)',format=yuv420p",
	}
	if opts.Duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", opts.Duration.Seconds()))
	} else {
		args = append(args, "-shortest")
	}
	args = append(args, outputPath)
	return r.run(ctx, "compose clip", args, outputPath, opts.Timeout)
}

// WrapSilence concatenates [silence, speech, silence] into outputPath. The
// fixed lead-in and lead-out pauses smooth playback across slide boundaries.
func (r *Runner) WrapSilence(ctx context.Context, silencePath, speechPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", silencePath,
		"-i", speechPath,
		"-i", silencePath,
		"-filter_complex", "[0:a][1:a][2:a]concat=n=3:v=0:a=1[out]",
		"-map", "[out]",
		outputPath,
	}
	return r.run(ctx, "wrap silence", args, outputPath, 0)
}

// ConcatOptions carries the encoder parameters for final assembly.
type ConcatOptions struct {
	FrameRate int
	Preset    string
	CRF       int
	Timeout   time.Duration
}

// Concat joins the clips listed in the manifest (concat demuxer format,
// lines of the form `file '<name>'`) into a single video.
func (r *Runner) Concat(ctx context.Context, manifestPath, outputPath string, opts ConcatOptions) error {
	frameRate := opts.FrameRate
	if frameRate <= 0 {
		frameRate = 30
	}
	preset := strings.TrimSpace(opts.Preset)
	if preset == "" {
		preset = "fast"
	}
	crf := opts.CRF
	if crf <= 0 {
		crf = 22
	}
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-r", strconv.Itoa(frameRate),
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		outputPath,
	}
	return r.run(ctx, "concat clips", args, outputPath, opts.Timeout)
}

// EncodePCM converts raw 16-bit little-endian PCM into an mp3. Cloud neural
// synthesis backends return raw PCM rather than a container format.
func (r *Runner) EncodePCM(ctx context.Context, pcmPath string, sampleRate, channels int, outputPath string) error {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	if channels <= 0 {
		channels = 1
	}
	args := []string{
		"-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-i", pcmPath,
		outputPath,
	}
	return r.run(ctx, "encode pcm", args, outputPath, 0)
}

// GenerateSilence synthesizes a mono silence track of the given duration.
// The pipeline generates its pause track on first use instead of shipping a
// binary audio asset.
func (r *Runner) GenerateSilence(ctx context.Context, outputPath string, duration time.Duration) error {
	if duration <= 0 {
		duration = time.Second
	}
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=mono",
		"-t", fmt.Sprintf("%.3f", duration.Seconds()),
		outputPath,
	}
	return r.run(ctx, "generate silence", args, outputPath, 0)
}

func (r *Runner) run(ctx context.Context, op string, args []string, outputPath string, timeout time.Duration) error {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	output, err := r.exec.Run(runCtx, r.binary, args)
	if err != nil {
		removeIfEmpty(outputPath)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "ffmpeg", op,
				fmt.Sprintf("timed out after %s", timeout), err)
		}
		return services.Wrap(services.ErrExternalTool, "ffmpeg", op, tail(output), err)
	}
	return nil
}

// removeIfEmpty deletes a zero-byte artifact left behind by a failed encode
// so a later existence check does not mistake it for a finished asset.
func removeIfEmpty(path string) {
	if path == "" {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Size() == 0 {
		_ = os.Remove(path)
	}
}

// tail returns the last few lines of tool output, where ffmpeg puts the
// actual failure reason.
func tail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}
