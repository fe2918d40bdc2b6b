package narrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"slidecast/internal/assets"
	"slidecast/internal/logging"
	"slidecast/internal/services/ffmpeg"
	"slidecast/internal/services/tts"
)

// fakeTTS returns canned mp3 bytes, failing for texts listed in failOn.
type fakeTTS struct {
	failOn map[string]error
	calls  int
}

func (f *fakeTTS) Name() string { return "fake" }

func (f *fakeTTS) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	f.calls++
	if err, ok := f.failOn[text]; ok {
		return tts.Audio{}, err
	}
	return tts.Audio{Data: []byte("speech:" + text), Format: tts.FormatMP3}, nil
}

// fakeFFmpegExecutor writes placeholder bytes to the output path, which is
// always the final argument of the invocations the narrator issues.
type fakeFFmpegExecutor struct{}

func (fakeFFmpegExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	return "", os.WriteFile(args[len(args)-1], []byte("wrapped"), 0o644)
}

func setupAssets(t *testing.T, notes map[int]string) (string, string) {
	t.Helper()
	root := t.TempDir()
	notesDir := assets.Dir(root, assets.KindNote)
	if err := os.MkdirAll(notesDir, 0o755); err != nil {
		t.Fatalf("mkdir notes: %v", err)
	}
	for index, text := range notes {
		path := assets.Path(root, assets.KindNote, index)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatalf("write note %d: %v", index, err)
		}
	}
	silence := filepath.Join(root, "silence.mp3")
	if err := os.WriteFile(silence, []byte("silence-bytes"), 0o644); err != nil {
		t.Fatalf("write silence: %v", err)
	}
	return root, silence
}

func newTestNarrator(t *testing.T, client tts.Client, opts ...Option) *Narrator {
	t.Helper()
	synth, err := tts.NewSynthesizer(client)
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}
	runner, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(fakeFFmpegExecutor{}))
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}
	narrator, err := New(synth, runner, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return narrator
}

func TestRunSynthesizesAndSubstitutesSilence(t *testing.T) {
	root, silence := setupAssets(t, map[int]string{
		1: "Welcome to the talk.",
		2: "   \n ",
		3: "Closing remarks.",
	})
	narrator := newTestNarrator(t, &fakeTTS{})

	result, err := narrator.Run(context.Background(), root, silence, 0, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := fmt.Sprint(result.Synthesized); got != "[1 3]" {
		t.Fatalf("Synthesized = %v", result.Synthesized)
	}
	if got := fmt.Sprint(result.Silent); got != "[2]" {
		t.Fatalf("Silent = %v", result.Silent)
	}
	if result.Failed() {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}

	// The empty-notes slide gets a byte copy of the silence track.
	content, err := os.ReadFile(assets.Path(root, assets.KindVoiceover, 2))
	if err != nil {
		t.Fatalf("read silent voiceover: %v", err)
	}
	if string(content) != "silence-bytes" {
		t.Fatalf("silent voiceover = %q, want the silence track", content)
	}

	// No temp files may survive the run.
	checkNoTempFiles(t, root)
}

func TestRunCoversSlidesWithoutNoteFiles(t *testing.T) {
	// Slide 2 has no notes part at all, so extraction wrote no file for it.
	root, silence := setupAssets(t, map[int]string{
		1: "First slide.",
		3: "Third slide.",
	})
	narrator := newTestNarrator(t, &fakeTTS{})

	result, err := narrator.Run(context.Background(), root, silence, 3, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := fmt.Sprint(result.Synthesized); got != "[1 3]" {
		t.Fatalf("Synthesized = %v", result.Synthesized)
	}
	if got := fmt.Sprint(result.Silent); got != "[2]" {
		t.Fatalf("Silent = %v", result.Silent)
	}
	content, err := os.ReadFile(assets.Path(root, assets.KindVoiceover, 2))
	if err != nil {
		t.Fatalf("read silent voiceover: %v", err)
	}
	if string(content) != "silence-bytes" {
		t.Fatalf("voiceover for note-less slide = %q, want the silence track", content)
	}
}

func checkNoTempFiles(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(assets.Dir(root, assets.KindVoiceover))
	if err != nil {
		t.Fatalf("read voiceover dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), tempSuffix) {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestRunSkipsExistingUnlessOverwrite(t *testing.T) {
	root, silence := setupAssets(t, map[int]string{1: "Hello."})
	existing := assets.Path(root, assets.KindVoiceover, 1)
	if err := os.MkdirAll(filepath.Dir(existing), 0o755); err != nil {
		t.Fatalf("mkdir voiceovers: %v", err)
	}
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatalf("write existing voiceover: %v", err)
	}

	client := &fakeTTS{}
	narrator := newTestNarrator(t, client)

	result, err := narrator.Run(context.Background(), root, silence, 0, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := fmt.Sprint(result.Skipped); got != "[1]" {
		t.Fatalf("Skipped = %v", result.Skipped)
	}
	if client.calls != 0 {
		t.Fatalf("synthesis ran despite existing voiceover (%d calls)", client.calls)
	}

	result, err = narrator.Run(context.Background(), root, silence, 0, true)
	if err != nil {
		t.Fatalf("Run with overwrite: %v", err)
	}
	if got := fmt.Sprint(result.Synthesized); got != "[1]" {
		t.Fatalf("Synthesized = %v", result.Synthesized)
	}
	if client.calls != 1 {
		t.Fatalf("overwrite should re-synthesize, got %d calls", client.calls)
	}
}

func TestRunRecordsPerSlideFailures(t *testing.T) {
	root, silence := setupAssets(t, map[int]string{
		1: "First.",
		2: "Broken.",
		3: "Third.",
	})
	client := &fakeTTS{failOn: map[string]error{"Broken.": errors.New("backend exploded")}}
	narrator := newTestNarrator(t, client)

	result, err := narrator.Run(context.Background(), root, silence, 0, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Failures) != 1 || result.Failures[0].Index != 2 {
		t.Fatalf("Failures = %v, want slide 2", result.Failures)
	}
	if got := fmt.Sprint(result.Synthesized); got != "[1 3]" {
		t.Fatalf("other slides must still narrate, Synthesized = %v", result.Synthesized)
	}
}

func TestRunFailFastStopsOnFirstFailure(t *testing.T) {
	root, silence := setupAssets(t, map[int]string{
		1: "Broken.",
		2: "Second.",
	})
	client := &fakeTTS{failOn: map[string]error{"Broken.": errors.New("backend exploded")}}
	narrator := newTestNarrator(t, client, WithFailFast(true))

	if _, err := narrator.Run(context.Background(), root, silence, 0, false); err == nil {
		t.Fatal("fail-fast run must return the slide error")
	}
}

func TestRunRequiresSilenceTrack(t *testing.T) {
	root, _ := setupAssets(t, map[int]string{1: "Hello."})
	narrator := newTestNarrator(t, &fakeTTS{})
	if _, err := narrator.Run(context.Background(), root, filepath.Join(root, "missing.mp3"), 0, false); err == nil {
		t.Fatal("expected error for missing silence track")
	}
}

func TestRunRequiresNotes(t *testing.T) {
	root := t.TempDir()
	silence := filepath.Join(root, "silence.mp3")
	if err := os.WriteFile(silence, []byte("s"), 0o644); err != nil {
		t.Fatalf("write silence: %v", err)
	}
	narrator := newTestNarrator(t, &fakeTTS{})
	if _, err := narrator.Run(context.Background(), root, silence, 0, false); err == nil {
		t.Fatal("expected error when no notes exist")
	}
}

type recordedLog struct {
	message string
	attrs   map[string]any
}

// captureHandler collects records with their accumulated attributes.
type captureHandler struct {
	mu    *sync.Mutex
	logs  *[]recordedLog
	attrs []slog.Attr
}

func (h captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h captureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	for _, attr := range h.attrs {
		attrs[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.Any()
		return true
	})
	h.mu.Lock()
	*h.logs = append(*h.logs, recordedLog{message: r.Message, attrs: attrs})
	h.mu.Unlock()
	return nil
}

func (h captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return h
}

func (h captureHandler) WithGroup(string) slog.Handler { return h }

func TestNarrationLogsCarrySlideField(t *testing.T) {
	root, silence := setupAssets(t, map[int]string{1: "Hello."})

	var (
		mu   sync.Mutex
		logs []recordedLog
	)
	logger := slog.New(captureHandler{mu: &mu, logs: &logs})

	synth, err := tts.NewSynthesizer(&fakeTTS{})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}
	runner, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(fakeFFmpegExecutor{}))
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}
	narrator, err := New(synth, runner, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := narrator.Run(context.Background(), root, silence, 0, false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, entry := range logs {
		if entry.message != "voiceover ready" {
			continue
		}
		if got := fmt.Sprint(entry.attrs[logging.FieldSlide]); got != "1" {
			t.Fatalf("slide field = %q, want 1 (attrs: %v)", got, entry.attrs)
		}
		return
	}
	t.Fatal("no voiceover ready record captured")
}
