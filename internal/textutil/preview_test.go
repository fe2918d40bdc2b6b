package textutil

import (
	"strings"
	"testing"
)

func TestWrapPreview(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	wrapped := WrapPreview(text, 15)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 15 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
	if strings.Join(strings.Fields(wrapped), " ") != text {
		t.Fatalf("words lost or reordered: %q", wrapped)
	}
}

func TestWrapPreviewEmpty(t *testing.T) {
	if got := WrapPreview("   \n\t ", 80); got != "" {
		t.Fatalf("expected empty preview, got %q", got)
	}
}

func TestWrapPreviewLongWord(t *testing.T) {
	got := WrapPreview("short antidisestablishmentarianism word", 10)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), got)
	}
}

func TestWrapPreviewDefaultWidth(t *testing.T) {
	text := strings.Repeat("word ", 30)
	wrapped := WrapPreview(text, 0)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 80 {
			t.Fatalf("default width not applied: %q", line)
		}
	}
}
