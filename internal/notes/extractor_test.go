package notes

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidecast/internal/logging"
)

func notesSlideXML(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<p:notes xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree>`)
	// Slide-number placeholder that must never leak into the narration.
	b.WriteString(`<p:sp><p:nvSpPr><p:nvPr><p:ph type="sldNum"/></p:nvPr></p:nvSpPr><p:txBody><a:p><a:r><a:t>4</a:t></a:r></a:p></p:txBody></p:sp>`)
	b.WriteString(`<p:sp><p:nvSpPr><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr><p:txBody>`)
	for _, para := range paragraphs {
		b.WriteString(`<a:p><a:r><a:t>`)
		b.WriteString(para)
		b.WriteString(`</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:notes>`)
	return b.String()
}

func writeDeck(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}
	writer := zip.NewWriter(file)
	for name, content := range parts {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close deck: %v", err)
	}
	return path
}

func TestExtractWritesNotesInSlideOrder(t *testing.T) {
	deck := writeDeck(t, map[string]string{
		"ppt/slides/slide1.xml":           "<p:sld/>",
		"ppt/slides/slide2.xml":           "<p:sld/>",
		"ppt/slides/slide3.xml":           "<p:sld/>",
		"ppt/notesSlides/notesSlide1.xml": notesSlideXML("Welcome to the talk."),
		"ppt/notesSlides/notesSlide3.xml": notesSlideXML("First point.", "Second point."),
	})
	notesDir := filepath.Join(t.TempDir(), "notes")

	extractor := NewExtractor(logging.NewNop())
	result, err := extractor.Extract(context.Background(), deck, notesDir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.SlideCount != 3 {
		t.Fatalf("SlideCount = %d, want 3", result.SlideCount)
	}
	if len(result.Written) != 2 || result.Written[0] != 1 || result.Written[1] != 3 {
		t.Fatalf("Written = %v, want [1 3]", result.Written)
	}

	content, err := os.ReadFile(filepath.Join(notesDir, "note_1.txt"))
	if err != nil {
		t.Fatalf("read note_1.txt: %v", err)
	}
	if got := string(content); got != "Welcome to the talk." {
		t.Fatalf("note_1.txt = %q", got)
	}

	content, err = os.ReadFile(filepath.Join(notesDir, "note_3.txt"))
	if err != nil {
		t.Fatalf("read note_3.txt: %v", err)
	}
	if got := string(content); got != "First point.\nSecond point." {
		t.Fatalf("note_3.txt = %q", got)
	}

	// Slide 2 has no notes part, so no file may appear for it.
	if _, err := os.Stat(filepath.Join(notesDir, "note_2.txt")); !os.IsNotExist(err) {
		t.Fatalf("note_2.txt should not exist, stat err = %v", err)
	}
}

func TestExtractIgnoresSlideNumberPlaceholder(t *testing.T) {
	deck := writeDeck(t, map[string]string{
		"ppt/slides/slide1.xml":           "<p:sld/>",
		"ppt/notesSlides/notesSlide1.xml": notesSlideXML("Real narration."),
	})
	notesDir := filepath.Join(t.TempDir(), "notes")

	extractor := NewExtractor(logging.NewNop())
	if _, err := extractor.Extract(context.Background(), deck, notesDir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(notesDir, "note_1.txt"))
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if strings.Contains(string(content), "4") {
		t.Fatalf("slide number leaked into notes: %q", content)
	}
}

func TestExtractMalformedNotesTreatedAsEmpty(t *testing.T) {
	deck := writeDeck(t, map[string]string{
		"ppt/slides/slide1.xml":           "<p:sld/>",
		"ppt/notesSlides/notesSlide1.xml": "<p:notes><unclosed",
	})
	notesDir := filepath.Join(t.TempDir(), "notes")

	extractor := NewExtractor(logging.NewNop())
	result, err := extractor.Extract(context.Background(), deck, notesDir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Written) != 1 {
		t.Fatalf("Written = %v, want the malformed slide written as empty", result.Written)
	}
	content, err := os.ReadFile(filepath.Join(notesDir, "note_1.txt"))
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if len(content) != 0 {
		t.Fatalf("note should be empty, got %q", content)
	}
}

func TestExtractRejectsDeckWithoutSlides(t *testing.T) {
	deck := writeDeck(t, map[string]string{"docProps/core.xml": "<x/>"})
	extractor := NewExtractor(logging.NewNop())
	if _, err := extractor.Extract(context.Background(), deck, t.TempDir()); err == nil {
		t.Fatal("expected error for deck without slides")
	}
}

func TestExtractMissingDeck(t *testing.T) {
	extractor := NewExtractor(logging.NewNop())
	if _, err := extractor.Extract(context.Background(), "/nonexistent/deck.pptx", t.TempDir()); err == nil {
		t.Fatal("expected error for missing deck")
	}
}
