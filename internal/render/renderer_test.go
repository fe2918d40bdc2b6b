package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"slidecast/internal/logging"
	"slidecast/internal/services/soffice"
)

// fakePDFExecutor stands in for the office converter binary and writes the
// expected PDF into the --outdir argument.
type fakePDFExecutor struct {
	fail bool
}

func (f *fakePDFExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	if f.fail {
		return "conversion error", fmt.Errorf("exit status 1")
	}
	var deck, outDir string
	for i, arg := range args {
		switch arg {
		case "--outdir":
			outDir = args[i+1]
		case "pdf":
			deck = args[i+1]
		}
	}
	stem := filepath.Base(deck)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	return "", os.WriteFile(filepath.Join(outDir, stem+".pdf"), []byte("%PDF-1.4"), 0o644)
}

// fakeRasterExecutor stands in for pdftoppm, emitting real PNG pages with
// the zero-padded numbering the tool uses.
type fakeRasterExecutor struct {
	t     *testing.T
	pages int
	width int
}

func (f *fakeRasterExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	prefix := args[len(args)-1]
	pad := len(fmt.Sprintf("%d", f.pages))
	for page := 1; page <= f.pages; page++ {
		name := fmt.Sprintf("%s-%0*d.png", prefix, pad, page)
		writePNG(f.t, name, f.width, f.width*3/4)
	}
	return "", nil
}

func newTestRenderer(t *testing.T, raster Executor) *Renderer {
	t.Helper()
	converter, err := soffice.New("soffice", soffice.WithExecutor(&fakePDFExecutor{}))
	if err != nil {
		t.Fatalf("soffice.New: %v", err)
	}
	renderer, err := New(converter, "pdftoppm", logging.NewNop(),
		WithExecutor(raster), WithDPI(150), WithMaxWidth(1920))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return renderer
}

func TestRenderProducesNumberedEvenImages(t *testing.T) {
	renderer := newTestRenderer(t, &fakeRasterExecutor{t: t, pages: 12, width: 801})
	imagesDir := filepath.Join(t.TempDir(), "images")

	deck := filepath.Join(t.TempDir(), "talk.pptx")
	if err := os.WriteFile(deck, []byte("deck"), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}

	result, err := renderer.Render(context.Background(), deck, imagesDir)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.SlideCount != 12 {
		t.Fatalf("SlideCount = %d, want 12", result.SlideCount)
	}
	for page := 1; page <= 12; page++ {
		path := filepath.Join(imagesDir, fmt.Sprintf("image_%d.png", page))
		width, height := pngDimensions(t, path)
		if width%2 != 0 || height%2 != 0 {
			t.Fatalf("image_%d.png has odd dimensions %dx%d", page, width, height)
		}
	}
	// Zero-padded rasterizer names must not survive as-is: page 10 becomes
	// image_10.png, not image_010.png.
	if _, err := os.Stat(filepath.Join(imagesDir, "image_010.png")); !os.IsNotExist(err) {
		t.Fatal("zero-padded page name leaked into the image sequence")
	}
}

func TestRenderFailsWhenRasterizerProducesNothing(t *testing.T) {
	renderer := newTestRenderer(t, &fakeRasterExecutor{t: t, pages: 0, width: 800})
	deck := filepath.Join(t.TempDir(), "talk.pptx")
	if err := os.WriteFile(deck, []byte("deck"), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	if _, err := renderer.Render(context.Background(), deck, t.TempDir()); err == nil {
		t.Fatal("expected error when no pages are produced")
	}
}

func TestRenderPropagatesConversionFailure(t *testing.T) {
	converter, err := soffice.New("soffice", soffice.WithExecutor(&fakePDFExecutor{fail: true}))
	if err != nil {
		t.Fatalf("soffice.New: %v", err)
	}
	renderer, err := New(converter, "pdftoppm", logging.NewNop(),
		WithExecutor(&fakeRasterExecutor{t: t, pages: 1, width: 800}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	deck := filepath.Join(t.TempDir(), "talk.pptx")
	if err := os.WriteFile(deck, []byte("deck"), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	if _, err := renderer.Render(context.Background(), deck, t.TempDir()); err == nil {
		t.Fatal("expected conversion failure to propagate")
	}
}
