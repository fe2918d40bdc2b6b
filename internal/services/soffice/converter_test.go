package soffice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slidecast/internal/services"
)

type fakeExecutor struct {
	calls    [][]string
	err      error
	onRun    func()
	pdfBytes []byte
	outDir   string
	stem     string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	if f.onRun != nil {
		f.onRun()
	}
	if f.err != nil {
		return "conversion failed", f.err
	}
	if f.pdfBytes != nil {
		path := filepath.Join(f.outDir, f.stem+".pdf")
		if err := os.WriteFile(path, f.pdfBytes, 0o644); err != nil {
			return "", err
		}
	}
	return "", nil
}

func TestConvertProducesPDFPath(t *testing.T) {
	outDir := t.TempDir()
	exec := &fakeExecutor{pdfBytes: []byte("%PDF-1.7"), outDir: outDir, stem: "deck"}
	converter, err := New("libreoffice", WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	pdfPath, err := converter.Convert(context.Background(), "/input/deck.pptx", outDir)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if pdfPath != filepath.Join(outDir, "deck.pdf") {
		t.Fatalf("unexpected pdf path: %s", pdfPath)
	}

	args := exec.calls[0]
	if args[1] != "--headless" {
		t.Fatalf("expected headless invocation, got %v", args)
	}
}

func TestConvertMissingOutputIsFailure(t *testing.T) {
	outDir := t.TempDir()
	exec := &fakeExecutor{} // exits 0 but writes nothing
	converter, _ := New("libreoffice", WithExecutor(exec))

	_, err := converter.Convert(context.Background(), "/input/deck.pptx", outDir)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestConvertToolError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 77")}
	converter, _ := New("libreoffice", WithExecutor(exec))

	_, err := converter.Convert(context.Background(), "/input/deck.pptx", t.TempDir())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}
