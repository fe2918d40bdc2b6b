package deps

import (
	"os"
	"path/filepath"
	"testing"

	"slidecast/internal/config"
)

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Shell", Command: "sh"},
		{Name: "Ghost", Command: "slidecast-no-such-binary"},
		{Name: "Unset", Command: ""},
	})
	if len(statuses) != 3 {
		t.Fatalf("statuses = %d, want 3", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatalf("sh should be available: %+v", statuses[0])
	}
	if statuses[1].Available || statuses[2].Available {
		t.Fatalf("missing binaries reported available: %+v", statuses[1:])
	}
}

func TestCheckSystemDepsEspeakOptionality(t *testing.T) {
	cfg := config.Default()
	cfg.TTS.Engine = "openai"
	for _, status := range CheckSystemDeps(&cfg) {
		if status.Name == "espeak-ng" && !status.Optional {
			t.Fatal("espeak must be optional when another engine is selected")
		}
	}

	cfg.TTS.Engine = "espeak"
	for _, status := range CheckSystemDeps(&cfg) {
		if status.Name == "espeak-ng" && status.Optional {
			t.Fatal("espeak must be required when it is the selected engine")
		}
	}
}

func TestMissingRequired(t *testing.T) {
	statuses := []Status{
		{Name: "A", Available: true},
		{Name: "B", Available: false},
		{Name: "C", Available: false, Optional: true},
	}
	missing := MissingRequired(statuses)
	if len(missing) != 1 || missing[0].Name != "B" {
		t.Fatalf("missing = %+v, want only B", missing)
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("assets", dir); !result.Passed {
		t.Fatalf("writable directory should pass: %+v", result)
	}
	if result := CheckDirectoryAccess("assets", filepath.Join(dir, "missing")); result.Passed {
		t.Fatal("missing directory should fail")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if result := CheckDirectoryAccess("assets", file); result.Passed {
		t.Fatal("regular file should fail the directory check")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	if result := CheckFreeSpace("assets", t.TempDir()); result.Detail == "" {
		t.Fatal("free space check must report detail")
	}
}
