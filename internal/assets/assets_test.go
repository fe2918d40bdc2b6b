package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathDerivation(t *testing.T) {
	got := Path("/srv/assets", KindVoiceover, 12)
	want := filepath.Join("/srv/assets", "voiceovers", "voiceover_12.mp3")
	if got != want {
		t.Fatalf("Path = %s, want %s", got, want)
	}
	if got := Path("/a", KindClip, 1); got != filepath.Join("/a", "videoclips", "videoclip_1.mp4") {
		t.Fatalf("unexpected clip path: %s", got)
	}
}

func TestIndexExtraction(t *testing.T) {
	cases := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"image_1.png", 1, false},
		{"image_10.png", 10, false},
		{"voiceover_007.mp3", 7, false},
		{"image.png", 0, true},
		{"image_.png", 0, true},
		{"image_x.png", 0, true},
		{"image_0.png", 0, true},
		{"/assets/images/image_3.png", 3, false},
	}
	for _, tc := range cases {
		got, err := Index(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Index(%q): expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("Index(%q): unexpected error %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Index(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func writeAsset(t *testing.T, root string, kind Kind, index int) {
	t.Helper()
	path := Path(root, kind, index)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanNaturalOrder(t *testing.T) {
	root := t.TempDir()
	// Deliberately includes index 10 so lexicographic ordering would put it
	// between 1 and 2.
	for _, i := range []int{10, 2, 1} {
		writeAsset(t, root, KindImage, i)
	}
	// Noise the scan must ignore.
	if err := os.WriteFile(filepath.Join(Dir(root, KindImage), "thumbs.db"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	seq, err := Scan(root, KindImage)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	got := seq.Indices()
	want := []int{1, 2, 10}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", got, want)
		}
	}
}

func TestScanMissingDir(t *testing.T) {
	seq, err := Scan(t.TempDir(), KindClip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seq) != 0 {
		t.Fatalf("expected empty sequence, got %v", seq)
	}
}

func TestValidateCorrespondenceMatched(t *testing.T) {
	root := t.TempDir()
	for _, i := range []int{1, 2, 10} {
		writeAsset(t, root, KindImage, i)
		writeAsset(t, root, KindVoiceover, i)
	}
	images, _ := Scan(root, KindImage)
	voiceovers, _ := Scan(root, KindVoiceover)

	if err := ValidateCorrespondence(images, voiceovers, KindImage, KindVoiceover); err != nil {
		t.Fatalf("expected matching sequences, got %v", err)
	}
	// Index 10 must pair with index 10 at the same position.
	if images[2].Index != 10 || voiceovers[2].Index != 10 {
		t.Fatalf("natural ordering broken: %v vs %v", images.Indices(), voiceovers.Indices())
	}
}

func TestValidateCorrespondenceCountMismatch(t *testing.T) {
	root := t.TempDir()
	for i := 1; i <= 10; i++ {
		writeAsset(t, root, KindVoiceover, i)
		if i < 10 {
			writeAsset(t, root, KindImage, i)
		}
	}
	images, _ := Scan(root, KindImage)
	voiceovers, _ := Scan(root, KindVoiceover)

	err := ValidateCorrespondence(images, voiceovers, KindImage, KindVoiceover)
	if err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestValidateCorrespondenceIndexMismatch(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, KindImage, 1)
	writeAsset(t, root, KindImage, 2)
	writeAsset(t, root, KindVoiceover, 1)
	writeAsset(t, root, KindVoiceover, 3)

	images, _ := Scan(root, KindImage)
	voiceovers, _ := Scan(root, KindVoiceover)

	err := ValidateCorrespondence(images, voiceovers, KindImage, KindVoiceover)
	if err == nil {
		t.Fatal("expected index mismatch error")
	}
}
