package assets

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind identifies one of the parallel numbered asset sequences.
type Kind string

const (
	KindImage     Kind = "image"
	KindNote      Kind = "note"
	KindVoiceover Kind = "voiceover"
	KindClip      Kind = "videoclip"
)

// ManifestName is the concat manifest filename inside the clips directory.
const ManifestName = "concat_list.txt"

var kindLayout = map[Kind]struct {
	dir string
	ext string
}{
	KindImage:     {dir: "images", ext: ".png"},
	KindNote:      {dir: "notes", ext: ".txt"},
	KindVoiceover: {dir: "voiceovers", ext: ".mp3"},
	KindClip:      {dir: "videoclips", ext: ".mp4"},
}

// Dir returns the sequence directory for a kind under the assets root.
func Dir(root string, kind Kind) string {
	layout, ok := kindLayout[kind]
	if !ok {
		return root
	}
	return filepath.Join(root, layout.dir)
}

// Path derives the asset file path for (kind, index) under the assets root.
// Index is the 1-based slide index, the sole join key across sequences.
func Path(root string, kind Kind, index int) string {
	return filepath.Join(Dir(root, kind), FileName(kind, index))
}

// FileName returns the bare filename for (kind, index), e.g. "image_3.png".
func FileName(kind Kind, index int) string {
	layout := kindLayout[kind]
	return fmt.Sprintf("%s_%d%s", kind, index, layout.ext)
}

// Ext returns the file extension used by a kind, including the dot.
func Ext(kind Kind) string {
	return kindLayout[kind].ext
}

// Index extracts the trailing integer from an asset filename, e.g. 10 from
// "image_10.png". Returns an error when no usable suffix is present.
func Index(name string) (int, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	pos := strings.LastIndex(stem, "_")
	if pos < 0 || pos == len(stem)-1 {
		return 0, fmt.Errorf("no index suffix in %q", base)
	}
	index, err := strconv.Atoi(stem[pos+1:])
	if err != nil {
		return 0, fmt.Errorf("non-numeric index suffix in %q", base)
	}
	if index < 1 {
		return 0, fmt.Errorf("index must be positive in %q", base)
	}
	return index, nil
}
