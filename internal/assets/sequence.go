package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"slidecast/internal/services"
)

// Entry is one file within a numbered asset sequence.
type Entry struct {
	Index int
	Path  string
}

// Sequence is an index-ordered list of same-kind assets. Ordering is by the
// numeric value of the trailing index, never lexicographic: image_2 sorts
// before image_10.
type Sequence []Entry

// Indices returns the slide indices in sequence order.
func (s Sequence) Indices() []int {
	out := make([]int, len(s))
	for i, entry := range s {
		out[i] = entry.Index
	}
	return out
}

// Paths returns the asset paths in sequence order.
func (s Sequence) Paths() []string {
	out := make([]string, len(s))
	for i, entry := range s {
		out[i] = entry.Path
	}
	return out
}

// Scan reads the sequence directory for a kind, keeping only files matching
// the kind's naming convention, sorted by index. A missing directory yields
// an empty sequence rather than an error.
func Scan(root string, kind Kind) (Sequence, error) {
	dir := Dir(root, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	prefix := string(kind) + "_"
	ext := Ext(kind)
	seq := make(Sequence, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		index, err := Index(name)
		if err != nil {
			continue
		}
		seq = append(seq, Entry{Index: index, Path: filepath.Join(dir, name)})
	}

	sort.Slice(seq, func(i, j int) bool { return seq[i].Index < seq[j].Index })
	return seq, nil
}

// ValidateCorrespondence checks that two parallel sequences line up
// one-to-one: equal counts and, at every position, matching indices. A
// mismatch is a fatal validation error: composing from misaligned sequences
// would attach narration to the wrong slide, which is worse than stopping.
func ValidateCorrespondence(left, right Sequence, leftKind, rightKind Kind) error {
	if len(left) != len(right) {
		return services.Wrap(services.ErrValidation, "assets", "correspondence",
			fmt.Sprintf("%d %s files but %d %s files", len(left), leftKind, len(right), rightKind), nil)
	}
	for i := range left {
		if left[i].Index != right[i].Index {
			return services.Wrap(services.ErrValidation, "assets", "correspondence",
				fmt.Sprintf("%s does not match %s at position %d",
					filepath.Base(left[i].Path), filepath.Base(right[i].Path), i+1), nil)
		}
	}
	return nil
}
