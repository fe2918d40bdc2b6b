package notes

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"slidecast/internal/assets"
	"slidecast/internal/logging"
	"slidecast/internal/services"
)

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Result summarizes one extraction run.
type Result struct {
	SlideCount int
	// Written holds the slide indices that produced a note file.
	Written []int
}

// Extractor reads speaker notes out of a .pptx deck. A deck is an OPC zip;
// slide n's notes live in ppt/notesSlides/notesSlide<n>.xml when present.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor constructs an extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logging.NewComponentLogger(logger, "notes")}
}

// Extract writes one note_<n>.txt per slide that has a notes part, in
// document order. Slides without a notes part produce no file. A deck that
// cannot be opened is fatal; a single slide whose notes part cannot be
// parsed is logged and treated as having empty notes.
func (e *Extractor) Extract(ctx context.Context, deckPath, notesDir string) (Result, error) {
	reader, err := zip.OpenReader(deckPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "notes", "open deck", deckPath, err)
	}
	defer reader.Close()

	slideCount := 0
	notesParts := make(map[int]*zip.File)
	for _, file := range reader.File {
		if slidePartPattern.MatchString(file.Name) {
			slideCount++
			continue
		}
		if index, ok := notesSlideIndex(file.Name); ok {
			notesParts[index] = file
		}
	}
	if slideCount == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "notes", "open deck",
			fmt.Sprintf("%s contains no slides", deckPath), nil)
	}

	if err := os.MkdirAll(notesDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create notes directory: %w", err)
	}

	result := Result{SlideCount: slideCount}
	for index := 1; index <= slideCount; index++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		part, ok := notesParts[index]
		if !ok {
			e.logger.Debug("slide has no notes part", logging.Slide(index))
			continue
		}

		text, err := readNotesText(part)
		if err != nil {
			e.logger.Warn("failed to parse notes, treating slide as silent",
				logging.Slide(index), logging.Error(err))
			text = ""
		}

		notePath := filepath.Join(notesDir, assets.FileName(assets.KindNote, index))
		if err := os.WriteFile(notePath, []byte(text), 0o644); err != nil {
			return result, fmt.Errorf("write note for slide %d: %w", index, err)
		}
		result.Written = append(result.Written, index)
		e.logger.Info("extracted notes", logging.Slide(index), logging.Asset(notePath))
	}

	e.logger.Info("notes extraction complete",
		logging.Int("slides", slideCount),
		logging.Int("notes", len(result.Written)),
	)
	return result, nil
}

func notesSlideIndex(name string) (int, bool) {
	const prefix = "ppt/notesSlides/notesSlide"
	const suffix = ".xml"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	index, err := strconv.Atoi(digits)
	if err != nil || index < 1 {
		return 0, false
	}
	return index, true
}

// readNotesText extracts the trimmed text of the notes body placeholder.
// Other shapes on the notes slide (slide thumbnail, page number) are
// skipped: narrating the page number aloud would be absurd.
func readNotesText(part *zip.File) (string, error) {
	rc, err := part.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return parseNotesXML(rc)
}

func parseNotesXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		b         strings.Builder
		inShape   bool
		shapeText strings.Builder
		isBody    bool
		depth     int
		shapeAt   int
	)

	flush := func() {
		if isBody {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(shapeText.String())
		}
		shapeText.Reset()
		isBody = false
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse notes xml: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			depth++
			switch element.Name.Local {
			case "sp":
				if !inShape {
					inShape = true
					shapeAt = depth
				}
			case "ph":
				if inShape {
					for _, attr := range element.Attr {
						if attr.Name.Local == "type" && attr.Value == "body" {
							isBody = true
						}
					}
				}
			case "t":
				if inShape {
					var text string
					if err := decoder.DecodeElement(&text, &element); err != nil {
						return "", fmt.Errorf("parse notes run: %w", err)
					}
					depth--
					shapeText.WriteString(text)
				}
			case "br":
				if inShape {
					shapeText.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch element.Name.Local {
			case "sp":
				if inShape && depth == shapeAt {
					flush()
					inShape = false
				}
			case "p":
				if inShape {
					shapeText.WriteByte('\n')
				}
			}
			depth--
		}
	}

	return strings.TrimSpace(b.String()), nil
}
