// Package textutil provides text helpers for log previews of note content.
package textutil

import "strings"

// WrapPreview reflows text into lines of at most width characters, breaking
// on word boundaries. Words longer than the width occupy their own line.
// Used to echo note text into the narrate log before synthesis.
func WrapPreview(text string, width int) string {
	if width <= 0 {
		width = 80
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if i == 0 {
			b.WriteString(word)
			lineLen = len(word)
			continue
		}
		if lineLen+1+len(word) > width {
			b.WriteByte('\n')
			b.WriteString(word)
			lineLen = len(word)
			continue
		}
		b.WriteByte(' ')
		b.WriteString(word)
		lineLen += 1 + len(word)
	}
	return b.String()
}
