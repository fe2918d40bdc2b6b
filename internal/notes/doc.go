// Package notes extracts speaker notes from .pptx decks into the numbered
// note files the narration stage consumes.
package notes
