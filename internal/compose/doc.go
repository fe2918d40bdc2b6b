// Package compose encodes per-slide video clips from matched image and
// voiceover pairs.
package compose
