// Package pipeline drives a deck through render, notes, narrate, compose,
// and assemble, aggregating per-slide failures along the way.
package pipeline
