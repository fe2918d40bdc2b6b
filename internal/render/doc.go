// Package render rasterizes a slide deck into the numbered PNG sequence,
// going deck -> PDF -> pages, and guarantees encoder-safe even dimensions.
package render
