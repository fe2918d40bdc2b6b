// Package assemble concatenates the per-slide clips into the final narrated
// video.
package assemble
