// Command slidecast converts a PowerPoint deck into a narrated video by
// rendering slides to images, extracting speaker notes, synthesizing
// voiceovers, and stitching per-slide clips into a single file.
package main
