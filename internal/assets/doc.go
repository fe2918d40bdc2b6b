// Package assets implements the directory convention that joins the four
// numbered sequences of the pipeline (rendered images, note texts, voiceover
// audio, composed clips) on the 1-based slide index. All coordination between
// stages happens through these files; the path derivation and natural
// index ordering here are what make runs resumable.
package assets
