package ffprobe

import (
	"encoding/json"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "png", "width": 1919, "height": 1081},
    {"index": 1, "codec_type": "audio", "codec_name": "mp3", "sample_rate": "44100", "channels": 2}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 2, "duration": "12.480000", "format_name": "mov,mp4"}
}`

func TestResultHelpers(t *testing.T) {
	var result Result
	if err := json.Unmarshal([]byte(sampleJSON), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	w, h, err := result.VideoDimensions()
	if err != nil {
		t.Fatalf("dimensions: %v", err)
	}
	if w != 1919 || h != 1081 {
		t.Fatalf("dimensions = %dx%d", w, h)
	}
	if got := result.AudioStreamCount(); got != 1 {
		t.Fatalf("audio streams = %d", got)
	}
	if got := result.DurationSeconds(); got != 12.48 {
		t.Fatalf("duration = %v", got)
	}
}

func TestNoVideoStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}}
	if _, _, err := result.VideoDimensions(); err == nil {
		t.Fatal("expected error for audio-only container")
	}
}

func TestDurationUnparseable(t *testing.T) {
	result := Result{Format: Format{Duration: "N/A"}}
	if got := result.DurationSeconds(); got != 0 {
		t.Fatalf("expected 0 for unparseable duration, got %v", got)
	}
}
