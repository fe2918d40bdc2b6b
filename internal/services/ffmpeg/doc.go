// Package ffmpeg wraps the ffmpeg CLI invocations used by the pipeline:
// still-image clip composition, silence padding around synthesized speech,
// PCM transcoding, and concat-demuxer assembly of the final video. Encode
// calls carry hard timeouts and convert a deadline into a typed timeout
// error instead of hanging the pipeline.
package ffmpeg
