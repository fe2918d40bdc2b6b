// Package tts converts note text to speech audio through one of three
// interchangeable backends: the commercial OpenAI-compatible HTTP API, the
// cloud neural Gemini speech models, or a local espeak-ng process. The
// Synthesizer wrapper owns the rate-limit retry protocol: it parses the
// server's reset hint, coordinates a shared cooldown gate across workers,
// and re-invokes the whole call a bounded number of times.
package tts
