// Package logging wraps log/slog with the handlers and field conventions used
// across the pipeline: a human-oriented console handler (color when attached
// to a terminal), a JSON handler for log files, and helpers that derive
// per-stage and per-slide attributes from context.
package logging
