// Package services holds cross-stage error classification and context
// annotation helpers shared by the external tool wrappers under
// internal/services/... and the pipeline stages that call them.
//
// Errors produced by stages are tagged with one of the sentinel markers
// (ErrExternalTool, ErrValidation, ErrConfiguration, ErrNotFound, ErrTimeout,
// ErrRateLimited, ErrTransient) via Wrap so callers can decide between
// halting the run and failing a single slide.
package services
