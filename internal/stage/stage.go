// Package stage defines the contract between the pipeline driver and the
// individual processing stages.
package stage

import "context"

// Run carries the mutable state of one pipeline invocation through the
// stages.
type Run struct {
	ID         string
	DeckPath   string
	AssetsRoot string
	OutputPath string
	Overwrite  bool

	// SlideCount is set by the first stage that learns the deck size and is
	// the expected length of every asset sequence from then on.
	SlideCount int

	Failures []Failure
}

// Failure records one recoverable per-slide problem. Slide 0 marks a
// stage-level failure not tied to a single slide.
type Failure struct {
	Stage string
	Slide int
	Err   error
}

// AddFailure appends a failure to the run.
func (r *Run) AddFailure(stage string, slide int, err error) {
	r.Failures = append(r.Failures, Failure{Stage: stage, Slide: slide, Err: err})
}

// Failed reports whether any stage recorded a failure.
func (r *Run) Failed() bool { return len(r.Failures) > 0 }

// Handler is one pipeline stage.
type Handler interface {
	// Name identifies the stage in logs, the ledger, and CLI output.
	Name() string
	// Execute performs the stage's work, recording recoverable per-slide
	// problems on the run and returning an error only when the stage cannot
	// continue at all.
	Execute(ctx context.Context, run *Run) error
	// HealthCheck reports whether the stage could run right now.
	HealthCheck(ctx context.Context) Health
}
