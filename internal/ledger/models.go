package ledger

import "time"

// Status tracks how far a run or an individual slide has progressed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRendered  Status = "rendered"
	StatusNoted     Status = "noted"
	StatusNarrated  Status = "narrated"
	StatusComposed  Status = "composed"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one pipeline invocation over a deck.
type Run struct {
	ID        string
	DeckPath  string
	Status    Status
	Detail    string
	StartedAt time.Time
	UpdatedAt time.Time
}

// SlideRecord is the last recorded state of one slide within a run.
type SlideRecord struct {
	RunID     string
	Slide     int
	Stage     string
	Status    Status
	Detail    string
	UpdatedAt time.Time
}
