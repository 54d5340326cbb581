package model

import "time"

// RunStatus tracks the lifecycle of a persisted batch run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusAborted  RunStatus = "aborted"
)

// Run is one persisted batch run.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordSummary is the persisted per-identifier outcome of a run.
type RecordSummary struct {
	Identifier string  `json:"identifier"`
	Outcome    Outcome `json:"outcome"`
	Error      string  `json:"error,omitempty"`
}

// RunSummary aggregates a finished run for persistence.
type RunSummary struct {
	Status    RunStatus
	Succeeded int
	Failed    int
}
