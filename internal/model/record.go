// Package model defines the record and run types shared across the fetch pipeline.
package model

import (
	"github.com/rotisserie/eris"
)

// Outcome is the terminal state of one identifier's fetch.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeAuthFailure Outcome = "auth_failure"
	OutcomeError       Outcome = "error"
)

// StageStatus is the result status of one pipeline stage.
type StageStatus string

const (
	StageOK       StageStatus = "ok"
	StageDegraded StageStatus = "degraded"
	StageSkipped  StageStatus = "skipped"
)

// StageResult is the tagged output of one pipeline stage. Degraded results
// carry a reason instead of fields and never abort the item.
type StageResult struct {
	Name   string
	Status StageStatus
	Fields map[string]any
	Reason string
}

// OK builds a successful stage result carrying fields to merge.
func OK(name string, fields map[string]any) StageResult {
	return StageResult{Name: name, Status: StageOK, Fields: fields}
}

// Degraded builds a soft-failure stage result. The reason is recorded as a
// warning on the record.
func Degraded(name, reason string) StageResult {
	return StageResult{Name: name, Status: StageDegraded, Reason: reason}
}

// Skipped builds a stage result for a stage whose branch condition was not met.
func Skipped(name string) StageResult {
	return StageResult{Name: name, Status: StageSkipped}
}

// ProfileRecord is the accumulating per-identifier result. It is mutated only
// by the single pipeline run that owns it and becomes immutable once the
// outcome is set.
type ProfileRecord struct {
	Identifier string         `json:"identifier"`
	Fields     map[string]any `json:"fields,omitempty"`
	Outcome    Outcome        `json:"outcome,omitempty"`
	Err        string         `json:"error,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// NewRecord creates an empty record for an admitted identifier.
func NewRecord(identifier string) *ProfileRecord {
	return &ProfileRecord{
		Identifier: identifier,
		Fields:     make(map[string]any),
	}
}

// Failed creates a terminal record for an identifier that never produced a
// base record.
func Failed(identifier string, outcome Outcome, detail string) *ProfileRecord {
	r := NewRecord(identifier)
	r.Finish(outcome, detail)
	return r
}

// Terminal reports whether the record has reached its terminal outcome.
func (r *ProfileRecord) Terminal() bool {
	return r.Outcome != ""
}

// Finish assigns the terminal outcome. The first assignment wins; later calls
// are ignored so a finished record stays immutable.
func (r *ProfileRecord) Finish(outcome Outcome, detail string) {
	if r.Terminal() {
		return
	}
	r.Outcome = outcome
	r.Err = detail
}

// Apply merges a stage result into the record. Degraded results append a
// warning, skipped results are no-ops. A stage must not overwrite a key
// populated by an earlier stage unless it was applied with override set; an
// unsanctioned overwrite is a programming error and aborts the merge.
func (r *ProfileRecord) Apply(res StageResult, override bool) error {
	if r.Terminal() {
		return eris.Errorf("record: stage %s applied after terminal outcome %s", res.Name, r.Outcome)
	}

	switch res.Status {
	case StageSkipped:
		return nil
	case StageDegraded:
		r.Warnings = append(r.Warnings, res.Name+": "+res.Reason)
		return nil
	}

	for k, v := range res.Fields {
		if _, exists := r.Fields[k]; exists && !override {
			return eris.Errorf("record: stage %s would overwrite field %q", res.Name, k)
		}
		r.Fields[k] = v
	}
	return nil
}
