package batch

import (
	"fmt"

	"github.com/sells-group/gramscope/internal/model"
)

// Progress tracks batch completion counts. The total is fixed at dispatch;
// the remaining counters are written only from the orchestrator's completion
// drain, so reads elsewhere go through Snapshot.
type Progress struct {
	total     int
	completed int
	succeeded int
	failed    int
}

// Snapshot is a read-only view of the counters.
type Snapshot struct {
	Total     int
	Completed int
	Succeeded int
	Failed    int
}

// NewProgress creates a tracker for a batch of the given admitted size.
func NewProgress(total int) *Progress {
	return &Progress{total: total}
}

// Complete records one finished identifier and returns its completion
// position (1-based).
func (p *Progress) Complete(rec *model.ProfileRecord) int {
	p.completed++
	if rec.Outcome == model.OutcomeSuccess {
		p.succeeded++
	} else {
		p.failed++
	}
	return p.completed
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		Total:     p.total,
		Completed: p.completed,
		Succeeded: p.succeeded,
		Failed:    p.failed,
	}
}

// FormatLine renders the human-readable progress line for one completed
// identifier: "<completed>/<total> -> <identifier> <marker> [detail]".
func FormatLine(position, total int, rec *model.ProfileRecord) string {
	line := fmt.Sprintf("%d/%d -> %s", position, total, rec.Identifier)
	if rec.Outcome == model.OutcomeSuccess {
		return line + " ✔"
	}
	return fmt.Sprintf("%s ❌ (%s)", line, rec.Err)
}
