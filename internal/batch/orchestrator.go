package batch

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/gramscope/internal/model"
)

// Runner drives one identifier to a terminal record. Satisfied by
// pipeline.Supervisor.
type Runner interface {
	Run(ctx context.Context, identifier string) *model.ProfileRecord
}

// ProgressFunc receives the rendered progress line and the finished record
// for each completed identifier.
type ProgressFunc func(line string, rec *model.ProfileRecord)

// Summary aggregates a finished batch.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// Aborted counts admitted identifiers never dispatched because the
	// context was canceled mid-batch.
	Aborted int
	Records []model.RecordSummary
}

// Orchestrator fans out runner invocations across a batch under a
// concurrency ceiling and drains completions one at a time.
type Orchestrator struct {
	runner     Runner
	sink       Sink
	limit      int64
	onProgress ProgressFunc
}

// New creates an orchestrator. sink and onProgress may be nil.
func New(runner Runner, sink Sink, concurrency int, onProgress ProgressFunc) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 50
	}
	return &Orchestrator{
		runner:     runner,
		sink:       sink,
		limit:      int64(concurrency),
		onProgress: onProgress,
	}
}

// Run processes the raw identifiers and blocks until every admitted
// identifier has a terminal record. Results complete in whatever order the
// network returns; each is reflected exactly once in the progress channel and
// successful records are forwarded to the sink.
func (o *Orchestrator) Run(ctx context.Context, raw []string) *Summary {
	log := zap.L().With(zap.String("component", "batch.orchestrator"))

	ids := Admit(raw)
	summary := &Summary{Total: len(ids)}
	if len(ids) == 0 {
		log.Info("no identifiers admitted")
		return summary
	}

	log.Info("starting batch",
		zap.Int("total", len(ids)),
		zap.Int64("concurrency", o.limit),
	)

	prog := NewProgress(len(ids))
	results := make(chan *model.ProfileRecord)
	sem := semaphore.NewWeighted(o.limit)

	go func() {
		defer close(results)
		var wg sync.WaitGroup
		for i, id := range ids {
			// The slot is held for the item's full retry lifetime, not
			// per attempt.
			if err := sem.Acquire(ctx, 1); err != nil {
				summary.Aborted = len(ids) - i
				log.Warn("batch canceled, abandoning remaining identifiers",
					zap.Int("remaining", summary.Aborted),
				)
				break
			}
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				defer sem.Release(1)
				results <- o.runner.Run(ctx, id)
			}(id)
		}
		wg.Wait()
	}()

	// Single point of result collection: the only writer of the progress
	// counters.
	for rec := range results {
		pos := prog.Complete(rec)
		line := FormatLine(pos, len(ids), rec)

		log.Info("identifier complete",
			zap.String("identifier", rec.Identifier),
			zap.String("outcome", string(rec.Outcome)),
			zap.Int("completed", pos),
			zap.Int("total", len(ids)),
		)
		if o.onProgress != nil {
			o.onProgress(line, rec)
		}

		if rec.Outcome == model.OutcomeSuccess && o.sink != nil {
			if err := o.sink.Push(ctx, rec); err != nil {
				log.Warn("sink push failed",
					zap.String("identifier", rec.Identifier),
					zap.Error(err),
				)
			}
		}

		summary.Records = append(summary.Records, model.RecordSummary{
			Identifier: rec.Identifier,
			Outcome:    rec.Outcome,
			Error:      rec.Err,
		})
	}

	snap := prog.Snapshot()
	summary.Succeeded = snap.Succeeded
	summary.Failed = snap.Failed

	log.Info("batch complete",
		zap.Int("succeeded", snap.Succeeded),
		zap.Int("failed", snap.Failed),
		zap.Int("aborted", summary.Aborted),
	)
	return summary
}
