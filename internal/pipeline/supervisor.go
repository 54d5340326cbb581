package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/gramscope/internal/model"
	"github.com/sells-group/gramscope/internal/resilience"
)

// Supervisor wraps pipeline attempts in bounded retry with backoff. Each
// retry runs under a fresh outbound identity; auth rejections and unexpected
// faults stop immediately.
type Supervisor struct {
	pipeline    *Pipeline
	maxAttempts int
	backoff     resilience.BackoffPolicy
}

// NewSupervisor creates a supervisor with the given attempt ceiling.
func NewSupervisor(p *Pipeline, maxAttempts int, backoff resilience.BackoffPolicy) *Supervisor {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Supervisor{pipeline: p, maxAttempts: maxAttempts, backoff: backoff}
}

// Run drives one identifier to a terminal record. It never returns an error:
// every fault is folded into the record's outcome.
func (s *Supervisor) Run(ctx context.Context, identifier string) *model.ProfileRecord {
	log := zap.L().With(zap.String("identifier", identifier))

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		rec, err := s.pipeline.RunAttempt(ctx, identifier, attempt)
		if err == nil {
			return rec
		}
		lastErr = err

		switch resilience.Classify(err) {
		case resilience.AuthFatal:
			log.Error("authentication rejected", zap.Error(err))
			return model.Failed(identifier, model.OutcomeAuthFailure,
				"authentication failed: session credential rejected")
		case resilience.OtherFatal:
			log.Error("unexpected fault", zap.Error(err))
			return model.Failed(identifier, model.OutcomeError,
				fmt.Sprintf("unexpected error: %v", err))
		}

		if attempt >= s.maxAttempts-1 {
			break
		}
		if ctx.Err() != nil {
			break
		}

		delay := s.backoff.Delay(attempt)
		log.Warn("attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", s.maxAttempts),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return model.Failed(identifier, model.OutcomeError,
				fmt.Sprintf("canceled after %d attempts: %v", attempt+1, lastErr))
		case <-timer.C:
		}
	}

	return model.Failed(identifier, model.OutcomeError,
		fmt.Sprintf("failed after %d attempts: %v", s.maxAttempts, lastErr))
}
