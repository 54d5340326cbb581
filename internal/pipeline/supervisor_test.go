package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gramscope/internal/model"
	"github.com/sells-group/gramscope/internal/resilience"
	"github.com/sells-group/gramscope/pkg/instagram"
)

// attemptClient hands out a possibly different session per attempt and
// records the attempt numbers it saw.
type attemptClient struct {
	factory  func(attempt int) *mockSession
	attempts []int
}

func (c *attemptClient) NewSession(identifier string, attempt int) (instagram.Session, error) {
	c.attempts = append(c.attempts, attempt)
	return c.factory(attempt), nil
}

func fastBackoff() resilience.BackoffPolicy {
	return resilience.BackoffPolicy{Base: time.Millisecond, Max: 10 * time.Millisecond}
}

func TestSupervisor_AuthFatalNeverRetried(t *testing.T) {
	t.Parallel()

	client := &attemptClient{factory: func(int) *mockSession {
		return &mockSession{profileErr: &instagram.APIError{StatusCode: 403, URL: "u"}}
	}}
	s := NewSupervisor(New(client), 3, fastBackoff())

	rec := s.Run(context.Background(), "alice")

	assert.Equal(t, model.OutcomeAuthFailure, rec.Outcome)
	assert.Equal(t, []int{0}, client.attempts, "exactly one attempt")
}

func TestSupervisor_RetryableExhaustsCeiling(t *testing.T) {
	t.Parallel()

	client := &attemptClient{factory: func(int) *mockSession {
		return &mockSession{profileErr: &instagram.APIError{StatusCode: 502, URL: "u"}}
	}}
	s := NewSupervisor(New(client), 3, fastBackoff())

	rec := s.Run(context.Background(), "alice")

	assert.Equal(t, model.OutcomeError, rec.Outcome)
	assert.Contains(t, rec.Err, "failed after 3 attempts")
	assert.Equal(t, []int{0, 1, 2}, client.attempts, "attempts are sequential, one identity each")
}

func TestSupervisor_OtherFatalStopsImmediately(t *testing.T) {
	t.Parallel()

	client := &attemptClient{factory: func(int) *mockSession {
		return &mockSession{profileErr: errors.New("malformed payload")}
	}}
	s := NewSupervisor(New(client), 3, fastBackoff())

	rec := s.Run(context.Background(), "alice")

	assert.Equal(t, model.OutcomeError, rec.Outcome)
	assert.Contains(t, rec.Err, "unexpected error")
	assert.Equal(t, []int{0}, client.attempts)
}

func TestSupervisor_RecoversAfterTransientFailures(t *testing.T) {
	t.Parallel()

	client := &attemptClient{factory: func(attempt int) *mockSession {
		if attempt < 2 {
			return &mockSession{profileErr: &instagram.APIError{StatusCode: 500, URL: "u"}}
		}
		return &mockSession{profile: foundProfile(false, false)}
	}}
	s := NewSupervisor(New(client), 3, fastBackoff())

	rec := s.Run(context.Background(), "alice")

	assert.Equal(t, model.OutcomeSuccess, rec.Outcome)
	assert.Equal(t, []int{0, 1, 2}, client.attempts)
}

func TestSupervisor_NotFoundIsTerminalNotRetried(t *testing.T) {
	t.Parallel()

	client := &attemptClient{factory: func(int) *mockSession {
		return &mockSession{profile: &instagram.Profile{Found: false}}
	}}
	s := NewSupervisor(New(client), 3, fastBackoff())

	rec := s.Run(context.Background(), "ghost")

	assert.Equal(t, model.OutcomeNotFound, rec.Outcome)
	assert.Equal(t, []int{0}, client.attempts)
}

func TestSupervisor_CancellationReachesTerminalState(t *testing.T) {
	t.Parallel()

	client := &attemptClient{factory: func(int) *mockSession {
		return &mockSession{profileErr: &instagram.APIError{StatusCode: 500, URL: "u"}}
	}}
	// Long backoff so cancellation lands during the wait.
	s := NewSupervisor(New(client), 3, resilience.BackoffPolicy{Base: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan *model.ProfileRecord, 1)
	go func() { done <- s.Run(ctx, "alice") }()

	select {
	case rec := <-done:
		require.True(t, rec.Terminal())
		assert.Equal(t, model.OutcomeError, rec.Outcome)
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not terminate after cancellation")
	}
}

func TestSupervisor_DefaultCeiling(t *testing.T) {
	t.Parallel()

	client := &attemptClient{factory: func(int) *mockSession {
		return &mockSession{profileErr: &instagram.APIError{StatusCode: 500, URL: "u"}}
	}}
	s := NewSupervisor(New(client), 0, fastBackoff())

	rec := s.Run(context.Background(), "alice")
	assert.Contains(t, rec.Err, "failed after 3 attempts")
}
