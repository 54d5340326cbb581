package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_MergesFields(t *testing.T) {
	t.Parallel()

	r := NewRecord("alice")
	err := r.Apply(OK("profile", map[string]any{"full_name": "Alice", "follower_count": float64(120)}), false)
	require.NoError(t, err)

	err = r.Apply(OK("enrich", map[string]any{"extracted_emails": []string{"a@b.com"}}), false)
	require.NoError(t, err)

	assert.Equal(t, "Alice", r.Fields["full_name"])
	assert.Equal(t, []string{"a@b.com"}, r.Fields["extracted_emails"])
}

func TestApply_RejectsSilentOverwrite(t *testing.T) {
	t.Parallel()

	r := NewRecord("alice")
	require.NoError(t, r.Apply(OK("profile", map[string]any{"public_email": "old@x.com"}), false))

	err := r.Apply(OK("enrich", map[string]any{"public_email": "new@x.com"}), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "public_email")
	assert.Equal(t, "old@x.com", r.Fields["public_email"])
}

func TestApply_OverrideAllowedForOwnedFields(t *testing.T) {
	t.Parallel()

	r := NewRecord("alice")
	require.NoError(t, r.Apply(OK("profile", map[string]any{"public_email": "stale@x.com"}), false))

	err := r.Apply(OK("contact_info", map[string]any{"public_email": "fresh@x.com"}), true)
	require.NoError(t, err)
	assert.Equal(t, "fresh@x.com", r.Fields["public_email"])
}

func TestApply_DegradedAppendsWarning(t *testing.T) {
	t.Parallel()

	r := NewRecord("alice")
	require.NoError(t, r.Apply(Degraded("contact_info", "status 503"), false))
	require.NoError(t, r.Apply(Degraded("related_profiles", "timeout"), false))

	assert.Equal(t, []string{"contact_info: status 503", "related_profiles: timeout"}, r.Warnings)
	assert.Empty(t, r.Fields)
}

func TestApply_SkippedIsNoop(t *testing.T) {
	t.Parallel()

	r := NewRecord("alice")
	require.NoError(t, r.Apply(Skipped("related_profiles"), false))
	assert.Empty(t, r.Fields)
	assert.Empty(t, r.Warnings)
}

func TestFinish_FirstOutcomeWins(t *testing.T) {
	t.Parallel()

	r := NewRecord("alice")
	assert.False(t, r.Terminal())

	r.Finish(OutcomeNotFound, "")
	r.Finish(OutcomeError, "late failure")

	assert.True(t, r.Terminal())
	assert.Equal(t, OutcomeNotFound, r.Outcome)
	assert.Empty(t, r.Err)
}

func TestApply_AfterTerminalFails(t *testing.T) {
	t.Parallel()

	r := Failed("alice", OutcomeAuthFailure, "credential rejected")
	err := r.Apply(OK("profile", map[string]any{"x": 1}), false)
	require.Error(t, err)
}
