package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), Config{
		Clock: func() time.Time { return now },
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, &now
}

func TestProcessoLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProcesso(ctx, "  Processo 123  ", "texto do processo")
	require.NoError(t, err)
	assert.Equal(t, "Processo 123", p.Nome)
	assert.Equal(t, StatusPending, p.Status)

	got, err := s.GetProcesso(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.NoError(t, s.SetProcessoStatus(ctx, p.ID, StatusCompleted))
	got, err = s.GetProcesso(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	_, err = s.GetProcesso(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.SetProcessoStatus(ctx, "missing", StatusFailed), ErrNotFound)
}

func TestAddSection(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProcesso(ctx, "P", "")
	require.NoError(t, err)

	pending, err := s.AddSection(ctx, p.ID, NewSection{PromptTitle: "Riscos e Alertas", ExecutionOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, pending.Status)
	assert.Equal(t, defaultMaxRetries, pending.MaxRetries)

	done, err := s.AddSection(ctx, p.ID, NewSection{PromptTitle: "Visão Geral", Content: `{"a":1}`, ExecutionOrder: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	list, err := s.ListSections(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, done.ID, list[0].ID)
	assert.Equal(t, pending.ID, list[1].ID)

	_, err = s.AddSection(ctx, "missing", NewSection{PromptTitle: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimNextPendingOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProcesso(ctx, "P", "")
	require.NoError(t, err)

	for _, order := range []int{3, 1, 2} {
		_, err := s.AddSection(ctx, p.ID, NewSection{PromptTitle: "s", ExecutionOrder: order})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for _, want := range []int{1, 2, 3} {
		sec, err := s.ClaimNextPending(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, want, sec.ExecutionOrder)
		assert.Equal(t, StatusProcessing, sec.Status)
		assert.False(t, seen[sec.ID], "section handed out twice")
		seen[sec.ID] = true
	}

	_, err = s.ClaimNextPending(ctx, p.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	open, err := s.CountOpen(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, open)
}

func TestClaimNextPendingReclaimsExpiredLease(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProcesso(ctx, "P", "")
	require.NoError(t, err)
	_, err = s.AddSection(ctx, p.ID, NewSection{PromptTitle: "s", ExecutionOrder: 1})
	require.NoError(t, err)

	first, err := s.ClaimNextPending(ctx, p.ID)
	require.NoError(t, err)

	*now = now.Add(defaultLease - time.Second)
	_, err = s.ClaimNextPending(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound, "section still leased")

	*now = now.Add(2 * time.Second)
	again, err := s.ClaimNextPending(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, StatusProcessing, again.Status)
	assert.Equal(t, 0, again.RetryCount)
}

func TestReleaseSection(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p, _ := s.CreateProcesso(ctx, "P", "")
	sec, err := s.AddSection(ctx, p.ID, NewSection{PromptTitle: "s"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.ReleaseSection(ctx, sec.ID), ErrNotFound, "only processing sections are released")

	_, err = s.ClaimNextPending(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, s.ReleaseSection(ctx, sec.ID))

	got, err := s.GetSection(ctx, sec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 0, got.RetryCount)
}

func TestStoredTimesSortAsText(t *testing.T) {
	whole := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	frac := whole.Add(500 * time.Millisecond)
	assert.Less(t, formatTime(whole), formatTime(frac))
	assert.Equal(t, frac, parseTime(formatTime(frac)))
}

func TestCompleteSection(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()
	p, _ := s.CreateProcesso(ctx, "P", "")
	sec, err := s.AddSection(ctx, p.ID, NewSection{PromptTitle: "Conclusões"})
	require.NoError(t, err)

	*now = now.Add(time.Minute)
	require.NoError(t, s.CompleteSection(ctx, sec.ID, `{"x":1}`, "model-a", "direct"))

	got, err := s.GetSection(ctx, sec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, `{"x":1}`, got.Content)
	assert.Equal(t, "model-a", got.Model)
	assert.Equal(t, "direct", got.Method)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	assert.ErrorIs(t, s.CompleteSection(ctx, "missing", "", "", ""), ErrNotFound)
}

func TestFailSectionRetries(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p, _ := s.CreateProcesso(ctx, "P", "")
	sec, err := s.AddSection(ctx, p.ID, NewSection{PromptTitle: "s", MaxRetries: 2})
	require.NoError(t, err)

	_, err = s.ClaimNextPending(ctx, p.ID)
	require.NoError(t, err)
	got, err := s.FailSection(ctx, sec.ID, errors.New("rate limited"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "rate limited", got.Error)

	_, err = s.ClaimNextPending(ctx, p.ID)
	require.NoError(t, err)
	got, err = s.FailSection(ctx, sec.ID, errors.New("timeout"))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, 2, got.RetryCount)

	stored, err := s.GetSection(ctx, sec.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Status, stored.Status)

	_, err = s.ClaimNextPending(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FailSection(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s1, err := Open(path, Config{})
	require.NoError(t, err)
	p, err := s1.CreateProcesso(ctx, "P", "doc")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, Config{})
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.GetProcesso(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "doc", got.DocumentText)
}
