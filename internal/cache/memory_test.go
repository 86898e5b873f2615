package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func newTestMemory(staleFor time.Duration) (*Memory, *time.Time) {
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	m := NewMemory(staleFor)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestMemoryFreshAndStale(t *testing.T) {
	ctx := context.Background()
	m, now := newTestMemory(time.Hour)

	require.NoError(t, m.Set(ctx, "k", payload{Name: "a", Items: []string{"x"}}, time.Minute, Schedule))

	var got payload
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "a", Items: []string{"x"}}, got)

	*now = now.Add(2 * time.Minute)

	ok, err = m.Get(ctx, "k", &payload{})
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must not be fresh")

	got = payload{}
	ok, err = m.GetWithStale(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", got.Name)

	*now = now.Add(2 * time.Hour)
	ok, err = m.GetWithStale(ctx, "k", &payload{})
	require.NoError(t, err)
	assert.False(t, ok, "entry outside stale window must be gone")
}

func TestMemoryMissingKey(t *testing.T) {
	m, _ := newTestMemory(0)

	ok, err := m.Get(context.Background(), "nope", &payload{})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.GetWithStale(context.Background(), "nope", &payload{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryZeroStaleWindowKeepsForever(t *testing.T) {
	ctx := context.Background()
	m, now := newTestMemory(0)

	require.NoError(t, m.Set(ctx, "k", []string{"a"}, time.Second, Faculties))
	*now = now.Add(365 * 24 * time.Hour)

	var got []string
	ok, err := m.GetWithStale(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, got)

	removed, err := m.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestMemoryPrune(t *testing.T) {
	ctx := context.Background()
	m, now := newTestMemory(time.Minute)

	require.NoError(t, m.Set(ctx, "old", 1, time.Second, Courses))
	*now = now.Add(time.Hour)
	require.NoError(t, m.Set(ctx, "new", 2, time.Hour, Courses))

	removed, err := m.Prune(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var v int
	ok, _ := m.GetWithStale(ctx, "new", &v)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMemoryDecodeError(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(0)

	require.NoError(t, m.Set(ctx, "k", "text", time.Minute, Resources))

	var n int
	ok, err := m.Get(ctx, "k", &n)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	monday := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "schedule:v2:fit:ИВТ-21:2026-10-12", ScheduleKey("fit", "ИВТ-21", monday))
	assert.Equal(t, "courses:fit", CoursesKey("fit"))
	assert.Equal(t, "resources:https://lms.example/c/1", ResourcesKey("https://lms.example/c/1"))
}
