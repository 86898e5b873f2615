package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, staleFor time.Duration) (*Redis, *miniredis.Miniredis, *time.Time) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	r := NewRedis(client, "tt:", staleFor)
	r.now = func() time.Time { return now }
	return r, mr, &now
}

func TestRedisFreshAndStale(t *testing.T) {
	ctx := context.Background()
	r, mr, now := newTestRedis(t, time.Hour)

	require.NoError(t, r.Set(ctx, FacultiesKey, []string{"ФИТ", "ФЭ"}, time.Minute, Faculties))
	assert.True(t, mr.Exists("tt:"+FacultiesKey))
	assert.Equal(t, time.Minute+time.Hour, mr.TTL("tt:"+FacultiesKey))

	var got []string
	ok, err := r.Get(ctx, FacultiesKey, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"ФИТ", "ФЭ"}, got)

	*now = now.Add(5 * time.Minute)

	ok, err = r.Get(ctx, FacultiesKey, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	got = nil
	ok, err = r.GetWithStale(ctx, FacultiesKey, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"ФИТ", "ФЭ"}, got)

	mr.FastForward(2 * time.Hour)
	ok, err = r.GetWithStale(ctx, FacultiesKey, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisZeroStaleWindowHasNoExpiry(t *testing.T) {
	r, mr, _ := newTestRedis(t, 0)

	require.NoError(t, r.Set(context.Background(), "k", 1, time.Minute, Logos))
	assert.Zero(t, mr.TTL("tt:k"))
}

func TestRedisMissAndCorruptEntry(t *testing.T) {
	ctx := context.Background()
	r, mr, _ := newTestRedis(t, 0)

	ok, err := r.Get(ctx, "missing", &payload{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set("tt:broken", "{not json"))
	ok, err = r.GetWithStale(ctx, "broken", &payload{})
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	r, mr, _ := newTestRedis(t, 0)
	mr.Close()

	_, err := r.Get(context.Background(), "k", &payload{})
	assert.Error(t, err)
}
