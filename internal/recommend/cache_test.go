package recommend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, clock *fakeClock) *Cache {
	t.Helper()
	c, err := OpenCache(CacheOptions{Now: clock.Now})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_MissingEntry(t *testing.T) {
	c := newTestCache(t, &fakeClock{now: t0})

	_, _, ok, err := c.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_TTLBoundary(t *testing.T) {
	clock := &fakeClock{now: t0}
	c := newTestCache(t, clock)
	ctx := context.Background()

	b := emptyBundle()
	b.BecauseYouRead = []Item{{Novel: mkNovel("n1", "a1", "Dune", "scifi"), Reason: "Because you read X"}}
	require.NoError(t, c.Set(ctx, "u1", b))

	clock.Advance(23*time.Hour + 59*time.Minute)
	got, at, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, t0, at.UTC())
	require.Len(t, got.BecauseYouRead, 1)
	assert.Equal(t, "n1", got.BecauseYouRead[0].Novel.ID)

	clock.Advance(2 * time.Minute)
	_, _, ok, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := newTestCache(t, &fakeClock{now: t0})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "u1", emptyBundle()))
	require.NoError(t, c.Set(ctx, "u2", emptyBundle()))
	require.NoError(t, c.Invalidate(ctx, "u1"))
	require.NoError(t, c.Invalidate(ctx, "nobody"))

	_, _, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = c.Get(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, ok, "other users keep their entries")
}

func TestCache_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: t0}
	ctx := context.Background()

	c, err := OpenCache(CacheOptions{Path: dir, Now: clock.Now})
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "u1", emptyBundle()))
	require.NoError(t, c.Close())

	c, err = OpenCache(CacheOptions{Path: dir, Now: clock.Now})
	require.NoError(t, err)
	defer c.Close()

	_, _, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}
