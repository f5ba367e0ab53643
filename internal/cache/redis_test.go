package cache

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/memstore"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource records how often the cache reaches the store.
type countingSource struct {
	*memstore.Store
	mu     sync.Mutex
	finds  int
	counts int
}

func (s *countingSource) FindWordByID(ctx context.Context, id int) (*models.WordRecord, error) {
	s.mu.Lock()
	s.finds++
	s.mu.Unlock()
	return s.Store.FindWordByID(ctx, id)
}

func (s *countingSource) CountWords(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.counts++
	s.mu.Unlock()
	return s.Store.CountWords(ctx)
}

func newTestCache(t *testing.T) (*WordCache, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), mr.Addr(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	src := &countingSource{Store: memstore.New()}
	src.PutWords(
		models.WordRecord{ID: 0, Guess: "apple", Forbidden: []string{"fruit", "tree"}},
		models.WordRecord{ID: 1, Guess: "moon", Forbidden: []string{"night"}},
	)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewWordCache(rdb, src, time.Minute, logger), src, mr
}

func TestFindWordByIDReadsThrough(t *testing.T) {
	c, src, mr := newTestCache(t)
	ctx := context.Background()

	w, err := c.FindWordByID(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "apple", w.Guess)
	assert.True(t, mr.Exists("taboo:word:0"))

	w, err = c.FindWordByID(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"fruit", "tree"}, w.Forbidden)
	assert.Equal(t, 1, src.finds)

	mr.FastForward(2 * time.Minute)
	_, err = c.FindWordByID(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, src.finds, "expired entries are reloaded")
}

func TestFindWordByIDDoesNotCacheMisses(t *testing.T) {
	c, src, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.FindWordByID(ctx, 9)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	assert.False(t, mr.Exists("taboo:word:9"))

	_, err = c.FindWordByID(ctx, 9)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	assert.Equal(t, 2, src.finds)
}

func TestFindWordByIDSurvivesCorruptEntry(t *testing.T) {
	c, _, mr := newTestCache(t)
	require.NoError(t, mr.Set("taboo:word:1", "{not json"))

	w, err := c.FindWordByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "moon", w.Guess)
}

func TestCountWordsCachesAndInvalidates(t *testing.T) {
	c, src, _ := newTestCache(t)
	ctx := context.Background()

	n, err := c.CountWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = c.CountWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, src.counts)

	src.PutWords(models.WordRecord{ID: 2, Guess: "river"})
	require.NoError(t, c.Invalidate(ctx, 2))
	n, err = c.CountWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCacheFallsBackWhenRedisIsDown(t *testing.T) {
	c, src, mr := newTestCache(t)
	mr.Close()

	w, err := c.FindWordByID(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "apple", w.Guess)
	assert.Equal(t, 1, src.finds)
}

func TestConnectFailsWithoutServer(t *testing.T) {
	_, err := Connect(context.Background(), "127.0.0.1:1", 0)
	assert.Error(t, err)
}

var _ WordSource = (*memstore.Store)(nil)
