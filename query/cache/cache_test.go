package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStmt struct {
	id     int64
	closed atomic.Bool
}

func (s *fakeStmt) Close() error {
	s.closed.Store(true)
	return nil
}

func TestStatementCacheHitsAndMisses(t *testing.T) {
	var prepared atomic.Int64
	c := New(func(ctx context.Context, query string) (*fakeStmt, error) {
		return &fakeStmt{id: prepared.Add(1)}, nil
	}, 0)

	ctx := context.Background()
	first, release, err := c.Get(ctx, "SELECT 1")
	require.NoError(t, err)
	release()
	second, release, err := c.Get(ctx, "SELECT 1")
	require.NoError(t, err)
	release()
	other, release, err := c.Get(ctx, "SELECT 2")
	require.NoError(t, err)
	release()

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, int64(2), prepared.Load())

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 2, stats.Size)
	assert.InDelta(t, 1.0/3.0, stats.HitRate, 0.0001)
}

func TestStatementCachePrepareError(t *testing.T) {
	boom := errors.New("syntax error")
	c := New(func(ctx context.Context, query string) (*fakeStmt, error) {
		return nil, boom
	}, 0)

	_, release, err := c.Get(context.Background(), "SELEC 1")
	require.NotNil(t, release)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestStatementCacheDuplicatePreparationIsHarmless(t *testing.T) {
	const callers = 16

	var (
		prepared atomic.Int64
		all      sync.Map
		arrived  sync.WaitGroup
	)
	arrived.Add(callers)

	// Every caller blocks inside prepare until all of them have missed, so
	// each one prepares its own statement and all but one lose the race.
	c := New(func(ctx context.Context, query string) (*fakeStmt, error) {
		stmt := &fakeStmt{id: prepared.Add(1)}
		all.Store(stmt.id, stmt)
		arrived.Done()
		arrived.Wait()
		return stmt, nil
	}, 0)

	results := make([]*fakeStmt, callers)
	var done sync.WaitGroup
	for i := 0; i < callers; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			stmt, release, err := c.Get(context.Background(), "SELECT book.id FROM book")
			assert.NoError(t, err)
			defer release()
			results[i] = stmt
		}(i)
	}
	done.Wait()

	require.Equal(t, int64(callers), prepared.Load())
	assert.Equal(t, 1, c.Len())

	winner := results[0]
	for _, stmt := range results {
		assert.Same(t, winner, stmt, "every caller must end up with the cached statement")
	}
	assert.False(t, winner.closed.Load())

	closed := 0
	all.Range(func(_, v interface{}) bool {
		if v.(*fakeStmt).closed.Load() {
			closed++
		}
		return true
	})
	assert.Equal(t, callers-1, closed)

	stats := c.GetStats()
	assert.Equal(t, int64(callers-1), stats.Duplicates)
	assert.Equal(t, int64(callers), stats.Misses)
}

func TestStatementCacheInvalidateAndClear(t *testing.T) {
	c := New(func(ctx context.Context, query string) (*fakeStmt, error) {
		return &fakeStmt{}, nil
	}, 0)
	ctx := context.Background()

	a, releaseA, _ := c.Get(ctx, "a")
	releaseA()
	b, releaseB, _ := c.Get(ctx, "b")
	releaseB()

	require.NoError(t, c.Invalidate("a"))
	require.NoError(t, c.Invalidate("missing"))
	assert.True(t, a.closed.Load())
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Clear())
	assert.True(t, b.closed.Load())
	assert.Equal(t, 0, c.Len())
}

func TestStatementCacheEvictsLeastRecentlyUsed(t *testing.T) {
	stmts := map[string]*fakeStmt{}
	c := New(func(ctx context.Context, query string) (*fakeStmt, error) {
		stmt := &fakeStmt{}
		stmts[query] = stmt
		return stmt, nil
	}, 2)
	ctx := context.Background()

	get := func(query string) {
		_, release, err := c.Get(ctx, query)
		require.NoError(t, err)
		release()
	}

	get("a")
	get("b")
	get("a") // b is now least recently used
	get("c")

	assert.Equal(t, 2, c.Len())
	assert.True(t, stmts["b"].closed.Load())
	assert.False(t, stmts["a"].closed.Load())
	assert.False(t, stmts["c"].closed.Load())

	for i := 0; i < 100; i++ {
		get(fmt.Sprintf("SELECT %d", i))
	}
	stats := c.GetStats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 2, stats.MaxSize)
	assert.Equal(t, int64(101), stats.Evictions)
	assert.True(t, stmts["a"].closed.Load())
	assert.True(t, stmts["SELECT 97"].closed.Load())
	assert.False(t, stmts["SELECT 99"].closed.Load())
}

func TestStatementCacheClosesLeasedStatementOnRelease(t *testing.T) {
	c := New(func(ctx context.Context, query string) (*fakeStmt, error) {
		return &fakeStmt{}, nil
	}, 1)
	ctx := context.Background()

	held, release, err := c.Get(ctx, "a")
	require.NoError(t, err)

	_, releaseB, err := c.Get(ctx, "b")
	require.NoError(t, err)
	releaseB()

	assert.Equal(t, 1, c.Len())
	assert.False(t, held.closed.Load(), "a leased statement stays open after eviction")

	release()
	assert.True(t, held.closed.Load())

	// releasing twice does not close or count twice
	release()

	leased, releaseC, err := c.Get(ctx, "c")
	require.NoError(t, err)
	require.NoError(t, c.Clear())
	assert.False(t, leased.closed.Load())
	releaseC()
	assert.True(t, leased.closed.Load())
}
