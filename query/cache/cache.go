// Package cache provides the prepared statement cache.
package cache

import (
	"container/list"
	"context"
	"io"
	"sync"

	"github.com/satishbabariya/worm-go/internal/debug"
)

// PrepareFunc prepares the statement for a query text
type PrepareFunc[S io.Closer] func(ctx context.Context, query string) (S, error)

// Stats represents cache statistics
type Stats struct {
	Hits       int64
	Misses     int64
	Duplicates int64
	Evictions  int64
	Size       int
	MaxSize    int
	HitRate    float64
}

type entry[S io.Closer] struct {
	query   string
	stmt    S
	refs    int
	evicted bool
	elem    *list.Element
}

// StatementCache maps query text to prepared statements, keeping at most
// maxSize of them and evicting the least recently used.
//
// Preparation runs without holding the lock. Two callers missing on the
// same text may both prepare it; the first insert wins and the loser closes
// its own statement and uses the cached one.
//
// Get leases the statement until the returned release func is called. A
// statement evicted or invalidated while leased is closed on its last
// release.
type StatementCache[S io.Closer] struct {
	mu      sync.Mutex
	entries map[string]*entry[S]
	lru     *list.List
	maxSize int
	prepare PrepareFunc[S]
	stats   Stats
}

// New creates an empty cache backed by prepare. A maxSize of zero or less
// leaves the cache unbounded.
func New[S io.Closer](prepare PrepareFunc[S], maxSize int) *StatementCache[S] {
	if maxSize < 0 {
		maxSize = 0
	}
	return &StatementCache[S]{
		entries: make(map[string]*entry[S]),
		lru:     list.New(),
		maxSize: maxSize,
		prepare: prepare,
		stats:   Stats{MaxSize: maxSize},
	}
}

// Get returns the cached statement for query, preparing it on a miss. The
// caller must call release once it no longer starts new operations on the
// statement.
func (c *StatementCache[S]) Get(ctx context.Context, query string) (stmt S, release func(), err error) {
	c.mu.Lock()
	if e, ok := c.entries[query]; ok {
		c.stats.Hits++
		c.updateHitRate()
		c.lease(e)
		c.mu.Unlock()
		return e.stmt, c.releaser(e), nil
	}
	c.stats.Misses++
	c.updateHitRate()
	c.mu.Unlock()

	prepared, err := c.prepare(ctx, query)
	if err != nil {
		var zero S
		return zero, func() {}, err
	}

	c.mu.Lock()
	if e, ok := c.entries[query]; ok {
		c.stats.Duplicates++
		c.lease(e)
		c.mu.Unlock()

		debug.Component("statement_cache").Debug("discarding duplicate prepared statement", "sql", query)
		_ = prepared.Close()
		return e.stmt, c.releaser(e), nil
	}

	e := &entry[S]{query: query, stmt: prepared}
	e.elem = c.lru.PushFront(e)
	e.refs = 1
	c.entries[query] = e

	var idle []S
	for c.maxSize > 0 && len(c.entries) > c.maxSize {
		victim := c.lru.Back().Value.(*entry[S])
		if c.remove(victim) {
			idle = append(idle, victim.stmt)
		}
		c.stats.Evictions++
		debug.Component("statement_cache").Debug("evicting prepared statement", "sql", victim.query)
	}
	c.stats.Size = len(c.entries)
	c.mu.Unlock()

	closeAll(idle)
	return prepared, c.releaser(e), nil
}

// lease marks e as most recently used and takes a reference. c.mu must be
// held.
func (c *StatementCache[S]) lease(e *entry[S]) {
	c.lru.MoveToFront(e.elem)
	e.refs++
}

// remove drops e from the cache and reports whether it can be closed right
// away. c.mu must be held.
func (c *StatementCache[S]) remove(e *entry[S]) bool {
	delete(c.entries, e.query)
	c.lru.Remove(e.elem)
	e.evicted = true
	return e.refs == 0
}

func (c *StatementCache[S]) releaser(e *entry[S]) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			e.refs--
			closeNow := e.evicted && e.refs == 0
			c.mu.Unlock()

			if closeNow {
				if err := e.stmt.Close(); err != nil {
					debug.Warn("failed to close evicted statement", "sql", e.query, "error", err)
				}
			}
		})
	}
}

// Len returns the number of cached statements
func (c *StatementCache[S]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Invalidate removes the statement for query and closes it once it is no
// longer leased
func (c *StatementCache[S]) Invalidate(query string) error {
	c.mu.Lock()
	e, ok := c.entries[query]
	idle := ok && c.remove(e)
	c.stats.Size = len(c.entries)
	c.mu.Unlock()

	if !idle {
		return nil
	}
	return e.stmt.Close()
}

// Clear removes every statement. Idle statements are closed now, leased
// ones on release.
func (c *StatementCache[S]) Clear() error {
	c.mu.Lock()
	var idle []S
	for _, e := range c.entries {
		if c.remove(e) {
			idle = append(idle, e.stmt)
		}
	}
	c.stats.Size = 0
	c.mu.Unlock()

	return closeAll(idle)
}

func closeAll[S io.Closer](stmts []S) error {
	var firstErr error
	for _, stmt := range stmts {
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetStats returns cache statistics
func (c *StatementCache[S]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *StatementCache[S]) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total)
	}
}
