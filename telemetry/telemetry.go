// Package telemetry collects in-process statement statistics.
//
// A Collector is attached to a client or executor as middleware. It keeps
// per-statement aggregates and a batch of recent events that is handed to
// an optional sink, either when the batch is full or on a timer.
package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/satishbabariya/worm-go/query/executor"
)

// Event represents one executed statement
type Event struct {
	SQL       string
	Exec      bool
	Rows      int64
	Duration  time.Duration
	Error     string
	Timestamp time.Time
}

// StatementStats aggregates every execution of one SQL text
type StatementStats struct {
	SQL           string
	Calls         int64
	Errors        int64
	TotalDuration time.Duration
	MaxDuration   time.Duration
}

// Mean returns the mean duration per call
func (s StatementStats) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Calls)
}

// Sink receives batches of events. It is called without the collector lock
// held and must not retain the slice.
type Sink func(events []Event)

// Collector manages statement statistics
type Collector struct {
	mu         sync.Mutex
	statements map[string]*StatementStats
	events     []Event

	sink          Sink
	batchSize     int
	flushInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// Option configures a Collector
type Option func(*Collector)

// WithSink delivers event batches to sink
func WithSink(sink Sink) Option {
	return func(c *Collector) { c.sink = sink }
}

// WithBatchSize sets how many events are buffered before a flush
func WithBatchSize(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithFlushInterval flushes buffered events periodically (0 = only on a
// full batch or Stop)
func WithFlushInterval(d time.Duration) Option {
	return func(c *Collector) { c.flushInterval = d }
}

// NewCollector creates a collector and starts its background flush when a
// flush interval is configured
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		statements: make(map[string]*StatementStats),
		events:     make([]Event, 0, 100),
		batchSize:  100,
		stopChan:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.flushInterval > 0 {
		c.startBackgroundFlush()
	}
	return c
}

// Middleware returns the executor middleware that feeds the collector
func (c *Collector) Middleware() executor.Middleware {
	return func(ctx context.Context, event *executor.QueryEvent, next func() error) error {
		err := next()
		c.Record(*event)
		return err
	}
}

// Record adds a finished statement to the collector
func (c *Collector) Record(event executor.QueryEvent) {
	e := Event{
		SQL:       event.Query,
		Exec:      event.Exec,
		Rows:      event.Rows,
		Duration:  event.Duration,
		Timestamp: event.Start,
	}
	if event.Error != nil {
		e.Error = event.Error.Error()
	}

	c.mu.Lock()
	stats, ok := c.statements[e.SQL]
	if !ok {
		stats = &StatementStats{SQL: e.SQL}
		c.statements[e.SQL] = stats
	}
	stats.Calls++
	stats.TotalDuration += e.Duration
	if e.Duration > stats.MaxDuration {
		stats.MaxDuration = e.Duration
	}
	if e.Error != "" {
		stats.Errors++
	}

	var batch []Event
	if c.sink != nil {
		c.events = append(c.events, e)
		if len(c.events) >= c.batchSize {
			batch = c.takeEvents()
		}
	}
	c.mu.Unlock()

	if batch != nil {
		c.sink(batch)
	}
}

// Statements returns the aggregates sorted by total duration, slowest first
func (c *Collector) Statements() []StatementStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]StatementStats, 0, len(c.statements))
	for _, s := range c.statements {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalDuration != out[j].TotalDuration {
			return out[i].TotalDuration > out[j].TotalDuration
		}
		return out[i].SQL < out[j].SQL
	})
	return out
}

// Reset drops all aggregates and buffered events
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statements = make(map[string]*StatementStats)
	c.events = c.events[:0]
}

// Flush hands buffered events to the sink
func (c *Collector) Flush() {
	c.mu.Lock()
	batch := c.takeEvents()
	c.mu.Unlock()

	if batch != nil && c.sink != nil {
		c.sink(batch)
	}
}

// Stop stops the background flush and flushes what is left
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
	c.Flush()
}

// takeEvents must be called with the lock held
func (c *Collector) takeEvents() []Event {
	if len(c.events) == 0 {
		return nil
	}
	events := make([]Event, len(c.events))
	copy(events, c.events)
	c.events = c.events[:0]
	return events
}

// startBackgroundFlush starts a background goroutine to flush events periodically
func (c *Collector) startBackgroundFlush() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Flush()
			case <-c.stopChan:
				return
			}
		}
	}()
}
