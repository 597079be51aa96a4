package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/satishbabariya/worm-go/internal/debug"
)

// QueryEvent describes one statement passing through the middleware chain
type QueryEvent struct {
	Query    string
	Args     []interface{}
	Exec     bool
	Rows     int64
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware intercepts statements. It must call next exactly once and
// return its error, possibly wrapped.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// Executor decorates a Conn with a middleware chain and debug logging. It
// satisfies Conn itself.
type Executor struct {
	conn        Conn
	middlewares []Middleware
}

// New creates an executor over conn
func New(conn Conn, middlewares ...Middleware) *Executor {
	return &Executor{
		conn:        conn,
		middlewares: append([]Middleware(nil), middlewares...),
	}
}

// Use returns a copy of the executor with middleware appended to the chain
func (e *Executor) Use(middleware ...Middleware) *Executor {
	return New(e.conn, append(e.middlewares[:len(e.middlewares):len(e.middlewares)], middleware...)...)
}

// Query runs a row-returning statement through the chain
func (e *Executor) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	var rows Rows
	err := e.run(ctx, &QueryEvent{Query: query, Args: args}, func() error {
		var err error
		rows, err = e.conn.Query(ctx, query, args...)
		return err
	})
	if err != nil {
		// a middleware failing after the driver succeeded still owns the rows
		if rows != nil {
			_ = rows.Close()
		}
		return nil, err
	}
	return rows, nil
}

// Exec runs a statement through the chain and returns the affected rows
func (e *Executor) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	event := &QueryEvent{Query: query, Args: args, Exec: true}
	err := e.run(ctx, event, func() error {
		var err error
		n, err = e.conn.Exec(ctx, query, args...)
		event.Rows = n
		return err
	})
	return n, err
}

// run executes the middleware chain
func (e *Executor) run(ctx context.Context, event *QueryEvent, exec func() error) error {
	event.Start = time.Now()
	index := 0

	var next func() error
	next = func() error {
		if index >= len(e.middlewares) {
			// Last middleware, execute the actual statement
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}

		middleware := e.middlewares[index]
		index++
		return middleware(ctx, event, next)
	}

	err := next()
	if debug.Enabled() {
		debug.Debug("statement executed",
			"sql", event.Query,
			"args", len(event.Args),
			"duration", event.Duration,
			"error", err,
		)
	}
	return err
}

// LoggingMiddleware logs every statement to logger
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		logger.InfoContext(ctx, "executing statement", "sql", event.Query, "args", event.Args)
		err := next()
		if err != nil {
			logger.ErrorContext(ctx, "statement failed", "sql", event.Query, "error", err)
		} else {
			logger.InfoContext(ctx, "statement completed", "sql", event.Query, "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware reports the execution time of every statement
func TimingMiddleware(onTiming func(query string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Query, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports failed statements
func ErrorMiddleware(onError func(query string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Query, err)
		}
		return err
	}
}
