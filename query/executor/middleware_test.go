package executor_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/worm-go/query/executor"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

func TestExecutorMiddlewareOrder(t *testing.T) {
	var calls []string
	tag := func(name string) executor.Middleware {
		return func(ctx context.Context, event *executor.QueryEvent, next func() error) error {
			calls = append(calls, name+" before")
			err := next()
			calls = append(calls, name+" after")
			return err
		}
	}

	exec := executor.New(&fakeConn{affected: 2}, tag("outer"), tag("inner"))
	n, err := exec.Exec(context.Background(), "DELETE FROM book")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"outer before", "inner before", "inner after", "outer after"}, calls)
}

func TestExecutorUseDoesNotModifyReceiver(t *testing.T) {
	var timed []string
	base := executor.New(&fakeConn{})
	withTiming := base.Use(executor.TimingMiddleware(func(query string, d time.Duration) {
		timed = append(timed, query)
	}))

	_, err := base.Exec(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Empty(t, timed)

	_, err = withTiming.Exec(context.Background(), "SELECT 2")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 2"}, timed)
}

func TestErrorMiddleware(t *testing.T) {
	boom := errors.New("boom")
	var reported error
	exec := executor.New(&fakeConn{err: boom}, executor.ErrorMiddleware(func(query string, err error) {
		reported = err
	}))

	_, err := exec.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, reported, boom)
}

func TestExecutorClosesRowsWhenMiddlewareFails(t *testing.T) {
	denied := errors.New("denied")
	rows := &fakeRows{cols: []string{"id", "title"}}
	exec := executor.New(&fakeConn{rows: rows}, func(ctx context.Context, event *executor.QueryEvent, next func() error) error {
		if err := next(); err != nil {
			return err
		}
		return denied
	})

	got, err := exec.Query(context.Background(), "SELECT id, title FROM book")
	assert.ErrorIs(t, err, denied)
	assert.Nil(t, got)
	assert.True(t, rows.closed)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	conn := &fakeConn{rows: &fakeRows{cols: []string{"id", "title"}}}
	exec := executor.New(conn, executor.LoggingMiddleware(logger))

	books, err := executor.FetchAll[book](context.Background(), exec, rowsQuery())
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Contains(t, buf.String(), "executing statement")
	assert.Contains(t, buf.String(), "statement completed")
}

func TestExecutorSatisfiesConn(t *testing.T) {
	var _ executor.Conn = executor.New(&fakeConn{})

	q := sqlgen.Query{SQL: "UPDATE book SET title = $1", Args: []interface{}{"X"}, Shape: sqlgen.ShapeAffected}
	n, err := executor.Affected(context.Background(), executor.New(&fakeConn{affected: 5}), q)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
