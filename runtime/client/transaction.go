package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/satishbabariya/worm-go/internal/debug"
	"github.com/satishbabariya/worm-go/query/executor"
)

// IsolationLevel names the isolation a transaction runs at. The zero value
// leaves the choice to the server.
type IsolationLevel int

const (
	// DefaultIsolation uses the server's default, READ COMMITTED on Postgres.
	DefaultIsolation IsolationLevel = iota
	// ReadUncommitted runs at READ UNCOMMITTED. Postgres treats it as READ COMMITTED.
	ReadUncommitted
	// ReadCommitted lets each statement see rows committed before it began.
	ReadCommitted
	// RepeatableRead gives every statement the snapshot taken at the first one.
	RepeatableRead
	// Serializable aborts transactions that could not have run one after another.
	Serializable
)

var sqlLevels = [...]sql.IsolationLevel{
	DefaultIsolation: sql.LevelDefault,
	ReadUncommitted:  sql.LevelReadUncommitted,
	ReadCommitted:    sql.LevelReadCommitted,
	RepeatableRead:   sql.LevelRepeatableRead,
	Serializable:     sql.LevelSerializable,
}

func (l IsolationLevel) sqlLevel() sql.IsolationLevel {
	if l < 0 || int(l) >= len(sqlLevels) {
		return sql.LevelDefault
	}
	return sqlLevels[l]
}

func (l IsolationLevel) String() string {
	return l.sqlLevel().String()
}

// TxOptions builds the options accepted by Begin
func TxOptions(level IsolationLevel, readOnly bool) *sql.TxOptions {
	return &sql.TxOptions{Isolation: level.sqlLevel(), ReadOnly: readOnly}
}

// Transaction is a database transaction that owns a single connection taken
// from the client's pool. The connection is returned exactly once: on
// commit, on rollback, or when the context passed to Begin is done.
type Transaction struct {
	conn *sql.Conn
	tx   *sql.Tx
	exec *executor.Executor

	depth    int
	once     sync.Once
	stop     func() bool
	released atomic.Bool
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(tx *Transaction) error

// Begin takes a connection from the pool and starts a transaction on it
func (c *Client) Begin(ctx context.Context, opts *sql.TxOptions) (*Transaction, error) {
	db, _, err := c.handles()
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	sqlTx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Transaction{conn: conn, tx: sqlTx}
	tx.exec = c.executor(txConn{tx: sqlTx})

	// database/sql rolls the transaction back when ctx is done; the
	// connection still has to go back to the pool.
	tx.stop = context.AfterFunc(ctx, func() {
		debug.Debug("transaction context done, releasing connection", "error", ctx.Err())
		tx.releaseConn()
	})

	return tx, nil
}

// Query runs a row-returning statement inside the transaction
func (t *Transaction) Query(ctx context.Context, query string, args ...interface{}) (executor.Rows, error) {
	return t.exec.Query(ctx, query, args...)
}

// Exec runs a statement inside the transaction
func (t *Transaction) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return t.exec.Exec(ctx, query, args...)
}

// Commit commits the transaction and releases its connection
func (t *Transaction) Commit() error {
	err := t.tx.Commit()
	t.releaseConn()
	return err
}

// Rollback aborts the transaction and releases its connection
func (t *Transaction) Rollback() error {
	err := t.tx.Rollback()
	t.releaseConn()
	return err
}

// Released reports whether the connection has been returned to the pool
func (t *Transaction) Released() bool {
	return t.released.Load()
}

func (t *Transaction) releaseConn() {
	t.once.Do(func() {
		if t.stop != nil {
			t.stop()
		}
		if err := t.conn.Close(); err != nil {
			debug.Warn("failed to release transaction connection", "error", err)
		}
		t.released.Store(true)
	})
}

// Transaction executes fn within a transaction. The transaction is rolled
// back if fn returns an error or panics and committed otherwise.
func (c *Client) Transaction(ctx context.Context, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, nil, fn)
}

// TransactionWithOptions is Transaction with explicit options
func (c *Client) TransactionWithOptions(ctx context.Context, opts *sql.TxOptions, fn TransactionFunc) error {
	tx, err := c.Begin(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	return settle(fn(tx), tx.Commit, tx.Rollback)
}

// TransactionWithIsolation runs fn at the given isolation level
func (c *Client) TransactionWithIsolation(ctx context.Context, level IsolationLevel, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, TxOptions(level, false), fn)
}

// ReadOnlyTransaction runs fn in a READ ONLY transaction at the default
// isolation level. Writes inside fn fail on the server and roll it back.
func (c *Client) ReadOnlyTransaction(ctx context.Context, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, TxOptions(DefaultIsolation, true), fn)
}

// Nested runs fn inside a savepoint. An error or panic from fn rolls back
// to the savepoint and leaves the outer transaction usable.
func (t *Transaction) Nested(ctx context.Context, fn TransactionFunc) error {
	t.depth++
	savepoint := fmt.Sprintf("sp_%d", t.depth)

	if err := t.savepoint(ctx, "SAVEPOINT ", savepoint); err != nil {
		t.depth--
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = t.savepoint(ctx, "ROLLBACK TO SAVEPOINT ", savepoint)
			t.depth--
			panic(p)
		}
	}()

	err := settle(fn(t),
		func() error { return t.savepoint(ctx, "RELEASE SAVEPOINT ", savepoint) },
		func() error { return t.savepoint(ctx, "ROLLBACK TO SAVEPOINT ", savepoint) },
	)
	t.depth--
	return err
}

func (t *Transaction) savepoint(ctx context.Context, stmt, name string) error {
	_, err := t.tx.ExecContext(ctx, stmt+name)
	return err
}

// settle commits when fnErr is nil and rolls back otherwise. A failed
// rollback is joined to fnErr.
func settle(fnErr error, commit, rollback func() error) error {
	if fnErr != nil {
		if err := rollback(); err != nil {
			return errors.Join(fnErr, fmt.Errorf("rollback failed: %w", err))
		}
		return fnErr
	}
	if err := commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// txConn adapts *sql.Tx to executor.Conn
type txConn struct {
	tx *sql.Tx
}

func (c txConn) Query(ctx context.Context, query string, args ...interface{}) (executor.Rows, error) {
	rows, err := c.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c txConn) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := c.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
