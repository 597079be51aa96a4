// Package executor executes finished statements against a connection and
// maps the results.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/satishbabariya/worm-go/query/sqlgen"
)

var (
	// ErrDecode is returned when a row cannot be decoded into the target type
	ErrDecode = errors.New("failed to decode row")
	// ErrShape is returned when a statement is executed for an output shape
	// it was not built for
	ErrShape = errors.New("statement shape mismatch")
)

// Row is a single result row being decoded
type Row interface {
	Columns() ([]string, error)
	Scan(dest ...interface{}) error
}

// Rows iterates over a result set. *sql.Rows satisfies it.
type Rows interface {
	Row
	Next() bool
	Err() error
	Close() error
}

// Conn is anything statements can be executed against: a client, a
// transaction or a test double.
type Conn interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)
}

// Decodable constrains *T to types that decode themselves from a row
type Decodable[T any] interface {
	*T
	ScanRow(row Row) error
}

// ProtocolError wraps a failure reported by the driver or the server. Its
// message is the driver's message, unchanged.
type ProtocolError struct {
	SQL string
	Err error
}

func (e *ProtocolError) Error() string {
	return e.Err.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func protocol(query string, err error) error {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return err
	}
	return &ProtocolError{SQL: query, Err: err}
}

func checkShape(q sqlgen.Query, want sqlgen.Shape) error {
	if q.Shape != want {
		return fmt.Errorf("%w: statement built for %s, executed for %s", ErrShape, q.Shape, want)
	}
	return nil
}

// FetchAll executes a row-returning statement and decodes every row. A
// decoding failure on any row discards the rows decoded so far.
func FetchAll[T any, PT Decodable[T]](ctx context.Context, conn Conn, q sqlgen.Query) ([]T, error) {
	if err := checkShape(q, sqlgen.ShapeRows); err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, protocol(q.SQL, err)
	}
	defer rows.Close()

	var results []T
	for i := 0; rows.Next(); i++ {
		var result T
		if err := PT(&result).ScanRow(rows); err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrDecode, i, err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, protocol(q.SQL, err)
	}
	return results, nil
}

// FetchOptional executes a statement built for an optional row and decodes
// the first returned row. It returns nil when there are no rows; further
// rows are ignored.
func FetchOptional[T any, PT Decodable[T]](ctx context.Context, conn Conn, q sqlgen.Query) (*T, error) {
	if err := checkShape(q, sqlgen.ShapeOptional); err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, protocol(q.SQL, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, protocol(q.SQL, err)
		}
		return nil, nil
	}

	var result T
	if err := PT(&result).ScanRow(rows); err != nil {
		return nil, fmt.Errorf("%w 0: %w", ErrDecode, err)
	}
	return &result, nil
}

// Affected executes a statement and returns the number of affected rows
func Affected(ctx context.Context, conn Conn, q sqlgen.Query) (int64, error) {
	if err := checkShape(q, sqlgen.ShapeAffected); err != nil {
		return 0, err
	}

	n, err := conn.Exec(ctx, q.SQL, q.Args...)
	if err != nil {
		return 0, protocol(q.SQL, err)
	}
	return n, nil
}
