// Package builder provides immutable statement builders.
//
// Every builder is a value. Methods return a modified copy and never change
// the receiver, so a partially configured builder can be reused as a base
// for several statements.
package builder

import (
	"context"

	"github.com/satishbabariya/worm-go/query/executor"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

// All builds the select statement and decodes every returned row
func All[T any, PT executor.Decodable[T]](ctx context.Context, conn executor.Conn, d sqlgen.Dialect, s SelectBuilder) ([]T, error) {
	q, err := s.Build(d)
	if err != nil {
		return nil, err
	}
	return executor.FetchAll[T, PT](ctx, conn, q)
}

// One builds the select statement for a single row and decodes it. It
// returns nil when no row matched.
func One[T any, PT executor.Decodable[T]](ctx context.Context, conn executor.Conn, d sqlgen.Dialect, s SelectBuilder) (*T, error) {
	q, err := s.One().Build(d)
	if err != nil {
		return nil, err
	}
	return executor.FetchOptional[T, PT](ctx, conn, q)
}

func raw(text string, args []interface{}) sqlgen.Where {
	return sqlgen.Raw(text, args...)
}

// pushWhere renders a non-empty condition as a WHERE clause
func pushWhere(buf *sqlgen.Buffer, w sqlgen.Where) {
	if err := w.Err(); err != nil {
		buf.Fail(err)
		return
	}
	if w.IsEmpty() {
		return
	}
	buf.WriteString(" WHERE ")
	buf.Push(w)
}
