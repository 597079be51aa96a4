package builder

import (
	"context"

	"github.com/satishbabariya/worm-go/query/executor"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

// DeleteBuilder builds DELETE statements
type DeleteBuilder struct {
	table string
	where sqlgen.Where
}

// Delete starts a DELETE from table. Without a condition every row is
// deleted.
func Delete(table string) DeleteBuilder {
	return DeleteBuilder{table: table}
}

// Where adds a condition, combined with AND with the existing ones
func (b DeleteBuilder) Where(w sqlgen.Where) DeleteBuilder {
	b.where = b.where.And(w)
	return b
}

// WhereRaw adds a raw SQL condition
func (b DeleteBuilder) WhereRaw(text string, args ...interface{}) DeleteBuilder {
	return b.Where(raw(text, args))
}

// PushTo renders the statement
func (b DeleteBuilder) PushTo(buf *sqlgen.Buffer) {
	buf.WriteString("DELETE FROM ")
	buf.WriteString(b.table)
	pushWhere(buf, b.where)
}

// Build renders the statement for the dialect
func (b DeleteBuilder) Build(d sqlgen.Dialect) (sqlgen.Query, error) {
	return sqlgen.Build(b, sqlgen.ShapeAffected, d)
}

// Exec builds and executes the statement, returning the affected row count
func (b DeleteBuilder) Exec(ctx context.Context, conn executor.Conn, d sqlgen.Dialect) (int64, error) {
	q, err := b.Build(d)
	if err != nil {
		return 0, err
	}
	return executor.Affected(ctx, conn, q)
}
