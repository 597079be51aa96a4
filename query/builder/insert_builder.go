package builder

import (
	"context"
	"fmt"
	"sort"

	"github.com/satishbabariya/worm-go/query/columns"
	"github.com/satishbabariya/worm-go/query/executor"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

// InsertBuilder builds single-row INSERT statements
type InsertBuilder struct {
	table  string
	values []columns.Assignment
}

// Insert starts an INSERT into table
func Insert(table string) InsertBuilder {
	return InsertBuilder{table: table}
}

// Value adds a column value
func (b InsertBuilder) Value(col columns.Columnar, value interface{}) InsertBuilder {
	return b.Assign(columns.Assignment{Column: col.Descriptor(), Value: value})
}

// Assign adds typed column values
func (b InsertBuilder) Assign(values ...columns.Assignment) InsertBuilder {
	out := make([]columns.Assignment, 0, len(b.values)+len(values))
	out = append(out, b.values...)
	b.values = append(out, values...)
	return b
}

// Values adds column values by column name, in name order
func (b InsertBuilder) Values(values map[string]interface{}) InsertBuilder {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b = b.Value(columns.NewColumn(b.table, name), values[name])
	}
	return b
}

// PushTo renders the statement
func (b InsertBuilder) PushTo(buf *sqlgen.Buffer) {
	if len(b.values) == 0 {
		buf.Fail(fmt.Errorf("%w: INSERT INTO %s has no values", sqlgen.ErrPrecondition, b.table))
		return
	}

	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	for i, v := range b.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(v.Column.Name())
	}
	buf.WriteString(") VALUES (")
	for i, v := range b.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteParam(v.Value)
	}
	buf.WriteString(")")
}

// Build renders the statement for the dialect
func (b InsertBuilder) Build(d sqlgen.Dialect) (sqlgen.Query, error) {
	return sqlgen.Build(b, sqlgen.ShapeAffected, d)
}

// Exec builds and executes the statement, returning the affected row count
func (b InsertBuilder) Exec(ctx context.Context, conn executor.Conn, d sqlgen.Dialect) (int64, error) {
	q, err := b.Build(d)
	if err != nil {
		return 0, err
	}
	return executor.Affected(ctx, conn, q)
}
