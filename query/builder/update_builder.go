package builder

import (
	"context"
	"fmt"

	"github.com/satishbabariya/worm-go/query/columns"
	"github.com/satishbabariya/worm-go/query/executor"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

// UpdateState tracks whether an UPDATE has at least one assignment
type UpdateState int

const (
	// NoSetMade is the initial state; the statement cannot be built yet
	NoSetMade UpdateState = iota
	// SetMade is reached with the first assignment
	SetMade
)

func (s UpdateState) String() string {
	if s == SetMade {
		return "SetMade"
	}
	return "NoSetMade"
}

// UpdateBuilder is an UPDATE without assignments. It has no Build or Exec;
// calling Set moves it to an UpdateSetBuilder.
type UpdateBuilder struct {
	table string
	where sqlgen.Where
}

// Update starts an UPDATE of table
func Update(table string) UpdateBuilder {
	return UpdateBuilder{table: table}
}

// State returns NoSetMade
func (u UpdateBuilder) State() UpdateState {
	return NoSetMade
}

// Where adds a condition, combined with AND with the existing ones
func (u UpdateBuilder) Where(w sqlgen.Where) UpdateBuilder {
	u.where = u.where.And(w)
	return u
}

// WhereRaw adds a raw SQL condition
func (u UpdateBuilder) WhereRaw(text string, args ...interface{}) UpdateBuilder {
	return u.Where(raw(text, args))
}

// Set assigns value to col
func (u UpdateBuilder) Set(col columns.Columnar, value interface{}) UpdateSetBuilder {
	return UpdateSetBuilder{table: u.table, where: u.where}.Set(col, value)
}

// Assign adds typed assignments
func (u UpdateBuilder) Assign(first columns.Assignment, rest ...columns.Assignment) UpdateSetBuilder {
	return UpdateSetBuilder{table: u.table, where: u.where}.Assign(first, rest...)
}

// UpdateSetBuilder is an UPDATE with at least one assignment
type UpdateSetBuilder struct {
	table string
	sets  []columns.Assignment
	where sqlgen.Where
}

// State returns SetMade
func (u UpdateSetBuilder) State() UpdateState {
	return SetMade
}

// Set adds another assignment
func (u UpdateSetBuilder) Set(col columns.Columnar, value interface{}) UpdateSetBuilder {
	return u.Assign(columns.Assignment{Column: col.Descriptor(), Value: value})
}

// Assign adds typed assignments
func (u UpdateSetBuilder) Assign(first columns.Assignment, rest ...columns.Assignment) UpdateSetBuilder {
	sets := make([]columns.Assignment, 0, len(u.sets)+1+len(rest))
	sets = append(sets, u.sets...)
	sets = append(sets, first)
	u.sets = append(sets, rest...)
	return u
}

// Where adds a condition, combined with AND with the existing ones. An
// empty condition updates every row.
func (u UpdateSetBuilder) Where(w sqlgen.Where) UpdateSetBuilder {
	u.where = u.where.And(w)
	return u
}

// WhereRaw adds a raw SQL condition
func (u UpdateSetBuilder) WhereRaw(text string, args ...interface{}) UpdateSetBuilder {
	return u.Where(raw(text, args))
}

// PushTo renders the statement
func (u UpdateSetBuilder) PushTo(buf *sqlgen.Buffer) {
	if len(u.sets) == 0 {
		buf.Fail(fmt.Errorf("%w: UPDATE %s has no assignments", sqlgen.ErrPrecondition, u.table))
		return
	}

	buf.WriteString("UPDATE ")
	buf.WriteString(u.table)
	buf.WriteString(" SET ")
	for i, s := range u.sets {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(s.Column.Name())
		buf.WriteString(" = ")
		buf.WriteParam(s.Value)
	}

	pushWhere(buf, u.where)
}

// Build renders the statement for the dialect
func (u UpdateSetBuilder) Build(d sqlgen.Dialect) (sqlgen.Query, error) {
	return sqlgen.Build(u, sqlgen.ShapeAffected, d)
}

// Exec builds and executes the statement, returning the affected row count
func (u UpdateSetBuilder) Exec(ctx context.Context, conn executor.Conn, d sqlgen.Dialect) (int64, error) {
	q, err := u.Build(d)
	if err != nil {
		return 0, err
	}
	return executor.Affected(ctx, conn, q)
}
