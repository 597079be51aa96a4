package builder

import (
	"strconv"

	"github.com/satishbabariya/worm-go/query/columns"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

// SelectBuilder builds SELECT queries
type SelectBuilder struct {
	table  string
	cols   []columns.Column
	joins  []Join
	where  sqlgen.Where
	limit  int
	offset int
	shape  sqlgen.Shape
}

// Select starts a SELECT of the given columns from table. Without columns
// every column is selected.
func Select(table string, cols ...columns.Columnar) SelectBuilder {
	return SelectBuilder{
		table:  table,
		cols:   columns.Descriptors(cols...),
		limit:  -1,
		offset: -1,
		shape:  sqlgen.ShapeRows,
	}
}

// Where adds a condition, combined with AND with the existing ones. An
// empty condition selects every row.
func (s SelectBuilder) Where(w sqlgen.Where) SelectBuilder {
	s.where = s.where.And(w)
	return s
}

// WhereRaw adds a raw SQL condition
func (s SelectBuilder) WhereRaw(text string, args ...interface{}) SelectBuilder {
	return s.Where(raw(text, args))
}

// Join adds a join clause
func (s SelectBuilder) Join(j Join) SelectBuilder {
	s.joins = append(s.joins[:len(s.joins):len(s.joins)], j)
	return s
}

// InnerJoin joins the table of to on from = to
func (s SelectBuilder) InnerJoin(from, to columns.Columnar) SelectBuilder {
	return s.Join(NewJoin(InnerJoin, from, to))
}

// LeftJoin left-joins the table of to on from = to
func (s SelectBuilder) LeftJoin(from, to columns.Columnar) SelectBuilder {
	return s.Join(NewJoin(LeftJoin, from, to))
}

// RightJoin right-joins the table of to on from = to
func (s SelectBuilder) RightJoin(from, to columns.Columnar) SelectBuilder {
	return s.Join(NewJoin(RightJoin, from, to))
}

// OuterJoin fully joins the table of to on from = to
func (s SelectBuilder) OuterJoin(from, to columns.Columnar) SelectBuilder {
	return s.Join(NewJoin(OuterJoin, from, to))
}

// Limit sets the LIMIT. Negative values remove it.
func (s SelectBuilder) Limit(n int) SelectBuilder {
	s.limit = n
	return s
}

// Offset sets the OFFSET. Negative values remove it.
func (s SelectBuilder) Offset(n int) SelectBuilder {
	s.offset = n
	return s
}

// One limits the query to a single row and marks it as returning an
// optional row
func (s SelectBuilder) One() SelectBuilder {
	s.limit = 1
	s.shape = sqlgen.ShapeOptional
	return s
}

// Shape returns the output shape of the query
func (s SelectBuilder) Shape() sqlgen.Shape {
	return s.shape
}

// PushTo renders the query
func (s SelectBuilder) PushTo(buf *sqlgen.Buffer) {
	buf.WriteString("SELECT ")
	if len(s.cols) == 0 {
		buf.WriteString("*")
	}
	for i, c := range s.cols {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.Push(c)
	}

	buf.WriteString(" FROM ")
	buf.WriteString(s.table)

	for _, j := range s.joins {
		buf.WriteString(" ")
		buf.Push(j)
	}

	pushWhere(buf, s.where)

	if s.limit >= 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(s.limit))
	}
	if s.offset >= 0 {
		buf.WriteString(" OFFSET ")
		buf.WriteString(strconv.Itoa(s.offset))
	}
}

// Build renders the query for the dialect
func (s SelectBuilder) Build(d sqlgen.Dialect) (sqlgen.Query, error) {
	return sqlgen.Build(s, s.shape, d)
}
