package builder

import (
	"github.com/satishbabariya/worm-go/query/columns"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

// JoinType represents the type of JOIN
type JoinType string

const (
	// InnerJoin returns rows with matches in both tables
	InnerJoin JoinType = "INNER"
	// LeftJoin returns every row of the left table
	LeftJoin JoinType = "LEFT"
	// RightJoin returns every row of the right table
	RightJoin JoinType = "RIGHT"
	// OuterJoin returns every row of both tables
	OuterJoin JoinType = "FULL OUTER"
)

// Join joins the table of To on From = To
type Join struct {
	Type JoinType
	From columns.Column
	To   columns.Column
}

// NewJoin creates a join of the given type
func NewJoin(joinType JoinType, from, to columns.Columnar) Join {
	return Join{Type: joinType, From: from.Descriptor(), To: to.Descriptor()}
}

// PushTo renders the join clause
func (j Join) PushTo(buf *sqlgen.Buffer) {
	buf.WriteString(string(j.Type))
	buf.WriteString(" JOIN ")
	buf.WriteString(j.To.Table())
	buf.WriteString(" ON ")
	buf.WriteString(j.From.FullName())
	buf.WriteString(" = ")
	buf.WriteString(j.To.FullName())
}
