package columns

import (
	"reflect"
	"strings"

	"github.com/lib/pq"

	"github.com/satishbabariya/worm-go/query/sqlgen"
)

// TypedColumn is a column carrying values of type T
type TypedColumn[T any] struct {
	Column
}

// NewTypedColumn creates a typed column, inferring the SQL type from T
func NewTypedColumn[T any](table, name string) TypedColumn[T] {
	return Typed[T](NewColumn(table, name))
}

// Typed attaches the value type T to a descriptor. The SQL type is inferred
// from T unless the descriptor already has one.
func Typed[T any](c Column) TypedColumn[T] {
	if c.sqlType == "" {
		c.sqlType = SQLTypeOf(reflect.TypeOf((*T)(nil)).Elem())
	}
	return TypedColumn[T]{Column: c}
}

func (c TypedColumn[T]) compare(op string, value T) sqlgen.Where {
	return sqlgen.Cond(c.FullName()+" "+op+" ?", value)
}

// EQ creates an equality condition
func (c TypedColumn[T]) EQ(value T) sqlgen.Where {
	return c.compare("=", value)
}

// NOT_EQ creates a not-equal condition
func (c TypedColumn[T]) NOT_EQ(value T) sqlgen.Where {
	return c.compare("!=", value)
}

// GT creates a greater-than condition
func (c TypedColumn[T]) GT(value T) sqlgen.Where {
	return c.compare(">", value)
}

// GTE creates a greater-than-or-equal condition
func (c TypedColumn[T]) GTE(value T) sqlgen.Where {
	return c.compare(">=", value)
}

// LT creates a less-than condition
func (c TypedColumn[T]) LT(value T) sqlgen.Where {
	return c.compare("<", value)
}

// LTE creates a less-than-or-equal condition
func (c TypedColumn[T]) LTE(value T) sqlgen.Where {
	return c.compare("<=", value)
}

// IN creates a list membership condition. An empty list yields the Empty
// condition, which matches every row.
func (c TypedColumn[T]) IN(values []T) sqlgen.Where {
	return c.membership("IN", values)
}

// NOT_IN creates a negated list membership condition. An empty list yields
// the Empty condition, which matches every row.
func (c TypedColumn[T]) NOT_IN(values []T) sqlgen.Where {
	return c.membership("NOT IN", values)
}

func (c TypedColumn[T]) membership(op string, values []T) sqlgen.Where {
	if len(values) == 0 {
		return sqlgen.Empty()
	}

	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return sqlgen.Cond(c.FullName()+" "+op+" ("+marks+")", args...)
}

// Assign pairs the column with a value for INSERT and UPDATE statements
func (c TypedColumn[T]) Assign(value T) Assignment {
	return Assignment{Column: c.Column, Value: value}
}

// Assignment is a column paired with the value written to it
type Assignment struct {
	Column Column
	Value  interface{}
}

// StringColumn is a text column with pattern matching
type StringColumn struct {
	TypedColumn[string]
}

// NewStringColumn creates a new StringColumn
func NewStringColumn(table, name string) StringColumn {
	return StringColumn{NewTypedColumn[string](table, name)}
}

// LIKE matches the column against a pattern
func (c StringColumn) LIKE(pattern string) sqlgen.Where {
	return c.compare("LIKE", pattern)
}

// ILIKE matches the column against a pattern, ignoring case
func (c StringColumn) ILIKE(pattern string) sqlgen.Where {
	return c.compare("ILIKE", pattern)
}

// Contains creates a substring condition. Wildcards in value keep their
// meaning.
func (c StringColumn) Contains(value string) sqlgen.Where {
	return c.compare("LIKE", "%"+value+"%")
}

// StartsWith creates a prefix condition
func (c StringColumn) StartsWith(value string) sqlgen.Where {
	return c.compare("LIKE", value+"%")
}

// EndsWith creates a suffix condition
func (c StringColumn) EndsWith(value string) sqlgen.Where {
	return c.compare("LIKE", "%"+value)
}

// NullableColumn is a typed column that accepts NULL
type NullableColumn[T any] struct {
	TypedColumn[T]
}

// NewNullableColumn creates a new NullableColumn
func NewNullableColumn[T any](table, name string) NullableColumn[T] {
	return NullableColumn[T]{Typed[T](NewColumn(table, name).Nullable())}
}

// IsNull creates an IS NULL condition
func (c NullableColumn[T]) IsNull() sqlgen.Where {
	return sqlgen.Cond(c.FullName() + " IS NULL")
}

// IsNotNull creates an IS NOT NULL condition
func (c NullableColumn[T]) IsNotNull() sqlgen.Where {
	return sqlgen.Cond(c.FullName() + " IS NOT NULL")
}

// ArrayColumn is a Postgres array column with elements of type E
type ArrayColumn[E any] struct {
	Column
}

// NewArrayColumn creates a new ArrayColumn
func NewArrayColumn[E any](table, name string) ArrayColumn[E] {
	c := NewColumn(table, name).Array()
	c.sqlType = SQLTypeOf(reflect.TypeOf((*E)(nil)).Elem())
	return ArrayColumn[E]{Column: c}
}

// Contains checks whether the array holds value
func (c ArrayColumn[E]) Contains(value E) sqlgen.Where {
	return sqlgen.Cond("? = ANY("+c.FullName()+")", value)
}

// ContainsAny checks whether the array shares at least one element with
// values. An empty list matches no row.
func (c ArrayColumn[E]) ContainsAny(values []E) sqlgen.Where {
	if len(values) == 0 {
		return sqlgen.Cond("FALSE")
	}
	return sqlgen.Cond(c.FullName()+" && ?", pq.Array(values))
}

// ContainsAll checks whether the array holds every element of values. An
// empty list yields the Empty condition.
func (c ArrayColumn[E]) ContainsAll(values []E) sqlgen.Where {
	if len(values) == 0 {
		return sqlgen.Empty()
	}
	return sqlgen.Cond(c.FullName()+" @> ?", pq.Array(values))
}

// IsEmpty checks whether the array has no elements
func (c ArrayColumn[E]) IsEmpty() sqlgen.Where {
	return sqlgen.Cond("cardinality(" + c.FullName() + ") = 0")
}

// Assign pairs the column with an array value for INSERT and UPDATE
// statements
func (c ArrayColumn[E]) Assign(values []E) Assignment {
	return Assignment{Column: c.Column, Value: pq.Array(values)}
}
