// Package columns provides column descriptors and type-safe column
// expressions for query building.
package columns

import (
	"strings"

	"github.com/satishbabariya/worm-go/query/sqlgen"
)

// Column describes one table column: its identity and its flags.
//
// Column values are immutable; every setter returns a modified copy.
type Column struct {
	table      string
	name       string
	sqlType    string
	defaultSQL string
	nullable   bool
	unique     bool
	primaryKey bool
	generated  bool
	array      bool
}

// NewColumn creates a column descriptor
func NewColumn(table, name string) Column {
	return Column{table: table, name: name}
}

// Name returns the column name
func (c Column) Name() string {
	return c.name
}

// Table returns the table name
func (c Column) Table() string {
	return c.table
}

// FullName returns the column name qualified with its table
func (c Column) FullName() string {
	if c.table == "" {
		return c.name
	}
	return c.table + "." + c.name
}

// SQLType returns the SQL data type of the column, without the array marker
func (c Column) SQLType() string {
	return c.sqlType
}

// DefaultSQL returns the explicit default expression, if any
func (c Column) DefaultSQL() string {
	return c.defaultSQL
}

// IsNullable reports whether the column accepts NULL
func (c Column) IsNullable() bool {
	return c.nullable
}

// IsUnique reports whether the column carries a UNIQUE constraint
func (c Column) IsUnique() bool {
	return c.unique
}

// IsPrimaryKey reports whether the column is the primary key
func (c Column) IsPrimaryKey() bool {
	return c.primaryKey
}

// IsGenerated reports whether the database generates the column value
func (c Column) IsGenerated() bool {
	return c.generated
}

// IsArray reports whether the column holds an array
func (c Column) IsArray() bool {
	return c.array
}

// Nullable marks the column as nullable
func (c Column) Nullable() Column {
	c.nullable = true
	return c
}

// Unique marks the column as unique
func (c Column) Unique() Column {
	c.unique = true
	return c
}

// PrimaryKey marks the column as the primary key
func (c Column) PrimaryKey() Column {
	c.primaryKey = true
	return c
}

// Generated marks the column as generated by the database
func (c Column) Generated() Column {
	c.generated = true
	return c
}

// Array marks the column as an array of its SQL type
func (c Column) Array() Column {
	c.array = true
	return c
}

// Type sets the SQL data type
func (c Column) Type(sqlType string) Column {
	c.sqlType = strings.ToUpper(sqlType)
	return c
}

// Default sets an explicit default expression, used instead of the type's
// generated marker
func (c Column) Default(expr string) Column {
	c.defaultSQL = expr
	return c
}

// PushTo writes the qualified column name
func (c Column) PushTo(buf *sqlgen.Buffer) {
	buf.WriteString(c.FullName())
}

// Descriptor returns the column itself. Typed columns inherit it, which
// lets both be passed as a Columnar.
func (c Column) Descriptor() Column {
	return c
}

// Columnar is implemented by the descriptor and by every typed column
type Columnar interface {
	Descriptor() Column
}

// Descriptors returns the descriptors of the given columns
func Descriptors(cols ...Columnar) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c.Descriptor()
	}
	return out
}
