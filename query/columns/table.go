package columns

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	rawJSONType = reflect.TypeOf(json.RawMessage{})
)

// SQLTypeOf returns the Postgres data type used for values of a Go type.
// Pointers map to their element type. Unknown types yield "".
func SQLTypeOf(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t {
	case timeType:
		return "TIMESTAMPTZ"
	case rawJSONType:
		return "JSONB"
	}

	switch t.Kind() {
	case reflect.String:
		return "TEXT"
	case reflect.Bool:
		return "BOOL"
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return "INT2"
	case reflect.Int32, reflect.Uint16:
		return "INT4"
	case reflect.Int, reflect.Int64, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return "INT8"
	case reflect.Float32:
		return "FLOAT4"
	case reflect.Float64:
		return "FLOAT8"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "BYTEA"
		}
	}
	return ""
}

// Table describes a table and its columns
type Table struct {
	Name    string
	Columns []Column
}

// NewTable creates a table descriptor from typed or plain columns
func NewTable(name string, cols ...Columnar) Table {
	return Table{Name: name, Columns: Descriptors(cols...)}
}

// Column returns the column with the given name
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.name == name {
			return c, true
		}
	}
	return Column{}, false
}

// CreateSQL returns the CREATE TABLE statement for the table
func (t Table) CreateSQL() (string, error) {
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", t.Name)
	}

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		def, err := c.CreateSQL()
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Name, err)
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(defs, ", ")), nil
}

// DropSQL returns the statement that drops the table ahead of a forced
// re-creation
func (t Table) DropSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE; ", t.Name)
}

// CreateSQL returns the column definition used inside CREATE TABLE.
//
// Clauses always appear in this order: name, type, array marker, PRIMARY KEY,
// generated marker, UNIQUE, NOT NULL. NOT NULL is left out for nullable and
// primary key columns.
func (c Column) CreateSQL() (string, error) {
	if c.sqlType == "" {
		return "", fmt.Errorf("column %s has no SQL type", c.name)
	}

	parts := []string{c.name, c.sqlType}
	if c.array {
		parts = append(parts, "[]")
	}
	if c.primaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.generated {
		marker, err := c.generatedMarker()
		if err != nil {
			return "", err
		}
		parts = append(parts, marker)
	}
	if c.unique {
		parts = append(parts, "UNIQUE")
	}
	if !(c.primaryKey || c.nullable) {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " "), nil
}

func (c Column) generatedMarker() (string, error) {
	if c.defaultSQL != "" {
		return "DEFAULT " + c.defaultSQL, nil
	}
	switch c.sqlType {
	case "INT2", "INT4", "INT8":
		return "GENERATED ALWAYS AS IDENTITY", nil
	case "UUID":
		return "DEFAULT gen_random_uuid()", nil
	default:
		return "", fmt.Errorf("column %s: generated values are only available for integers and UUID, got %s", c.name, c.sqlType)
	}
}
