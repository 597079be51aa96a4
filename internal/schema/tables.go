package schema

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/worm-go/query/columns"
)

// scalarTypes maps model field types to SQL data types
var scalarTypes = map[string]string{
	"Int":      "INT4",
	"BigInt":   "INT8",
	"SmallInt": "INT2",
	"Float":    "FLOAT8",
	"Real":     "FLOAT4",
	"String":   "TEXT",
	"Boolean":  "BOOL",
	"DateTime": "TIMESTAMPTZ",
	"Date":     "DATE",
	"Time":     "TIME",
	"Json":     "JSONB",
	"Uuid":     "UUID",
}

// Tables converts every model to a table descriptor. Models keep their
// declaration order.
func (s *Schema) Tables() ([]columns.Table, error) {
	tables := make([]columns.Table, 0, len(s.Models))
	seen := make(map[string]bool, len(s.Models))

	for _, m := range s.Models {
		t, err := m.Table()
		if err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%s: duplicate table %s", m.Pos, t.Name)
		}
		seen[t.Name] = true
		tables = append(tables, t)
	}
	return tables, nil
}

// TableName returns the table name: the @@map argument if present,
// otherwise the lower-cased model name
func (m *Model) TableName() (string, error) {
	for _, a := range m.Attributes {
		if a.Name != "map" {
			continue
		}
		name, err := stringArg(a.Args)
		if err != nil {
			return "", fmt.Errorf("%s: @@map: %w", a.Pos, err)
		}
		return name, nil
	}
	return strings.ToLower(m.Name), nil
}

// ColumnName returns the column name: the @map argument if present,
// otherwise the lower-cased field name
func (f *Field) ColumnName() (string, error) {
	if a, ok := f.Attribute("map"); ok {
		name, err := stringArg(a.Args)
		if err != nil {
			return "", fmt.Errorf("%s: @map: %w", a.Pos, err)
		}
		return name, nil
	}
	return strings.ToLower(f.Name), nil
}

// Table converts the model to a table descriptor
func (m *Model) Table() (columns.Table, error) {
	name, err := m.TableName()
	if err != nil {
		return columns.Table{}, err
	}
	if len(m.Fields) == 0 {
		return columns.Table{}, fmt.Errorf("%s: model %s has no fields", m.Pos, m.Name)
	}

	t := columns.Table{Name: name}
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		col, err := f.column(name)
		if err != nil {
			return columns.Table{}, fmt.Errorf("model %s: %w", m.Name, err)
		}
		if seen[col.Name()] {
			return columns.Table{}, fmt.Errorf("%s: model %s: duplicate column %s", f.Pos, m.Name, col.Name())
		}
		seen[col.Name()] = true
		t.Columns = append(t.Columns, col)
	}
	return t, nil
}

func (f *Field) column(table string) (columns.Column, error) {
	sqlType, ok := scalarTypes[f.Type]
	if !ok {
		return columns.Column{}, fmt.Errorf("%s: field %s: unknown type %s", f.Pos, f.Name, f.Type)
	}
	if f.List && f.Optional {
		return columns.Column{}, fmt.Errorf("%s: field %s: list fields cannot be optional", f.Pos, f.Name)
	}

	name, err := f.ColumnName()
	if err != nil {
		return columns.Column{}, err
	}

	col := columns.NewColumn(table, name).Type(sqlType)
	if f.List {
		col = col.Array()
	}
	if f.Optional {
		col = col.Nullable()
	}

	for _, a := range f.Attributes {
		switch a.Name {
		case "id":
			col = col.PrimaryKey()
		case "unique":
			col = col.Unique()
		case "map":
			// handled by ColumnName
		case "default":
			col, err = applyDefault(col, a)
			if err != nil {
				return columns.Column{}, fmt.Errorf("%s: field %s: %w", a.Pos, f.Name, err)
			}
		default:
			return columns.Column{}, fmt.Errorf("%s: field %s: unknown attribute @%s", a.Pos, f.Name, a.Name)
		}
	}
	return col, nil
}

// applyDefault handles @default. autoincrement() and uuid() use the
// column type's generated marker, everything else becomes an explicit
// DEFAULT expression.
func applyDefault(col columns.Column, a *Attribute) (columns.Column, error) {
	if len(a.Args) != 1 {
		return col, fmt.Errorf("@default takes exactly one argument")
	}
	v := a.Args[0]

	switch {
	case v.String != nil:
		return col.Default(quoteLiteral(*v.String)).Generated(), nil
	case v.Number != nil:
		return col.Default(*v.Number).Generated(), nil
	}

	fn := v.Func
	switch {
	case fn.Call && fn.Name == "autoincrement":
		switch col.SQLType() {
		case "INT2", "INT4", "INT8":
			return col.Generated(), nil
		}
		return col, fmt.Errorf("autoincrement() requires an integer type, got %s", col.SQLType())
	case fn.Call && fn.Name == "uuid":
		if col.SQLType() != "UUID" {
			return col, fmt.Errorf("uuid() requires type Uuid, got %s", col.SQLType())
		}
		return col.Generated(), nil
	case fn.Call && fn.Name == "now":
		return col.Default("now()").Generated(), nil
	case !fn.Call && (fn.Name == "true" || fn.Name == "false"):
		if col.SQLType() != "BOOL" {
			return col, fmt.Errorf("%s requires type Boolean, got %s", fn.Name, col.SQLType())
		}
		return col.Default(strings.ToUpper(fn.Name)).Generated(), nil
	}
	return col, fmt.Errorf("unsupported default %s", fn.Name)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func stringArg(args []*Value) (string, error) {
	if len(args) != 1 || args[0].String == nil {
		return "", fmt.Errorf("expected a single string argument")
	}
	if *args[0].String == "" {
		return "", fmt.Errorf("name must not be empty")
	}
	return *args[0].String, nil
}
