// Package sqlgen assembles parameterized SQL statements from predicate
// fragments and builder chunks.
//
// Fragments and builders write the generic placeholder "?" into a Buffer.
// Finish runs a single pass that rewrites those placeholders into the
// positional syntax of the target dialect.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitranim/sqlp"
)

// Placeholder is the generic parameter token used inside fragments.
const Placeholder = '?'

// Dialect selects the positional syntax produced by Rewrite
type Dialect int

const (
	// Postgres numbers parameters as $1, $2, ...
	Postgres Dialect = iota
	// MySQL keeps "?" placeholders
	MySQL
	// SQLite keeps "?" placeholders
	SQLite
)

// String returns the provider name of the dialect
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return "dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// DialectFor maps a provider name to its dialect
func DialectFor(provider string) (Dialect, error) {
	switch strings.ToLower(provider) {
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Postgres, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// Shape is the output type a finished statement is executed for
type Shape int

const (
	// ShapeRows yields every returned row
	ShapeRows Shape = iota
	// ShapeOptional yields the first returned row, if any
	ShapeOptional
	// ShapeAffected yields the number of affected rows
	ShapeAffected
)

func (s Shape) String() string {
	switch s {
	case ShapeRows:
		return "rows"
	case ShapeOptional:
		return "optional row"
	case ShapeAffected:
		return "affected count"
	default:
		return "shape(" + strconv.Itoa(int(s)) + ")"
	}
}

// Query is a finished statement ready for execution
type Query struct {
	SQL   string
	Args  []interface{}
	Shape Shape
}

// Rewrite converts generic placeholders into the positional syntax of the
// dialect, numbering them in order of occurrence. Placeholders inside
// quoted literals and comments are left alone. Rewriting its own output is
// a no-op.
func Rewrite(text string, d Dialect) (string, error) {
	if d != Postgres || strings.IndexByte(text, Placeholder) < 0 {
		return text, nil
	}

	nodes, err := tokenize(text)
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, len(text)+8)
	ord := 0
	for _, node := range nodes {
		text, ok := node.(sqlp.NodeText)
		if !ok {
			node.Append(&out)
			continue
		}
		for i := 0; i < len(text); i++ {
			if text[i] != Placeholder {
				out = append(out, text[i])
				continue
			}
			ord++
			sqlp.NodeOrdinalParam(ord).Append(&out)
		}
	}
	return string(out), nil
}

// countPlaceholders counts generic placeholders outside quotes and comments
func countPlaceholders(text string) (int, error) {
	if strings.IndexByte(text, Placeholder) < 0 {
		return 0, nil
	}

	nodes, err := tokenize(text)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, node := range nodes {
		if text, ok := node.(sqlp.NodeText); ok {
			count += strings.Count(string(text), string(Placeholder))
		}
	}
	return count, nil
}
