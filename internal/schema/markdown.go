package schema

import (
	"fmt"
	"strings"
)

// Markdown renders the schema as a markdown document with one section per
// table
func (s *Schema) Markdown() (string, error) {
	var b strings.Builder
	b.WriteString("# Schema\n")

	for _, m := range s.Models {
		t, err := m.Table()
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&b, "\n## %s\n\n", t.Name)
		if doc := m.Documentation(); doc != "" {
			b.WriteString(doc)
			b.WriteString("\n\n")
		}

		b.WriteString("| Column | Type | Constraints | Description |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for i, c := range t.Columns {
			sqlType := c.SQLType()
			if c.IsArray() {
				sqlType += "[]"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				c.Name(), sqlType, constraints(c.IsPrimaryKey(), c.IsUnique(), c.IsNullable(), c.IsGenerated()),
				strings.ReplaceAll(m.Fields[i].Documentation(), "\n", " "))
		}
	}
	return b.String(), nil
}

func constraints(primaryKey, unique, nullable, generated bool) string {
	var parts []string
	if primaryKey {
		parts = append(parts, "primary key")
	}
	if unique {
		parts = append(parts, "unique")
	}
	if nullable {
		parts = append(parts, "nullable")
	}
	if generated {
		parts = append(parts, "default")
	}
	return strings.Join(parts, ", ")
}
