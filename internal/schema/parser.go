// Package schema parses model files into table descriptors.
//
// A model file declares one table per model:
//
//	/// Books in the catalogue
//	model Book {
//	  id       BigInt   @id @default(autoincrement())
//	  title    String   @unique
//	  subtitle String?
//	  tags     String[]
//	  authorId BigInt   @map("author_id")
//
//	  @@map("books")
//	}
package schema

import (
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// modelLexer defines the token types of the model language.
var modelLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `\bmodel\b`},

	// Block attribute prefix (must come before single @)
	{Name: "BlockAttr", Pattern: `@@`},
	{Name: "FieldAttr", Pattern: `@`},

	{Name: "Punct", Pattern: `[{}()\[\],?]`},

	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},

	{Name: "DocComment", Pattern: `///[^\n]*`},
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// Schema is the parse tree of a model file
type Schema struct {
	Pos    lexer.Position
	Models []*Model `@@*`
}

// Model is a model declaration
type Model struct {
	Pos        lexer.Position
	Doc        []string          `@DocComment*`
	Name       string            `"model" @Ident "{"`
	Fields     []*Field          `@@*`
	Attributes []*BlockAttribute `@@* "}"`
}

// Field is a field declaration inside a model
type Field struct {
	Pos        lexer.Position
	Doc        []string     `@DocComment*`
	Name       string       `@Ident`
	Type       string       `@Ident`
	List       bool         `@("[" "]")?`
	Optional   bool         `@"?"?`
	Attributes []*Attribute `@@*`
}

// Attribute is a field attribute such as @id or @map("name")
type Attribute struct {
	Pos  lexer.Position
	Name string   `"@" @Ident`
	Args []*Value `("(" (@@ ("," @@)*)? ")")?`
}

// BlockAttribute is a model attribute such as @@map("name")
type BlockAttribute struct {
	Pos  lexer.Position
	Name string   `"@@" @Ident`
	Args []*Value `("(" (@@ ("," @@)*)? ")")?`
}

// Value is an attribute argument
type Value struct {
	Pos    lexer.Position
	String *string `  @String`
	Number *string `| @Number`
	Func   *Func   `| @@`
}

// Func is a bare identifier or a function call without arguments, such as
// true or autoincrement()
type Func struct {
	Name string `@Ident`
	Call bool   `@("(" ")")?`
}

var parser = participle.MustBuild[Schema](
	participle.Lexer(modelLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(4),
)

// Parse parses a model file from an io.Reader.
func Parse(filename string, r io.Reader) (*Schema, error) {
	return parser.Parse(filename, r)
}

// ParseString parses a model file from a string.
func ParseString(filename, input string) (*Schema, error) {
	return Parse(filename, strings.NewReader(input))
}

// Documentation returns the doc comment text without the slashes
func (m *Model) Documentation() string {
	return docText(m.Doc)
}

// Documentation returns the doc comment text without the slashes
func (f *Field) Documentation() string {
	return docText(f.Doc)
}

func docText(lines []string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(strings.TrimPrefix(l, "///"))
	}
	return strings.Join(out, "\n")
}

// Attribute returns the first field attribute with the given name
func (f *Field) Attribute(name string) (*Attribute, bool) {
	for _, a := range f.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
