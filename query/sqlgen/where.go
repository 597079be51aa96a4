package sqlgen

import "fmt"

// WhereKind identifies the variant of a Where tree
type WhereKind int

const (
	// KindEmpty matches everything and renders nothing
	KindEmpty WhereKind = iota
	// KindRaw is a single text fragment with its arguments
	KindRaw
	// KindAnd is a conjunction of subtrees
	KindAnd
	// KindOr is a disjunction of subtrees
	KindOr
	// KindNot negates a subtree
	KindNot
)

func (k WhereKind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindRaw:
		return "Raw"
	case KindAnd:
		return "And"
	case KindOr:
		return "Or"
	case KindNot:
		return "Not"
	default:
		return "Unknown"
	}
}

// Where is an immutable WHERE condition tree.
//
// The zero value is the Empty tree. Every combinator returns a new tree and
// never modifies its operands.
type Where struct {
	kind     WhereKind
	text     string
	args     []interface{}
	atomic   bool
	children []Where
	err      error
}

// Empty returns the match-all condition
func Empty() Where {
	return Where{}
}

// Raw creates a condition from user-written SQL. The text may use "?" or
// ordinal "$N" placeholders but not both. Malformed fragments yield a tree
// that fails when rendered.
func Raw(text string, args ...interface{}) Where {
	if text == "" && len(args) == 0 {
		return Where{}
	}
	norm, normArgs, err := normalize(text, args)
	if err != nil {
		return Where{kind: KindRaw, text: text, err: err}
	}
	return Where{kind: KindRaw, text: norm, args: normArgs}
}

// Cond creates a single comparison written with "?" placeholders. Unlike Raw
// fragments, conditions render without parentheses inside AND and OR lists.
func Cond(text string, args ...interface{}) Where {
	w := Where{kind: KindRaw, text: text, args: cloneArgs(args), atomic: true}
	n, err := countPlaceholders(text)
	switch {
	case err != nil:
		w.err = err
	case n != len(args):
		w.err = fmt.Errorf("%w: condition %q has %d placeholders for %d arguments", ErrPlaceholder, text, n, len(args))
	}
	return w
}

// And combines trees into a conjunction
func And(ws ...Where) Where {
	return combine(KindAnd, ws)
}

// Or combines trees into a disjunction
func Or(ws ...Where) Where {
	return combine(KindOr, ws)
}

// Not negates a tree. Negating a negation returns the original tree and
// negating Empty returns Empty.
func Not(w Where) Where {
	switch {
	case w.IsEmpty() && w.err == nil:
		return Where{}
	case w.kind == KindNot:
		return w.children[0]
	default:
		return Where{kind: KindNot, children: []Where{w}, err: w.err}
	}
}

// And returns w AND other
func (w Where) And(other Where) Where {
	return combine(KindAnd, []Where{w, other})
}

// Or returns w OR other
func (w Where) Or(other Where) Where {
	return combine(KindOr, []Where{w, other})
}

// Not returns NOT w
func (w Where) Not() Where {
	return Not(w)
}

func combine(kind WhereKind, ws []Where) Where {
	var operands []Where
	var err error

	for _, w := range ws {
		if err == nil {
			err = w.err
		}
		if !w.IsEmpty() {
			operands = append(operands, w)
		}
	}

	switch len(operands) {
	case 0:
		return Where{err: err}
	case 1:
		only := operands[0]
		if only.err == nil {
			only.err = err
		}
		return only
	}

	var children []Where
	for _, w := range operands {
		if w.kind == kind {
			children = append(children, w.children...)
		} else {
			children = append(children, w)
		}
	}
	return Where{kind: kind, children: children, err: err}
}

// Kind returns the variant of the tree
func (w Where) Kind() WhereKind {
	return w.kind
}

// Err returns the first construction error found in the tree
func (w Where) Err() error {
	return w.err
}

// Children returns the subtrees of an And, Or or Not node
func (w Where) Children() []Where {
	return w.children
}

// IsEmpty reports whether the tree renders to no text
func (w Where) IsEmpty() bool {
	switch w.kind {
	case KindRaw:
		return w.text == ""
	case KindAnd, KindOr:
		for _, c := range w.children {
			if !c.IsEmpty() {
				return false
			}
		}
		return true
	case KindNot:
		return w.children[0].IsEmpty()
	default:
		return true
	}
}

// Args returns the arguments of the tree in rendering order
func (w Where) Args() []interface{} {
	if w.kind == KindRaw {
		return w.args
	}
	var args []interface{}
	for _, c := range w.children {
		args = append(args, c.Args()...)
	}
	return args
}

// PushTo renders the tree into buf
func (w Where) PushTo(buf *Buffer) {
	if w.err != nil {
		buf.Fail(w.err)
		return
	}

	switch w.kind {
	case KindRaw:
		buf.WriteFragment(w.text, w.args)

	case KindAnd, KindOr:
		sep := " AND "
		if w.kind == KindOr {
			sep = " OR "
		}
		first := true
		for _, c := range w.children {
			if c.IsEmpty() {
				continue
			}
			if !first {
				buf.WriteString(sep)
			}
			first = false
			if c.bare() {
				c.PushTo(buf)
				continue
			}
			buf.WriteString("(")
			c.PushTo(buf)
			buf.WriteString(")")
		}

	case KindNot:
		if w.children[0].IsEmpty() {
			return
		}
		buf.WriteString("NOT (")
		w.children[0].PushTo(buf)
		buf.WriteString(")")
	}
}

// bare reports whether the node can be rendered inside an AND or OR list
// without parentheses
func (w Where) bare() bool {
	return (w.kind == KindRaw && w.atomic) || w.kind == KindNot
}

// String renders the tree with Postgres placeholders
func (w Where) String() string {
	q, err := Build(w, ShapeRows, Postgres)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return q.SQL
}
