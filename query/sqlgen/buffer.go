package sqlgen

import (
	"fmt"
	"strings"
)

// Pusher is implemented by anything that can render itself into a Buffer.
//
// Implementations must keep the buffer consistent: every placeholder they
// append is matched by exactly one appended argument, in the same order.
type Pusher interface {
	PushTo(buf *Buffer)
}

// Buffer accumulates statement text in generic placeholder form together
// with the ordered argument list.
type Buffer struct {
	text  strings.Builder
	args  []interface{}
	shape Shape
	err   error
}

// NewBuffer creates an empty buffer for a statement of the given shape
func NewBuffer(shape Shape) *Buffer {
	return &Buffer{shape: shape}
}

// WriteString appends literal SQL text. Text must not contain placeholders.
func (b *Buffer) WriteString(s string) {
	b.text.WriteString(s)
}

// WriteParam appends one placeholder bound to arg
func (b *Buffer) WriteParam(arg interface{}) {
	b.text.WriteByte(Placeholder)
	b.args = append(b.args, arg)
}

// WriteFragment appends text in generic placeholder form along with its
// arguments
func (b *Buffer) WriteFragment(text string, args []interface{}) {
	n, err := countPlaceholders(text)
	if err != nil {
		b.Fail(err)
		return
	}
	if n != len(args) {
		b.Fail(fmt.Errorf("%w: fragment %q has %d placeholders for %d arguments", ErrPlaceholder, text, n, len(args)))
		return
	}
	b.text.WriteString(text)
	b.args = append(b.args, args...)
}

// Push renders p into the buffer
func (b *Buffer) Push(p Pusher) {
	if p != nil {
		p.PushTo(b)
	}
}

// PushJoined renders each pusher, separated by sep
func (b *Buffer) PushJoined(sep string, ps ...Pusher) {
	for i, p := range ps {
		if i > 0 {
			b.WriteString(sep)
		}
		b.Push(p)
	}
}

// Fail records the first error encountered while rendering
func (b *Buffer) Fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// Err returns the first recorded error
func (b *Buffer) Err() error {
	return b.err
}

// Args returns the arguments appended so far
func (b *Buffer) Args() []interface{} {
	return b.args
}

// Shape returns the output shape the statement is built for
func (b *Buffer) Shape() Shape {
	return b.shape
}

// Len returns the length of the accumulated text
func (b *Buffer) Len() int {
	return b.text.Len()
}

// String returns the accumulated text in generic placeholder form
func (b *Buffer) String() string {
	return b.text.String()
}

// Finish runs the placeholder pass for the dialect and returns the finished
// statement. It must be called once, after every chunk has been pushed.
func (b *Buffer) Finish(d Dialect) (Query, error) {
	if b.err != nil {
		return Query{}, b.err
	}
	sql, err := Rewrite(b.text.String(), d)
	if err != nil {
		return Query{}, err
	}
	return Query{
		SQL:   sql,
		Args:  cloneArgs(b.args),
		Shape: b.shape,
	}, nil
}

// Build renders p into a fresh buffer and finishes it
func Build(p Pusher, shape Shape, d Dialect) (Query, error) {
	buf := NewBuffer(shape)
	buf.Push(p)
	return buf.Finish(d)
}
