package sqlgen

import (
	"fmt"
	"strings"

	"github.com/mitranim/sqlp"
)

// tokenize splits src into sqlp nodes. It fails with ErrPlaceholder when
// the tokenizer panics (an ordinal that overflows int) or when the nodes do
// not reproduce src, which is how an unterminated quote or block comment
// shows up.
func tokenize(src string) (nodes []sqlp.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			nodes, err = nil, fmt.Errorf("%w: cannot tokenize %q: %v", ErrPlaceholder, src, r)
		}
	}()

	tokenizer := sqlp.Tokenizer{Source: src}
	out := make([]byte, 0, len(src))
	for {
		node := tokenizer.Next()
		if node == nil {
			break
		}
		nodes = append(nodes, node)
		node.Append(&out)
	}

	// a trailing line comment may gain a newline
	if rest, ok := strings.CutPrefix(string(out), src); !ok || strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("%w: unterminated quote or comment in %q", ErrPlaceholder, src)
	}
	return nodes, nil
}
