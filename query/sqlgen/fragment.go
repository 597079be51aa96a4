package sqlgen

import (
	"fmt"
	"strings"

	"github.com/mitranim/sqlp"
)

// normalize converts a user-written fragment into generic placeholder form.
//
// The fragment may use either "?" placeholders, matched to args in order,
// or ordinal "$N" placeholders, which are renumbered by occurrence so that
// the Nth placeholder of the result refers to the Nth returned arg. A
// repeated ordinal duplicates its argument. Mixing both styles, named
// parameters, ordinals without an argument and unused arguments are
// rejected, as are fragments with an unterminated quote or comment.
func normalize(src string, args []interface{}) (string, []interface{}, error) {
	nodes, err := tokenize(src)
	if err != nil {
		return "", nil, err
	}

	out := make([]byte, 0, len(src))
	var ordArgs []interface{}
	used := make([]bool, len(args))
	generic, ordinal := 0, 0

	for _, node := range nodes {
		switch node := node.(type) {
		case sqlp.NodeOrdinalParam:
			index := node.Index()
			if index < 0 || index >= len(args) {
				return "", nil, fmt.Errorf("%w: ordinal parameter %v exceeds argument count %d", ErrPlaceholder, node, len(args))
			}
			used[index] = true
			ordinal++
			ordArgs = append(ordArgs, args[index])
			out = append(out, Placeholder)

		case sqlp.NodeNamedParam:
			return "", nil, fmt.Errorf("%w: unexpected named parameter %q", ErrPlaceholder, node)

		case sqlp.NodeText:
			generic += strings.Count(string(node), string(Placeholder))
			node.Append(&out)

		default:
			node.Append(&out)
		}
	}

	switch {
	case generic > 0 && ordinal > 0:
		return "", nil, fmt.Errorf("%w: fragment %q mixes ? and $N placeholders", ErrPlaceholder, src)

	case ordinal > 0:
		for i, ok := range used {
			if !ok {
				return "", nil, fmt.Errorf("%w: unused argument %#v at index %d", ErrPlaceholder, args[i], i)
			}
		}
		return string(out), ordArgs, nil

	default:
		if generic != len(args) {
			return "", nil, fmt.Errorf("%w: fragment %q has %d placeholders for %d arguments", ErrPlaceholder, src, generic, len(args))
		}
		return src, cloneArgs(args), nil
	}
}

func cloneArgs(args []interface{}) []interface{} {
	if len(args) == 0 {
		return nil
	}
	out := make([]interface{}, len(args))
	copy(out, args)
	return out
}
