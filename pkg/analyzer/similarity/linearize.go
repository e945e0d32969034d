package similarity

import (
	"github.com/mquinn/doppel/pkg/tree"
)

// Linearize flattens an arena tree into its token sequence by iterative
// pre-order traversal, children in syntactic order. One token code per node.
// A nil or empty tree yields a nil sequence.
func Linearize(t *tree.Tree) []uint64 {
	if t.Len() == 0 {
		return nil
	}

	out := make([]uint64, 0, len(t.Nodes))
	stack := make([]int32, 1, 64)
	stack[0] = 0

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.Nodes[idx]
		out = append(out, n.Kind)

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}

	return out
}
