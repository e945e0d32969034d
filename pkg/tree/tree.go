// Package tree converts tree-sitter syntax trees into a compact index arena.
// Node kinds are reduced to uint64 token codes at ingestion: lexical leaves
// (identifiers, numbers, strings) collapse to fixed value classes so that
// renamed variables or changed constants produce identical codes, and every
// other grammar category hashes its type name. Nothing downstream of this
// package touches tree-sitter types.
package tree

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"
)

// Value classes for normalized lexical leaves. Grammar-category codes come
// from xxhash of the type name and never collide with these in practice.
const (
	ClassIdentifier uint64 = 1
	ClassNumber     uint64 = 2
	ClassString     uint64 = 3
)

// Node is one arena entry. Children hold arena indices in syntactic order.
type Node struct {
	Kind     uint64
	Children []int32
}

// Tree is an arena-backed parse tree for one submission. Nodes[0] is the
// root when Len() > 0. Immutable after ingestion.
type Tree struct {
	Path  string
	Nodes []Node
}

// Len returns the number of nodes, which is also the token count of the
// linearized sequence.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Nodes)
}

// numberKinds covers numeric literal type names across the supported
// grammars.
var numberKinds = map[string]struct{}{
	"number":                  {},
	"number_literal":          {},
	"int_literal":             {},
	"integer":                 {},
	"integer_literal":         {},
	"float":                   {},
	"float_literal":           {},
	"imaginary_literal":       {},
	"rune_literal":            {},
	"char_literal":            {},
	"character_literal":       {},
	"decimal_integer_literal": {},
	"hex_integer_literal":     {},
	"octal_integer_literal":   {},
	"binary_integer_literal":  {},
	"decimal_floating_point_literal": {},
}

// KindCode maps a grammar type name to its token code.
func KindCode(kind string) uint64 {
	if strings.Contains(kind, "identifier") {
		return ClassIdentifier
	}
	if _, ok := numberKinds[kind]; ok {
		return ClassNumber
	}
	if strings.HasPrefix(kind, "string") || strings.HasPrefix(kind, "raw_string") ||
		kind == "interpreted_string_literal" || kind == "template_string" ||
		kind == "heredoc_body" || kind == "char" {
		return ClassString
	}
	return xxhash.Sum64String(kind)
}

// skipKind reports node kinds dropped from the token sequence entirely.
func skipKind(kind string) bool {
	return strings.Contains(kind, "comment")
}

// FromSitter ingests a tree-sitter tree into an arena. Only named nodes are
// kept; comments are dropped with their subtrees. Returns an empty tree for
// a nil root. The traversal is iterative, so pathological nesting cannot
// blow the stack.
func FromSitter(root *sitter.Node, path string) *Tree {
	t := &Tree{Path: path}
	if root == nil {
		return t
	}

	type frame struct {
		node   *sitter.Node
		parent int32
	}

	stack := []frame{{node: root, parent: -1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kind := f.node.Type()
		if skipKind(kind) {
			continue
		}

		idx := int32(len(t.Nodes))
		t.Nodes = append(t.Nodes, Node{Kind: KindCode(kind)})
		if f.parent >= 0 {
			t.Nodes[f.parent].Children = append(t.Nodes[f.parent].Children, idx)
		}

		// Push named children in reverse so they pop in syntactic order.
		n := int(f.node.NamedChildCount())
		for i := n - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.NamedChild(i), parent: idx})
		}
	}

	return t
}
