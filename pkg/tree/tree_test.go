package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquinn/doppel/pkg/parser"
)

func ingest(t *testing.T, source string) *Tree {
	t.Helper()
	p := parser.New()
	defer p.Close()

	result, err := p.Parse([]byte(source), parser.LangGo, "test.go")
	require.NoError(t, err)
	return FromSitter(result.Tree.RootNode(), "test.go")
}

func TestKindCode(t *testing.T) {
	assert.Equal(t, ClassIdentifier, KindCode("identifier"))
	assert.Equal(t, ClassIdentifier, KindCode("field_identifier"))
	assert.Equal(t, ClassIdentifier, KindCode("type_identifier"))
	assert.Equal(t, ClassNumber, KindCode("int_literal"))
	assert.Equal(t, ClassNumber, KindCode("number"))
	assert.Equal(t, ClassString, KindCode("string_literal"))
	assert.Equal(t, ClassString, KindCode("interpreted_string_literal"))

	// Grammar categories get stable hashed codes outside the class range.
	code := KindCode("if_statement")
	assert.Equal(t, code, KindCode("if_statement"))
	assert.NotEqual(t, ClassIdentifier, code)
	assert.NotEqual(t, KindCode("for_statement"), code)
}

func TestFromSitterNilRoot(t *testing.T) {
	tr := FromSitter(nil, "missing.go")
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, "missing.go", tr.Path)
}

func TestIngestStructure(t *testing.T) {
	tr := ingest(t, "package main\n\nfunc f() int {\n\treturn 42\n}\n")

	require.Greater(t, tr.Len(), 3)
	// Root is source_file, stored first.
	assert.Equal(t, KindCode("source_file"), tr.Nodes[0].Kind)
	assert.NotEmpty(t, tr.Nodes[0].Children)
}

func TestRenamingDoesNotChangeTree(t *testing.T) {
	a := ingest(t, "package main\n\nfunc add(a, b int) int {\n\treturn a + b\n}\n")
	b := ingest(t, "package pkg\n\nfunc sum(x, y int) int {\n\treturn x + y\n}\n")

	require.Equal(t, a.Len(), b.Len())
	for i := range a.Nodes {
		assert.Equal(t, a.Nodes[i].Kind, b.Nodes[i].Kind, "node %d", i)
		assert.Equal(t, a.Nodes[i].Children, b.Nodes[i].Children, "node %d", i)
	}
}

func TestConstantsNormalize(t *testing.T) {
	a := ingest(t, "package main\n\nvar n = 1\n")
	b := ingest(t, "package main\n\nvar n = 99999\n")

	require.Equal(t, a.Len(), b.Len())
	for i := range a.Nodes {
		assert.Equal(t, a.Nodes[i].Kind, b.Nodes[i].Kind, "node %d", i)
	}
}

func TestCommentsDropped(t *testing.T) {
	a := ingest(t, "package main\n\nvar n = 1\n")
	b := ingest(t, "package main\n\n// a comment\nvar n = 1 // trailing\n")

	assert.Equal(t, a.Len(), b.Len())
}
