package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tapelang/bfjit/ast"
)

func TestIsOperator(t *testing.T) {
	for _, c := range []byte("<>+-.,[]") {
		assert.True(t, ast.IsOperator(c), "expected %q to be an operator", c)
	}
	for _, c := range []byte(" \n\tabc123") {
		assert.False(t, ast.IsOperator(c), "expected %q not to be an operator", c)
	}
}

func TestProgramString(t *testing.T) {
	prog := ast.Program{
		{Kind: ast.KindAddrRight, Count: 3},
		{Kind: ast.KindInc, Byte: 7},
		{Kind: ast.KindJmpForward, Target: 4},
		{Kind: ast.KindJmpBack, Target: 2},
	}

	out := prog.String()
	assert.Contains(t, out, "addr-right 3")
	assert.Contains(t, out, "inc 7")
	assert.Contains(t, out, "-> 4")
	assert.Contains(t, out, "-> 2")
}
