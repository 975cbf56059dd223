package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tapelang/bfjit/ast"
	"github.com/tapelang/bfjit/lexer"
	"github.com/tapelang/bfjit/parser"
	"github.com/tapelang/bfjit/srcerr"
)

func parse(t *testing.T, src string) ast.Program {
	t.Helper()
	prog, err := parser.Parse(lexer.New(strings.NewReader(src)))
	require.NoError(t, err)
	return prog
}

func TestCoalescingOfNonBracketOperators(t *testing.T) {
	prog := parse(t, ">>>>>")
	require.Len(t, prog, 1)
	require.Equal(t, ast.Instruction{Kind: ast.KindAddrRight, Count: 5}, prog[0])
}

func TestIncModulo255(t *testing.T) {
	prog := parse(t, strings.Repeat("+", 256))
	require.Len(t, prog, 1)
	require.Equal(t, ast.KindInc, prog[0].Kind)
	require.Equal(t, uint8(1), prog[0].Byte) // 256 mod 255 == 1
}

func TestDecModulo255(t *testing.T) {
	prog := parse(t, strings.Repeat("-", 255))
	require.Len(t, prog, 1)
	require.Equal(t, uint8(0), prog[0].Byte) // 255 mod 255 == 0
}

func TestOutputAndInputDoNotFold(t *testing.T) {
	prog := parse(t, strings.Repeat(".", 300))
	require.Len(t, prog, 1)
	require.Equal(t, ast.KindOutput, prog[0].Kind)
	require.Equal(t, 300, prog[0].Count)

	prog = parse(t, strings.Repeat(",", 300))
	require.Len(t, prog, 1)
	require.Equal(t, ast.KindInput, prog[0].Kind)
	require.Equal(t, 300, prog[0].Count)
}

func TestBracketInvariant(t *testing.T) {
	prog := parse(t, "+[>-]")

	// Instruction 0: Inc(1); 1: JmpForward; 2: AddrRight(1); 3: Dec(1); 4: JmpBack
	require.Len(t, prog, 5)
	require.Equal(t, ast.KindJmpForward, prog[1].Kind)
	require.Equal(t, ast.KindJmpBack, prog[4].Kind)

	// JmpForward at i=1 targets t; instruction at t-1 must be the JmpBack
	// with target i+1 = 2.
	opener := prog[1]
	require.Equal(t, ast.KindJmpBack, prog[opener.Target-1].Kind)
	require.Equal(t, 2, prog[opener.Target-1].Target)
}

func TestNestedBrackets(t *testing.T) {
	prog := parse(t, "[[]]")
	require.Len(t, prog, 4)

	require.Equal(t, 4, prog[0].Target) // outer '[' -> one past outer ']'
	require.Equal(t, 3, prog[1].Target) // inner '[' -> one past inner ']'
	require.Equal(t, 2, prog[2].Target) // inner ']' -> one past inner '['
	require.Equal(t, 1, prog[3].Target) // outer ']' -> one past outer '['
}

func TestUnmatchedClosingBracket(t *testing.T) {
	_, err := parser.Parse(lexer.New(strings.NewReader("]")))
	require.Error(t, err)

	var se *srcerr.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, srcerr.KindUnmatchedClose, se.Kind)
	require.Equal(t, 1, se.Pos.Line)
	require.Equal(t, 1, se.Pos.Column)
}

func TestUnmatchedOpeningBracket(t *testing.T) {
	_, err := parser.Parse(lexer.New(strings.NewReader("[")))
	require.Error(t, err)

	var se *srcerr.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, srcerr.KindUnmatchedOpen, se.Kind)
}

func TestCommentsAndNewlinesAreIgnored(t *testing.T) {
	prog := parse(t, "++ hello\n ++.")
	require.Len(t, prog, 2)
	require.Equal(t, ast.Instruction{Kind: ast.KindInc, Byte: 4}, prog[0])
	require.Equal(t, ast.KindOutput, prog[1].Kind)
}

func TestEmptySourceProducesEmptyProgram(t *testing.T) {
	prog := parse(t, "")
	require.Empty(t, prog)
}
