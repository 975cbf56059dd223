// Package parser drives a lexer to produce a Program: a linear, coalesced,
// bracket-resolved sequence of ast.Instructions.
package parser

import (
	"github.com/tapelang/bfjit/ast"
	"github.com/tapelang/bfjit/lexer"
	"github.com/tapelang/bfjit/srcerr"
)

// incDecModulus is the (almost certainly buggy) modulus folded into
// Inc/Dec counts. Cell arithmetic wraps modulo 256, but the reference
// implementation folds run-lengths modulo 255; this reimplementation
// preserves that quirk exactly rather than silently correcting it.
const incDecModulus = 255

// opener records a pending '[' awaiting its matching ']': the program
// index its JmpForward placeholder occupies, and the bracket's own
// location for diagnostics if it's never closed.
type opener struct {
	idx int
	loc ast.Location
}

// Parse consumes every token the lexer produces and returns the resulting
// Program, or the first error encountered (unmatched brackets, or an
// underlying I/O failure from the lexer).
func Parse(l *lexer.Lexer) (ast.Program, error) {
	var program ast.Program
	var forwardJumps []opener

	for {
		tok, ok, err := l.Chop()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		inst, err := parseToken(l, tok, &program, &forwardJumps)
		if err != nil {
			return nil, err
		}
		program = append(program, inst)
	}

	if len(forwardJumps) != 0 {
		return nil, srcerr.New(toPosition(forwardJumps[0].loc), srcerr.KindUnmatchedOpen,
			"reached end of input with unclosed '['")
	}

	return program, nil
}

func parseToken(l *lexer.Lexer, tok ast.Token, program *ast.Program, forwardJumps *[]opener) (ast.Instruction, error) {
	switch tok.Char {
	case '<':
		n, err := l.ChopWhile(tok)
		if err != nil {
			return ast.Instruction{}, err
		}
		return ast.Instruction{Kind: ast.KindAddrLeft, Count: 1 + n}, nil

	case '>':
		n, err := l.ChopWhile(tok)
		if err != nil {
			return ast.Instruction{}, err
		}
		return ast.Instruction{Kind: ast.KindAddrRight, Count: 1 + n}, nil

	case '+':
		n, err := l.ChopWhile(tok)
		if err != nil {
			return ast.Instruction{}, err
		}
		return ast.Instruction{Kind: ast.KindInc, Byte: uint8((1 + n) % incDecModulus)}, nil

	case '-':
		n, err := l.ChopWhile(tok)
		if err != nil {
			return ast.Instruction{}, err
		}
		return ast.Instruction{Kind: ast.KindDec, Byte: uint8((1 + n) % incDecModulus)}, nil

	case '.':
		n, err := l.ChopWhile(tok)
		if err != nil {
			return ast.Instruction{}, err
		}
		return ast.Instruction{Kind: ast.KindOutput, Count: 1 + n}, nil

	case ',':
		n, err := l.ChopWhile(tok)
		if err != nil {
			return ast.Instruction{}, err
		}
		return ast.Instruction{Kind: ast.KindInput, Count: 1 + n}, nil

	case '[':
		*forwardJumps = append(*forwardJumps, opener{idx: len(*program), loc: tok.Loc})
		return ast.Instruction{Kind: ast.KindJmpForward, Target: 0}, nil

	case ']':
		n := len(*forwardJumps)
		if n == 0 {
			return ast.Instruction{}, srcerr.New(toPosition(tok.Loc), srcerr.KindUnmatchedClose,
				"']' has no matching '['")
		}
		open := (*forwardJumps)[n-1]
		*forwardJumps = (*forwardJumps)[:n-1]

		closerIdx := len(*program)
		(*program)[open.idx].Target = closerIdx + 1
		return ast.Instruction{Kind: ast.KindJmpBack, Target: open.idx + 1}, nil

	default:
		// The lexer only ever yields bytes in ast.Alphabet.
		panic("parser: unreachable token character " + string(tok.Char))
	}
}

func toPosition(loc ast.Location) srcerr.Position {
	return srcerr.Position{Line: loc.Line, Column: loc.Column}
}
