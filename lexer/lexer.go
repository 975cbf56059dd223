// Package lexer turns a byte stream into a sequence of in-alphabet tokens,
// skipping anything that isn't one of the eight operator characters and
// tracking (line, column) as it goes.
package lexer

import (
	"io"

	"github.com/tapelang/bfjit/ast"
	"github.com/tapelang/bfjit/srcerr"
)

// Lexer reads tokens out of an io.Reader. It keeps exactly one slot of
// lookahead so that Peek followed by Chop returns the peeked token without
// re-reading the stream.
type Lexer struct {
	source io.Reader
	loc    ast.Location
	peeked *ast.Token

	// single-byte scratch buffer for source reads; kept as a field so
	// Chop doesn't allocate on every call.
	buf [1]byte
}

// New creates a Lexer reading from source.
func New(source io.Reader) *Lexer {
	return &Lexer{
		source: source,
		loc:    ast.Location{Line: 1, Column: 1},
	}
}

// Peek yields the next in-alphabet token without consuming it, or ok=false
// at end of input. Repeated calls to Peek return the same token.
func (l *Lexer) Peek() (tok ast.Token, ok bool, err error) {
	if l.peeked != nil {
		return *l.peeked, true, nil
	}

	tok, ok, err = l.chopRaw()
	if err != nil || !ok {
		return ast.Token{}, false, err
	}
	l.peeked = &tok
	return tok, true, nil
}

// Chop yields and consumes the next in-alphabet token, or ok=false at end
// of input. Bytes outside the alphabet are silently skipped; their only
// effect is to advance the (line, column) tracker.
func (l *Lexer) Chop() (ast.Token, bool, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, true, nil
	}
	return l.chopRaw()
}

// ChopWhile consumes and counts a maximal run of tokens whose character
// equals token.Char, stopping at end-of-input or the first mismatch. It
// returns the count of additional tokens found beyond the one that
// motivated the call; the mismatching token (if any) is left unconsumed.
func (l *Lexer) ChopWhile(token ast.Token) (int, error) {
	count := 0
	for {
		next, ok, err := l.Peek()
		if err != nil {
			return count, err
		}
		if !ok || next.Char != token.Char {
			return count, nil
		}
		if _, _, err := l.Chop(); err != nil {
			return count, err
		}
		count++
	}
}

// chopRaw scans the underlying reader for the next in-alphabet byte,
// advancing location tracking over everything it skips.
func (l *Lexer) chopRaw() (ast.Token, bool, error) {
	for {
		loc := l.loc
		n, err := l.source.Read(l.buf[:])
		if err != nil && err != io.EOF {
			pos := srcerr.Position{Line: loc.Line, Column: loc.Column}
			return ast.Token{}, false, srcerr.Wrap(pos, srcerr.KindIO, "read next byte from source", err)
		}
		if n == 0 {
			return ast.Token{}, false, nil
		}

		b := l.buf[0]
		l.advance(b)

		if ast.IsOperator(b) {
			return ast.Token{Char: b, Loc: loc}, true, nil
		}
	}
}

// advance updates the (line, column) tracker for one consumed byte.
func (l *Lexer) advance(b byte) {
	if b == '\n' {
		l.loc.Line++
		l.loc.Column = 1
		return
	}
	l.loc.Column++
}
