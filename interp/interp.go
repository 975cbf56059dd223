// Package interp is the tree-walking alternative to the JIT: it executes
// an ast.Program by stepping an instruction pointer over the tape, the
// same semantics as the JIT-compiled code but without compiling anything.
// It exists to give the JIT a reference to differential-test against, and
// to back the tui package's single-step viewer and the "-interp" CLI flag.
package interp

import (
	"io"

	"github.com/tapelang/bfjit/ast"
	"github.com/tapelang/bfjit/srcerr"
)

// Interpreter holds the tape, cursor and instruction pointer for one run.
type Interpreter struct {
	Program ast.Program
	Tape    []byte
	Cursor  int
	IP      int
}

// New creates an Interpreter over program with a tape of the given size.
func New(program ast.Program, tapeSize int) *Interpreter {
	return &Interpreter{
		Program: program,
		Tape:    make([]byte, tapeSize),
	}
}

// Run executes the program to completion, writing Output bytes to out.
// Input is read from in; Input(n) keeps only the last of the n bytes read.
func (m *Interpreter) Run(out io.Writer, in io.Reader) error {
	for m.IP < len(m.Program) {
		if err := m.Step(out, in); err != nil {
			return err
		}
	}
	return nil
}

// Step executes a single instruction and advances IP, used by the tui
// single-step viewer.
func (m *Interpreter) Step(out io.Writer, in io.Reader) error {
	inst := m.Program[m.IP]

	switch inst.Kind {
	case ast.KindAddrRight:
		m.Cursor += inst.Count
		m.IP++

	case ast.KindAddrLeft:
		m.Cursor -= inst.Count
		m.IP++

	case ast.KindInc:
		m.Tape[m.Cursor] += inst.Byte
		m.IP++

	case ast.KindDec:
		m.Tape[m.Cursor] -= inst.Byte
		m.IP++

	case ast.KindOutput:
		for i := 0; i < inst.Count; i++ {
			if _, err := out.Write(m.Tape[m.Cursor : m.Cursor+1]); err != nil {
				return srcerr.NewUnpositioned(srcerr.KindIO, "writing data to stdout", err)
			}
		}
		m.IP++

	case ast.KindInput:
		var b [1]byte
		for i := 0; i < inst.Count; i++ {
			n, err := in.Read(b[:])
			if err != nil && err != io.EOF {
				return srcerr.NewUnpositioned(srcerr.KindIO, "reading input byte", err)
			}
			if n == 1 {
				m.Tape[m.Cursor] = b[0]
			}
		}
		m.IP++

	case ast.KindJmpForward:
		if m.Tape[m.Cursor] == 0 {
			m.IP = inst.Target
		} else {
			m.IP++
		}

	case ast.KindJmpBack:
		if m.Tape[m.Cursor] != 0 {
			m.IP = inst.Target
		} else {
			m.IP++
		}
	}

	return nil
}

// Done reports whether the interpreter has run off the end of the program.
func (m *Interpreter) Done() bool {
	return m.IP >= len(m.Program)
}
