// Package tui is a terminal program viewer: it lists a parsed Program's
// coalesced instructions with resolved jump targets highlighted, and, when
// driven in step mode, walks interp.Interpreter one instruction at a time
// showing the live cursor and cell value. It never touches the JIT path —
// once machine code is installed there are no step points left to show.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/tapelang/bfjit/ast"
	"github.com/tapelang/bfjit/interp"
)

// Viewer is the single-pane instruction listing with an optional live
// interpreter pane beneath it.
type Viewer struct {
	app          *tview.Application
	listing      *tview.TextView
	state        *tview.TextView
	layout       *tview.Flex
	program      ast.Program
	interpreter  *interp.Interpreter
	outputWriter io.Writer
}

// New creates a Viewer over program. If machine is non-nil, the 's' key
// single-steps it and the state pane tracks its cursor/cell/IP.
func New(program ast.Program, machine *interp.Interpreter, out io.Writer) *Viewer {
	v := &Viewer{
		app:          tview.NewApplication(),
		program:      program,
		interpreter:  machine,
		outputWriter: out,
	}

	v.listing = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	v.listing.SetBorder(true).SetTitle(" Program ")

	v.state = tview.NewTextView().
		SetDynamicColors(true)
	v.state.SetBorder(true).SetTitle(" Interpreter ")

	v.layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(v.listing, 0, 4, false).
		AddItem(v.state, 5, 0, false)

	v.renderListing()
	v.renderState()
	v.setupKeyBindings()

	return v
}

func (v *Viewer) setupKeyBindings() {
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			v.app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q':
				v.app.Stop()
				return nil
			case 's':
				v.step()
				return nil
			}
		}
		return event
	})
}

func (v *Viewer) step() {
	if v.interpreter == nil || v.interpreter.Done() {
		return
	}
	_ = v.interpreter.Step(v.outputWriter, strings.NewReader(""))
	v.renderState()
	v.app.Draw()
}

func (v *Viewer) renderListing() {
	v.listing.Clear()
	for i, inst := range v.program {
		marker := " "
		if v.interpreter != nil && v.interpreter.IP == i {
			marker = "[yellow]>[white]"
		}
		fmt.Fprintf(v.listing, "%s%4d  %s", marker, i, inst.Kind)
		switch inst.Kind {
		case ast.KindAddrRight, ast.KindAddrLeft, ast.KindOutput, ast.KindInput:
			fmt.Fprintf(v.listing, " %d", inst.Count)
		case ast.KindInc, ast.KindDec:
			fmt.Fprintf(v.listing, " %d", inst.Byte)
		case ast.KindJmpForward, ast.KindJmpBack:
			fmt.Fprintf(v.listing, " [blue]-> %d[white]", inst.Target)
		}
		fmt.Fprintln(v.listing)
	}
}

func (v *Viewer) renderState() {
	v.state.Clear()
	if v.interpreter == nil {
		fmt.Fprintln(v.state, "no interpreter attached; press q to quit")
		return
	}
	cell := byte(0)
	if v.interpreter.Cursor >= 0 && v.interpreter.Cursor < len(v.interpreter.Tape) {
		cell = v.interpreter.Tape[v.interpreter.Cursor]
	}
	fmt.Fprintf(v.state, "ip=%d cursor=%d cell=%d (%#02x)\n", v.interpreter.IP, v.interpreter.Cursor, cell, cell)
	fmt.Fprintln(v.state, "press s to step, q to quit")
	v.renderListing()
}

// Run blocks until the user quits the viewer.
func (v *Viewer) Run() error {
	return v.app.SetRoot(v.layout, true).Run()
}
