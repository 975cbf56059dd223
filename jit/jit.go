// Package jit compiles an ast.Program to native x86-64 machine code via the
// asm package, then installs the result as executable memory and invokes
// it as a function of the tape machine's two pointer arguments.
package jit

import (
	"github.com/tapelang/bfjit/asm"
	"github.com/tapelang/bfjit/ast"
	"github.com/tapelang/bfjit/srcerr"
)

// pendingJump tracks one unmatched '[' while it's open: the absolute code
// offset of its first emitted byte (the eventual jne's target) and the
// offset of its forward je's displacement slot (to be patched once the
// matching ']' is finalized). Both are tracked explicitly rather than
// deriving one from the other.
type pendingJump struct {
	openerStart int
	patchSite   int
}

// Option configures a single Compile call.
type Option func(*compileConfig)

type compileConfig struct {
	debugBreak bool
}

// WithDebugBreak inserts an int3 trap before the first generated
// instruction, for attaching a debugger to the JIT-compiled code
// (config.Runtime.DebugBreak / the "-debug" CLI flag).
func WithDebugBreak() Option {
	return func(c *compileConfig) { c.debugBreak = true }
}

// Compile translates program into an x86-64 machine-code buffer implementing
// the System V signature void(*)(uint8_t *tape, size_t *cursor). It fails
// with a srcerr.Error{Kind: KindUnsupportedOp} if the program contains an
// Input instruction, which this JIT does not implement.
func Compile(program ast.Program, opts ...Option) ([]byte, error) {
	var cfg compileConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	a := asm.New()
	if cfg.debugBreak {
		a.Int3()
	}
	var stack []pendingJump

	for _, inst := range program {
		switch inst.Kind {
		case ast.KindAddrRight:
			emitAddrMove(a, true, uint32(inst.Count))

		case ast.KindAddrLeft:
			emitAddrMove(a, false, uint32(inst.Count))

		case ast.KindInc:
			emitCellArith(a, true, inst.Byte)

		case ast.KindDec:
			emitCellArith(a, false, inst.Byte)

		case ast.KindOutput:
			for i := 0; i < inst.Count; i++ {
				emitOutputOne(a)
			}

		case ast.KindInput:
			return nil, srcerr.NewUnpositioned(srcerr.KindUnsupportedOp,
				"the JIT does not implement Input", nil)

		case ast.KindJmpForward:
			openerStart := a.Position()
			emitLoadCell(a)
			a.Cmp(asm.Reg(asm.RAX), asm.Imm8(0))
			patchSite := a.Je(0) // target back-patched once ']' is seen
			stack = append(stack, pendingJump{openerStart: openerStart, patchSite: patchSite})

		case ast.KindJmpBack:
			emitLoadCell(a)
			a.Cmp(asm.Reg(asm.RAX), asm.Imm8(0))

			n := len(stack)
			open := stack[n-1]
			stack = stack[:n-1]

			a.Jne(open.openerStart)
			a.PatchJump(open.patchSite, a.Position())
		}
	}

	a.Ret()
	return a.Code(), nil
}

// emitAddrMove emits the cursor-update sequence shared by AddrRight/
// AddrLeft: load [RSI], add or subtract the immediate, store back to [RSI].
func emitAddrMove(a *asm.Assembler, forward bool, n uint32) {
	a.Mov(asm.Reg(asm.RAX), asm.MemReg(asm.RSI))
	if forward {
		a.Add(asm.Reg(asm.RAX), asm.Imm32(n))
	} else {
		a.Sub(asm.Reg(asm.RAX), asm.Imm32(n))
	}
	a.Mov(asm.MemReg(asm.RSI), asm.Reg(asm.RAX))
}

// emitCellArith emits the cell-update sequence shared by Inc/Dec: load the
// cursor into RAX, then add/sub the byte immediate at [RDI+RAX].
func emitCellArith(a *asm.Assembler, add bool, k uint8) {
	a.Mov(asm.Reg(asm.RAX), asm.MemReg(asm.RSI))
	cell := asm.MemRegOff(asm.RDI, asm.RAX)
	if add {
		a.Add(cell, asm.Imm8(k))
	} else {
		a.Sub(cell, asm.Imm8(k))
	}
}

// emitLoadCell emits the load-and-widen sequence shared by both jump kinds:
// RAX <- cursor, RAX <- zero-extended byte at the cell.
func emitLoadCell(a *asm.Assembler) {
	a.Mov(asm.Reg(asm.RAX), asm.MemReg(asm.RSI))
	a.Movzx(asm.Reg(asm.RAX), asm.MemRegOff(asm.RDI, asm.RAX))
}

// emitOutputOne emits one independent write(1, &tape[cursor], 1) syscall.
// Output(n) is n repetitions of this sequence; there is no batching.
func emitOutputOne(a *asm.Assembler) {
	a.Push(asm.Reg(asm.RDI))
	a.Push(asm.Reg(asm.RSI))

	a.Mov(asm.Reg(asm.RAX), asm.MemReg(asm.RSI))
	a.Add(asm.Reg(asm.RAX), asm.Reg(asm.RDI))
	a.Mov(asm.Reg(asm.RSI), asm.Reg(asm.RAX))

	a.Mov(asm.Reg(asm.RAX), asm.Imm32(1)) // syscall number: write
	a.Mov(asm.Reg(asm.RDI), asm.Imm32(1)) // fd: stdout
	a.Mov(asm.Reg(asm.RDX), asm.Imm32(1)) // length: 1 byte
	a.Syscall()

	a.Pop(asm.Reg(asm.RSI))
	a.Pop(asm.Reg(asm.RDI))
}
