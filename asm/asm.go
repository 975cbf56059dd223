// Package asm is a thin x86-64 System V encoder: given typed operand
// requests it appends machine bytes to an internal buffer, exposes the
// current offset, and supports retroactive 32-bit relative-displacement
// patching. It has no knowledge of the tape language; jit is the only
// caller.
package asm

import "fmt"

// Register encodings used by this encoder. Only the four registers the
// jit package needs are named; any other raw encoding can still be passed
// as a Reg operand.
const (
	RAX uint8 = 0x00
	RDX uint8 = 0x02
	RSI uint8 = 0x06
	RDI uint8 = 0x07
)

// Operand tags one argument to an emitter call.
type Operand struct {
	kind     operandKind
	reg      uint8
	imm32    uint32
	imm8     uint8
	baseReg  uint8
	offsReg  uint8
}

type operandKind int

const (
	kindReg operandKind = iota
	kindImm32
	kindImm8
	kindMemReg
	kindMemRegOff
)

// Reg is a bare register operand.
func Reg(r uint8) Operand { return Operand{kind: kindReg, reg: r} }

// Imm32 is a 32-bit immediate, sign-extended to 64 bits where the
// instruction form calls for that.
func Imm32(v uint32) Operand { return Operand{kind: kindImm32, imm32: v} }

// Imm8 is an 8-bit immediate.
func Imm8(v uint8) Operand { return Operand{kind: kindImm8, imm8: v} }

// MemReg denotes [r].
func MemReg(r uint8) Operand { return Operand{kind: kindMemReg, reg: r} }

// MemRegOff denotes [base + offset*1].
func MemRegOff(base, offset uint8) Operand {
	return Operand{kind: kindMemRegOff, baseReg: base, offsReg: offset}
}

// Assembler is a stateful, append-only machine-code buffer.
type Assembler struct {
	code []byte
}

// New creates an empty Assembler.
func New() *Assembler {
	return &Assembler{}
}

// Code returns the bytes emitted so far.
func (a *Assembler) Code() []byte {
	return a.code
}

// Position returns the current byte offset — the offset the next emitted
// byte will occupy.
func (a *Assembler) Position() int {
	return len(a.code)
}

func (a *Assembler) emit(bytes ...byte) {
	a.code = append(a.code, bytes...)
}

func le32(v uint32) [4]byte {
	return [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// Mov emits one of: reg<-[reg], reg<-imm32, [reg]<-reg, reg<-[reg+reg*1],
// reg<-reg.
func (a *Assembler) Mov(dst, src Operand) {
	switch {
	case dst.kind == kindReg && src.kind == kindMemReg:
		a.emit(0x48, 0x8B, 0x00|(dst.reg<<3)|src.reg)

	case dst.kind == kindReg && src.kind == kindImm32:
		b := le32(src.imm32)
		a.emit(0x48, 0xC7, 0xC0|dst.reg, b[0], b[1], b[2], b[3])

	case dst.kind == kindMemReg && src.kind == kindReg:
		a.emit(0x48, 0x89, 0x00|(src.reg<<3)|dst.reg)

	case dst.kind == kindReg && src.kind == kindMemRegOff:
		a.emit(0x48, 0x8B, 0x04|(dst.reg<<3), 0x00|(src.offsReg<<3)|src.baseReg)

	case dst.kind == kindReg && src.kind == kindReg:
		a.emit(0x48, 0x89, 0xC0|(src.reg<<3)|dst.reg)

	default:
		panic(fmt.Sprintf("asm: unsupported mov operand combination %+v <- %+v", dst, src))
	}
}

// Movzx emits: reg <- zero-extended byte [reg+reg*1].
func (a *Assembler) Movzx(dst, src Operand) {
	if dst.kind != kindReg || src.kind != kindMemRegOff {
		panic(fmt.Sprintf("asm: unsupported movzx operand combination %+v <- %+v", dst, src))
	}
	a.emit(0x0F, 0xB6, 0x04|(dst.reg<<3), 0x00|(src.offsReg<<3)|src.baseReg)
}

// Add emits one of: reg+=imm8, reg+=imm32, byte[reg+reg*1]+=imm8, reg+=reg.
func (a *Assembler) Add(dst, src Operand) {
	switch {
	case dst.kind == kindReg && src.kind == kindImm8:
		a.emit(0x48, 0x83, 0xC0|dst.reg, src.imm8)

	case dst.kind == kindReg && src.kind == kindImm32:
		b := le32(src.imm32)
		a.emit(0x48, 0x81, 0xC0|dst.reg, b[0], b[1], b[2], b[3])

	case dst.kind == kindMemRegOff && src.kind == kindImm8:
		a.emit(0x80, 0x04, 0x00|(dst.baseReg<<3)|dst.offsReg, src.imm8)

	case dst.kind == kindReg && src.kind == kindReg:
		a.emit(0x48, 0x01, 0xC0|(src.reg<<3)|dst.reg)

	default:
		panic(fmt.Sprintf("asm: unsupported add operand combination %+v += %+v", dst, src))
	}
}

// Sub emits one of: reg-=imm8, reg-=imm32, byte[reg+reg*1]-=imm8.
func (a *Assembler) Sub(dst, src Operand) {
	switch {
	case dst.kind == kindReg && src.kind == kindImm8:
		a.emit(0x48, 0x83, 0xE8|dst.reg, src.imm8)

	case dst.kind == kindReg && src.kind == kindImm32:
		b := le32(src.imm32)
		a.emit(0x48, 0x81, 0xE8|dst.reg, b[0], b[1], b[2], b[3])

	case dst.kind == kindMemRegOff && src.kind == kindImm8:
		a.emit(0x80, 0x2C, 0x00|(dst.baseReg<<3)|dst.offsReg, src.imm8)

	default:
		panic(fmt.Sprintf("asm: unsupported sub operand combination %+v -= %+v", dst, src))
	}
}

// Push emits: push reg.
func (a *Assembler) Push(src Operand) {
	if src.kind != kindReg {
		panic(fmt.Sprintf("asm: unsupported push operand %+v", src))
	}
	a.emit(0x50 | src.reg)
}

// Pop emits: pop reg.
func (a *Assembler) Pop(dst Operand) {
	if dst.kind != kindReg {
		panic(fmt.Sprintf("asm: unsupported pop operand %+v", dst))
	}
	a.emit(0x58 | dst.reg)
}

// Cmp emits: cmp reg, imm8.
func (a *Assembler) Cmp(dst, src Operand) {
	if dst.kind != kindReg || src.kind != kindImm8 {
		panic(fmt.Sprintf("asm: unsupported cmp operand combination %+v, %+v", dst, src))
	}
	a.emit(0x48, 0x83, 0xF8|dst.reg, src.imm8)
}

// jccRel32 emits a two-byte opcode followed by a placeholder 32-bit
// relative displacement, computed relative to the end of the instruction,
// and returns the offset of the byte immediately after the displacement —
// the value callers must save to patch later via PatchJump.
func (a *Assembler) jccRel32(opcode0, opcode1 byte, target int) int {
	srcPos := a.Position() + 6
	rel := int32(target) - int32(srcPos)
	b := le32(uint32(rel))
	a.emit(opcode0, opcode1, b[0], b[1], b[2], b[3])
	return a.Position()
}

// Je emits a 6-byte "je rel32" whose displacement targets the absolute
// code offset target; if target isn't known yet, pass any placeholder and
// patch it later with PatchJump using the returned offset.
func (a *Assembler) Je(target int) (patchSite int) {
	return a.jccRel32(0x0F, 0x84, target)
}

// Jne emits a 6-byte "jne rel32", symmetric to Je.
func (a *Assembler) Jne(target int) (patchSite int) {
	return a.jccRel32(0x0F, 0x85, target)
}

// PatchJump overwrites the 4-byte displacement slot ending at patchSite
// (i.e. occupying [patchSite-4, patchSite)) so the branch lands at the
// absolute code offset target.
func (a *Assembler) PatchJump(patchSite, target int) {
	rel := int32(target) - int32(patchSite)
	b := le32(uint32(rel))
	copy(a.code[patchSite-4:patchSite], b[:])
}

// Syscall emits the two-byte syscall instruction.
func (a *Assembler) Syscall() {
	a.emit(0x0F, 0x05)
}

// Ret emits a near return.
func (a *Assembler) Ret() {
	a.emit(0xC3)
}

// Int3 emits a single-byte software breakpoint trap.
func (a *Assembler) Int3() {
	a.emit(0xCC)
}
