package jit

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/tapelang/bfjit/srcerr"
)

// Executable is a compiled, mapped, ready-to-call program. It owns an
// anonymous executable mapping for the lifetime between Load and Close.
type Executable struct {
	mem  []byte
	size int
}

// Load maps code as read/execute memory. Mapping or protection-change
// failures surface as a srcerr.Error{Kind: KindJITMemory} wrapping the
// underlying OS error.
func Load(code []byte) (*Executable, error) {
	if len(code) == 0 {
		// mmap of a zero-length region fails on most kernels; an empty
		// program still needs somewhere to live for its single `ret`.
		code = []byte{0xC3}
	}

	mem, err := unix.Mmap(-1, 0, len(code), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, srcerr.NewUnpositioned(srcerr.KindJITMemory, "mapping region for executable code", err)
	}

	copy(mem, code)

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, srcerr.NewUnpositioned(srcerr.KindJITMemory, "making mapped region executable", err)
	}

	return &Executable{mem: mem, size: len(code)}, nil
}

// funcValue mirrors the runtime's internal representation of a func value
// closely enough to let us repoint one at raw machine code: a Go func
// variable is itself a pointer to a small struct whose first word is the
// code's entry address. Storing a pointer to one of these, holding our
// buffer's address, in a func variable of the right signature turns the
// byte buffer into a callable Go function.
type funcValue struct {
	codePtr uintptr
}

// Run invokes the compiled code as void(*)(uint8_t *tape, size_t *cursor),
// passing the base address of tape and the address of a zero-initialized
// cursor slot. The caller owns tape for the duration of the call; it must
// not be accessed concurrently.
func (e *Executable) Run(tape []byte) {
	var cursor uint64

	var fn func(tape unsafe.Pointer, cursor unsafe.Pointer)
	fv := &funcValue{codePtr: uintptr(unsafe.Pointer(&e.mem[0]))}
	*(*unsafe.Pointer)(unsafe.Pointer(&fn)) = unsafe.Pointer(fv)

	var tapePtr unsafe.Pointer
	if len(tape) > 0 {
		tapePtr = unsafe.Pointer(&tape[0])
	}
	fn(tapePtr, unsafe.Pointer(&cursor))
}

// Size returns the number of code bytes mapped.
func (e *Executable) Size() int {
	return e.size
}

// Close unmaps the executable region. Nothing requires the mapping to
// outlive a single Run call; Close must only be called after Run has
// returned.
func (e *Executable) Close() error {
	if e.mem == nil {
		return nil
	}
	err := unix.Munmap(e.mem)
	e.mem = nil
	return err
}
