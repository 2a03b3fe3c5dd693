package rv32

import (
	"bufio"
	"fmt"
	"io"
)

// Syscall numbers recognized by the shim, dispatched on register a7
// (register index 17), per spec.md §4.4.
const (
	SyscallGetchar = 1
	SyscallPutchar = 2
	SyscallExit    = 3
	SyscallExitAlt = 93

	regA0 = 10
	regA7 = 17
)

// errExit is returned internally by handleSyscall to signal a clean exit
// syscall; it is not a FatalError and never escapes Run.
var errExit = fmt.Errorf("rv32: exit")

// handleSyscall dispatches on a7 per spec.md §4.4. It returns errExit when
// the program has called exit, or a *FatalError for an unrecognized
// syscall number.
func (e *Engine) handleSyscall(reg *Registers) error {
	switch reg.Get(regA7) {
	case SyscallGetchar:
		c, err := e.stdinReader().ReadByte()
		var ch int32
		if err != nil {
			ch = -1
		} else {
			ch = int32(c)
		}
		e.setReg(regA0, ch)
		e.traceLine(fmt.Sprintf("getchar() -> %c", ch))
		return nil

	case SyscallPutchar:
		_, _ = fmt.Fprintf(e.stdout(), "%c", byte(reg.Get(regA0)))
		e.traceLine(fmt.Sprintf("putchar(%c)", byte(reg.Get(regA0))))
		return nil

	case SyscallExit, SyscallExitAlt:
		e.traceLine("exit()")
		return errExit

	default:
		return &FatalError{
			Kind:    FatalUnknownSyscall,
			Message: fmt.Sprintf("Unknown syscall: %d", reg.Get(regA7)),
		}
	}
}

func (e *Engine) stdinReader() *bufio.Reader {
	if e.stdinBuf == nil {
		in := e.Stdin
		if in == nil {
			in = defaultStdin()
		}
		e.stdinBuf = bufio.NewReader(in)
	}
	return e.stdinBuf
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout == nil {
		return defaultStdout()
	}
	return e.Stdout
}
