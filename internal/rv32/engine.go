package rv32

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rv32im/sim/internal/bitfield"
	"github.com/rv32im/sim/internal/decode"
	"github.com/rv32im/sim/internal/disasm"
)

// FatalKind classifies a fatal decode/execute error, per spec.md §7.
type FatalKind int

const (
	FatalUnknownOpcode FatalKind = iota
	FatalUnknownSyscall
)

// FatalError is returned by Run when the simulation hits a condition
// spec.md classifies as fatal: an undefined primary opcode or an unknown
// syscall number. Per spec.md §6, process-level exit is the driver's
// responsibility, not the engine's — so unlike original_source/simulate.c
// (which calls exit(1) directly), Run returns this error and leaves the
// caller to print Message to stderr and terminate with a non-zero status.
type FatalError struct {
	Kind    FatalKind
	Message string
}

func (e *FatalError) Error() string { return e.Message }

// Engine runs the fetch/decode/execute loop over a Memory and an optional
// Symbols table, grounded on the teacher's vm.VM/vm.Executor split
// (vm/executor.go) but collapsed to RV32IM's much smaller semantics table.
type Engine struct {
	Mem     Memory
	Symbols disasm.Symbols

	// Trace, if non-nil, receives one formatted line per retired
	// instruction, per spec.md §6. Nil disables tracing with no semantic
	// side effects (spec.md §7: "tracing is best-effort").
	Trace io.Writer

	// Stdin/Stdout back the getchar/putchar syscalls. Both default to the
	// process's own stdin/stdout, mirroring the teacher's
	// VM.SetStdinReader/VM.OutputWriter redirection pattern
	// (vm/executor.go, vm/syscall.go) which exists so tests and
	// alternate frontends need not touch the real console.
	Stdin  io.Reader
	Stdout io.Writer

	// AfterStep, if set, is invoked once per retired instruction after the
	// trace line for it has been completed, except for the final exit
	// syscall, after which Run returns directly. The live trace viewer uses
	// this to refresh its register panel without the engine depending on
	// traceui itself.
	AfterStep func()

	reg      Registers
	pc       uint32
	prevPC   uint32
	stats    Stats
	trc      traceFormatter
	stdinBuf *bufio.Reader
}

// NewEngine creates an Engine bound to the given memory and (optional)
// symbol table.
func NewEngine(mem Memory, symbols disasm.Symbols) *Engine {
	return &Engine{Mem: mem, Symbols: symbols}
}

func defaultStdin() io.Reader  { return os.Stdin }
func defaultStdout() io.Writer { return os.Stdout }

// Run executes instructions starting at startAddr until an exit syscall
// retires, then returns the accumulated Stats. A fatal condition (undefined
// primary opcode, unknown syscall number) returns a non-nil *FatalError;
// Stats reflects progress up to that point.
func (e *Engine) Run(startAddr uint32) (Stats, error) {
	e.reg = Registers{}
	e.pc = startAddr
	e.prevPC = startAddr
	e.stats = newStats()
	e.trc = traceFormatter{w: e.Trace}

	for {
		if e.pc != e.prevPC+4 {
			e.trc.jumpMarker()
		}

		inst := e.Mem.ReadWord(e.pc)

		var disasmText string
		if e.Trace != nil {
			disasmText = disasm.Disassemble(e.pc, inst, e.Symbols)
			e.trc.header(e.stats.Insns, e.pc, inst, disasmText)
		}

		e.reg.Set(0, 0)

		d := decode.Decode(inst)
		nextPC := e.pc + 4
		e.prevPC = e.pc

		if err := e.execute(d, &nextPC); err != nil {
			if err == errExit {
				e.stats.record(mnemonicOf(d))
				e.trc.newline()
				return e.stats, nil
			}
			return e.stats, err
		}

		e.stats.record(mnemonicOf(d))
		e.trc.newline()
		e.pc = nextPC

		if e.AfterStep != nil {
			e.AfterStep()
		}
	}
}

// Snapshot returns a copy of the architectural register file and the
// current program counter, for read-only inspection by a live viewer
// between steps.
func (e *Engine) Snapshot() (regs [32]int32, pc uint32) {
	return e.reg.r, e.pc
}

// mnemonicOf returns the retirement-histogram key for a decoded
// instruction, using decode.Op's name where resolved, or the single key
// "<no-op>" for every silent no-op regardless of family (undefined
// funct3/funct7 within a known opcode, per spec.md §7).
func mnemonicOf(d decode.Inst) string {
	if d.Op != decode.OpNone {
		return d.Op.String()
	}
	return "<no-op>"
}

// execute dispatches one decoded instruction, mutating the register file,
// memory, *nextPC, and the trace line as it goes. It returns errExit on a
// clean exit syscall, a *FatalError on an undefined primary opcode or
// unknown syscall, or nil otherwise — including for a silent no-op on an
// undefined funct3/funct7 combination, per spec.md §4.3/§7.
func (e *Engine) execute(d decode.Inst, nextPC *uint32) error {
	switch d.Family {
	case decode.FamilyLUI:
		e.setReg(d.Rd, d.UImm)

	case decode.FamilyAUIPC:
		e.setReg(d.Rd, int32(e.pc+uint32(d.UImm)))

	case decode.FamilyJAL:
		e.setReg(d.Rd, int32(e.pc+4))
		*nextPC = e.pc + uint32(d.JImm)

	case decode.FamilyJALR:
		link := int32(e.pc + 4)
		*nextPC = uint32(e.reg.Get(d.Rs1)+d.IImm) &^ 1
		e.setReg(d.Rd, link)

	case decode.FamilyBranch:
		e.executeBranch(d, nextPC)

	case decode.FamilyLoad:
		e.executeLoad(d)

	case decode.FamilyStore:
		e.executeStore(d)

	case decode.FamilyImmArith:
		e.executeImmArith(d)

	case decode.FamilyRegArith:
		e.executeRegArith(d)

	case decode.FamilySystem:
		if d.Op == decode.OpECALL {
			return e.handleSyscall(&e.reg)
		}
		// Any other bit pattern under opcode 0x73 is a silent no-op.

	default:
		return &FatalError{
			Kind:    FatalUnknownOpcode,
			Message: fmt.Sprintf("Unknown instruction at PC=%x: %x", e.pc, d.Raw),
		}
	}
	return nil
}

// setReg writes v to register rd and, if tracing and rd != 0, appends the
// register-write effect note to the current trace line.
func (e *Engine) setReg(rd uint32, v int32) {
	e.reg.Set(rd, v)
	if rd != 0 {
		e.trc.registerWrite(rd, v)
	}
}

func (e *Engine) traceLine(s string) {
	e.trc.line(s)
}

func (e *Engine) executeBranch(d decode.Inst, nextPC *uint32) {
	rs1, rs2 := e.reg.Get(d.Rs1), e.reg.Get(d.Rs2)
	urs1, urs2 := e.reg.GetUnsigned(d.Rs1), e.reg.GetUnsigned(d.Rs2)

	var taken bool
	switch d.Op {
	case decode.OpBEQ:
		taken = rs1 == rs2
	case decode.OpBNE:
		taken = rs1 != rs2
	case decode.OpBLT:
		taken = rs1 < rs2
	case decode.OpBGE:
		taken = rs1 >= rs2
	case decode.OpBLTU:
		taken = urs1 < urs2
	case decode.OpBGEU:
		taken = urs1 >= urs2
	default:
		return // undefined funct3: silent no-op
	}

	if taken {
		*nextPC = e.pc + uint32(d.BImm)
		e.stats.BranchesTaken++
		e.trc.branchTaken()
	} else {
		e.stats.BranchesNotTaken++
	}
}

func (e *Engine) executeLoad(d decode.Inst) {
	addr := uint32(e.reg.Get(d.Rs1) + d.IImm)
	switch d.Op {
	case decode.OpLB:
		e.setReg(d.Rd, bitfield.SignExtend(uint32(e.Mem.ReadByte(addr)), 8))
	case decode.OpLH:
		e.setReg(d.Rd, bitfield.SignExtend(uint32(e.Mem.ReadHalf(addr)), 16))
	case decode.OpLW:
		e.setReg(d.Rd, int32(e.Mem.ReadWord(addr)))
	case decode.OpLBU:
		e.setReg(d.Rd, int32(e.Mem.ReadByte(addr)))
	case decode.OpLHU:
		e.setReg(d.Rd, int32(e.Mem.ReadHalf(addr)))
	}
}

func (e *Engine) executeStore(d decode.Inst) {
	addr := uint32(e.reg.Get(d.Rs1) + d.SImm)
	rs2 := e.reg.GetUnsigned(d.Rs2)
	switch d.Op {
	case decode.OpSB:
		e.Mem.WriteByte(addr, uint8(rs2))
		e.trc.memoryWrite(addr, rs2&0xFF, 1)
	case decode.OpSH:
		e.Mem.WriteHalf(addr, uint16(rs2))
		e.trc.memoryWrite(addr, rs2&0xFFFF, 2)
	case decode.OpSW:
		e.Mem.WriteWord(addr, rs2)
		e.trc.memoryWrite(addr, rs2, 4)
	}
}

func (e *Engine) executeImmArith(d decode.Inst) {
	rs1, urs1 := e.reg.Get(d.Rs1), e.reg.GetUnsigned(d.Rs1)
	switch d.Op {
	case decode.OpADDI:
		e.setReg(d.Rd, rs1+d.IImm)
	case decode.OpSLLI:
		e.setReg(d.Rd, rs1<<d.Shamt)
	case decode.OpSLTI:
		e.setReg(d.Rd, boolToInt32(rs1 < d.IImm))
	case decode.OpSLTIU:
		e.setReg(d.Rd, boolToInt32(urs1 < uint32(d.IImm)))
	case decode.OpXORI:
		e.setReg(d.Rd, rs1^d.IImm)
	case decode.OpSRLI:
		e.setReg(d.Rd, int32(urs1>>d.Shamt))
	case decode.OpSRAI:
		e.setReg(d.Rd, rs1>>d.Shamt)
	case decode.OpORI:
		e.setReg(d.Rd, rs1|d.IImm)
	case decode.OpANDI:
		e.setReg(d.Rd, rs1&d.IImm)
	}
	// OpNone (undefined funct3): silent no-op.
}

func (e *Engine) executeRegArith(d decode.Inst) {
	rs1, rs2 := e.reg.Get(d.Rs1), e.reg.Get(d.Rs2)
	urs1, urs2 := e.reg.GetUnsigned(d.Rs1), e.reg.GetUnsigned(d.Rs2)
	shamt := uint32(rs2) & 0x1F

	switch d.Op {
	case decode.OpADD:
		e.setReg(d.Rd, rs1+rs2)
	case decode.OpSUB:
		e.setReg(d.Rd, rs1-rs2)
	case decode.OpMUL:
		e.setReg(d.Rd, rs1*rs2)
	case decode.OpSLL:
		e.setReg(d.Rd, rs1<<shamt)
	case decode.OpMULH:
		e.setReg(d.Rd, int32((int64(rs1)*int64(rs2))>>32))
	case decode.OpSLT:
		e.setReg(d.Rd, boolToInt32(rs1 < rs2))
	case decode.OpSLTU:
		e.setReg(d.Rd, boolToInt32(urs1 < urs2))
	case decode.OpXOR:
		e.setReg(d.Rd, rs1^rs2)
	case decode.OpDIV:
		if rs2 == 0 {
			e.setReg(d.Rd, -1)
		} else {
			e.setReg(d.Rd, rs1/rs2)
		}
	case decode.OpSRL:
		e.setReg(d.Rd, int32(urs1>>shamt))
	case decode.OpSRA:
		e.setReg(d.Rd, rs1>>shamt)
	case decode.OpDIVU:
		if urs2 == 0 {
			e.setReg(d.Rd, -1)
		} else {
			e.setReg(d.Rd, int32(urs1/urs2))
		}
	case decode.OpOR:
		e.setReg(d.Rd, rs1|rs2)
	case decode.OpREM:
		if rs2 == 0 {
			e.setReg(d.Rd, rs1)
		} else {
			e.setReg(d.Rd, rs1%rs2)
		}
	case decode.OpAND:
		e.setReg(d.Rd, rs1&rs2)
	case decode.OpREMU:
		if urs2 == 0 {
			e.setReg(d.Rd, rs1)
		} else {
			e.setReg(d.Rd, int32(urs1%urs2))
		}
	}
	// OpNone (undefined funct3/funct7 combination): silent no-op.
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
