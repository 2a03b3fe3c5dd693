// Package disasm renders a decoded RV32IM instruction word as a
// human-readable mnemonic string, consulting an optional symbol table to
// emit label lines. Ported from original_source/disassemble.c, restructured
// around internal/decode's tagged union instead of re-deriving fields with
// nested switches (see spec.md §9).
package disasm

import (
	"fmt"

	"github.com/rv32im/sim/internal/decode"
)

// Symbols is the symbol-table interface the disassembler consumes. It is
// intentionally minimal: exact-match address-to-name lookup, per spec.md
// §6. A richer nearest-symbol resolver lives in internal/symtab for the
// listing CLI, but the core disassembler's label rule only ever needs
// exact matches.
type Symbols interface {
	Lookup(addr uint32) (name string, ok bool)
}

// mnemonicWidth is the fixed width of the left-aligned mnemonic column,
// per spec.md §4.2 "Spacing rule" (suggested 8 characters).
const mnemonicWidth = 8

// Disassemble renders the instruction at addr as a printable string. If
// symbols is non-nil and maps addr to a name, the output is exactly
// "<name>:" and no instruction text is produced, per spec.md's label rule.
// Otherwise the output is a fixed-width mnemonic followed by operands, or
// a category placeholder for instructions this decoder cannot resolve.
func Disassemble(addr, inst uint32, symbols Symbols) string {
	if symbols != nil {
		if name, ok := symbols.Lookup(addr); ok {
			return name + ":"
		}
	}

	in := decode.Decode(inst)

	switch in.Family {
	case decode.FamilyLUI:
		return mnemonic("lui", "%s,0x%x", RegName(in.Rd), uint32(in.UImm)>>12)
	case decode.FamilyAUIPC:
		return mnemonic("auipc", "%s,0x%x", RegName(in.Rd), uint32(in.UImm)>>12)
	case decode.FamilyJAL:
		target := addr + uint32(in.JImm)
		return mnemonic("jal", "%s,0x%x", RegName(in.Rd), target)
	case decode.FamilyJALR:
		return mnemonic("jalr", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.IImm)
	case decode.FamilyBranch:
		target := addr + uint32(in.BImm)
		switch in.Op {
		case decode.OpBEQ:
			return mnemonic("beq", "%s,%s,0x%x", RegName(in.Rs1), RegName(in.Rs2), target)
		case decode.OpBNE:
			return mnemonic("bne", "%s,%s,0x%x", RegName(in.Rs1), RegName(in.Rs2), target)
		case decode.OpBLT:
			return mnemonic("blt", "%s,%s,0x%x", RegName(in.Rs1), RegName(in.Rs2), target)
		case decode.OpBGE:
			return mnemonic("bge", "%s,%s,0x%x", RegName(in.Rs1), RegName(in.Rs2), target)
		case decode.OpBLTU:
			return mnemonic("bltu", "%s,%s,0x%x", RegName(in.Rs1), RegName(in.Rs2), target)
		case decode.OpBGEU:
			return mnemonic("bgeu", "%s,%s,0x%x", RegName(in.Rs1), RegName(in.Rs2), target)
		default:
			return "unknown branch"
		}
	case decode.FamilyLoad:
		switch in.Op {
		case decode.OpLB:
			return mnemonic("lb", "%s,%d(%s)", RegName(in.Rd), in.IImm, RegName(in.Rs1))
		case decode.OpLH:
			return mnemonic("lh", "%s,%d(%s)", RegName(in.Rd), in.IImm, RegName(in.Rs1))
		case decode.OpLW:
			return mnemonic("lw", "%s,%d(%s)", RegName(in.Rd), in.IImm, RegName(in.Rs1))
		case decode.OpLBU:
			return mnemonic("lbu", "%s,%d(%s)", RegName(in.Rd), in.IImm, RegName(in.Rs1))
		case decode.OpLHU:
			return mnemonic("lhu", "%s,%d(%s)", RegName(in.Rd), in.IImm, RegName(in.Rs1))
		default:
			return "unknown load"
		}
	case decode.FamilyStore:
		switch in.Op {
		case decode.OpSB:
			return mnemonic("sb", "%s,%d(%s)", RegName(in.Rs2), in.SImm, RegName(in.Rs1))
		case decode.OpSH:
			return mnemonic("sh", "%s,%d(%s)", RegName(in.Rs2), in.SImm, RegName(in.Rs1))
		case decode.OpSW:
			return mnemonic("sw", "%s,%d(%s)", RegName(in.Rs2), in.SImm, RegName(in.Rs1))
		default:
			return "unknown store"
		}
	case decode.FamilyImmArith:
		switch in.Op {
		case decode.OpADDI:
			return mnemonic("addi", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.IImm)
		case decode.OpSLLI:
			return mnemonic("slli", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.Shamt)
		case decode.OpSLTI:
			return mnemonic("slti", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.IImm)
		case decode.OpSLTIU:
			return mnemonic("sltiu", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.IImm)
		case decode.OpXORI:
			return mnemonic("xori", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.IImm)
		case decode.OpSRLI:
			return mnemonic("srli", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.Shamt)
		case decode.OpSRAI:
			return mnemonic("srai", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.Shamt)
		case decode.OpORI:
			return mnemonic("ori", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.IImm)
		case decode.OpANDI:
			return mnemonic("andi", "%s,%s,%d", RegName(in.Rd), RegName(in.Rs1), in.IImm)
		default:
			return "unknown immediate arithmetic"
		}
	case decode.FamilyRegArith:
		switch in.Op {
		case decode.OpADD:
			return mnemonic("add", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpSUB:
			return mnemonic("sub", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpMUL:
			return mnemonic("mul", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpSLL:
			return mnemonic("sll", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpMULH:
			return mnemonic("mulh", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpSLT:
			return mnemonic("slt", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpSLTU:
			return mnemonic("sltu", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpXOR:
			return mnemonic("xor", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpDIV:
			return mnemonic("div", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpSRL:
			return mnemonic("srl", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpSRA:
			return mnemonic("sra", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpDIVU:
			return mnemonic("divu", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpOR:
			return mnemonic("or", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpREM:
			return mnemonic("rem", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpAND:
			return mnemonic("and", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		case decode.OpREMU:
			return mnemonic("remu", "%s,%s,%s", RegName(in.Rd), RegName(in.Rs1), RegName(in.Rs2))
		default:
			return "unknown register arithmetic"
		}
	case decode.FamilySystem:
		if in.Op == decode.OpECALL {
			return "ecall"
		}
		return "unknown system"
	default:
		return fmt.Sprintf("unknown instruction 0x%08x", inst)
	}
}

// mnemonic formats a mnemonic and its operands, padding the mnemonic with
// trailing spaces to mnemonicWidth so operand columns line up across a
// trace listing.
func mnemonic(name, operandFormat string, args ...interface{}) string {
	return fmt.Sprintf("%-*s%s", mnemonicWidth, name, fmt.Sprintf(operandFormat, args...))
}
