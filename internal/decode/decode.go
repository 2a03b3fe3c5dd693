// Package decode turns a raw 32-bit instruction word into a decoded, typed
// form that both the disassembler and the execution engine can consume
// without re-deriving opcode/funct/immediate fields. This mirrors the
// teacher's separation of vm.Instruction (what was fetched) from the
// per-family semantics implemented over it, generalized from ARM's
// InstructionType enum to RISC-V's opcode/funct3/funct7 dispatch tree.
package decode

import "github.com/rv32im/sim/internal/bitfield"

// Family identifies which opcode group an instruction belongs to. This is
// the decode tree's top-level dispatch, matching spec.md's mnemonic table
// by opcode.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyLUI
	FamilyAUIPC
	FamilyJAL
	FamilyJALR
	FamilyBranch
	FamilyLoad
	FamilyStore
	FamilyImmArith
	FamilyRegArith
	FamilySystem
)

// Op names a specific mnemonic once funct3/funct7 have been resolved. OpNone
// marks a defined family with an undefined sub-encoding (the spec's
// "silent no-op" case).
type Op int

const (
	OpNone Op = iota
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLLI
	OpSLTI
	OpSLTIU
	OpXORI
	OpSRLI
	OpSRAI
	OpORI
	OpANDI
	OpADD
	OpSUB
	OpMUL
	OpSLL
	OpMULH
	OpSLT
	OpSLTU
	OpXOR
	OpDIV
	OpSRL
	OpSRA
	OpDIVU
	OpOR
	OpREM
	OpAND
	OpREMU
	OpECALL
)

var opNames = map[Op]string{
	OpLUI: "lui", OpAUIPC: "auipc", OpJAL: "jal", OpJALR: "jalr",
	OpBEQ: "beq", OpBNE: "bne", OpBLT: "blt", OpBGE: "bge", OpBLTU: "bltu", OpBGEU: "bgeu",
	OpLB: "lb", OpLH: "lh", OpLW: "lw", OpLBU: "lbu", OpLHU: "lhu",
	OpSB: "sb", OpSH: "sh", OpSW: "sw",
	OpADDI: "addi", OpSLLI: "slli", OpSLTI: "slti", OpSLTIU: "sltiu",
	OpXORI: "xori", OpSRLI: "srli", OpSRAI: "srai", OpORI: "ori", OpANDI: "andi",
	OpADD: "add", OpSUB: "sub", OpMUL: "mul", OpSLL: "sll", OpMULH: "mulh",
	OpSLT: "slt", OpSLTU: "sltu", OpXOR: "xor", OpDIV: "div",
	OpSRL: "srl", OpSRA: "sra", OpDIVU: "divu", OpOR: "or", OpREM: "rem",
	OpAND: "and", OpREMU: "remu", OpECALL: "ecall",
}

// String returns the lowercase mnemonic for a resolved Op, or "" for
// OpNone (an undefined sub-encoding within a known family).
func (o Op) String() string {
	return opNames[o]
}

// Inst is the decoded form of one instruction word: every field the
// semantics layer or the disassembler might need, computed once.
type Inst struct {
	Raw    uint32
	Family Family
	Op     Op

	Rd, Rs1, Rs2   uint32
	Funct3, Funct7 uint32

	IImm, SImm, BImm, UImm, JImm int32
	Shamt                        uint32
}

// Decode classifies a raw instruction word into its family and, where the
// family has a single defined sub-encoding or the funct3/funct7 combination
// resolves unambiguously, its specific Op. Families with multiple
// sub-encodings that do not match any defined funct3/funct7 combination
// decode with Op == OpNone; the caller (disassembler or engine) decides how
// to react — a category placeholder for disassembly, a silent no-op for
// execution, per spec.md §4.3 and §7.
func Decode(raw uint32) Inst {
	in := Inst{
		Raw:    raw,
		Rd:     bitfield.Rd(raw),
		Rs1:    bitfield.Rs1(raw),
		Rs2:    bitfield.Rs2(raw),
		Funct3: bitfield.Funct3(raw),
		Funct7: bitfield.Funct7(raw),
		IImm:   bitfield.IImm(raw),
		SImm:   bitfield.SImm(raw),
		BImm:   bitfield.BImm(raw),
		UImm:   bitfield.UImm(raw),
		JImm:   bitfield.JImm(raw),
		Shamt:  bitfield.Shamt(raw),
	}

	switch bitfield.Opcode(raw) {
	case 0x37:
		in.Family, in.Op = FamilyLUI, OpLUI
	case 0x17:
		in.Family, in.Op = FamilyAUIPC, OpAUIPC
	case 0x6F:
		in.Family, in.Op = FamilyJAL, OpJAL
	case 0x67:
		in.Family, in.Op = FamilyJALR, OpJALR
	case 0x63:
		in.Family = FamilyBranch
		switch in.Funct3 {
		case 0x0:
			in.Op = OpBEQ
		case 0x1:
			in.Op = OpBNE
		case 0x4:
			in.Op = OpBLT
		case 0x5:
			in.Op = OpBGE
		case 0x6:
			in.Op = OpBLTU
		case 0x7:
			in.Op = OpBGEU
		}
	case 0x03:
		in.Family = FamilyLoad
		switch in.Funct3 {
		case 0x0:
			in.Op = OpLB
		case 0x1:
			in.Op = OpLH
		case 0x2:
			in.Op = OpLW
		case 0x4:
			in.Op = OpLBU
		case 0x5:
			in.Op = OpLHU
		}
	case 0x23:
		in.Family = FamilyStore
		switch in.Funct3 {
		case 0x0:
			in.Op = OpSB
		case 0x1:
			in.Op = OpSH
		case 0x2:
			in.Op = OpSW
		}
	case 0x13:
		in.Family = FamilyImmArith
		switch in.Funct3 {
		case 0x0:
			in.Op = OpADDI
		case 0x1:
			in.Op = OpSLLI
		case 0x2:
			in.Op = OpSLTI
		case 0x3:
			in.Op = OpSLTIU
		case 0x4:
			in.Op = OpXORI
		case 0x5:
			switch in.Funct7 {
			case 0x20:
				in.Op = OpSRAI
			case 0x00:
				in.Op = OpSRLI
			}
		case 0x6:
			in.Op = OpORI
		case 0x7:
			in.Op = OpANDI
		}
	case 0x33:
		in.Family = FamilyRegArith
		switch in.Funct3 {
		case 0x0:
			switch in.Funct7 {
			case 0x20:
				in.Op = OpSUB
			case 0x01:
				in.Op = OpMUL
			case 0x00:
				in.Op = OpADD
			}
		case 0x1:
			switch in.Funct7 {
			case 0x01:
				in.Op = OpMULH
			case 0x00:
				in.Op = OpSLL
			}
		case 0x2:
			if in.Funct7 == 0x00 {
				in.Op = OpSLT
			}
		case 0x3:
			if in.Funct7 == 0x00 {
				in.Op = OpSLTU
			}
		case 0x4:
			switch in.Funct7 {
			case 0x01:
				in.Op = OpDIV
			case 0x00:
				in.Op = OpXOR
			}
		case 0x5:
			switch in.Funct7 {
			case 0x20:
				in.Op = OpSRA
			case 0x01:
				in.Op = OpDIVU
			case 0x00:
				in.Op = OpSRL
			}
		case 0x6:
			switch in.Funct7 {
			case 0x01:
				in.Op = OpREM
			case 0x00:
				in.Op = OpOR
			}
		case 0x7:
			switch in.Funct7 {
			case 0x01:
				in.Op = OpREMU
			case 0x00:
				in.Op = OpAND
			}
		}
	case 0x73:
		in.Family = FamilySystem
		if raw == 0x00000073 {
			in.Op = OpECALL
		}
	default:
		in.Family = FamilyUnknown
	}

	return in
}
