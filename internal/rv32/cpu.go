// Package rv32 implements the RV32IM fetch/decode/execute loop: the
// architectural register file, the memory and symbol-table interfaces it
// consumes, the three-call syscall shim, the trace formatter, and the
// Engine.Run entry point. Grounded on the teacher's vm.CPU/vm.VM split
// (vm/cpu.go, vm/executor.go), generalized from ARM's 16-register banked
// file to RV32's flat 32-register file with x0 hardwired to zero.
package rv32

// NumRegisters is the size of the architectural register file.
const NumRegisters = 32

// Registers is the 32-entry signed register file. Register 0 is hardwired
// to zero: Set is a no-op for index 0, matching spec.md's invariant that
// x0 always reads as 0.
type Registers struct {
	r [NumRegisters]int32
}

// Get returns the signed value of register i.
func (r *Registers) Get(i uint32) int32 {
	return r.r[i&0x1F]
}

// GetUnsigned returns the bit pattern of register i reinterpreted as
// unsigned, used for unsigned comparisons and address arithmetic.
func (r *Registers) GetUnsigned(i uint32) uint32 {
	return uint32(r.r[i&0x1F])
}

// Set writes v into register i. Writes to register 0 are discarded.
func (r *Registers) Set(i uint32, v int32) {
	idx := i & 0x1F
	if idx == 0 {
		return
	}
	r.r[idx] = v
}
