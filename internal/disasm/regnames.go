package disasm

// regNames are the canonical ABI register names, indexed by register
// number 0-31. Register naming is a convention used only by the
// disassembler and the syscall shim; it is not a data structure the engine
// needs (see spec.md §9, "Register file aliasing").
var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the ABI name for register index r, e.g. RegName(10) == "a0".
func RegName(r uint32) string {
	return regNames[r&0x1F]
}
