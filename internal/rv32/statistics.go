package rv32

// Stats holds the counters the engine accumulates over a run. Insns is the
// field spec.md §6 requires ("Stats has at least field insns"); the rest —
// grounded on the teacher's PerformanceStatistics (vm/statistics.go) — is
// additive instrumentation no core invariant depends on.
type Stats struct {
	// Insns is the retired-instruction count, strictly monotonically
	// increasing by 1 per retired instruction (spec.md invariant 2).
	Insns uint64

	// Counts tallies retirements per mnemonic, keyed by the disassembler's
	// mnemonic name (e.g. "addi", "beq").
	Counts map[string]uint64

	BranchesTaken    uint64
	BranchesNotTaken uint64
}

func newStats() Stats {
	return Stats{Counts: make(map[string]uint64)}
}

func (s *Stats) record(mnemonic string) {
	s.Insns++
	s.Counts[mnemonic]++
}
