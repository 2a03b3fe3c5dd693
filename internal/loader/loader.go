// Package loader places a program image into an rv32.Memory before
// simulation starts. spec.md treats loading as an external collaborator's
// job (§6); this package is the concrete implementation the CLI driver
// needs to be runnable end to end, grounded on the teacher's
// loader.LoadProgramIntoVM (loader/loader.go) but adapted from placing an
// assembled-in-process program to placing an on-disk image.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
	"os"

	"github.com/rv32im/sim/internal/rv32"
	"github.com/rv32im/sim/internal/symtab"
)

// LoadFlat reads a raw, already little-endian binary from r into mem
// starting at base, mirroring how original_source/testfiles programs are
// just raw instruction streams with no container format.
func LoadFlat(mem *rv32.FlatMemory, base uint32, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("loader: reading flat image: %w", err)
	}
	mem.LoadAt(base, data)
	return nil
}

// LoadFlatFile opens path and loads it as a flat image.
func LoadFlatFile(mem *rv32.FlatMemory, base uint32, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	defer f.Close()
	return LoadFlat(mem, base, f)
}

// LoadELF32 uses the standard library's debug/elf to load every loadable
// program header of a statically-linked ELF32 image into mem and builds a
// symtab.Table from its symbol table. It returns the entry point address.
//
// Relocation and dynamic linking are out of scope (spec.md Non-goals): only
// PT_LOAD segments are copied, at their file-specified virtual addresses.
func LoadELF32(mem *rv32.FlatMemory, path string) (entry uint32, symbols *symtab.Table, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("loader: opening ELF image: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return 0, nil, fmt.Errorf("loader: %s is not a 32-bit ELF image", path)
	}
	if f.Machine != elf.EM_RISCV {
		return 0, nil, fmt.Errorf("loader: %s is not a RISC-V ELF image", path)
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil && err != io.EOF {
			return 0, nil, fmt.Errorf("loader: reading segment at %#x: %w", prog.Vaddr, err)
		}
		mem.LoadAt(uint32(prog.Vaddr), data)
	}

	symbols, err = symtab.LoadELF(f)
	if err != nil {
		return 0, nil, fmt.Errorf("loader: reading symbol table: %w", err)
	}

	return uint32(f.Entry), symbols, nil
}
