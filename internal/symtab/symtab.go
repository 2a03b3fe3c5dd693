// Package symtab resolves addresses to symbol names for the disassembler
// and CLI listings. Grounded on the teacher's vm/symbol_resolver.go, which
// backs an ARM address with the nearest preceding label; here that idiom
// is split into two distinct lookups because the core disassembler and the
// listing tool want different matching rules (exact-match vs.
// nearest-with-offset), per SPEC_FULL.md §3.
package symtab

import (
	"bufio"
	"debug/elf"
	"fmt"
	"io"
	"sort"
)

// entry is one resolved symbol: a name bound to an address.
type entry struct {
	addr uint32
	name string
}

// Table is a read-only, address-sorted symbol table.
type Table struct {
	byAddr map[uint32]string
	sorted []entry
}

// New builds a Table from a name->address map.
func New(symbols map[string]uint32) *Table {
	t := &Table{byAddr: make(map[uint32]string, len(symbols))}
	for name, addr := range symbols {
		t.byAddr[addr] = name
		t.sorted = append(t.sorted, entry{addr: addr, name: name})
	}
	sort.Slice(t.sorted, func(i, j int) bool { return t.sorted[i].addr < t.sorted[j].addr })
	return t
}

// Lookup implements disasm.Symbols: an exact address match only, per
// spec.md §4.2's label rule ("a symbol whose value equals the instruction's
// address exactly").
func (t *Table) Lookup(addr uint32) (string, bool) {
	name, ok := t.byAddr[addr]
	return name, ok
}

// Resolve finds the symbol with the greatest address not exceeding addr and
// returns its name plus the byte offset into it, for use by listings that
// want to show "func_name+0x10" for an address that falls inside a
// function body rather than only on its first instruction. Returns ok=false
// if addr precedes every known symbol.
func (t *Table) Resolve(addr uint32) (name string, offset uint32, ok bool) {
	if len(t.sorted) == 0 {
		return "", 0, false
	}
	i := sort.Search(len(t.sorted), func(i int) bool { return t.sorted[i].addr > addr })
	if i == 0 {
		return "", 0, false
	}
	e := t.sorted[i-1]
	return e.name, addr - e.addr, true
}

// Load reads a simple "<hex-address> <name>" symbol file, one entry per
// line, blank lines and lines starting with '#' ignored. This is the
// plain-text counterpart to LoadELF for images with no embedded symtab.
func Load(r io.Reader) (*Table, error) {
	symbols := make(map[string]uint32)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		var addr uint32
		var name string
		if _, err := fmt.Sscanf(line, "%x %s", &addr, &name); err != nil {
			return nil, fmt.Errorf("symtab: malformed line %q: %w", line, err)
		}
		symbols[name] = addr
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(symbols), nil
}

// LoadELF builds a Table from an ELF file's symbol table, skipping symbols
// with an empty name or a zero address. Symbol type and section are not
// checked.
func LoadELF(f *elf.File) (*Table, error) {
	syms, err := f.Symbols()
	if err != nil {
		// No symbol table is not fatal: an image may be stripped.
		if err == elf.ErrNoSymbols {
			return New(nil), nil
		}
		return nil, err
	}
	symbols := make(map[string]uint32, len(syms))
	for _, s := range syms {
		if s.Name == "" || s.Value == 0 {
			continue
		}
		symbols[s.Name] = uint32(s.Value)
	}
	return New(symbols), nil
}
