// Package symtab resolves addresses against a function symbol table.
package symtab

import (
	"fmt"
	"sort"

	"github.com/grafana/pdbsym/pkg/pdb"
)

// SymbolTab resolves addresses of an image loaded at a base address.
type SymbolTab struct {
	symbols []pdb.Symbol
	base    uint64
}

// NewSymbolTab expects symbols sorted by RVA, as returned by pdb.Parser.
func NewSymbolTab(symbols []pdb.Symbol) *SymbolTab {
	return &SymbolTab{symbols: symbols}
}

func (t *SymbolTab) DebugString() string {
	if len(t.symbols) == 0 {
		return fmt.Sprintf("SymbolTab{base: 0x%x, empty}", t.base)
	}
	last := t.symbols[len(t.symbols)-1]
	return fmt.Sprintf("SymbolTab{base: 0x%x, symbols: %d, range: 0x%x-0x%x}",
		t.base, len(t.symbols), t.symbols[0].RVA, last.End())
}

func (t *SymbolTab) Rebase(base uint64) {
	t.base = base
}

func (t *SymbolTab) Len() int {
	return len(t.symbols)
}

// Resolve returns the function containing addr. A function of unknown size
// covers everything up to the next function.
func (t *SymbolTab) Resolve(addr uint64) (pdb.Symbol, bool) {
	if len(t.symbols) == 0 || addr < t.base {
		return pdb.Symbol{}, false
	}
	addr -= t.base
	if addr < uint64(t.symbols[0].RVA) {
		return pdb.Symbol{}, false
	}
	i := sort.Search(len(t.symbols), func(i int) bool {
		return addr < uint64(t.symbols[i].RVA)
	})
	i--
	sym := t.symbols[i]
	if sym.SizeKnown && addr >= uint64(sym.RVA)+uint64(sym.Size) {
		return pdb.Symbol{}, false
	}
	return sym, true
}
