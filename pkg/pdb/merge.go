package pdb

import (
	"fmt"

	"github.com/dolthub/swiss"
)

const (
	// Name given to incremental linking thunks.
	iltName = "ILT"
	// Incremental linking thunks are a single relative jmp.
	iltSize = 5
)

// Merge collects function symbols from the module streams first, as they
// carry code sizes, and then adds public function symbols at addresses no
// module reported. Symbols are returned in collection order; public symbols
// have an unknown size.
func Merge(modules ModuleSymbolSource, publics PublicSymbolSource, translator AddressTranslator, opts ...Option) ([]Symbol, error) {
	o := newOptions(opts)

	mods, err := modules.Modules()
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}

	var (
		symbols []Symbol
		seen    = swiss.NewMap[uint32, struct{}](1024)
	)

	for _, mod := range mods {
		if !mod.HasSymbolStream() {
			continue
		}
		before := len(symbols)
		err = mod.ForEachSymbol(func(rec SymbolRecord) error {
			sym, ok := functionFromRecord(rec, translator, o.trustZeroCodeSize)
			if !ok {
				return nil
			}
			if seen.Has(sym.RVA) {
				return nil
			}
			symbols = append(symbols, sym)
			seen.Put(sym.RVA, struct{}{})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("read symbols of module %s: %w", mod.Name(), err)
		}
		o.metrics.collected(sourceModule, len(symbols)-before)
	}

	// The global symbol stream only adds data symbols on top of the module
	// streams, so it is not read. Public symbols still matter for modules
	// without symbol information.
	before := len(symbols)
	err = publics.ForEachPublic(func(pub PublicSymbol) error {
		if !pub.IsFunction() {
			return nil
		}
		// Some public symbols, such as control-flow guard symbols, have no
		// valid address.
		rva := translator.RVA(pub.Section, pub.Offset)
		if rva == 0 {
			return nil
		}
		if seen.Has(rva) {
			return nil
		}
		symbols = append(symbols, Symbol{Name: pub.Name, RVA: rva})
		seen.Put(rva, struct{}{})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read public symbols: %w", err)
	}
	o.metrics.collected(sourcePublic, len(symbols)-before)

	return symbols, nil
}

func functionFromRecord(rec SymbolRecord, translator AddressTranslator, trustZeroCodeSize bool) (Symbol, bool) {
	var sym Symbol
	switch rec.Kind {
	case S_THUNK32:
		if rec.Thunk != ThunkTrampolineIncremental {
			return Symbol{}, false
		}
		sym = Symbol{Name: iltName, RVA: translator.RVA(rec.Section, rec.Offset), Size: iltSize, SizeKnown: true}
	case S_TRAMPOLINE:
		// Incremental linking thunks live in the linker module.
		sym = Symbol{Name: iltName, RVA: translator.RVA(rec.ThunkSection, rec.ThunkOffset), Size: iltSize, SizeKnown: true}
	case S_LPROC32, S_GPROC32, S_LPROC32_ID, S_GPROC32_ID:
		sym = Symbol{
			Name:      rec.Name,
			RVA:       translator.RVA(rec.Section, rec.Offset),
			Size:      rec.CodeSize,
			SizeKnown: rec.CodeSize != 0 || trustZeroCodeSize,
		}
	default:
		return Symbol{}, false
	}
	if sym.RVA == 0 {
		return Symbol{}, false
	}
	return sym, true
}
