package pdb

import (
	"errors"
	"fmt"
	"sort"
)

var errStopIteration = errors.New("stop iteration")

// InferSizes sorts symbols by address and fills in unknown sizes.
//
// A symbol with an unknown size spans up to the next symbol, which includes
// any padding after the function's code. Callers needing the exact number of
// code bytes have to disassemble. The last symbol has no neighbor; its size
// is taken from the section contribution starting at its address, if any.
func InferSizes(symbols []Symbol, contributions ContributionSource, translator AddressTranslator, opts ...Option) error {
	o := newOptions(opts)

	sort.Slice(symbols, func(i, j int) bool {
		return symbols[i].RVA < symbols[j].RVA
	})
	if len(symbols) == 0 {
		return nil
	}

	for i := 0; i < len(symbols)-1; i++ {
		if symbols[i].SizeKnown {
			continue
		}
		symbols[i].Size = symbols[i+1].RVA - symbols[i].RVA
		symbols[i].SizeKnown = true
		o.metrics.inferred(methodGap)
	}

	last := &symbols[len(symbols)-1]
	if last.SizeKnown {
		return nil
	}
	size, found, err := contributionSize(contributions, translator, last.RVA, o.fullScan)
	if err != nil {
		return fmt.Errorf("read section contributions: %w", err)
	}
	if !found {
		o.metrics.inferred(methodUnresolved)
		return nil
	}
	last.Size = size
	last.SizeKnown = true
	o.metrics.inferred(methodContribution)
	return nil
}

func contributionSize(contributions ContributionSource, translator AddressTranslator, rva uint32, fullScan bool) (size uint32, found bool, err error) {
	err = contributions.ForEachContribution(func(c SectionContribution) error {
		crva := translator.RVA(c.Section, c.Offset)
		if crva == 0 {
			return nil
		}
		if crva == rva {
			size, found = c.Size, true
			return errStopIteration
		}
		if crva > rva && !fullScan {
			return errStopIteration
		}
		return nil
	})
	if errors.Is(err, errStopIteration) {
		err = nil
	}
	return size, found, err
}
