package pdb

import "fmt"

// Symbol is a function of the image.
type Symbol struct {
	Name string
	RVA  uint32
	Size uint32
	// SizeKnown separates a function whose size was never established from a
	// function that is known to be zero bytes long.
	SizeKnown bool
}

func (s Symbol) String() string {
	if !s.SizeKnown {
		return fmt.Sprintf("%s@0x%x(size ?)", s.Name, s.RVA)
	}
	return fmt.Sprintf("%s@0x%x(size 0x%x)", s.Name, s.RVA, s.Size)
}

// End returns the first address past the function, or RVA when the size is
// unknown.
func (s Symbol) End() uint32 {
	return s.RVA + s.Size
}
