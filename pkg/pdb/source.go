package pdb

import "io"

// AddressTranslator converts a section+offset pair into a load-relative
// address. It returns 0 for pairs that do not map into the image.
type AddressTranslator interface {
	RVA(section uint16, offset uint32) uint32
}

// Module is a single compilation unit of the database.
type Module interface {
	Name() string
	HasSymbolStream() bool
	// ForEachSymbol calls fn for every record of the module symbol stream, in
	// stream order. Iteration stops at the first error returned by fn.
	ForEachSymbol(fn func(SymbolRecord) error) error
}

type ModuleSymbolSource interface {
	Modules() ([]Module, error)
}

type PublicSymbolSource interface {
	ForEachPublic(fn func(PublicSymbol) error) error
}

// ContributionSource yields the section contribution table.
//
// Implementations must yield contributions in ascending address order: the
// size inferencer stops scanning as soon as it passes the address it looks
// for, unless it is configured with ContributionScanFull.
type ContributionSource interface {
	ForEachContribution(fn func(SectionContribution) error) error
}

// Database is an opened and structurally validated debug database.
type Database interface {
	io.Closer

	// UsesDebugFastLink reports whether the database was produced with
	// /DEBUG:FASTLINK, which keeps symbol records in the object files.
	UsesDebugFastLink() bool

	AddressTranslator() (AddressTranslator, error)
	ModuleSymbols() (ModuleSymbolSource, error)
	PublicSymbols() (PublicSymbolSource, error)
	Contributions() (ContributionSource, error)
}

// Opener opens a database file. Structural problems are reported as
// *ValidationError.
type Opener interface {
	Open(path string) (Database, error)
}
