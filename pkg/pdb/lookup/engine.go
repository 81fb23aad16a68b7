package lookup

import "io"

// EngineLoader makes a query engine available, for example by loading the
// library that implements it.
type EngineLoader func() (Engine, error)

// Engine is an external debug database query engine.
type Engine interface {
	LoadDataFromPDB(path string) (DataSource, error)
}

type DataSource interface {
	OpenSession() (Session, error)
}

type Session interface {
	io.Closer
	GlobalScope() (Scope, error)
}

type Scope interface {
	// FindChildren returns the children of the scope whose name is exactly
	// name. The comparison is case-sensitive.
	FindChildren(name string) (SymbolEnumerator, error)
}

type SymbolEnumerator interface {
	// Next returns the next symbol, or false once the enumeration is over.
	Next() (QuerySymbol, bool)
}

type QuerySymbol interface {
	// RelativeVirtualAddress returns false when the symbol has no address.
	RelativeVirtualAddress() (uint32, bool)
	Length() uint64
}
