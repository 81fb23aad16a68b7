package lookup

import (
	"github.com/go-kit/log"
	"github.com/samber/lo"

	"github.com/grafana/pdbsym/pkg/pdb"
)

// ParserEngine is an Engine that answers queries from the symbol table built
// by pdb.Parser. It needs no external library.
type ParserEngine struct {
	logger log.Logger
	cfg    pdb.Config
	opener pdb.Opener
}

func NewParserEngine(logger log.Logger, cfg pdb.Config, opener pdb.Opener) *ParserEngine {
	return &ParserEngine{logger: logger, cfg: cfg, opener: opener}
}

// Loader returns an EngineLoader that always yields e.
func (e *ParserEngine) Loader() EngineLoader {
	return func() (Engine, error) { return e, nil }
}

func (e *ParserEngine) LoadDataFromPDB(path string) (DataSource, error) {
	p, err := pdb.New(e.logger, e.cfg, nil, e.opener)
	if err != nil {
		return nil, err
	}
	if err = p.Parse(path); err != nil {
		return nil, err
	}
	return tableSource(p.Symbols()), nil
}

type tableSource []pdb.Symbol

func (s tableSource) OpenSession() (Session, error) {
	return &tableSession{
		byName: lo.GroupBy([]pdb.Symbol(s), func(sym pdb.Symbol) string { return sym.Name }),
	}, nil
}

type tableSession struct {
	byName map[string][]pdb.Symbol
}

func (s *tableSession) GlobalScope() (Scope, error) { return s, nil }

func (s *tableSession) Close() error { return nil }

func (s *tableSession) FindChildren(name string) (SymbolEnumerator, error) {
	return &tableEnumerator{symbols: s.byName[name]}, nil
}

type tableEnumerator struct {
	symbols []pdb.Symbol
}

func (e *tableEnumerator) Next() (QuerySymbol, bool) {
	if len(e.symbols) == 0 {
		return nil, false
	}
	sym := e.symbols[0]
	e.symbols = e.symbols[1:]
	return tableSymbol(sym), true
}

type tableSymbol pdb.Symbol

func (s tableSymbol) RelativeVirtualAddress() (uint32, bool) {
	return s.RVA, true
}

// Length is zero when the size of the function is unknown.
func (s tableSymbol) Length() uint64 {
	if !s.SizeKnown {
		return 0
	}
	return uint64(s.Size)
}
