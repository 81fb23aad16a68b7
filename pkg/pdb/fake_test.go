package pdb

import "errors"

// sectionTable translates section+offset like an image section header table:
// sections are 1-based and their base is the section's virtual address.
type sectionTable []uint32

func (t sectionTable) RVA(section uint16, offset uint32) uint32 {
	if section == 0 || int(section) > len(t) {
		return 0
	}
	return t[section-1] + offset
}

type fakeModule struct {
	name    string
	records []SymbolRecord
	noSyms  bool
	err     error
}

func (m *fakeModule) Name() string          { return m.name }
func (m *fakeModule) HasSymbolStream() bool { return !m.noSyms }

func (m *fakeModule) ForEachSymbol(fn func(SymbolRecord) error) error {
	for _, r := range m.records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return m.err
}

type fakeModules []*fakeModule

func (f fakeModules) Modules() ([]Module, error) {
	res := make([]Module, len(f))
	for i, m := range f {
		res[i] = m
	}
	return res, nil
}

type fakePublics []PublicSymbol

func (f fakePublics) ForEachPublic(fn func(PublicSymbol) error) error {
	for _, p := range f {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

type fakeContributions struct {
	contributions []SectionContribution
	visited       int
}

func (f *fakeContributions) ForEachContribution(fn func(SectionContribution) error) error {
	for _, c := range f.contributions {
		f.visited++
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

type fakeDatabase struct {
	fastLink      bool
	translator    AddressTranslator
	modules       ModuleSymbolSource
	publics       PublicSymbolSource
	contributions ContributionSource
	streamErr     map[string]error
	closed        bool
}

func (d *fakeDatabase) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDatabase) UsesDebugFastLink() bool { return d.fastLink }

func (d *fakeDatabase) AddressTranslator() (AddressTranslator, error) {
	return d.translator, d.streamErr[StreamImageSection]
}

func (d *fakeDatabase) ModuleSymbols() (ModuleSymbolSource, error) {
	return d.modules, d.streamErr[StreamModuleInfo]
}

func (d *fakeDatabase) PublicSymbols() (PublicSymbolSource, error) {
	return d.publics, d.streamErr[StreamPublicSymbol]
}

func (d *fakeDatabase) Contributions() (ContributionSource, error) {
	return d.contributions, d.streamErr[StreamSectionContribution]
}

type fakeOpener struct {
	dbs   map[string]*fakeDatabase
	err   error
	calls int
}

func (o *fakeOpener) Open(path string) (Database, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	db, ok := o.dbs[path]
	if !ok {
		return nil, errors.New("file does not exist")
	}
	return db, nil
}

func proc(kind SymbolRecordKind, name string, section uint16, offset, size uint32) SymbolRecord {
	return SymbolRecord{Kind: kind, Name: name, Section: section, Offset: offset, CodeSize: size}
}

func public(name string, section uint16, offset uint32) PublicSymbol {
	return PublicSymbol{Name: name, Section: section, Offset: offset, Flags: PublicCode | PublicFunction}
}
