// Package snapshot opens debug database dumps: the decoded streams of a
// program database written out as YAML or JSON by an external decoder,
// optionally gzip or zstd compressed.
//
// A dump looks like:
//
//	signature: Microsoft C/C++ MSF 7.00
//	block_size: 4096
//	free_block_map: 1
//	num_streams: 12
//	version: 20000404
//	sections:
//	  - {name: .text, virtual_address: 0x1000, virtual_size: 0x2000}
//	modules:
//	  - name: main.obj
//	    stream: 9
//	    symbols:
//	      - {kind: S_GPROC32, name: main, section: 1, offset: 0x10, code_size: 0x40}
//	publics:
//	  - {name: main, section: 1, offset: 0x10, flags: 2}
//	contributions:
//	  - {section: 1, offset: 0x10, size: 0x40}
//
// A missing sections, modules, publics or contributions key means the
// corresponding sub-stream is not present in the database.
package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grafana/pdbsym/pkg/pdb"
)

// Signature every MSF 7.00 superblock starts with.
const Signature = "Microsoft C/C++ MSF 7.00"

// Version signature of every debug info stream header since VC 4.1.
const dbiSignature int32 = -1

// Known PDB info stream versions.
const (
	VersionVC2     uint32 = 19941610
	VersionVC4     uint32 = 19950623
	VersionVC41    uint32 = 19950814
	VersionVC50    uint32 = 19960307
	VersionVC98    uint32 = 19970604
	VersionVC70Dep uint32 = 19990604
	VersionVC70    uint32 = 20000404
	VersionVC80    uint32 = 20030901
	VersionVC110   uint32 = 20091201
	VersionVC140   uint32 = 20140508
)

var knownVersions = map[uint32]bool{
	VersionVC2: true, VersionVC4: true, VersionVC41: true, VersionVC50: true, VersionVC98: true,
	VersionVC70Dep: true, VersionVC70: true, VersionVC80: true, VersionVC110: true, VersionVC140: true,
}

// File is the decoded content of a dump.
type File struct {
	Signature    string `yaml:"signature" json:"signature"`
	BlockSize    uint32 `yaml:"block_size" json:"block_size"`
	FreeBlockMap uint32 `yaml:"free_block_map" json:"free_block_map"`
	NumStreams   int32  `yaml:"num_streams" json:"num_streams"`
	Version      uint32 `yaml:"version" json:"version"`
	FastLink     bool   `yaml:"fastlink,omitempty" json:"fastlink,omitempty"`
	// DBISignature is the version signature of the debug info stream header,
	// when the decoder recorded it.
	DBISignature *int32 `yaml:"dbi_signature,omitempty" json:"dbi_signature,omitempty"`

	Sections      []Section                 `yaml:"sections" json:"sections"`
	Modules       []Module                  `yaml:"modules" json:"modules"`
	Publics       []pdb.PublicSymbol        `yaml:"publics" json:"publics"`
	Contributions []pdb.SectionContribution `yaml:"contributions" json:"contributions"`
}

// Section is an image section header.
type Section struct {
	Name           string `yaml:"name" json:"name"`
	VirtualAddress uint32 `yaml:"virtual_address" json:"virtual_address"`
	VirtualSize    uint32 `yaml:"virtual_size" json:"virtual_size"`
}

// Module is a module info entry with its symbol stream. Stream is the MSF
// stream index of the symbols, 0 or -1 when the module has none.
type Module struct {
	Name    string             `yaml:"name" json:"name"`
	Stream  int32              `yaml:"stream" json:"stream"`
	Symbols []pdb.SymbolRecord `yaml:"symbols,omitempty" json:"symbols,omitempty"`
}

// Validate checks the superblock and info stream fields of the dump.
func (f *File) Validate() error {
	if !strings.HasPrefix(f.Signature, Signature) {
		return &pdb.ValidationError{Reason: pdb.InvalidSuperBlock, Detail: fmt.Sprintf("unexpected signature %q", f.Signature)}
	}
	switch f.BlockSize {
	case 512, 1024, 2048, 4096:
	default:
		return &pdb.ValidationError{Reason: pdb.InvalidSuperBlock, Detail: fmt.Sprintf("block size %d", f.BlockSize)}
	}
	if f.FreeBlockMap != 1 && f.FreeBlockMap != 2 {
		return &pdb.ValidationError{Reason: pdb.InvalidFreeBlockMap, Detail: fmt.Sprintf("free block map index %d", f.FreeBlockMap)}
	}
	if f.DBISignature != nil && *f.DBISignature != dbiSignature {
		return &pdb.ValidationError{Reason: pdb.InvalidSignature, Detail: fmt.Sprintf("debug info stream signature %d", *f.DBISignature)}
	}
	if !knownVersions[f.Version] {
		return &pdb.ValidationError{Reason: pdb.UnknownVersion, Detail: fmt.Sprintf("version %d", f.Version)}
	}
	for _, m := range f.Modules {
		if m.Stream < -1 || m.Stream >= f.NumStreams {
			return &pdb.ValidationError{Reason: pdb.InvalidStreamIndex, Detail: fmt.Sprintf("module %s references stream %d of %d", m.Name, m.Stream, f.NumStreams)}
		}
	}
	return nil
}

type database struct {
	file *File
}

func (d *database) Close() error {
	return nil
}

func (d *database) UsesDebugFastLink() bool {
	return d.file.FastLink
}

func (d *database) AddressTranslator() (pdb.AddressTranslator, error) {
	if d.file.Sections == nil {
		return nil, errors.New("no image section headers")
	}
	return sectionTranslator(d.file.Sections), nil
}

func (d *database) ModuleSymbols() (pdb.ModuleSymbolSource, error) {
	if d.file.Modules == nil {
		return nil, errors.New("no module info")
	}
	return moduleSource(d.file.Modules), nil
}

func (d *database) PublicSymbols() (pdb.PublicSymbolSource, error) {
	if d.file.Publics == nil {
		return nil, errors.New("no public symbol stream")
	}
	return publicSource(d.file.Publics), nil
}

func (d *database) Contributions() (pdb.ContributionSource, error) {
	if d.file.Contributions == nil {
		return nil, errors.New("no section contribution stream")
	}
	return contributionSource(d.file.Contributions), nil
}

// sectionTranslator maps 1-based section indexes to the section's virtual
// address.
type sectionTranslator []Section

func (t sectionTranslator) RVA(section uint16, offset uint32) uint32 {
	if section == 0 || int(section) > len(t) {
		return 0
	}
	return t[section-1].VirtualAddress + offset
}

type moduleSource []Module

func (s moduleSource) Modules() ([]pdb.Module, error) {
	res := make([]pdb.Module, len(s))
	for i := range s {
		res[i] = module{&s[i]}
	}
	return res, nil
}

type module struct {
	*Module
}

func (m module) Name() string {
	return m.Module.Name
}

func (m module) HasSymbolStream() bool {
	return m.Stream > 0
}

func (m module) ForEachSymbol(fn func(pdb.SymbolRecord) error) error {
	for _, rec := range m.Symbols {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

type publicSource []pdb.PublicSymbol

func (s publicSource) ForEachPublic(fn func(pdb.PublicSymbol) error) error {
	for _, p := range s {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

type contributionSource []pdb.SectionContribution

func (s contributionSource) ForEachContribution(fn func(pdb.SectionContribution) error) error {
	for _, c := range s {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}
