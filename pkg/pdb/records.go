package pdb

import (
	"fmt"
	"strconv"
	"strings"
)

// SymbolRecordKind identifies the type of a CodeView symbol record.
type SymbolRecordKind uint16

// Kinds a decoder commonly emits for a module stream. Only the procedure,
// thunk and trampoline kinds describe functions; the merger skips the rest.
const (
	S_PUB32        SymbolRecordKind = 0x110e
	S_THUNK32      SymbolRecordKind = 0x1102
	S_LPROC32      SymbolRecordKind = 0x110f
	S_GPROC32      SymbolRecordKind = 0x1110
	S_TRAMPOLINE   SymbolRecordKind = 0x112c
	S_LPROC32_ID   SymbolRecordKind = 0x1146
	S_GPROC32_ID   SymbolRecordKind = 0x1147
	S_PROC_ID_END  SymbolRecordKind = 0x114f
	S_END          SymbolRecordKind = 0x0006
	S_OBJNAME      SymbolRecordKind = 0x1101
	S_COMPILE3     SymbolRecordKind = 0x113c
	S_LDATA32      SymbolRecordKind = 0x110c
	S_GDATA32      SymbolRecordKind = 0x110d
	S_FRAMEPROC    SymbolRecordKind = 0x1012
	S_SECTION      SymbolRecordKind = 0x1136
	S_COFFGROUP    SymbolRecordKind = 0x1137
	S_BUILDINFO    SymbolRecordKind = 0x114c
	S_INLINESITE   SymbolRecordKind = 0x114d
	S_REGREL32     SymbolRecordKind = 0x1111
	S_UDT          SymbolRecordKind = 0x1108
	S_CONSTANT     SymbolRecordKind = 0x1107
	S_LABEL32      SymbolRecordKind = 0x1105
	S_BLOCK32      SymbolRecordKind = 0x1103
	S_LOCAL        SymbolRecordKind = 0x113e
	S_EXPORT       SymbolRecordKind = 0x1138
	S_CALLSITEINFO SymbolRecordKind = 0x1139
)

var kindNames = map[SymbolRecordKind]string{
	S_PUB32:        "S_PUB32",
	S_THUNK32:      "S_THUNK32",
	S_LPROC32:      "S_LPROC32",
	S_GPROC32:      "S_GPROC32",
	S_TRAMPOLINE:   "S_TRAMPOLINE",
	S_LPROC32_ID:   "S_LPROC32_ID",
	S_GPROC32_ID:   "S_GPROC32_ID",
	S_PROC_ID_END:  "S_PROC_ID_END",
	S_END:          "S_END",
	S_OBJNAME:      "S_OBJNAME",
	S_COMPILE3:     "S_COMPILE3",
	S_LDATA32:      "S_LDATA32",
	S_GDATA32:      "S_GDATA32",
	S_FRAMEPROC:    "S_FRAMEPROC",
	S_SECTION:      "S_SECTION",
	S_COFFGROUP:    "S_COFFGROUP",
	S_BUILDINFO:    "S_BUILDINFO",
	S_INLINESITE:   "S_INLINESITE",
	S_REGREL32:     "S_REGREL32",
	S_UDT:          "S_UDT",
	S_CONSTANT:     "S_CONSTANT",
	S_LABEL32:      "S_LABEL32",
	S_BLOCK32:      "S_BLOCK32",
	S_LOCAL:        "S_LOCAL",
	S_EXPORT:       "S_EXPORT",
	S_CALLSITEINFO: "S_CALLSITEINFO",
}

func (k SymbolRecordKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("0x%04x", uint16(k))
}

func (k SymbolRecordKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts either a kind name (S_GPROC32) or a raw numeric
// value (0x1110). JSON numbers are handled by UnmarshalJSON.
func (k *SymbolRecordKind) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	for kind, name := range kindNames {
		if strings.EqualFold(name, s) {
			*k = kind
			return nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return fmt.Errorf("unknown symbol record kind %q", s)
	}
	*k = SymbolRecordKind(v)
	return nil
}

// UnmarshalJSON accepts a JSON string in any form UnmarshalText does, or a
// JSON number.
func (k *SymbolRecordKind) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		return nil
	case strings.HasPrefix(s, `"`):
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid symbol record kind %s", s)
		}
		return k.UnmarshalText([]byte(unquoted))
	default:
		return k.UnmarshalText([]byte(s))
	}
}

// ThunkOrdinal is the CodeView THUNK_ORDINAL of an S_THUNK32 record.
type ThunkOrdinal uint8

const (
	ThunkNoType ThunkOrdinal = iota
	ThunkAdjustor
	ThunkVCall
	ThunkPCode
	ThunkLoad
	ThunkTrampolineIncremental
	ThunkTrampolineBranchIsland
)

// PublicSymbolFlags are the CV_PUBSYMFLAGS of an S_PUB32 record.
type PublicSymbolFlags uint32

const (
	PublicCode PublicSymbolFlags = 1 << iota
	PublicFunction
	PublicManaged
	PublicMSIL
)

// SymbolRecord is a decoded module symbol record. Fields that a kind does
// not carry are left zero.
type SymbolRecord struct {
	Kind SymbolRecordKind `yaml:"kind" json:"kind"`
	Name string           `yaml:"name,omitempty" json:"name,omitempty"`

	// S_*PROC32*, S_THUNK32
	Section  uint16 `yaml:"section,omitempty" json:"section,omitempty"`
	Offset   uint32 `yaml:"offset,omitempty" json:"offset,omitempty"`
	CodeSize uint32 `yaml:"code_size,omitempty" json:"code_size,omitempty"`

	// S_THUNK32
	Thunk ThunkOrdinal `yaml:"thunk,omitempty" json:"thunk,omitempty"`

	// S_TRAMPOLINE
	ThunkSection uint16 `yaml:"thunk_section,omitempty" json:"thunk_section,omitempty"`
	ThunkOffset  uint32 `yaml:"thunk_offset,omitempty" json:"thunk_offset,omitempty"`
}

// PublicSymbol is a decoded S_PUB32 record of the public symbol stream.
type PublicSymbol struct {
	Name    string            `yaml:"name" json:"name"`
	Section uint16            `yaml:"section" json:"section"`
	Offset  uint32            `yaml:"offset" json:"offset"`
	Flags   PublicSymbolFlags `yaml:"flags" json:"flags"`
}

func (p PublicSymbol) IsFunction() bool {
	return p.Flags&PublicFunction != 0
}

// SectionContribution describes the address range an object contributed to
// an image section.
type SectionContribution struct {
	Section uint16 `yaml:"section" json:"section"`
	Offset  uint32 `yaml:"offset" json:"offset"`
	Size    uint32 `yaml:"size" json:"size"`
	Module  uint16 `yaml:"module,omitempty" json:"module,omitempty"`
}
