// krb/types.go

package krb

// Header is the fixed 8-byte file header followed by the section table.
type Header struct {
	Magic        [4]byte
	VersionMajor uint8
	VersionMinor uint8 // low 7 bits; bit 7 marks a compressed string table
	SectionCount uint16
}

const HeaderSize = 8

// Section describes one section in the file table.
type Section struct {
	Kind   SectionKind
	Flags  uint8
	Offset uint32
	Length uint32
}

const SectionDescSize = 10

// Property is one decoded property entry. Value interpretation depends on
// ValueType; the raw bytes are kept so entries whose value type the reader
// does not interpret survive a round trip. Entries with unknown keys are
// dropped at parse.
type Property struct {
	Key       PropertyKey
	ValueType ValueType
	Value     []byte
}

// PropBlock is a shared property block from the pool, keyed by its byte
// offset within the pool section.
type PropBlock struct {
	Offset     uint32
	Properties []Property
}

// PseudoVariant is a pseudo-class overlay inside a style record.
type PseudoVariant struct {
	State     PseudoState
	PropBlock uint32
}

// Style is a named property bundle, possibly extending other styles.
type Style struct {
	ID        uint16
	NameIndex uint16
	Extends   []uint16
	Pseudos   []PseudoVariant
	PropBlock uint32
}

// Resource is an entry in the resource table. Inline bytes are materialized
// lazily by the runtime; the parser only captures them.
type Resource struct {
	Type       ResourceType
	Format     ResourceFormat
	NameIndex  uint16
	DataIndex  uint16
	InlineData []byte
}

// Script is one embedded script module.
type Script struct {
	Lang        ScriptLang
	NameIndex   uint16
	SourceIndex uint16
	Entries     []uint16 // exported function names, string table indexes
}

// EventBinding maps an event kind to a script function name.
type EventBinding struct {
	Kind     EventKind
	Function uint16 // string table index
}

// CustomProperty is a string key/value pair on a custom-component instance.
// Both sides are string table indexes.
type CustomProperty struct {
	KeyIndex   uint16
	ValueIndex uint16
}

// Element is one element record in document order.
type Element struct {
	Kind       ElementKind
	IDIndex    uint16 // NoStringIndex when the element has no id
	StyleID    uint16 // NoStyleID when unstyled
	ParentIdx  uint32 // NoParentIndex for the root
	ChildCount uint16
	PropBlock  uint32 // NoPropBlock when the element has no inline properties
	Events     []EventBinding
	Customs    []CustomProperty
}

// Document holds the entire parsed KRB file in memory. The string and
// resource tables are immutable post-load.
type Document struct {
	Header     Header
	Sections   []Section
	Strings    []string
	Styles     []Style
	Resources  []Resource
	Scripts    []Script
	Elements   []Element
	PropBlocks map[uint32]*PropBlock

	// Warnings collected during the load: unknown sections, unknown
	// property keys, dangling style names. Reported once per document.
	Warnings []string
}

// StringAt returns the interned string at idx, or "" for the sentinel and
// out-of-range indexes.
func (d *Document) StringAt(idx uint16) string {
	if idx == NoStringIndex || int(idx) >= len(d.Strings) {
		return ""
	}
	return d.Strings[idx]
}

// StyleByID returns the style record with the given 1-based id.
func (d *Document) StyleByID(id uint16) (*Style, bool) {
	if id == NoStyleID {
		return nil, false
	}
	for i := range d.Styles {
		if d.Styles[i].ID == id {
			return &d.Styles[i], true
		}
	}
	return nil, false
}

// BlockAt returns the shared property block at the given pool offset.
func (d *Document) BlockAt(offset uint32) (*PropBlock, bool) {
	if offset == NoPropBlock {
		return nil, false
	}
	b, ok := d.PropBlocks[offset]
	return b, ok
}
