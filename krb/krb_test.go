package krb

import (
	"errors"
	"strings"
	"testing"
)

// testDocument builds a small but fully featured document: two styles with
// an extends edge and a hover overlay, one script, one resource, and three
// elements where two share a property block.
func testDocument() *Document {
	doc := &Document{
		PropBlocks: make(map[uint32]*PropBlock),
	}
	doc.Header.VersionMajor = SpecVersionMajor
	doc.Header.VersionMinor = SpecVersionMinor
	doc.Strings = []string{
		"app",          // 0
		"base",         // 1
		"accent",       // 2
		"Hello",        // 3
		"main.lua",     // 4
		"print('hi')",  // 5
		"on_click",     // 6
		"logo.png",     // 7
		"title",        // 8
	}

	doc.PropBlocks[0] = &PropBlock{Offset: 0, Properties: []Property{
		{Key: PropBackgroundColor, ValueType: ValTypeColor, Value: EncodeColor(Color{30, 30, 30, 255})},
		{Key: PropFontSize, ValueType: ValTypeFloat, Value: EncodeFloat(16)},
	}}
	doc.PropBlocks[100] = &PropBlock{Offset: 100, Properties: []Property{
		{Key: PropTextColor, ValueType: ValTypeColor, Value: EncodeColor(Color{255, 0, 0, 255})},
	}}
	doc.PropBlocks[200] = &PropBlock{Offset: 200, Properties: []Property{
		{Key: PropTextContent, ValueType: ValTypeString, Value: EncodeU16(3)},
	}}

	doc.Styles = []Style{
		{ID: 1, NameIndex: 1, PropBlock: 0},
		{ID: 2, NameIndex: 2, Extends: []uint16{1}, PropBlock: 100,
			Pseudos: []PseudoVariant{{State: PseudoHover, PropBlock: 100}}},
	}
	doc.Resources = []Resource{
		{Type: ResTypeImage, Format: ResFormatExternal, NameIndex: 8, DataIndex: 7},
	}
	doc.Scripts = []Script{
		{Lang: ScriptLangLua, NameIndex: 4, SourceIndex: 5, Entries: []uint16{6}},
	}
	doc.Elements = []Element{
		{Kind: ElemKindApp, IDIndex: 0, StyleID: 1, ParentIdx: NoParentIndex, ChildCount: 2, PropBlock: NoPropBlock},
		{Kind: ElemKindText, IDIndex: NoStringIndex, StyleID: 2, ParentIdx: 0, PropBlock: 200,
			Events: []EventBinding{{Kind: EventKindClick, Function: 6}}},
		{Kind: ElemKindText, IDIndex: NoStringIndex, StyleID: 0, ParentIdx: 0, PropBlock: 200},
	}
	return doc
}

func mustWrite(t *testing.T, doc *Document) []byte {
	t.Helper()
	data, err := WriteDocument(doc)
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	return data
}

func TestRoundTrip(t *testing.T) {
	orig := testDocument()
	data := mustWrite(t, orig)

	doc, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(doc.Strings) != len(orig.Strings) {
		t.Fatalf("string count = %d, want %d", len(doc.Strings), len(orig.Strings))
	}
	if got := doc.StringAt(3); got != "Hello" {
		t.Errorf("StringAt(3) = %q, want %q", got, "Hello")
	}
	if len(doc.Styles) != 2 || len(doc.Scripts) != 1 || len(doc.Resources) != 1 {
		t.Fatalf("table sizes = %d styles, %d scripts, %d resources",
			len(doc.Styles), len(doc.Scripts), len(doc.Resources))
	}
	if doc.Styles[1].Extends[0] != 1 {
		t.Errorf("style 2 extends = %v, want [1]", doc.Styles[1].Extends)
	}
	if doc.Styles[1].Pseudos[0].State != PseudoHover {
		t.Errorf("style 2 pseudo state = %v, want hover", doc.Styles[1].Pseudos[0].State)
	}
	if len(doc.Elements) != 3 {
		t.Fatalf("element count = %d, want 3", len(doc.Elements))
	}
	// Elements 1 and 2 referenced the same pool block; sharing survives.
	if doc.Elements[1].PropBlock != doc.Elements[2].PropBlock {
		t.Errorf("shared block split: %d vs %d", doc.Elements[1].PropBlock, doc.Elements[2].PropBlock)
	}
	b1, ok := doc.BlockAt(doc.Elements[1].PropBlock)
	if !ok {
		t.Fatal("element 1 block missing")
	}
	if idx, ok := b1.Properties[0].AsU16(); !ok || doc.StringAt(idx) != "Hello" {
		t.Errorf("text content = %v, want Hello", b1.Properties[0])
	}

	// Second trip is byte-identical: parse ∘ serialize is stable.
	again := mustWrite(t, doc)
	if string(again) != string(data) {
		t.Error("second serialization differs from first")
	}
}

func TestRoundTripCompressedStrings(t *testing.T) {
	orig := testDocument()
	orig.Header.VersionMinor |= MinorCompressedBit
	data := mustWrite(t, orig)

	doc, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument(compressed): %v", err)
	}
	if got := doc.StringAt(3); got != "Hello" {
		t.Errorf("StringAt(3) = %q, want %q", got, "Hello")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func([]byte) []byte
		kind    ErrorKind
		offset  int // -1 to skip the offset check
	}{
		{
			name: "malformed magic",
			corrupt: func(b []byte) []byte {
				b[0] = 'X'
				return b
			},
			kind:   ErrMalformedHeader,
			offset: 0,
		},
		{
			name: "unsupported major version",
			corrupt: func(b []byte) []byte {
				b[4] = 99
				return b
			},
			kind:   ErrUnsupportedVersion,
			offset: 4,
		},
		{
			name: "truncated buffer",
			corrupt: func(b []byte) []byte {
				return b[:len(b)-10]
			},
			kind:   ErrTruncatedSection,
			offset: -1,
		},
		{
			name: "empty buffer",
			corrupt: func(b []byte) []byte {
				return nil
			},
			kind:   ErrMalformedHeader,
			offset: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.corrupt(mustWrite(t, testDocument()))
			_, err := ParseDocument(data)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", pe.Kind, tt.kind)
			}
			if tt.offset >= 0 && pe.Offset != tt.offset {
				t.Errorf("offset = %d, want %d", pe.Offset, tt.offset)
			}
		})
	}
}

func TestCyclicStyleRejected(t *testing.T) {
	doc := testDocument()
	// 1 -> 2 -> 1
	doc.Styles[0].Extends = []uint16{2}
	data := mustWrite(t, doc)

	_, err := ParseDocument(data)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ErrCyclicStyle {
		t.Fatalf("err = %v, want CyclicStyle", err)
	}
}

func TestDanglingExtendsDegrades(t *testing.T) {
	doc := testDocument()
	doc.Styles[1].Extends = []uint16{99}
	data := mustWrite(t, doc)

	parsed, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("dangling extends should not abort load: %v", err)
	}
	found := false
	for _, w := range parsed.Warnings {
		if strings.Contains(w, "extends unknown style") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a dangling-extends warning, got %v", parsed.Warnings)
	}
}

func TestUnknownPropertyKeySkipped(t *testing.T) {
	doc := testDocument()
	doc.PropBlocks[200].Properties = append(doc.PropBlocks[200].Properties,
		Property{Key: 0xBEEF, ValueType: ValTypeFloat, Value: EncodeFloat(1)})
	data := mustWrite(t, doc)

	parsed, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("unknown key should not abort load: %v", err)
	}
	blk, ok := parsed.BlockAt(parsed.Elements[1].PropBlock)
	if !ok {
		t.Fatal("block missing")
	}
	for _, p := range blk.Properties {
		if p.Key == 0xBEEF {
			t.Error("unknown key survived the parse")
		}
	}
	found := false
	for _, w := range parsed.Warnings {
		if strings.Contains(w, "unknown property key") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unknown-key warning, got %v", parsed.Warnings)
	}
}

func TestUnknownSectionSkipped(t *testing.T) {
	data := mustWrite(t, testDocument())
	// Rewrite the styles descriptor kind to an unknown value; content becomes
	// an opaque blob the reader must step over.
	for i := 0; i < int(data[6]); i++ {
		at := HeaderSize + i*SectionDescSize
		if SectionKind(data[at]) == SectionStyles {
			data[at] = 0x7F
			break
		}
	}
	parsed, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("unknown section should not abort load: %v", err)
	}
	if len(parsed.Styles) != 0 {
		t.Errorf("styles parsed from a section marked unknown")
	}
	found := false
	for _, w := range parsed.Warnings {
		if strings.Contains(w, "unknown section") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unknown-section warning, got %v", parsed.Warnings)
	}
}

func TestBadUtf8(t *testing.T) {
	doc := testDocument()
	doc.Strings[3] = string([]byte{0xFF, 0xFE, 0x80})
	data := mustWrite(t, doc)

	_, err := ParseDocument(data)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ErrBadUtf8 {
		t.Fatalf("err = %v, want BadUtf8", err)
	}
}

func TestValueCodecs(t *testing.T) {
	p := Property{Key: PropWidth, ValueType: ValTypeLength, Value: EncodeLength(Percent(50))}
	l, ok := p.AsLength()
	if !ok || l.Unit != UnitPercent || l.Value != 50 {
		t.Errorf("AsLength = %+v ok=%t", l, ok)
	}

	e := Edges{Top: Px(1), Right: Px(2), Bottom: Px(3), Left: Px(4)}
	p = Property{Key: PropPadding, ValueType: ValTypeEdges, Value: EncodeEdges(e)}
	got, ok := p.AsEdges()
	if !ok || got != e {
		t.Errorf("AsEdges = %+v ok=%t", got, ok)
	}

	p = Property{Key: PropZIndex, ValueType: ValTypeInt, Value: EncodeInt(-7)}
	if v, ok := p.AsInt(); !ok || v != -7 {
		t.Errorf("AsInt = %d ok=%t", v, ok)
	}
}
