// krb/reader.go

package krb

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// cursor is a bounds-checked reader over one section of the input buffer.
// Offsets reported in errors are absolute file offsets.
type cursor struct {
	data []byte
	pos  int
	base int // absolute offset of data[0]
}

func (c *cursor) abs() int { return c.base + c.pos }

func (c *cursor) need(n int) error {
	if c.pos+n > len(c.data) {
		return parseErr(ErrTruncatedSection, c.abs(), "need %d bytes, %d remain", n, len(c.data)-c.pos)
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) take(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ParseDocument parses a complete KRB buffer. It either returns a fully
// populated document or a typed *ParseError locating the offending bytes; no
// partially built document escapes.
func ParseDocument(data []byte) (*Document, error) {
	if len(data) < HeaderSize {
		return nil, parseErr(ErrMalformedHeader, 0, "buffer shorter than header (%d bytes)", len(data))
	}

	doc := &Document{PropBlocks: make(map[uint32]*PropBlock)}
	copy(doc.Header.Magic[:], data[0:4])
	if !bytes.Equal(doc.Header.Magic[:], MagicNumber[:]) {
		return nil, parseErr(ErrMalformedHeader, 0, "bad magic %q", doc.Header.Magic)
	}
	doc.Header.VersionMajor = data[4]
	doc.Header.VersionMinor = data[5]
	doc.Header.SectionCount = binary.LittleEndian.Uint16(data[6:8])

	if doc.Header.VersionMajor != SpecVersionMajor {
		return nil, parseErr(ErrUnsupportedVersion, 4, "file is v%d.%d, reader expects v%d.x",
			doc.Header.VersionMajor, doc.Header.VersionMinor&MinorVersionMask, SpecVersionMajor)
	}

	// Section table.
	tableEnd := HeaderSize + int(doc.Header.SectionCount)*SectionDescSize
	if tableEnd > len(data) {
		return nil, parseErr(ErrTruncatedSection, HeaderSize, "section table extends past end of buffer")
	}
	sections := make(map[SectionKind]Section)
	for i := 0; i < int(doc.Header.SectionCount); i++ {
		at := HeaderSize + i*SectionDescSize
		sec := Section{
			Kind:   SectionKind(data[at]),
			Flags:  data[at+1],
			Offset: binary.LittleEndian.Uint32(data[at+2:]),
			Length: binary.LittleEndian.Uint32(data[at+6:]),
		}
		if int(sec.Offset)+int(sec.Length) > len(data) {
			return nil, parseErr(ErrTruncatedSection, at, "section 0x%02X body [%d,%d) past end of buffer",
				sec.Kind, sec.Offset, sec.Offset+sec.Length)
		}
		switch sec.Kind {
		case SectionStrings, SectionStyles, SectionResources, SectionScripts, SectionElements, SectionPropBlocks:
			sections[sec.Kind] = sec
		default:
			// Forward compatibility: unknown sections are skipped, not fatal.
			doc.warnf("skipping unknown section kind 0x%02X at offset %d", sec.Kind, sec.Offset)
		}
		doc.Sections = append(doc.Sections, sec)
	}

	if sec, ok := sections[SectionStrings]; ok {
		if err := doc.readStrings(data, sec); err != nil {
			return nil, err
		}
	}
	if sec, ok := sections[SectionPropBlocks]; ok {
		if err := doc.readPropBlocks(data, sec); err != nil {
			return nil, err
		}
	}
	if sec, ok := sections[SectionStyles]; ok {
		if err := doc.readStyles(data, sec); err != nil {
			return nil, err
		}
	}
	if sec, ok := sections[SectionResources]; ok {
		if err := doc.readResources(data, sec); err != nil {
			return nil, err
		}
	}
	if sec, ok := sections[SectionScripts]; ok {
		if err := doc.readScripts(data, sec); err != nil {
			return nil, err
		}
	}
	if sec, ok := sections[SectionElements]; ok {
		if err := doc.readElements(data, sec); err != nil {
			return nil, err
		}
	}

	if err := doc.validateStyles(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Document) warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

func (d *Document) readStrings(data []byte, sec Section) error {
	body := data[sec.Offset : sec.Offset+sec.Length]
	base := int(sec.Offset)

	if d.Header.VersionMinor&MinorCompressedBit != 0 {
		if len(body) < 4 {
			return parseErr(ErrTruncatedSection, base, "compressed string table shorter than stream tag")
		}
		var tag [4]byte
		copy(tag[:], body[:4])
		if tag != CompressionTagZlib {
			return parseErr(ErrMalformedHeader, base, "unknown string compression tag %q", tag)
		}
		zr, err := zlib.NewReader(bytes.NewReader(body[4:]))
		if err != nil {
			return parseErr(ErrTruncatedSection, base+4, "zlib stream: %v", err)
		}
		defer zr.Close()
		body, err = io.ReadAll(zr)
		if err != nil {
			return parseErr(ErrTruncatedSection, base+4, "zlib stream: %v", err)
		}
		base = 0 // offsets inside a decompressed body are not file offsets
	}

	cur := &cursor{data: body, base: base}
	count, err := cur.u32()
	if err != nil {
		return err
	}
	d.Strings = make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		slen, err := cur.u16()
		if err != nil {
			return err
		}
		at := cur.abs()
		raw, err := cur.take(int(slen))
		if err != nil {
			return err
		}
		if !utf8.Valid(raw) {
			return parseErr(ErrBadUtf8, at, "string %d is not valid UTF-8", i)
		}
		d.Strings = append(d.Strings, string(raw))
	}
	return nil
}

func (d *Document) readPropBlocks(data []byte, sec Section) error {
	cur := &cursor{data: data[sec.Offset : sec.Offset+sec.Length], base: int(sec.Offset)}
	for cur.pos < len(cur.data) {
		blockOffset := uint32(cur.pos)
		count, err := cur.u16()
		if err != nil {
			return err
		}
		block := &PropBlock{Offset: blockOffset}
		for j := uint16(0); j < count; j++ {
			key, err := cur.u16()
			if err != nil {
				return err
			}
			vt, err := cur.u8()
			if err != nil {
				return err
			}
			size, err := cur.u8()
			if err != nil {
				return err
			}
			val, err := cur.take(int(size))
			if err != nil {
				return err
			}
			if !KnownKey(PropertyKey(key)) {
				// Unknown keys are skipped with a warning, never fatal.
				d.warnf("skipping unknown property key 0x%04X in block %d", key, blockOffset)
				continue
			}
			cp := make([]byte, len(val))
			copy(cp, val)
			block.Properties = append(block.Properties, Property{
				Key:       PropertyKey(key),
				ValueType: ValueType(vt),
				Value:     cp,
			})
		}
		// Blocks are deduplicated by pool offset; elements sharing a block
		// share the parsed record.
		d.PropBlocks[blockOffset] = block
	}
	return nil
}

func (d *Document) readStyles(data []byte, sec Section) error {
	cur := &cursor{data: data[sec.Offset : sec.Offset+sec.Length], base: int(sec.Offset)}
	count, err := cur.u16()
	if err != nil {
		return err
	}
	d.Styles = make([]Style, 0, count)
	for i := uint16(0); i < count; i++ {
		var st Style
		if st.ID, err = cur.u16(); err != nil {
			return err
		}
		at := cur.abs()
		if st.NameIndex, err = cur.u16(); err != nil {
			return err
		}
		if int(st.NameIndex) >= len(d.Strings) {
			return parseErr(ErrDanglingReference, at, "style %d name index %d out of range", st.ID, st.NameIndex)
		}
		extCount, err := cur.u8()
		if err != nil {
			return err
		}
		for j := uint8(0); j < extCount; j++ {
			ext, err := cur.u16()
			if err != nil {
				return err
			}
			st.Extends = append(st.Extends, ext)
		}
		pseudoCount, err := cur.u8()
		if err != nil {
			return err
		}
		for j := uint8(0); j < pseudoCount; j++ {
			state, err := cur.u8()
			if err != nil {
				return err
			}
			at := cur.abs()
			blk, err := cur.u32()
			if err != nil {
				return err
			}
			if _, ok := d.PropBlocks[blk]; !ok {
				return parseErr(ErrDanglingReference, at, "style %d pseudo 0x%02X references missing block %d", st.ID, state, blk)
			}
			st.Pseudos = append(st.Pseudos, PseudoVariant{State: PseudoState(state), PropBlock: blk})
		}
		at = cur.abs()
		if st.PropBlock, err = cur.u32(); err != nil {
			return err
		}
		if st.PropBlock != NoPropBlock {
			if _, ok := d.PropBlocks[st.PropBlock]; !ok {
				return parseErr(ErrDanglingReference, at, "style %d references missing block %d", st.ID, st.PropBlock)
			}
		}
		d.Styles = append(d.Styles, st)
	}
	return nil
}

func (d *Document) readResources(data []byte, sec Section) error {
	cur := &cursor{data: data[sec.Offset : sec.Offset+sec.Length], base: int(sec.Offset)}
	count, err := cur.u16()
	if err != nil {
		return err
	}
	d.Resources = make([]Resource, 0, count)
	for i := uint16(0); i < count; i++ {
		var res Resource
		t, err := cur.u8()
		if err != nil {
			return err
		}
		f, err := cur.u8()
		if err != nil {
			return err
		}
		res.Type = ResourceType(t)
		res.Format = ResourceFormat(f)
		at := cur.abs()
		if res.NameIndex, err = cur.u16(); err != nil {
			return err
		}
		if int(res.NameIndex) >= len(d.Strings) {
			return parseErr(ErrDanglingReference, at, "resource %d name index %d out of range", i, res.NameIndex)
		}
		at = cur.abs()
		if res.DataIndex, err = cur.u16(); err != nil {
			return err
		}
		if res.Format == ResFormatExternal && int(res.DataIndex) >= len(d.Strings) {
			return parseErr(ErrDanglingReference, at, "resource %d data index %d out of range", i, res.DataIndex)
		}
		inlineLen, err := cur.u32()
		if err != nil {
			return err
		}
		if inlineLen > 0 {
			raw, err := cur.take(int(inlineLen))
			if err != nil {
				return err
			}
			res.InlineData = make([]byte, len(raw))
			copy(res.InlineData, raw)
		}
		d.Resources = append(d.Resources, res)
	}
	return nil
}

func (d *Document) readScripts(data []byte, sec Section) error {
	cur := &cursor{data: data[sec.Offset : sec.Offset+sec.Length], base: int(sec.Offset)}
	count, err := cur.u16()
	if err != nil {
		return err
	}
	d.Scripts = make([]Script, 0, count)
	for i := uint16(0); i < count; i++ {
		var sc Script
		lang, err := cur.u8()
		if err != nil {
			return err
		}
		sc.Lang = ScriptLang(lang)
		at := cur.abs()
		if sc.NameIndex, err = cur.u16(); err != nil {
			return err
		}
		if int(sc.NameIndex) >= len(d.Strings) {
			return parseErr(ErrDanglingReference, at, "script %d name index %d out of range", i, sc.NameIndex)
		}
		at = cur.abs()
		if sc.SourceIndex, err = cur.u16(); err != nil {
			return err
		}
		if int(sc.SourceIndex) >= len(d.Strings) {
			return parseErr(ErrDanglingReference, at, "script %d source index %d out of range", i, sc.SourceIndex)
		}
		entryCount, err := cur.u16()
		if err != nil {
			return err
		}
		for j := uint16(0); j < entryCount; j++ {
			at := cur.abs()
			entry, err := cur.u16()
			if err != nil {
				return err
			}
			if int(entry) >= len(d.Strings) {
				return parseErr(ErrDanglingReference, at, "script %d entry index %d out of range", i, entry)
			}
			sc.Entries = append(sc.Entries, entry)
		}
		d.Scripts = append(d.Scripts, sc)
	}
	return nil
}

func (d *Document) readElements(data []byte, sec Section) error {
	cur := &cursor{data: data[sec.Offset : sec.Offset+sec.Length], base: int(sec.Offset)}
	count, err := cur.u32()
	if err != nil {
		return err
	}
	d.Elements = make([]Element, 0, count)
	for i := uint32(0); i < count; i++ {
		var el Element
		kind, err := cur.u8()
		if err != nil {
			return err
		}
		el.Kind = ElementKind(kind)
		at := cur.abs()
		if el.IDIndex, err = cur.u16(); err != nil {
			return err
		}
		if el.IDIndex != NoStringIndex && int(el.IDIndex) >= len(d.Strings) {
			return parseErr(ErrDanglingReference, at, "element %d id index %d out of range", i, el.IDIndex)
		}
		if el.StyleID, err = cur.u16(); err != nil {
			return err
		}
		at = cur.abs()
		if el.ParentIdx, err = cur.u32(); err != nil {
			return err
		}
		if el.ParentIdx != NoParentIndex && el.ParentIdx >= count {
			return parseErr(ErrDanglingReference, at, "element %d parent index %d out of range", i, el.ParentIdx)
		}
		if el.ParentIdx != NoParentIndex && el.ParentIdx >= i {
			return parseErr(ErrDanglingReference, at, "element %d parent index %d does not precede it", i, el.ParentIdx)
		}
		if el.ChildCount, err = cur.u16(); err != nil {
			return err
		}
		at = cur.abs()
		if el.PropBlock, err = cur.u32(); err != nil {
			return err
		}
		if el.PropBlock != NoPropBlock {
			if _, ok := d.PropBlocks[el.PropBlock]; !ok {
				return parseErr(ErrDanglingReference, at, "element %d references missing block %d", i, el.PropBlock)
			}
		}
		eventCount, err := cur.u8()
		if err != nil {
			return err
		}
		for j := uint8(0); j < eventCount; j++ {
			ek, err := cur.u8()
			if err != nil {
				return err
			}
			at := cur.abs()
			fn, err := cur.u16()
			if err != nil {
				return err
			}
			if int(fn) >= len(d.Strings) {
				return parseErr(ErrDanglingReference, at, "element %d event function index %d out of range", i, fn)
			}
			el.Events = append(el.Events, EventBinding{Kind: EventKind(ek), Function: fn})
		}
		customCount, err := cur.u8()
		if err != nil {
			return err
		}
		for j := uint8(0); j < customCount; j++ {
			at := cur.abs()
			key, err := cur.u16()
			if err != nil {
				return err
			}
			val, err := cur.u16()
			if err != nil {
				return err
			}
			if int(key) >= len(d.Strings) || int(val) >= len(d.Strings) {
				return parseErr(ErrDanglingReference, at, "element %d custom property indexes (%d,%d) out of range", i, key, val)
			}
			el.Customs = append(el.Customs, CustomProperty{KeyIndex: key, ValueIndex: val})
		}
		// Style references degrade to defaults at resolve time; report once.
		if el.StyleID != NoStyleID {
			if _, ok := d.StyleByID(el.StyleID); !ok {
				d.warnf("element %d references unknown style %d", i, el.StyleID)
			}
		}
		d.Elements = append(d.Elements, el)
	}

	// Verify declared child counts against actual parent links.
	actual := make([]uint16, count)
	for i := range d.Elements {
		if p := d.Elements[i].ParentIdx; p != NoParentIndex {
			actual[p]++
		}
	}
	for i := range d.Elements {
		if d.Elements[i].ChildCount != actual[i] {
			d.warnf("element %d declares %d children, %d found", i, d.Elements[i].ChildCount, actual[i])
			d.Elements[i].ChildCount = actual[i]
		}
	}
	return nil
}

// validateStyles rejects documents whose extends graph has a cycle and warns
// once about dangling extends references (those degrade at resolution).
func (d *Document) validateStyles() error {
	byID := make(map[uint16]*Style, len(d.Styles))
	for i := range d.Styles {
		byID[d.Styles[i].ID] = &d.Styles[i]
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[uint16]int, len(d.Styles))

	var walk func(id uint16, depth int) error
	walk = func(id uint16, depth int) error {
		if depth > MaxStyleChainDepth {
			return parseErr(ErrCyclicStyle, 0, "style %d extends chain exceeds depth %d", id, MaxStyleChainDepth)
		}
		switch state[id] {
		case visiting:
			return parseErr(ErrCyclicStyle, 0, "style %d participates in an extends cycle", id)
		case done:
			return nil
		}
		state[id] = visiting
		st := byID[id]
		for _, ext := range st.Extends {
			parent, ok := byID[ext]
			if !ok {
				d.warnf("style %d extends unknown style %d", id, ext)
				continue
			}
			if err := walk(parent.ID, depth+1); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for i := range d.Styles {
		if err := walk(d.Styles[i].ID, 0); err != nil {
			return err
		}
	}
	return nil
}
