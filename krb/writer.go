// krb/writer.go

package krb

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"sort"
)

// WriteDocument serializes a document back to KRB bytes. The output parses
// to a structurally equal document; property-block pool offsets are
// reassigned but sharing is preserved.
func WriteDocument(doc *Document) ([]byte, error) {
	var strBody, poolBody, styleBody, resBody, scriptBody, elemBody bytes.Buffer

	// String table, optionally compressed per the header's minor byte.
	var raw bytes.Buffer
	writeU32(&raw, uint32(len(doc.Strings)))
	for _, s := range doc.Strings {
		writeU16(&raw, uint16(len(s)))
		raw.WriteString(s)
	}
	if doc.Header.VersionMinor&MinorCompressedBit != 0 {
		strBody.Write(CompressionTagZlib[:])
		zw := zlib.NewWriter(&strBody)
		if _, err := zw.Write(raw.Bytes()); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	} else {
		strBody.Write(raw.Bytes())
	}

	// Property-block pool. Blocks are emitted in ascending old-offset order
	// and references are remapped so shared blocks stay shared.
	oldOffsets := make([]uint32, 0, len(doc.PropBlocks))
	for off := range doc.PropBlocks {
		oldOffsets = append(oldOffsets, off)
	}
	sort.Slice(oldOffsets, func(i, j int) bool { return oldOffsets[i] < oldOffsets[j] })
	remap := make(map[uint32]uint32, len(oldOffsets))
	for _, off := range oldOffsets {
		block := doc.PropBlocks[off]
		remap[off] = uint32(poolBody.Len())
		writeU16(&poolBody, uint16(len(block.Properties)))
		for _, p := range block.Properties {
			writeU16(&poolBody, uint16(p.Key))
			poolBody.WriteByte(byte(p.ValueType))
			poolBody.WriteByte(byte(len(p.Value)))
			poolBody.Write(p.Value)
		}
	}
	mapBlock := func(off uint32) uint32 {
		if off == NoPropBlock {
			return NoPropBlock
		}
		return remap[off]
	}

	writeU16(&styleBody, uint16(len(doc.Styles)))
	for _, st := range doc.Styles {
		writeU16(&styleBody, st.ID)
		writeU16(&styleBody, st.NameIndex)
		styleBody.WriteByte(byte(len(st.Extends)))
		for _, ext := range st.Extends {
			writeU16(&styleBody, ext)
		}
		styleBody.WriteByte(byte(len(st.Pseudos)))
		for _, ps := range st.Pseudos {
			styleBody.WriteByte(byte(ps.State))
			writeU32(&styleBody, mapBlock(ps.PropBlock))
		}
		writeU32(&styleBody, mapBlock(st.PropBlock))
	}

	writeU16(&resBody, uint16(len(doc.Resources)))
	for _, res := range doc.Resources {
		resBody.WriteByte(byte(res.Type))
		resBody.WriteByte(byte(res.Format))
		writeU16(&resBody, res.NameIndex)
		writeU16(&resBody, res.DataIndex)
		writeU32(&resBody, uint32(len(res.InlineData)))
		resBody.Write(res.InlineData)
	}

	writeU16(&scriptBody, uint16(len(doc.Scripts)))
	for _, sc := range doc.Scripts {
		scriptBody.WriteByte(byte(sc.Lang))
		writeU16(&scriptBody, sc.NameIndex)
		writeU16(&scriptBody, sc.SourceIndex)
		writeU16(&scriptBody, uint16(len(sc.Entries)))
		for _, e := range sc.Entries {
			writeU16(&scriptBody, e)
		}
	}

	writeU32(&elemBody, uint32(len(doc.Elements)))
	for _, el := range doc.Elements {
		elemBody.WriteByte(byte(el.Kind))
		writeU16(&elemBody, el.IDIndex)
		writeU16(&elemBody, el.StyleID)
		writeU32(&elemBody, el.ParentIdx)
		writeU16(&elemBody, el.ChildCount)
		writeU32(&elemBody, mapBlock(el.PropBlock))
		elemBody.WriteByte(byte(len(el.Events)))
		for _, ev := range el.Events {
			elemBody.WriteByte(byte(ev.Kind))
			writeU16(&elemBody, ev.Function)
		}
		elemBody.WriteByte(byte(len(el.Customs)))
		for _, cp := range el.Customs {
			writeU16(&elemBody, cp.KeyIndex)
			writeU16(&elemBody, cp.ValueIndex)
		}
	}

	type pending struct {
		kind SectionKind
		body []byte
	}
	order := []pending{
		{SectionStrings, strBody.Bytes()},
		{SectionPropBlocks, poolBody.Bytes()},
		{SectionStyles, styleBody.Bytes()},
		{SectionResources, resBody.Bytes()},
		{SectionScripts, scriptBody.Bytes()},
		{SectionElements, elemBody.Bytes()},
	}

	var out bytes.Buffer
	out.Write(MagicNumber[:])
	out.WriteByte(SpecVersionMajor)
	out.WriteByte(doc.Header.VersionMinor)
	writeU16(&out, uint16(len(order)))

	offset := uint32(HeaderSize + len(order)*SectionDescSize)
	for _, p := range order {
		out.WriteByte(byte(p.kind))
		out.WriteByte(0) // section flags, reserved
		writeU32(&out, offset)
		writeU32(&out, uint32(len(p.body)))
		offset += uint32(len(p.body))
	}
	for _, p := range order {
		out.Write(p.body)
	}
	return out.Bytes(), nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
