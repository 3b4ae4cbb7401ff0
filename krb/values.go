// krb/values.go
//
// Wire encodings for property values. Encode helpers are used by the writer
// and by compiler-side tooling; decode helpers interpret a Property's raw
// bytes according to its ValueType.

package krb

import (
	"encoding/binary"
	"math"
)

type Length struct {
	Value float32
	Unit  LengthUnit
}

type Edges struct {
	Top, Right, Bottom, Left Length
}

type Color struct {
	R, G, B, A uint8
}

func EncodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func EncodeInt(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func EncodeFloat(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func EncodeColor(c Color) []byte {
	return []byte{c.R, c.G, c.B, c.A}
}

func EncodeU16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func EncodeLength(l Length) []byte {
	b := make([]byte, 5)
	b[0] = byte(l.Unit)
	binary.LittleEndian.PutUint32(b[1:], math.Float32bits(l.Value))
	return b
}

func EncodeEdges(e Edges) []byte {
	b := make([]byte, 0, 20)
	for _, l := range []Length{e.Top, e.Right, e.Bottom, e.Left} {
		b = append(b, EncodeLength(l)...)
	}
	return b
}

func EncodeTransform(m [6]float32) []byte {
	b := make([]byte, 24)
	for i, f := range m {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func (p *Property) AsBool() (bool, bool) {
	if p.ValueType != ValTypeBool || len(p.Value) < 1 {
		return false, false
	}
	return p.Value[0] != 0, true
}

func (p *Property) AsInt() (int64, bool) {
	if p.ValueType != ValTypeInt || len(p.Value) < 8 {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(p.Value)), true
}

func (p *Property) AsFloat() (float32, bool) {
	if p.ValueType != ValTypeFloat || len(p.Value) < 4 {
		return 0, false
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p.Value)), true
}

func (p *Property) AsColor() (Color, bool) {
	if p.ValueType != ValTypeColor || len(p.Value) < 4 {
		return Color{}, false
	}
	return Color{p.Value[0], p.Value[1], p.Value[2], p.Value[3]}, true
}

func (p *Property) AsU16() (uint16, bool) {
	switch p.ValueType {
	case ValTypeString, ValTypeResource, ValTypeEnum:
		if len(p.Value) >= 2 {
			return binary.LittleEndian.Uint16(p.Value), true
		}
	}
	return 0, false
}

func (p *Property) AsLength() (Length, bool) {
	if p.ValueType != ValTypeLength || len(p.Value) < 5 {
		return Length{}, false
	}
	return Length{
		Unit:  LengthUnit(p.Value[0]),
		Value: math.Float32frombits(binary.LittleEndian.Uint32(p.Value[1:])),
	}, true
}

func (p *Property) AsEdges() (Edges, bool) {
	if p.ValueType != ValTypeEdges || len(p.Value) < 20 {
		return Edges{}, false
	}
	dec := func(b []byte) Length {
		return Length{
			Unit:  LengthUnit(b[0]),
			Value: math.Float32frombits(binary.LittleEndian.Uint32(b[1:])),
		}
	}
	return Edges{
		Top:    dec(p.Value[0:5]),
		Right:  dec(p.Value[5:10]),
		Bottom: dec(p.Value[10:15]),
		Left:   dec(p.Value[15:20]),
	}, true
}

func (p *Property) AsTransform() ([6]float32, bool) {
	var m [6]float32
	if p.ValueType != ValTypeTransform || len(p.Value) < 24 {
		return m, false
	}
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(p.Value[i*4:]))
	}
	return m, true
}

// Px is shorthand for a pixel length.
func Px(v float32) Length { return Length{Value: v, Unit: UnitPx} }

// Percent is shorthand for a percentage length.
func Percent(v float32) Length { return Length{Value: v, Unit: UnitPercent} }

// Auto is the auto length.
func Auto() Length { return Length{Unit: UnitAuto} }
