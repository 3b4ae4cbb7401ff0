// core/value.go

package core

import (
	"fmt"

	"github.com/kryonlabs/kryon-renderer/krb"
)

// ValueKind tags the property value union.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindColor
	KindString
	KindLength
	KindEdges
	KindTransform
	KindResource
	KindEnum
)

// Value is the tagged union every property resolves to. Strings are interned
// by the parser; Value carries the interned string directly.
type Value struct {
	Kind      ValueKind
	Bool      bool
	Int       int64
	Float     float32
	Color     krb.Color
	Str       string
	Length    krb.Length
	Edges     krb.Edges
	Transform [6]float32
	Resource  uint16
	Enum      uint16
}

func None() Value                    { return Value{Kind: KindNone} }
func BoolValue(v bool) Value         { return Value{Kind: KindBool, Bool: v} }
func IntValue(v int64) Value         { return Value{Kind: KindInt, Int: v} }
func FloatValue(v float32) Value     { return Value{Kind: KindFloat, Float: v} }
func ColorValue(c krb.Color) Value   { return Value{Kind: KindColor, Color: c} }
func StringValue(s string) Value     { return Value{Kind: KindString, Str: s} }
func LengthValue(l krb.Length) Value { return Value{Kind: KindLength, Length: l} }
func EdgesValue(e krb.Edges) Value   { return Value{Kind: KindEdges, Edges: e} }
func EnumValue(v uint16) Value       { return Value{Kind: KindEnum, Enum: v} }
func ResourceValue(v uint16) Value   { return Value{Kind: KindResource, Resource: v} }

func TransformValue(m [6]float32) Value {
	return Value{Kind: KindTransform, Transform: m}
}

func PxValue(v float32) Value   { return LengthValue(krb.Px(v)) }
func AutoValue() Value          { return LengthValue(krb.Auto()) }
func PctValue(v float32) Value  { return LengthValue(krb.Percent(v)) }

// IsAuto reports whether the value is the auto length.
func (v Value) IsAuto() bool {
	return v.Kind == KindLength && v.Length.Unit == krb.UnitAuto
}

// AsFloat coerces numeric kinds to float32; returns 0 for everything else.
func (v Value) AsFloat() float32 {
	switch v.Kind {
	case KindFloat:
		return v.Float
	case KindInt:
		return float32(v.Int)
	case KindLength:
		return v.Length.Value
	case KindEnum:
		return float32(v.Enum)
	}
	return 0
}

func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return "none"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindColor:
		return fmt.Sprintf("#%02x%02x%02x%02x", v.Color.R, v.Color.G, v.Color.B, v.Color.A)
	case KindString:
		return v.Str
	case KindLength:
		return fmt.Sprintf("%g(unit %d)", v.Length.Value, v.Length.Unit)
	case KindEnum:
		return fmt.Sprintf("enum(%d)", v.Enum)
	case KindResource:
		return fmt.Sprintf("res(%d)", v.Resource)
	}
	return "value"
}

// DecodeProperty interprets a wire property against the document's string
// table. The second return is false for undecodable entries; callers skip
// those with a warning, mirroring the unknown-key policy.
func DecodeProperty(doc *krb.Document, p krb.Property) (Value, bool) {
	switch p.ValueType {
	case krb.ValTypeNone:
		return None(), true
	case krb.ValTypeBool:
		if b, ok := p.AsBool(); ok {
			return BoolValue(b), true
		}
	case krb.ValTypeInt:
		if v, ok := p.AsInt(); ok {
			return IntValue(v), true
		}
	case krb.ValTypeFloat:
		if v, ok := p.AsFloat(); ok {
			return FloatValue(v), true
		}
	case krb.ValTypeColor:
		if c, ok := p.AsColor(); ok {
			return ColorValue(c), true
		}
	case krb.ValTypeString:
		if idx, ok := p.AsU16(); ok {
			return StringValue(doc.StringAt(idx)), true
		}
	case krb.ValTypeLength:
		if l, ok := p.AsLength(); ok {
			return LengthValue(l), true
		}
	case krb.ValTypeEdges:
		if e, ok := p.AsEdges(); ok {
			return EdgesValue(e), true
		}
	case krb.ValTypeTransform:
		if m, ok := p.AsTransform(); ok {
			return TransformValue(m), true
		}
	case krb.ValTypeResource:
		if idx, ok := p.AsU16(); ok {
			return ResourceValue(idx), true
		}
	case krb.ValTypeEnum:
		if v, ok := p.AsU16(); ok {
			return EnumValue(v), true
		}
	}
	return None(), false
}
