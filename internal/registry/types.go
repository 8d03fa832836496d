package registry

import (
	"fmt"
	"slices"

	"github.com/SaveTheRbtz/mph"
)

// TypeID is the position of an entry in the registry.
type TypeID uint32

// Primitive enumerates the scalar shapes the target runtime understands.
type Primitive uint8

const (
	PrimBool Primitive = iota
	PrimChar
	PrimStr
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimU256
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimI256
)

var primitiveNames = []string{
	PrimBool: "bool",
	PrimChar: "char",
	PrimStr:  "str",
	PrimU8:   "u8",
	PrimU16:  "u16",
	PrimU32:  "u32",
	PrimU64:  "u64",
	PrimU128: "u128",
	PrimU256: "u256",
	PrimI8:   "i8",
	PrimI16:  "i16",
	PrimI32:  "i32",
	PrimI64:  "i64",
	PrimI128: "i128",
	PrimI256: "i256",
}

var primitiveTable = mph.Build(primitiveNames)

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return fmt.Sprintf("Primitive(%d)", p)
}

// ParsePrimitive maps a wire name back to its primitive.
func ParsePrimitive(name string) (Primitive, bool) {
	idx, ok := primitiveTable.Lookup(name)
	if !ok || primitiveNames[idx] != name {
		return 0, false
	}
	return Primitive(idx), true
}

// IntPrimitive returns the integer primitive of exactly bits width.
func IntPrimitive(bits uint16, signed bool) (Primitive, bool) {
	var base Primitive
	switch bits {
	case 8:
		base = 0
	case 16:
		base = 1
	case 32:
		base = 2
	case 64:
		base = 3
	case 128:
		base = 4
	case 256:
		base = 5
	default:
		return 0, false
	}
	if signed {
		return PrimI8 + base, true
	}
	return PrimU8 + base, true
}

// Bits returns the width of an integer primitive, 0 for non-integers.
func (p Primitive) Bits() uint16 {
	switch {
	case p >= PrimU8 && p <= PrimU256:
		return 8 << (p - PrimU8)
	case p >= PrimI8 && p <= PrimI256:
		return 8 << (p - PrimI8)
	default:
		return 0
	}
}

// Signed reports whether p is a signed integer.
func (p Primitive) Signed() bool { return p >= PrimI8 && p <= PrimI256 }

// DefKind tags the TypeDef variants.
type DefKind uint8

const (
	DefKindPrimitive DefKind = iota
	DefKindComposite
	DefKindArray
	DefKindSequence
	DefKindVariant
)

func (k DefKind) String() string {
	switch k {
	case DefKindPrimitive:
		return "primitive"
	case DefKindComposite:
		return "composite"
	case DefKindArray:
		return "array"
	case DefKindSequence:
		return "sequence"
	case DefKindVariant:
		return "variant"
	default:
		return fmt.Sprintf("DefKind(%d)", k)
	}
}

// TypeDef is the shape of a registry entry. The set of implementations is closed.
type TypeDef interface {
	DefKind() DefKind
	isTypeDef()
}

// DefPrimitive is a scalar.
type DefPrimitive struct {
	Prim Primitive
}

// Field is one composite field. Name and TypeName are optional.
type Field struct {
	Name     string
	Type     TypeID
	TypeName string
}

// DefComposite is an ordered product of fields.
type DefComposite struct {
	Fields []Field
}

// DefArray is a fixed-length array.
type DefArray struct {
	Len  uint32
	Elem TypeID
}

// DefSequence is a variable-length sequence.
type DefSequence struct {
	Elem TypeID
}

// Variant is a payload-free enum alternative.
type Variant struct {
	Name  string
	Index uint8
}

// DefVariant is an ordered set of alternatives.
type DefVariant struct {
	Variants []Variant
}

func (DefPrimitive) DefKind() DefKind { return DefKindPrimitive }
func (DefComposite) DefKind() DefKind { return DefKindComposite }
func (DefArray) DefKind() DefKind     { return DefKindArray }
func (DefSequence) DefKind() DefKind  { return DefKindSequence }
func (DefVariant) DefKind() DefKind   { return DefKindVariant }

func (DefPrimitive) isTypeDef() {}
func (DefComposite) isTypeDef() {}
func (DefArray) isTypeDef()     {}
func (DefSequence) isTypeDef()  {}
func (DefVariant) isTypeDef()   {}

// Type is a registry entry.
type Type struct {
	Path []string
	Def  TypeDef
	Docs []string
}

// PortableType pairs an entry with its id.
type PortableType struct {
	ID   TypeID
	Type Type
}

// Prim builds a primitive entry.
func Prim(p Primitive) Type { return Type{Def: DefPrimitive{Prim: p}} }

// Named returns a copy of t with the given path.
func (t Type) Named(path ...string) Type {
	t.Path = append([]string(nil), path...)
	return t
}

// Name returns the last path segment, or "".
func (t Type) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// References lists the ids a definition points at, in field order.
func References(def TypeDef) []TypeID {
	switch d := def.(type) {
	case DefComposite:
		out := make([]TypeID, 0, len(d.Fields))
		for _, f := range d.Fields {
			out = append(out, f.Type)
		}
		return out
	case DefArray:
		return []TypeID{d.Elem}
	case DefSequence:
		return []TypeID{d.Elem}
	default:
		return nil
	}
}

// Equal reports structural equality of two entries.
func Equal(a, b Type) bool {
	if !slices.Equal(a.Path, b.Path) || !slices.Equal(a.Docs, b.Docs) {
		return false
	}
	return equalDef(a.Def, b.Def)
}

func equalDef(a, b TypeDef) bool {
	switch da := a.(type) {
	case DefPrimitive:
		db, ok := b.(DefPrimitive)
		return ok && da == db
	case DefComposite:
		db, ok := b.(DefComposite)
		return ok && slices.Equal(da.Fields, db.Fields)
	case DefArray:
		db, ok := b.(DefArray)
		return ok && da == db
	case DefSequence:
		db, ok := b.(DefSequence)
		return ok && da == db
	case DefVariant:
		db, ok := b.(DefVariant)
		return ok && slices.Equal(da.Variants, db.Variants)
	case nil:
		return b == nil
	default:
		return false
	}
}

func cloneType(t Type) Type {
	out := Type{
		Path: slices.Clone(t.Path),
		Docs: slices.Clone(t.Docs),
	}
	switch d := t.Def.(type) {
	case DefComposite:
		out.Def = DefComposite{Fields: slices.Clone(d.Fields)}
	case DefVariant:
		out.Def = DefVariant{Variants: slices.Clone(d.Variants)}
	default:
		out.Def = d
	}
	return out
}
