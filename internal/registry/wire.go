package registry

import (
	"errors"
	"fmt"
)

// Wire forms of registry entries, shared by every descriptor encoding.

type FieldWire struct {
	Name     string `json:"name,omitempty"`
	Type     TypeID `json:"type"`
	TypeName string `json:"typeName,omitempty"`
}

type CompositeWire struct {
	Fields []FieldWire `json:"fields"`
}

type ArrayWire struct {
	Len  uint32 `json:"len"`
	Type TypeID `json:"type"`
}

type SequenceWire struct {
	Type TypeID `json:"type"`
}

type VariantEntryWire struct {
	Name  string `json:"name"`
	Index uint8  `json:"index"`
}

type VariantWire struct {
	Variants []VariantEntryWire `json:"variants"`
}

// DefWire has exactly one member set.
type DefWire struct {
	Primitive string         `json:"primitive,omitempty"`
	Composite *CompositeWire `json:"composite,omitempty"`
	Array     *ArrayWire     `json:"array,omitempty"`
	Sequence  *SequenceWire  `json:"sequence,omitempty"`
	Variant   *VariantWire   `json:"variant,omitempty"`
}

type TypeWire struct {
	Path []string `json:"path,omitempty"`
	Def  DefWire  `json:"def"`
	Docs []string `json:"docs,omitempty"`
}

type PortableTypeWire struct {
	ID   TypeID   `json:"id"`
	Type TypeWire `json:"type"`
}

// ErrMalformedWire reports a wire entry that cannot be turned back into a registry entry.
var ErrMalformedWire = errors.New("malformed type entry")

// ToWire converts an entry to its wire form.
func ToWire(t Type) TypeWire {
	w := TypeWire{Path: t.Path, Docs: t.Docs}
	switch d := t.Def.(type) {
	case DefPrimitive:
		w.Def.Primitive = d.Prim.String()
	case DefComposite:
		fields := make([]FieldWire, 0, len(d.Fields))
		for _, f := range d.Fields {
			fields = append(fields, FieldWire(f))
		}
		w.Def.Composite = &CompositeWire{Fields: fields}
	case DefArray:
		w.Def.Array = &ArrayWire{Len: d.Len, Type: d.Elem}
	case DefSequence:
		w.Def.Sequence = &SequenceWire{Type: d.Elem}
	case DefVariant:
		variants := make([]VariantEntryWire, 0, len(d.Variants))
		for _, v := range d.Variants {
			variants = append(variants, VariantEntryWire(v))
		}
		w.Def.Variant = &VariantWire{Variants: variants}
	}
	return w
}

// Entry converts a wire form back to an entry.
func (w TypeWire) Entry() (Type, error) {
	t := Type{Path: w.Path, Docs: w.Docs}
	set := 0
	if w.Def.Primitive != "" {
		set++
		p, ok := ParsePrimitive(w.Def.Primitive)
		if !ok {
			return Type{}, fmt.Errorf("%w: unknown primitive %q", ErrMalformedWire, w.Def.Primitive)
		}
		t.Def = DefPrimitive{Prim: p}
	}
	if c := w.Def.Composite; c != nil {
		set++
		fields := make([]Field, 0, len(c.Fields))
		for _, f := range c.Fields {
			fields = append(fields, Field(f))
		}
		t.Def = DefComposite{Fields: fields}
	}
	if a := w.Def.Array; a != nil {
		set++
		t.Def = DefArray{Len: a.Len, Elem: a.Type}
	}
	if s := w.Def.Sequence; s != nil {
		set++
		t.Def = DefSequence{Elem: s.Type}
	}
	if v := w.Def.Variant; v != nil {
		set++
		variants := make([]Variant, 0, len(v.Variants))
		for _, e := range v.Variants {
			variants = append(variants, Variant(e))
		}
		t.Def = DefVariant{Variants: variants}
	}
	if set != 1 {
		return Type{}, fmt.Errorf("%w: %d definitions set", ErrMalformedWire, set)
	}
	return t, nil
}

// Wire returns the registry in wire form, in id order.
func (r *Registry) Wire() []PortableTypeWire {
	out := make([]PortableTypeWire, len(r.types))
	for i, t := range r.types {
		out[i] = PortableTypeWire{ID: TypeID(i), Type: ToWire(t)}
	}
	return out
}

// FromWire rebuilds a registry, checking that ids are positions, that entries
// only reference earlier ids and that no two entries are equal.
func FromWire(entries []PortableTypeWire) (*Registry, error) {
	r := New()
	for i, w := range entries {
		if int(w.ID) != i {
			return nil, fmt.Errorf("%w: entry at position %d has id %d", ErrMalformedWire, i, w.ID)
		}
		t, err := w.Type.Entry()
		if err != nil {
			return nil, fmt.Errorf("type #%d: %w", i, err)
		}
		for _, ref := range References(t.Def) {
			if int(ref) >= i {
				return nil, fmt.Errorf("%w: type #%d references #%d", ErrMalformedWire, i, ref)
			}
		}
		if got := r.GetOrRegister(t); int(got.ID) != i {
			return nil, fmt.Errorf("%w: type #%d duplicates #%d", ErrMalformedWire, i, got.ID)
		}
	}
	return r, nil
}
