package registry

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"fortio.org/safecast"
)

// Registry is an append-only store of structurally unique entries.
// Ids are insertion positions; an entry only references ids registered before it.
type Registry struct {
	types   []Type
	buckets map[uint64][]TypeID
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{buckets: make(map[uint64][]TypeID, 32)}
}

// GetOrRegister returns the id of an entry structurally equal to t, appending t
// when none exists. It panics when t references an id that is not registered yet.
func (r *Registry) GetOrRegister(t Type) PortableType {
	if t.Def == nil {
		panic("registry: entry without definition")
	}
	fp := Fingerprint(t)
	for _, id := range r.buckets[fp] {
		if Equal(r.types[id], t) {
			return PortableType{ID: id, Type: r.types[id]}
		}
	}
	n, err := safecast.Conv[uint32](len(r.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	for _, ref := range References(t.Def) {
		if uint32(ref) >= n {
			panic(fmt.Sprintf("registry: forward reference to #%d while registering #%d", ref, n))
		}
	}
	id := TypeID(n)
	stored := cloneType(t)
	r.types = append(r.types, stored)
	r.buckets[fp] = append(r.buckets[fp], id)
	return PortableType{ID: id, Type: stored}
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id TypeID) (Type, bool) {
	if int(id) >= len(r.types) {
		return Type{}, false
	}
	return r.types[id], true
}

// MustLookup panics when id is unknown.
func (r *Registry) MustLookup(id TypeID) Type {
	t, ok := r.Lookup(id)
	if !ok {
		panic("registry: invalid TypeID")
	}
	return t
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.types) }

// Types returns all entries in id order.
func (r *Registry) Types() []PortableType {
	out := make([]PortableType, len(r.types))
	for i, t := range r.types {
		out[i] = PortableType{ID: TypeID(i), Type: t}
	}
	return out
}

// Fingerprint is an FNV-1a hash over the canonical shape of t.
func Fingerprint(t Type) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	writeStr := func(s string) {
		writeU64(uint64(len(s)))
		_, _ = h.Write([]byte(s))
	}
	writeU64(uint64(len(t.Path)))
	for _, p := range t.Path {
		writeStr(p)
	}
	writeU64(uint64(len(t.Docs)))
	for _, d := range t.Docs {
		writeStr(d)
	}
	switch d := t.Def.(type) {
	case DefPrimitive:
		writeU64(uint64(DefKindPrimitive))
		writeU64(uint64(d.Prim))
	case DefComposite:
		writeU64(uint64(DefKindComposite))
		writeU64(uint64(len(d.Fields)))
		for _, f := range d.Fields {
			writeStr(f.Name)
			writeU64(uint64(f.Type))
			writeStr(f.TypeName)
		}
	case DefArray:
		writeU64(uint64(DefKindArray))
		writeU64(uint64(d.Len))
		writeU64(uint64(d.Elem))
	case DefSequence:
		writeU64(uint64(DefKindSequence))
		writeU64(uint64(d.Elem))
	case DefVariant:
		writeU64(uint64(DefKindVariant))
		writeU64(uint64(len(d.Variants)))
		for _, v := range d.Variants {
			writeStr(v.Name)
			writeU64(uint64(v.Index))
		}
	}
	return h.Sum64()
}
