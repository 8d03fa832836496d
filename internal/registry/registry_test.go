package registry

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrRegisterDeduplicates(t *testing.T) {
	t.Parallel()

	r := New()
	u8 := r.GetOrRegister(Prim(PrimU8))
	again := r.GetOrRegister(Prim(PrimU8))
	assert.Equal(t, u8.ID, again.ID)

	arr := r.GetOrRegister(Type{Def: DefArray{Len: 32, Elem: u8.ID}})
	addr1 := r.GetOrRegister(Type{Def: DefComposite{Fields: []Field{{Type: arr.ID}}}})
	addr2 := r.GetOrRegister(Type{Def: DefComposite{Fields: []Field{{Type: arr.ID}}}})
	assert.Equal(t, addr1.ID, addr2.ID)
	assert.Equal(t, 3, r.Len())

	named := r.GetOrRegister(Type{Def: DefComposite{Fields: []Field{{Type: arr.ID}}}}.Named("AccountId"))
	assert.NotEqual(t, addr1.ID, named.ID)
	assert.Equal(t, "AccountId", named.Type.Name())
}

func TestGetOrRegisterPanicsOnForwardReference(t *testing.T) {
	t.Parallel()

	r := New()
	assert.Panics(t, func() {
		r.GetOrRegister(Type{Def: DefSequence{Elem: 0}})
	})
	assert.Equal(t, 0, r.Len())
}

func TestRegisteredEntriesAreImmutable(t *testing.T) {
	t.Parallel()

	r := New()
	u8 := r.GetOrRegister(Prim(PrimU8))
	fields := []Field{{Name: "a", Type: u8.ID}}
	c := r.GetOrRegister(Type{Def: DefComposite{Fields: fields}})
	fields[0].Name = "mutated"

	stored := r.MustLookup(c.ID)
	assert.Equal(t, "a", stored.Def.(DefComposite).Fields[0].Name)
}

func TestPrimitiveNames(t *testing.T) {
	t.Parallel()

	for p := PrimBool; p <= PrimI256; p++ {
		got, ok := ParsePrimitive(p.String())
		require.True(t, ok, p.String())
		assert.Equal(t, p, got)
	}
	_, ok := ParsePrimitive("u24")
	assert.False(t, ok)

	p, ok := IntPrimitive(128, false)
	require.True(t, ok)
	assert.Equal(t, PrimU128, p)
	assert.Equal(t, uint16(128), p.Bits())

	p, ok = IntPrimitive(16, true)
	require.True(t, ok)
	assert.Equal(t, PrimI16, p)
	assert.True(t, p.Signed())

	_, ok = IntPrimitive(24, false)
	assert.False(t, ok)
}

func TestWireRoundTripAndValidation(t *testing.T) {
	t.Parallel()

	r := New()
	u8 := r.GetOrRegister(Prim(PrimU8))
	r.GetOrRegister(Type{Def: DefSequence{Elem: u8.ID}})
	r.GetOrRegister(Type{Def: DefVariant{Variants: []Variant{{Name: "A", Index: 0}, {Name: "B", Index: 3}}}}.Named("E"))

	data, err := json.Marshal(r.Wire())
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"id":0,"type":{"def":{"primitive":"u8"}}}`)
	assert.Contains(t, string(data), `{"sequence":{"type":0}}`)

	var entries []PortableTypeWire
	require.NoError(t, json.Unmarshal(data, &entries))
	back, err := FromWire(entries)
	require.NoError(t, err)
	assert.Equal(t, r.Types(), back.Types())

	_, err = FromWire([]PortableTypeWire{{ID: 0, Type: TypeWire{Def: DefWire{Sequence: &SequenceWire{Type: 0}}}}})
	assert.ErrorIs(t, err, ErrMalformedWire)

	dup := []PortableTypeWire{
		{ID: 0, Type: ToWire(Prim(PrimBool))},
		{ID: 1, Type: ToWire(Prim(PrimBool))},
	}
	_, err = FromWire(dup)
	assert.ErrorIs(t, err, ErrMalformedWire)
}

func TestDoc(t *testing.T) {
	t.Parallel()

	r := New()
	u8 := r.GetOrRegister(Prim(PrimU8))
	r.GetOrRegister(Type{Def: DefComposite{Fields: []Field{
		{Name: "x", Type: u8.ID, TypeName: "uint8"},
		{Name: "y", Type: u8.ID},
	}}}.Named("Point"))

	out := r.String()
	assert.True(t, strings.HasPrefix(out, "#0 = u8"), out)
	assert.Contains(t, out, "Point")
	assert.Contains(t, out, "x: #0 /* uint8 */")
}

func TestRegistryProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("registering the same shapes twice adds nothing", prop.ForAll(
		func(lens []uint32) bool {
			r := New()
			u8 := r.GetOrRegister(Prim(PrimU8))
			first := make([]TypeID, len(lens))
			for i, n := range lens {
				first[i] = r.GetOrRegister(Type{Def: DefArray{Len: n, Elem: u8.ID}}).ID
			}
			size := r.Len()
			for i, n := range lens {
				if r.GetOrRegister(Type{Def: DefArray{Len: n, Elem: u8.ID}}).ID != first[i] {
					return false
				}
			}
			return r.Len() == size
		},
		gen.SliceOf(gen.UInt32Range(0, 64)),
	))

	properties.Property("no two entries are structurally equal", prop.ForAll(
		func(lens []uint32) bool {
			r := New()
			u8 := r.GetOrRegister(Prim(PrimU8))
			for _, n := range lens {
				arr := r.GetOrRegister(Type{Def: DefArray{Len: n, Elem: u8.ID}})
				r.GetOrRegister(Type{Def: DefSequence{Elem: arr.ID}})
			}
			types := r.Types()
			for i := range types {
				for j := i + 1; j < len(types); j++ {
					if Equal(types[i].Type, types[j].Type) {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt32Range(0, 16)),
	))

	properties.TestingRun(t)
}
