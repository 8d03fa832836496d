package resolve_test

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractmeta/internal/model"
	"contractmeta/internal/registry"
	"contractmeta/internal/resolve"
	"contractmeta/internal/testkit"
)

func newResolver(ns *model.Namespace) *resolve.Resolver {
	if ns == nil {
		ns = &model.Namespace{}
	}
	return resolve.New(ns, registry.New(), resolve.Config{})
}

func primOf(t *testing.T, r *resolve.Resolver, id registry.TypeID) registry.Primitive {
	t.Helper()
	entry, ok := r.Registry().Lookup(id)
	require.True(t, ok)
	p, ok := entry.Def.(registry.DefPrimitive)
	require.True(t, ok, "expected primitive, got %T", entry.Def)
	return p.Prim
}

func TestIntegerWidening(t *testing.T) {
	t.Parallel()

	cases := []struct {
		bits   uint16
		signed bool
		want   registry.Primitive
	}{
		{1, false, registry.PrimU8},
		{8, false, registry.PrimU8},
		{24, false, registry.PrimU32},
		{72, true, registry.PrimI128},
		{128, false, registry.PrimU128},
		{256, true, registry.PrimI256},
	}
	for _, tc := range cases {
		r := newResolver(nil)
		pt, err := r.Resolve(model.IntType{Bits: tc.bits, Signed: tc.signed})
		require.NoError(t, err)
		assert.Equal(t, tc.want, primOf(t, r, pt.ID), "bits=%d", tc.bits)
	}

	for _, n := range []uint16{0, 257, 300} {
		_, err := newResolver(nil).Resolve(model.IntType{Bits: n})
		var rerr *resolve.Error
		require.True(t, errors.As(err, &rerr), "bits=%d", n)
		assert.Equal(t, resolve.ErrUnsupportedType, rerr.Kind)
	}
}

func TestWidenBitsProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("widened width is the smallest power of two >= max(n, 8)", prop.ForAll(
		func(n uint16) bool {
			w, ok := resolve.WidenBits(n)
			if !ok {
				return false
			}
			if w&(w-1) != 0 || w < n || w < 8 {
				return false
			}
			return w == 8 || w/2 < n
		},
		gen.UInt16Range(1, resolve.MaxIntBits),
	))

	properties.TestingRun(t)
}

func TestAddressAndBytes(t *testing.T) {
	t.Parallel()

	ns := &model.Namespace{AddressLength: 20, Contracts: []*model.Contract{{Name: "Other"}}}
	r := newResolver(ns)

	addr, err := r.Resolve(model.AddressType{})
	require.NoError(t, err)
	other, err := r.Resolve(model.ContractType{No: 0})
	require.NoError(t, err)
	assert.Equal(t, addr.ID, other.ID)

	comp := addr.Type.Def.(registry.DefComposite)
	require.Len(t, comp.Fields, 1)
	assert.Empty(t, comp.Fields[0].Name)
	arr := r.Registry().MustLookup(comp.Fields[0].Type).Def.(registry.DefArray)
	assert.Equal(t, uint32(20), arr.Len)
	assert.Equal(t, registry.PrimU8, primOf(t, r, arr.Elem))

	b20, err := r.Resolve(model.BytesType{Len: 20})
	require.NoError(t, err)
	assert.Equal(t, comp.Fields[0].Type, b20.ID)

	dyn, err := r.Resolve(model.DynamicBytesType{})
	require.NoError(t, err)
	assert.Equal(t, registry.DefSequence{Elem: arr.Elem}, dyn.Type.Def)
	assert.Equal(t, 4, r.Registry().Len())
}

func TestArrayDimsInnermostFirst(t *testing.T) {
	t.Parallel()

	r := newResolver(nil)
	pt, err := r.Resolve(model.ArrayType{
		Elem: model.BoolType{},
		Dims: []model.ArrayLength{model.Fixed(2), model.Dynamic()},
	})
	require.NoError(t, err)
	seq, ok := pt.Type.Def.(registry.DefSequence)
	require.True(t, ok)
	inner := r.Registry().MustLookup(seq.Elem).Def.(registry.DefArray)
	assert.Equal(t, uint32(2), inner.Len)
	assert.Equal(t, registry.PrimBool, primOf(t, r, inner.Elem))

	_, err = r.Resolve(model.ArrayType{Elem: model.BoolType{}, Dims: []model.ArrayLength{model.Fixed(1 << 33)}})
	var rerr *resolve.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, resolve.ErrUnsupportedType, rerr.Kind)
}

func TestTransparency(t *testing.T) {
	t.Parallel()

	ns := &model.Namespace{
		Structs:   []*model.StructDecl{{Name: "S", Fields: []model.StructField{{Name: "a", Type: model.IntType{Bits: 64}}}}},
		UserTypes: []*model.UserTypeDecl{{Name: "Price", Type: model.IntType{Bits: 128}}},
	}
	r := newResolver(ns)
	base, err := r.Resolve(model.StructType{No: 0})
	require.NoError(t, err)
	for _, wrapped := range []model.Type{
		model.RefType{Inner: model.StructType{No: 0}},
		model.StorageRefType{Inner: model.StructType{No: 0}},
		model.StorageRefType{Immutable: true, Inner: model.RefType{Inner: model.StructType{No: 0}}},
	} {
		got, err := r.Resolve(wrapped)
		require.NoError(t, err)
		assert.Equal(t, base.ID, got.ID, wrapped.String())
	}

	user, err := r.Resolve(model.UserType{No: 0})
	require.NoError(t, err)
	direct, err := r.Resolve(model.IntType{Bits: 128})
	require.NoError(t, err)
	assert.Equal(t, direct.ID, user.ID)
	require.NoError(t, testkit.CheckRegistryInvariants(r.Registry()))
}

func TestStructAndEnum(t *testing.T) {
	t.Parallel()

	ns := &model.Namespace{
		Structs: []*model.StructDecl{{Name: "Point", Fields: []model.StructField{
			{Name: "x", Type: model.IntType{Bits: 32, Signed: true}},
			{Name: "y", Type: model.IntType{Bits: 32, Signed: true}},
		}}},
		Enums: []*model.EnumDecl{{Name: "State", Values: []model.EnumValue{
			{Name: "Closed", Discriminant: 2},
			{Name: "Open", Discriminant: 0},
			{Name: "Paused", Discriminant: 1},
		}}},
	}
	r := newResolver(ns)

	pt, err := r.Resolve(model.StructType{No: 0})
	require.NoError(t, err)
	comp := pt.Type.Def.(registry.DefComposite)
	require.Len(t, comp.Fields, 2)
	assert.Equal(t, "x", comp.Fields[0].Name)
	assert.Equal(t, comp.Fields[0].Type, comp.Fields[1].Type)

	et, err := r.Resolve(model.EnumType{No: 0})
	require.NoError(t, err)
	assert.Equal(t, registry.DefVariant{Variants: []registry.Variant{
		{Name: "Open", Index: 0},
		{Name: "Paused", Index: 1},
		{Name: "Closed", Index: 2},
	}}, et.Type.Def)
	require.NoError(t, testkit.CheckRegistryInvariants(r.Registry()))

	ns.Enums = append(ns.Enums, &model.EnumDecl{Name: "Wide", Values: []model.EnumValue{{Name: "Big", Discriminant: 256}}})
	_, err = r.Resolve(model.EnumType{No: 1})
	var rerr *resolve.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, resolve.ErrUnsupportedType, rerr.Kind)
}

func TestFunctionPointers(t *testing.T) {
	t.Parallel()

	r := newResolver(nil)
	internal, err := r.Resolve(model.FunctionType{})
	require.NoError(t, err)
	assert.Equal(t, registry.PrimU8, primOf(t, r, internal.ID))

	external, err := r.Resolve(model.FunctionType{External: true})
	require.NoError(t, err)
	comp := external.Type.Def.(registry.DefComposite)
	require.Len(t, comp.Fields, 2)
	addr, err := r.Resolve(model.AddressType{})
	require.NoError(t, err)
	assert.Equal(t, addr.ID, comp.Fields[0].Type)
	assert.Equal(t, registry.PrimU32, primOf(t, r, comp.Fields[1].Type))
}

func TestUnsupportedAndMalformed(t *testing.T) {
	t.Parallel()

	r := newResolver(nil)
	_, err := r.Resolve(model.MappingType{Key: model.AddressType{}, Value: model.BoolType{}})
	var rerr *resolve.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, resolve.ErrUnsupportedType, rerr.Kind)
	assert.Contains(t, rerr.Error(), "mapping(address => bool)")

	_, err = r.Resolve(model.StructType{No: 3})
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.Malformed())
}

func TestRecursiveStruct(t *testing.T) {
	t.Parallel()

	ns := &model.Namespace{Structs: []*model.StructDecl{{Name: "Node", Fields: []model.StructField{
		{Name: "value", Type: model.BoolType{}},
		{Name: "children", Type: model.ArrayType{Elem: model.StructType{No: 0}, Dims: []model.ArrayLength{model.Dynamic()}}},
	}}}}
	r := newResolver(ns)
	_, err := r.Resolve(model.StructType{No: 0})
	var rerr *resolve.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, resolve.ErrRecursiveType, rerr.Kind)
	assert.True(t, rerr.Malformed())
	assert.Equal(t, "struct#0", rerr.Cycle[0])
}

func TestCacheHitsAndDeterminism(t *testing.T) {
	t.Parallel()

	ns := &model.Namespace{Structs: []*model.StructDecl{{Name: "Pair", Fields: []model.StructField{
		{Name: "a", Type: model.AddressType{}},
		{Name: "b", Type: model.AddressType{}},
	}}}}
	build := func() []registry.PortableType {
		r := newResolver(ns)
		_, err := r.Resolve(model.StructType{No: 0})
		require.NoError(t, err)
		_, err = r.Resolve(model.StructType{No: 0})
		require.NoError(t, err)
		hits, _ := r.Cache().Stats()
		assert.GreaterOrEqual(t, hits, 2)
		return r.Registry().Types()
	}
	testkit.AssertEqualWithDiff(t, build(), build())
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	ns := &model.Namespace{Structs: []*model.StructDecl{{Name: "Point"}}}
	assert.Equal(t, []string{"Point"}, resolve.DisplayName(ns, model.RefType{Inner: model.StructType{No: 0}}))
	assert.Equal(t, "uint8[2]", resolve.DisplayString(ns, model.ArrayType{Elem: model.Uint8, Dims: []model.ArrayLength{model.Fixed(2)}}))
	assert.Equal(t, "address", resolve.DisplayString(ns, model.AddressType{}))
}
