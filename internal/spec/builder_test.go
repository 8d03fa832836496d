package spec_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractmeta/internal/diag"
	"contractmeta/internal/model"
	"contractmeta/internal/registry"
	"contractmeta/internal/resolve"
	"contractmeta/internal/spec"
)

func intPtr(n int) *int { return &n }

func fixture() *model.Namespace {
	zero := intPtr(0)
	return &model.Namespace{
		Contracts: []*model.Contract{
			{
				Name:         "store",
				Tags:         []model.Tag{{Tag: "notice", Value: "Keeps numbers"}},
				Functions:    []int{0, 1, 2, 3},
				AllFunctions: []int{5, 3, 2, 1, 4, 6},
				SendsEvents:  []int{0},
			},
			{Name: "math", Kind: model.ContractLibrary},
		},
		Functions: []*model.Function{
			{Name: "new", Signature: "new()", Kind: model.FuncConstructor, ContractNo: zero},
			{Name: "get", Signature: "get()", Mutability: model.MutView, ContractNo: zero,
				Returns: []model.Parameter{{Type: model.IntType{Bits: 8}}},
				Tags:    []model.Tag{{Tag: "notice", Value: "Reads"}}},
			{Name: "set", Signature: "set(uint256)", Mutability: model.MutPayable, ContractNo: zero,
				Params: []model.Parameter{{Name: "v", Type: model.IntType{Bits: 256}}}},
			{Name: "pair", Signature: "pair()", Mutability: model.MutPure, ContractNo: zero,
				Returns: []model.Parameter{{Name: "a", Type: model.IntType{Bits: 32}}, {Name: "b", Type: model.BoolType{}}}},
			{Name: "add", Signature: "add(uint8,uint8)", Visibility: model.VisPublic, ContractNo: intPtr(1)},
			{Name: "hidden", Signature: "hidden()", Visibility: model.VisInternal, ContractNo: zero},
			{Name: "fallback", Kind: model.FuncFallback, Visibility: model.VisExternal, ContractNo: zero},
		},
		Events: []*model.Event{{Name: "Changed", Fields: []model.Parameter{
			{Name: "from", Type: model.AddressType{}, Indexed: true},
			{Name: "value", Type: model.IntType{Bits: 256}},
		}}},
	}
}

func build(t *testing.T, ns *model.Namespace, cfg spec.Config) (*spec.ContractSpec, *resolve.Resolver) {
	t.Helper()
	res := resolve.New(ns, registry.New(), resolve.Config{})
	b, err := spec.NewBuilder(res, 0, cfg)
	require.NoError(t, err)
	out, err := b.Build()
	require.NoError(t, err)
	return out, res
}

func TestBuildMessagesAndFlags(t *testing.T) {
	t.Parallel()

	out, res := build(t, fixture(), spec.Config{})

	require.Len(t, out.Constructors, 1)
	assert.Equal(t, "new", out.Constructors[0].Label)
	assert.False(t, out.Constructors[0].Payable)

	labels := make([]string, 0, len(out.Messages))
	for _, m := range out.Messages {
		labels = append(labels, m.Label)
	}
	assert.Equal(t, []string{"get", "set", "pair"}, labels)

	get, ok := out.Message("get")
	require.True(t, ok)
	assert.False(t, get.Mutates)
	assert.Equal(t, "0x6d4ce63c", get.Selector.String())
	require.NotNil(t, get.ReturnType)
	assert.Equal(t, []string{"uint8"}, get.ReturnType.DisplayName)
	assert.Equal(t, []string{"Reads"}, get.Docs)

	set, _ := out.Message("set")
	assert.True(t, set.Mutates)
	assert.True(t, set.Payable)
	assert.Nil(t, set.ReturnType)
	assert.Equal(t, "0x60fe47b1", set.Selector.String())
	require.Len(t, set.Args, 1)
	assert.Equal(t, "v", set.Args[0].Label)

	pair, _ := out.Message("pair")
	assert.False(t, pair.Mutates)
	tuple := res.Registry().MustLookup(pair.ReturnType.Type).Def.(registry.DefComposite)
	require.Len(t, tuple.Fields, 2)
	assert.Equal(t, "a", tuple.Fields[0].Name)
	assert.Equal(t, "uint32", tuple.Fields[0].TypeName)
	assert.Equal(t, "bool", tuple.Fields[1].TypeName)

	require.Len(t, out.Events, 1)
	assert.True(t, out.Events[0].Args[0].Indexed)
	assert.False(t, out.Events[0].Args[1].Indexed)
	assert.Equal(t, []string{"Keeps numbers"}, out.Docs)
}

func TestMultiReturnUnnamedWhenAnyNameMissing(t *testing.T) {
	t.Parallel()

	ns := fixture()
	ns.Functions[3].Returns[1].Name = ""
	out, res := build(t, ns, spec.Config{})
	pair, _ := out.Message("pair")
	tuple := res.Registry().MustLookup(pair.ReturnType.Type).Def.(registry.DefComposite)
	for _, f := range tuple.Fields {
		assert.Empty(t, f.Name)
	}
}

func TestMultiReturnDistinctFromStruct(t *testing.T) {
	t.Parallel()

	ns := fixture()
	ns.Structs = []*model.StructDecl{{Name: "P", Fields: []model.StructField{
		{Name: "x", Type: model.IntType{Bits: 32}},
		{Name: "y", Type: model.BoolType{}},
	}}}
	ns.Functions[1].Returns = []model.Parameter{{Type: model.StructType{No: 0}}}
	out, res := build(t, ns, spec.Config{})
	get, _ := out.Message("get")
	pair, _ := out.Message("pair")
	assert.NotEqual(t, get.ReturnType.Type, pair.ReturnType.Type)
	assert.Equal(t, []string{"P"}, get.ReturnType.DisplayName)

	seen := map[string]bool{}
	for _, pt := range res.Registry().Types() {
		key := pt.Type.String()
		assert.False(t, seen[key], "duplicate entry %s", key)
		seen[key] = true
	}
}

func TestSeveralConstructorsAndDefault(t *testing.T) {
	t.Parallel()

	ns := fixture()
	ns.Functions = append(ns.Functions, &model.Function{
		Name: "new", Signature: "new(bool)", Kind: model.FuncConstructor, Mutability: model.MutPayable,
		ContractNo: intPtr(0), Params: []model.Parameter{{Name: "flag", Type: model.BoolType{}}},
	})
	ns.Contracts[0].Functions = append(ns.Contracts[0].Functions, len(ns.Functions)-1)
	ns.Contracts[0].DefaultConstructor = &model.Function{Name: "new", Signature: "new()", Kind: model.FuncConstructor}

	bag := diag.NewBag(10)
	out, _ := build(t, ns, spec.Config{Reporter: diag.BagReporter{Bag: bag, Contract: "store"}})
	require.Len(t, out.Constructors, 3)
	assert.Equal(t, []string{"new", "new_1", "new_2"}, []string{out.Constructors[0].Label, out.Constructors[1].Label, out.Constructors[2].Label})
	assert.True(t, out.Constructors[1].Payable)

	// new() and the default constructor share a selector; both are kept.
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.SpcSelectorCollision, bag.Items()[0].Code)
	assert.Equal(t, diag.SevWarning, bag.Items()[0].Severity)
}

func TestExplicitSelectorAndWidth(t *testing.T) {
	t.Parallel()

	ns := fixture()
	ns.Functions[1].Selector = []byte{1, 2, 3, 4}
	out, _ := build(t, ns, spec.Config{})
	get, _ := out.Message("get")
	assert.Equal(t, "0x01020304", get.Selector.String())

	ns.Functions[1].Selector = []byte{1, 2}
	res := resolve.New(ns, registry.New(), resolve.Config{})
	b, err := spec.NewBuilder(res, 0, spec.Config{})
	require.NoError(t, err)
	_, err = b.Build()
	var serr *spec.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, spec.ErrSelectorWidth, serr.Kind)
	assert.True(t, serr.Malformed())
}

func TestMalformedInput(t *testing.T) {
	t.Parallel()

	cases := map[string]func(ns *model.Namespace){
		"constructor without contract": func(ns *model.Namespace) { ns.Functions[0].ContractNo = nil },
		"message without contract":     func(ns *model.Namespace) { ns.Functions[2].ContractNo = nil },
		"function out of range":        func(ns *model.Namespace) { ns.Contracts[0].AllFunctions = append(ns.Contracts[0].AllFunctions, 99) },
		"event out of range":           func(ns *model.Namespace) { ns.Contracts[0].SendsEvents = []int{4} },
	}
	for name, mutate := range cases {
		ns := fixture()
		mutate(ns)
		res := resolve.New(ns, registry.New(), resolve.Config{})
		b, err := spec.NewBuilder(res, 0, spec.Config{})
		require.NoError(t, err, name)
		_, err = b.Build()
		var serr *spec.Error
		require.ErrorAs(t, err, &serr, name)
		assert.Equal(t, spec.ErrMalformedInput, serr.Kind, name)
	}

	_, err := spec.NewBuilder(resolve.New(fixture(), nil, resolve.Config{}), 5, spec.Config{})
	assert.Error(t, err)
}

func TestUnsupportedParamTypeIsFatal(t *testing.T) {
	t.Parallel()

	ns := fixture()
	ns.Functions[2].Params[0].Type = model.MappingType{Key: model.BoolType{}, Value: model.BoolType{}}
	res := resolve.New(ns, registry.New(), resolve.Config{})
	b, err := spec.NewBuilder(res, 0, spec.Config{})
	require.NoError(t, err)
	_, err = b.Build()
	var rerr *resolve.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, resolve.ErrUnsupportedType, rerr.Kind)
}

func TestMessageJSONShape(t *testing.T) {
	t.Parallel()

	out, _ := build(t, fixture(), spec.Config{})
	set, _ := out.Message("set")
	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"label": "set",
		"selector": "0x60fe47b1",
		"mutates": true,
		"payable": true,
		"args": [{"label": "v", "type": {"type": 1, "displayName": ["uint256"]}}],
		"returnType": null,
		"docs": []
	}`, string(data))
}
