package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractmeta/internal/diag"
	"contractmeta/internal/metadata"
	"contractmeta/internal/registry"
	"contractmeta/internal/spec"
)

func assembled(t *testing.T, embed bool) *metadata.Descriptor {
	t.Helper()
	d, err := metadata.Assemble(wasmCode, storeNamespace(), 0, metadata.Config{EmbedCode: embed})
	require.NoError(t, err)
	return d
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	d := assembled(t, true)
	want, err := metadata.Encode(d, metadata.EncodeOptions{Format: metadata.FormatJSON})
	require.NoError(t, err)

	for _, format := range []metadata.Format{metadata.FormatJSON, metadata.FormatCBOR} {
		data, err := metadata.Encode(d, metadata.EncodeOptions{Format: format})
		require.NoError(t, err)
		loaded, err := metadata.Load(data, format)
		require.NoError(t, err, format.String())
		got, err := metadata.Encode(loaded, metadata.EncodeOptions{Format: metadata.FormatJSON})
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), format.String())
		require.NoError(t, metadata.Verify(loaded, nil))
	}

	yml, err := metadata.Encode(d, metadata.EncodeOptions{Format: metadata.FormatYAML})
	require.NoError(t, err)
	assert.Contains(t, string(yml), "name: store")
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":        `{"source":`,
		"trailing":        `{} {}`,
		"bad hash":        `{"source": {"hash": "abc"}}`,
		"id mismatch":     `{"types": [{"id": 1, "type": {"def": {"primitive": "u8"}}}]}`,
		"forward ref":     `{"types": [{"id": 0, "type": {"def": {"sequence": {"type": 1}}}}, {"id": 1, "type": {"def": {"primitive": "u8"}}}]}`,
		"no def":          `{"types": [{"id": 0, "type": {"def": {}}}]}`,
		"bad primitive":   `{"types": [{"id": 0, "type": {"def": {"primitive": "u7"}}}]}`,
		"bad selector":    `{"spec": {"messages": [{"label": "get", "selector": "6d4ce63c"}]}}`,
		"bad storage key": `{"storage": {"cell": {"key": "0x00", "ty": 0}}}`,
	}
	for name, doc := range cases {
		_, err := metadata.Load([]byte(doc), metadata.FormatJSON)
		assert.Error(t, err, name)
	}
}

func TestVerifyAssembled(t *testing.T) {
	t.Parallel()

	bag := diag.NewBag(10)
	require.NoError(t, metadata.Verify(assembled(t, true), diag.BagReporter{Bag: bag}))
	assert.Zero(t, bag.Len())
}

func TestVerifyFindsProblems(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		mutate func(d *metadata.Descriptor)
		code   diag.Code
	}{
		"dangling return type": {
			mutate: func(d *metadata.Descriptor) { d.Spec.Messages[0].ReturnType.Type = 7 },
			code:   diag.MetVerifyFailed,
		},
		"dangling storage type": {
			mutate: func(d *metadata.Descriptor) { d.Storage.Struct.Fields[0].Layout.Cell.Type = 9 },
			code:   diag.MetVerifyFailed,
		},
		"tampered code": {
			mutate: func(d *metadata.Descriptor) { d.Source.Wasm = append(d.Source.Wasm, 0) },
			code:   diag.MetHashMismatch,
		},
		"short hash": {
			mutate: func(d *metadata.Descriptor) { d.Source.Hash = d.Source.Hash[:4] },
			code:   diag.MetVerifyFailed,
		},
		"bad version": {
			mutate: func(d *metadata.Descriptor) { d.Contract.Version = "one" },
			code:   diag.MetBadVersion,
		},
		"selector width": {
			mutate: func(d *metadata.Descriptor) { d.Spec.Messages[0].Selector = spec.Selector{1, 2} },
			code:   diag.SpcSelectorWidth,
		},
	}
	for name, tc := range cases {
		d := assembled(t, true)
		tc.mutate(d)
		bag := diag.NewBag(10)
		err := metadata.Verify(d, diag.BagReporter{Bag: bag})
		var merr *metadata.Error
		require.ErrorAs(t, err, &merr, name)
		assert.Equal(t, metadata.ErrInconsistent, merr.Kind, name)
		require.True(t, bag.HasErrors(), name)
		codes := make([]diag.Code, 0, bag.Len())
		for _, item := range bag.Items() {
			codes = append(codes, item.Code)
		}
		assert.Contains(t, codes, tc.code, name)
	}
}

func TestVerifyWarnsOnly(t *testing.T) {
	t.Parallel()

	d := assembled(t, false)
	unused := registry.ToWire(registry.Prim(registry.PrimBool))
	d.Types = append(d.Types, registry.PortableTypeWire{ID: registry.TypeID(len(d.Types)), Type: unused})
	d.Spec.Constructors = append(d.Spec.Constructors, spec.ConstructorSpec{
		Label: "new_1", Selector: d.Spec.Constructors[0].Selector, Args: []spec.ParamSpec{}, Docs: []string{},
	})

	bag := diag.NewBag(10)
	require.NoError(t, metadata.Verify(d, diag.BagReporter{Bag: bag}))
	require.Equal(t, 2, bag.Len())
	assert.True(t, bag.HasWarnings())
	assert.False(t, bag.HasErrors())
}
