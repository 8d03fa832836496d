package model

import (
	"testing"
)

const flipperJSON = `{
  "address_length": 32,
  "contracts": [{
    "name": "flipper",
    "tags": [{"tag": "title", "value": "Flipper"}, {"tag": "notice", "value": "Flips a bool"}],
    "functions": [0],
    "all_functions": [0, 1],
    "variables": [{"name": "value", "type": {"kind": "bool"}}],
    "layout": [{"var": 0, "slot": "0x0"}],
    "sends_events": [0]
  }],
  "functions": [
    {"name": "new", "signature": "new(bool)", "kind": "constructor", "contract": 0,
     "params": [{"name": "init", "type": {"kind": "bool"}}]},
    {"name": "get", "signature": "get()", "mutability": "view", "contract": 0,
     "returns": [{"type": {"kind": "bool"}}], "selector": "0x6d4ce63c"}
  ],
  "events": [{"name": "Flipped", "fields": [{"name": "to", "type": {"kind": "bool"}, "indexed": true}]}]
}`

func TestDecodeJSON(t *testing.T) {
	ns, err := Decode([]byte(flipperJSON), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ns.Contracts) != 1 || ns.Contracts[0].Name != "flipper" {
		t.Fatalf("unexpected contracts: %+v", ns.Contracts)
	}
	c := ns.Contracts[0]
	if len(c.Layout) != 1 || !c.Layout[0].Slot.IsZero() {
		t.Fatalf("unexpected layout: %+v", c.Layout)
	}
	if c.Layout[0].Type == nil || c.Layout[0].Type.Kind() != KindBool {
		t.Fatalf("layout type must default to the variable type, got %v", c.Layout[0].Type)
	}
	ctor, ok := ns.Function(0)
	if !ok || !ctor.IsConstructor() {
		t.Fatalf("function 0 must be a constructor")
	}
	get, _ := ns.Function(1)
	if get.Mutability != MutView || get.Mutability.Mutates() {
		t.Fatalf("get must be a non-mutating view")
	}
	if len(get.Selector) != 4 || get.Selector[0] != 0x6d {
		t.Fatalf("selector not decoded: %x", get.Selector)
	}
	ev, _ := ns.Event(0)
	if !ev.Fields[0].Indexed {
		t.Fatalf("indexed flag lost")
	}
	if got := c.TagValues("notice"); len(got) != 1 || got[0] != "Flips a bool" {
		t.Fatalf("notice tags: %v", got)
	}
}

func TestDecodeYAML(t *testing.T) {
	src := `
contracts:
  - name: store
    variables:
      - name: data
        type: {kind: array, elem: {kind: uint, bits: 24}, dims: [2, dynamic]}
    layout:
      - {var: 0, slot: "12"}
`
	ns, err := Decode([]byte(src), FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	slot := ns.Contracts[0].Layout[0]
	if slot.Slot.Uint64() != 12 {
		t.Fatalf("slot mismatch: %v", slot.Slot.Dec())
	}
	if got := slot.Type.String(); got != "uint24[2][]" {
		t.Fatalf("array type mismatch: %s", got)
	}
	if ns.AddressWidth() != DefaultAddressLength {
		t.Fatalf("address width must default to %d", DefaultAddressLength)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown kind":  `{"contracts":[{"name":"c","variables":[{"name":"v","type":{"kind":"float"}}]}]}`,
		"unknown field": `{"contracts":[],"bogus":1}`,
		"bad slot":      `{"contracts":[{"name":"c","layout":[{"var":0,"slot":"zz"}]}]}`,
		"bad selector":  `{"contracts":[],"functions":[{"name":"f","selector":"0xgg"}]}`,
		"no dims":       `{"contracts":[{"name":"c","variables":[{"name":"v","type":{"kind":"array","elem":{"kind":"bool"}}}]}]}`,
	}
	for name, src := range cases {
		if _, err := Decode([]byte(src), FormatJSON); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	if FormatForPath("a/b.yml") != FormatYAML || FormatForPath("x.YAML") != FormatYAML {
		t.Fatalf("yaml extension not detected")
	}
	if FormatForPath("model.json") != FormatJSON {
		t.Fatalf("json expected")
	}
}
