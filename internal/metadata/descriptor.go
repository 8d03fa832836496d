// Package metadata assembles, encodes and checks contract descriptors: the
// portable document bundling source identity, storage layout, the callable
// surface and the type registry of one contract.
package metadata

import (
	"encoding/hex"
	"fmt"
	"strings"

	"contractmeta/internal/layout"
	"contractmeta/internal/registry"
	"contractmeta/internal/spec"
)

// DefaultContractVersion is stamped when neither the config nor the manifest
// provides a contract version.
const DefaultContractVersion = "0.0.1"

// Hex is a byte string rendered as 0x-prefixed lower-case hex text. CBOR
// encodes it as a raw byte string.
type Hex []byte

func (h Hex) String() string { return "0x" + hex.EncodeToString(h) }

func (h Hex) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hex) UnmarshalText(text []byte) error {
	s := string(text)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("hex %q: missing 0x prefix", s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return fmt.Errorf("hex %q: %w", s, err)
	}
	*h = raw
	return nil
}

// Language identifies the source language.
type Language struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Compiler identifies the tool that produced the code.
type Compiler struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Source describes the compiled code the descriptor belongs to.
type Source struct {
	Hash     Hex      `json:"hash"`
	Language Language `json:"language"`
	Compiler Compiler `json:"compiler"`
	Wasm     Hex      `json:"wasm,omitempty"`
}

// Contract carries the human-facing contract identity.
type Contract struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Authors     []string `json:"authors"`
	Description string   `json:"description,omitempty"`
}

// Descriptor is the complete metadata document of one contract. Types[i].ID
// is always i.
type Descriptor struct {
	Source   Source                      `json:"source"`
	Contract Contract                    `json:"contract"`
	Storage  layout.Layout               `json:"storage"`
	Spec     spec.ContractSpec           `json:"spec"`
	Types    []registry.PortableTypeWire `json:"types"`
}

// Registry rebuilds the typed registry from Types.
func (d *Descriptor) Registry() (*registry.Registry, error) {
	if d == nil {
		return registry.New(), nil
	}
	return registry.FromWire(d.Types)
}

// Selectors maps every constructor and message label to its selector text.
func (d *Descriptor) Selectors() map[string]string {
	out := make(map[string]string, len(d.Spec.Constructors)+len(d.Spec.Messages))
	for _, c := range d.Spec.Constructors {
		out[c.Label] = c.Selector.String()
	}
	for _, m := range d.Spec.Messages {
		out[m.Label] = m.Selector.String()
	}
	return out
}
