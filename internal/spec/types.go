package spec

import (
	"encoding/hex"
	"fmt"
	"strings"

	"contractmeta/internal/registry"
)

// Selector identifies a constructor or message in an encoded call.
type Selector []byte

// String returns the 0x-prefixed lower-case hex form.
func (s Selector) String() string { return "0x" + hex.EncodeToString(s) }

func (s Selector) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Selector) UnmarshalText(text []byte) error {
	str := string(text)
	if !strings.HasPrefix(str, "0x") {
		return fmt.Errorf("selector %q: missing 0x prefix", str)
	}
	raw, err := hex.DecodeString(str[2:])
	if err != nil {
		return fmt.Errorf("selector %q: %w", str, err)
	}
	*s = raw
	return nil
}

// TypeSpec references a registry entry together with its source-level name.
type TypeSpec struct {
	Type        registry.TypeID `json:"type"`
	DisplayName []string        `json:"displayName"`
}

// ParamSpec is a labelled argument.
type ParamSpec struct {
	Label string   `json:"label"`
	Type  TypeSpec `json:"type"`
}

// ConstructorSpec describes one way to instantiate the contract.
type ConstructorSpec struct {
	Label    string      `json:"label"`
	Selector Selector    `json:"selector"`
	Payable  bool        `json:"payable"`
	Args     []ParamSpec `json:"args"`
	Docs     []string    `json:"docs"`
}

// MessageSpec describes one callable message. ReturnType is nil for messages
// without return values.
type MessageSpec struct {
	Label      string      `json:"label"`
	Selector   Selector    `json:"selector"`
	Mutates    bool        `json:"mutates"`
	Payable    bool        `json:"payable"`
	Args       []ParamSpec `json:"args"`
	ReturnType *TypeSpec   `json:"returnType"`
	Docs       []string    `json:"docs"`
}

// EventParamSpec is one event field.
type EventParamSpec struct {
	Label   string   `json:"label"`
	Indexed bool     `json:"indexed"`
	Type    TypeSpec `json:"type"`
	Docs    []string `json:"docs"`
}

// EventSpec describes one event the contract may emit.
type EventSpec struct {
	Label string           `json:"label"`
	Args  []EventParamSpec `json:"args"`
	Docs  []string         `json:"docs"`
}

// ContractSpec aggregates the callable surface of a contract.
type ContractSpec struct {
	Constructors []ConstructorSpec `json:"constructors"`
	Messages     []MessageSpec     `json:"messages"`
	Events       []EventSpec       `json:"events"`
	Docs         []string          `json:"docs"`
}

// Message finds a message by label.
func (s *ContractSpec) Message(label string) (*MessageSpec, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Messages {
		if s.Messages[i].Label == label {
			return &s.Messages[i], true
		}
	}
	return nil, false
}

// Labels returns constructor and message labels, constructors first.
func (s *ContractSpec) Labels() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Constructors)+len(s.Messages))
	for _, c := range s.Constructors {
		out = append(out, c.Label)
	}
	for _, m := range s.Messages {
		out = append(out, m.Label)
	}
	return out
}
