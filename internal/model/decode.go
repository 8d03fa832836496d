package model

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Format is the serialization of a program model file.
type Format uint8

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeFile reads a program model from path.
func DecodeFile(path string) (*Namespace, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading program model '%v'", path)
	}
	ns, err := Decode(data, FormatForPath(path))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "decoding program model '%v'", path)
	}
	return ns, data, nil
}

// Decode parses a program model. YAML input is converted to JSON first so both
// formats share one schema.
func Decode(data []byte, format Format) (*Namespace, error) {
	if format == FormatYAML {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, errors.Wrap(err, "converting yaml")
		}
		data = converted
	}
	var w namespaceWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return nil, errors.Wrap(err, "parsing namespace")
	}
	return w.namespace()
}

type namespaceWire struct {
	AddressLength int            `json:"address_length,omitempty"`
	Contracts     []contractWire `json:"contracts"`
	Functions     []functionWire `json:"functions,omitempty"`
	Events        []eventWire    `json:"events,omitempty"`
	Structs       []structWire   `json:"structs,omitempty"`
	Enums         []enumWire     `json:"enums,omitempty"`
	UserTypes     []userTypeWire `json:"user_types,omitempty"`
}

type tagWire struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

type paramWire struct {
	Name    string    `json:"name,omitempty"`
	Type    *typeWire `json:"type"`
	Indexed bool      `json:"indexed,omitempty"`
}

type functionWire struct {
	Name       string      `json:"name"`
	Signature  string      `json:"signature,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	Visibility string      `json:"visibility,omitempty"`
	Mutability string      `json:"mutability,omitempty"`
	Params     []paramWire `json:"params,omitempty"`
	Returns    []paramWire `json:"returns,omitempty"`
	Tags       []tagWire   `json:"tags,omitempty"`
	Contract   *int        `json:"contract,omitempty"`
	Selector   string      `json:"selector,omitempty"`
}

type eventWire struct {
	Name   string      `json:"name"`
	Fields []paramWire `json:"fields,omitempty"`
	Tags   []tagWire   `json:"tags,omitempty"`
}

type structWire struct {
	Name   string      `json:"name"`
	Fields []paramWire `json:"fields"`
}

type enumValueWire struct {
	Name         string `json:"name"`
	Discriminant uint64 `json:"discriminant"`
}

type enumWire struct {
	Name   string          `json:"name"`
	Values []enumValueWire `json:"values"`
}

type userTypeWire struct {
	Name string    `json:"name"`
	Type *typeWire `json:"type"`
}

type variableWire struct {
	Name string    `json:"name"`
	Type *typeWire `json:"type"`
}

type slotWire struct {
	Contract *int      `json:"contract,omitempty"`
	Var      int       `json:"var"`
	Slot     slotValue `json:"slot"`
	Type     *typeWire `json:"type,omitempty"`
}

type contractWire struct {
	Name               string         `json:"name"`
	Kind               string         `json:"kind,omitempty"`
	Tags               []tagWire      `json:"tags,omitempty"`
	Functions          []int          `json:"functions,omitempty"`
	AllFunctions       []int          `json:"all_functions,omitempty"`
	DefaultConstructor *functionWire  `json:"default_constructor,omitempty"`
	Variables          []variableWire `json:"variables,omitempty"`
	Layout             []slotWire     `json:"layout,omitempty"`
	SendsEvents        []int          `json:"sends_events,omitempty"`
}

type typeWire struct {
	Kind      string     `json:"kind"`
	Bits      uint16     `json:"bits,omitempty"`
	Len       uint8      `json:"len,omitempty"`
	No        int        `json:"no,omitempty"`
	Payable   bool       `json:"payable,omitempty"`
	External  bool       `json:"external,omitempty"`
	Immutable bool       `json:"immutable,omitempty"`
	Elem      *typeWire  `json:"elem,omitempty"`
	Dims      []dimWire  `json:"dims,omitempty"`
	Inner     *typeWire  `json:"inner,omitempty"`
	Key       *typeWire  `json:"key,omitempty"`
	Value     *typeWire  `json:"value,omitempty"`
}

// dimWire is either a count or the string "dynamic" (null is accepted too).
type dimWire ArrayLength

func (d *dimWire) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`"dynamic"`)) {
		*d = dimWire(Dynamic())
		return nil
	}
	var n uint64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return errors.Wrapf(err, "array dimension %s", trimmed)
	}
	*d = dimWire(Fixed(n))
	return nil
}

// slotValue accepts a JSON number or a decimal / 0x-hex string.
type slotValue struct{ uint256.Int }

func (s *slotValue) UnmarshalJSON(data []byte) error {
	text := string(bytes.TrimSpace(data))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		v, err = uint256.FromHex("0x" + strings.TrimLeft(text[2:], "0"))
		if err != nil && strings.TrimLeft(text[2:], "0") == "" {
			v, err = new(uint256.Int), nil
		}
	} else {
		v, err = uint256.FromDecimal(text)
	}
	if err != nil {
		return errors.Wrapf(err, "storage slot %q", text)
	}
	s.Int = *v
	return nil
}

func (w *namespaceWire) namespace() (*Namespace, error) {
	ns := &Namespace{AddressLength: w.AddressLength}
	for i := range w.Structs {
		s := &w.Structs[i]
		decl := &StructDecl{Name: s.Name}
		for j, f := range s.Fields {
			t, err := f.Type.toType()
			if err != nil {
				return nil, errors.Wrapf(err, "struct '%v' field %d", s.Name, j)
			}
			decl.Fields = append(decl.Fields, StructField{Name: f.Name, Type: t})
		}
		ns.Structs = append(ns.Structs, decl)
	}
	for _, e := range w.Enums {
		decl := &EnumDecl{Name: e.Name}
		for _, v := range e.Values {
			decl.Values = append(decl.Values, EnumValue(v))
		}
		ns.Enums = append(ns.Enums, decl)
	}
	for _, u := range w.UserTypes {
		t, err := u.Type.toType()
		if err != nil {
			return nil, errors.Wrapf(err, "user type '%v'", u.Name)
		}
		ns.UserTypes = append(ns.UserTypes, &UserTypeDecl{Name: u.Name, Type: t})
	}
	for i := range w.Functions {
		f, err := w.Functions[i].function()
		if err != nil {
			return nil, errors.Wrapf(err, "function #%d '%v'", i, w.Functions[i].Name)
		}
		ns.Functions = append(ns.Functions, f)
	}
	for _, e := range w.Events {
		ev := &Event{Name: e.Name, Tags: tags(e.Tags)}
		fields, err := params(e.Fields)
		if err != nil {
			return nil, errors.Wrapf(err, "event '%v'", e.Name)
		}
		ev.Fields = fields
		ns.Events = append(ns.Events, ev)
	}
	for i := range w.Contracts {
		c, err := w.Contracts[i].contract(i)
		if err != nil {
			return nil, errors.Wrapf(err, "contract '%v'", w.Contracts[i].Name)
		}
		ns.Contracts = append(ns.Contracts, c)
	}
	return ns, nil
}

func (w *contractWire) contract(no int) (*Contract, error) {
	kind, err := parseContractKind(w.Kind)
	if err != nil {
		return nil, err
	}
	c := &Contract{
		Name:         w.Name,
		Kind:         kind,
		Tags:         tags(w.Tags),
		Functions:    append([]int(nil), w.Functions...),
		AllFunctions: append([]int(nil), w.AllFunctions...),
		SendsEvents:  append([]int(nil), w.SendsEvents...),
	}
	if w.DefaultConstructor != nil {
		f, err := w.DefaultConstructor.function()
		if err != nil {
			return nil, errors.Wrap(err, "default constructor")
		}
		if f.ContractNo == nil {
			f.ContractNo = &no
		}
		f.Kind = FuncConstructor
		c.DefaultConstructor = f
	}
	for _, v := range w.Variables {
		t, err := v.Type.toType()
		if err != nil {
			return nil, errors.Wrapf(err, "variable '%v'", v.Name)
		}
		c.Variables = append(c.Variables, Variable{Name: v.Name, Type: t})
	}
	for i, s := range w.Layout {
		slot := StorageSlot{ContractNo: no, VarNo: s.Var, Slot: s.Slot.Int}
		if s.Contract != nil {
			slot.ContractNo = *s.Contract
		}
		if s.Type != nil {
			t, err := s.Type.toType()
			if err != nil {
				return nil, errors.Wrapf(err, "layout entry %d", i)
			}
			slot.Type = t
		} else if slot.ContractNo == no && s.Var >= 0 && s.Var < len(c.Variables) {
			slot.Type = c.Variables[s.Var].Type
		}
		c.Layout = append(c.Layout, slot)
	}
	return c, nil
}

func (w *functionWire) function() (*Function, error) {
	f := &Function{
		Name:       w.Name,
		Signature:  w.Signature,
		Tags:       tags(w.Tags),
		ContractNo: w.Contract,
	}
	var err error
	if f.Kind, err = parseFunctionKind(w.Kind); err != nil {
		return nil, err
	}
	if f.Visibility, err = parseVisibility(w.Visibility); err != nil {
		return nil, err
	}
	if f.Mutability, err = parseMutability(w.Mutability); err != nil {
		return nil, err
	}
	if f.Params, err = params(w.Params); err != nil {
		return nil, errors.Wrap(err, "params")
	}
	if f.Returns, err = params(w.Returns); err != nil {
		return nil, errors.Wrap(err, "returns")
	}
	if w.Selector != "" {
		raw := strings.TrimPrefix(strings.TrimPrefix(w.Selector, "0x"), "0X")
		sel, err := hex.DecodeString(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "selector %q", w.Selector)
		}
		f.Selector = sel
	}
	return f, nil
}

func params(in []paramWire) ([]Parameter, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Parameter, 0, len(in))
	for i, p := range in {
		t, err := p.Type.toType()
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %d", i)
		}
		out = append(out, Parameter{Name: p.Name, Type: t, Indexed: p.Indexed})
	}
	return out, nil
}

func tags(in []tagWire) []Tag {
	if len(in) == 0 {
		return nil
	}
	out := make([]Tag, 0, len(in))
	for _, t := range in {
		out = append(out, Tag(t))
	}
	return out
}

func (w *typeWire) toType() (Type, error) {
	if w == nil {
		return nil, errors.New("missing type")
	}
	switch w.Kind {
	case "bool":
		return BoolType{}, nil
	case "uint":
		return IntType{Bits: w.Bits}, nil
	case "int":
		return IntType{Bits: w.Bits, Signed: true}, nil
	case "string":
		return StringType{}, nil
	case "address":
		return AddressType{Payable: w.Payable}, nil
	case "contract":
		return ContractType{No: w.No}, nil
	case "bytes":
		if w.Len == 0 {
			return DynamicBytesType{}, nil
		}
		return BytesType{Len: w.Len}, nil
	case "dynamic_bytes":
		return DynamicBytesType{}, nil
	case "array":
		elem, err := w.Elem.toType()
		if err != nil {
			return nil, errors.Wrap(err, "array element")
		}
		if len(w.Dims) == 0 {
			return nil, errors.New("array without dimensions")
		}
		dims := make([]ArrayLength, 0, len(w.Dims))
		for _, d := range w.Dims {
			dims = append(dims, ArrayLength(d))
		}
		return ArrayType{Elem: elem, Dims: dims}, nil
	case "struct":
		return StructType{No: w.No}, nil
	case "enum":
		return EnumType{No: w.No}, nil
	case "function":
		return FunctionType{External: w.External}, nil
	case "ref":
		inner, err := w.Inner.toType()
		if err != nil {
			return nil, errors.Wrap(err, "reference")
		}
		return RefType{Inner: inner}, nil
	case "storage_ref":
		inner, err := w.Inner.toType()
		if err != nil {
			return nil, errors.Wrap(err, "storage reference")
		}
		return StorageRefType{Immutable: w.Immutable, Inner: inner}, nil
	case "user":
		return UserType{No: w.No}, nil
	case "mapping":
		key, err := w.Key.toType()
		if err != nil {
			return nil, errors.Wrap(err, "mapping key")
		}
		value, err := w.Value.toType()
		if err != nil {
			return nil, errors.Wrap(err, "mapping value")
		}
		return MappingType{Key: key, Value: value}, nil
	default:
		return nil, errors.Errorf("unknown type kind '%v'", w.Kind)
	}
}

func parseContractKind(s string) (ContractKind, error) {
	switch s {
	case "", "contract":
		return ContractConcrete, nil
	case "abstract":
		return ContractAbstract, nil
	case "interface":
		return ContractInterface, nil
	case "library":
		return ContractLibrary, nil
	default:
		return 0, errors.Errorf("unknown contract kind '%v'", s)
	}
}

func parseFunctionKind(s string) (FunctionKind, error) {
	switch s {
	case "", "function":
		return FuncFunction, nil
	case "constructor":
		return FuncConstructor, nil
	case "fallback":
		return FuncFallback, nil
	case "receive":
		return FuncReceive, nil
	case "modifier":
		return FuncModifier, nil
	default:
		return 0, errors.Errorf("unknown function kind '%v'", s)
	}
}

func parseVisibility(s string) (Visibility, error) {
	switch s {
	case "", "public":
		return VisPublic, nil
	case "external":
		return VisExternal, nil
	case "internal":
		return VisInternal, nil
	case "private":
		return VisPrivate, nil
	default:
		return 0, errors.Errorf("unknown visibility '%v'", s)
	}
}

func parseMutability(s string) (Mutability, error) {
	switch s {
	case "", "nonpayable":
		return MutNonpayable, nil
	case "pure":
		return MutPure, nil
	case "view":
		return MutView, nil
	case "payable":
		return MutPayable, nil
	default:
		return 0, errors.Errorf("unknown mutability '%v'", s)
	}
}
