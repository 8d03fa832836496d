package model

import (
	"fmt"

	"github.com/holiman/uint256"
)

// DefaultAddressLength is the account id width of substrate-style runtimes.
const DefaultAddressLength = 32

// ContractKind distinguishes deployable contracts from libraries and interfaces.
type ContractKind uint8

const (
	ContractConcrete ContractKind = iota
	ContractAbstract
	ContractInterface
	ContractLibrary
)

func (k ContractKind) String() string {
	switch k {
	case ContractConcrete:
		return "contract"
	case ContractAbstract:
		return "abstract"
	case ContractInterface:
		return "interface"
	case ContractLibrary:
		return "library"
	default:
		return fmt.Sprintf("ContractKind(%d)", k)
	}
}

// FunctionKind is the syntactic flavour of a function.
type FunctionKind uint8

const (
	FuncFunction FunctionKind = iota
	FuncConstructor
	FuncFallback
	FuncReceive
	FuncModifier
)

func (k FunctionKind) String() string {
	switch k {
	case FuncFunction:
		return "function"
	case FuncConstructor:
		return "constructor"
	case FuncFallback:
		return "fallback"
	case FuncReceive:
		return "receive"
	case FuncModifier:
		return "modifier"
	default:
		return fmt.Sprintf("FunctionKind(%d)", k)
	}
}

// Visibility of a function.
type Visibility uint8

const (
	VisPublic Visibility = iota
	VisExternal
	VisInternal
	VisPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "public"
	case VisExternal:
		return "external"
	case VisInternal:
		return "internal"
	case VisPrivate:
		return "private"
	default:
		return fmt.Sprintf("Visibility(%d)", v)
	}
}

// Callable reports whether the function can be invoked from outside the contract.
func (v Visibility) Callable() bool {
	return v == VisPublic || v == VisExternal
}

// Mutability is the state mutability annotation of a function.
type Mutability uint8

const (
	MutNonpayable Mutability = iota
	MutPure
	MutView
	MutPayable
)

func (m Mutability) String() string {
	switch m {
	case MutNonpayable:
		return "nonpayable"
	case MutPure:
		return "pure"
	case MutView:
		return "view"
	case MutPayable:
		return "payable"
	default:
		return fmt.Sprintf("Mutability(%d)", m)
	}
}

// Mutates reports whether a call may change contract state.
func (m Mutability) Mutates() bool {
	return m == MutPayable || m == MutNonpayable
}

// Tag is one documentation tag attached to a declaration.
type Tag struct {
	Tag   string
	Value string
}

// Parameter is a function parameter, return value or event field.
type Parameter struct {
	Name    string
	Type    Type
	Indexed bool
}

// Function is a resolved function declaration.
type Function struct {
	Name       string
	Signature  string
	Kind       FunctionKind
	Visibility Visibility
	Mutability Mutability
	Params     []Parameter
	Returns    []Parameter
	Tags       []Tag
	// ContractNo is the enclosing contract, nil for free functions.
	ContractNo *int
	// Selector is the externally computed selector, nil if it must be derived from Signature.
	Selector []byte
}

// IsConstructor reports whether f is a constructor.
func (f *Function) IsConstructor() bool { return f.Kind == FuncConstructor }

// Event is a resolved event declaration.
type Event struct {
	Name   string
	Fields []Parameter
	Tags   []Tag
}

// StructField is one named field of a struct declaration.
type StructField struct {
	Name string
	Type Type
}

// StructDecl is a struct declaration.
type StructDecl struct {
	Name   string
	Fields []StructField
}

// EnumValue is one enum variant and its discriminant.
type EnumValue struct {
	Name         string
	Discriminant uint64
}

// EnumDecl is an enum declaration; Values are in declaration order.
type EnumDecl struct {
	Name   string
	Values []EnumValue
}

// UserTypeDecl is a user-defined value type over Type.
type UserTypeDecl struct {
	Name string
	Type Type
}

// Variable is a contract state variable.
type Variable struct {
	Name string
	Type Type
}

// StorageSlot is the storage assignment computed for one state variable.
type StorageSlot struct {
	ContractNo int
	VarNo      int
	Slot       uint256.Int
	Type       Type
}

// Contract is a resolved contract declaration.
type Contract struct {
	Name string
	Kind ContractKind
	Tags []Tag
	// Functions lists function numbers declared in this contract.
	Functions []int
	// AllFunctions lists function numbers callable on this contract, including inherited ones.
	AllFunctions []int
	// DefaultConstructor is synthesized when the contract declares no constructor.
	DefaultConstructor *Function
	Variables          []Variable
	Layout             []StorageSlot
	SendsEvents        []int
}

// IsLibrary reports whether the contract is a library.
func (c *Contract) IsLibrary() bool { return c.Kind == ContractLibrary }

// TagValues returns the values of all tags named name, in order.
func (c *Contract) TagValues(name string) []string {
	var out []string
	for _, t := range c.Tags {
		if t.Tag == name {
			out = append(out, t.Value)
		}
	}
	return out
}

// Namespace is the resolved program model handed over by semantic analysis.
type Namespace struct {
	AddressLength int
	Contracts     []*Contract
	Functions     []*Function
	Events        []*Event
	Structs       []*StructDecl
	Enums         []*EnumDecl
	UserTypes     []*UserTypeDecl
}

// Struct returns the struct declaration for no.
func (ns *Namespace) Struct(no int) (*StructDecl, bool) {
	if ns == nil || no < 0 || no >= len(ns.Structs) || ns.Structs[no] == nil {
		return nil, false
	}
	return ns.Structs[no], true
}

// Enum returns the enum declaration for no.
func (ns *Namespace) Enum(no int) (*EnumDecl, bool) {
	if ns == nil || no < 0 || no >= len(ns.Enums) || ns.Enums[no] == nil {
		return nil, false
	}
	return ns.Enums[no], true
}

// UserTypeDecl returns the user type declaration for no.
func (ns *Namespace) UserTypeDecl(no int) (*UserTypeDecl, bool) {
	if ns == nil || no < 0 || no >= len(ns.UserTypes) || ns.UserTypes[no] == nil {
		return nil, false
	}
	return ns.UserTypes[no], true
}

// Contract returns the contract for no.
func (ns *Namespace) Contract(no int) (*Contract, bool) {
	if ns == nil || no < 0 || no >= len(ns.Contracts) || ns.Contracts[no] == nil {
		return nil, false
	}
	return ns.Contracts[no], true
}

// Function returns the function for no.
func (ns *Namespace) Function(no int) (*Function, bool) {
	if ns == nil || no < 0 || no >= len(ns.Functions) || ns.Functions[no] == nil {
		return nil, false
	}
	return ns.Functions[no], true
}

// Event returns the event for no.
func (ns *Namespace) Event(no int) (*Event, bool) {
	if ns == nil || no < 0 || no >= len(ns.Events) || ns.Events[no] == nil {
		return nil, false
	}
	return ns.Events[no], true
}

// ContractIndex finds a contract by name.
func (ns *Namespace) ContractIndex(name string) (int, bool) {
	if ns == nil {
		return 0, false
	}
	for i, c := range ns.Contracts {
		if c != nil && c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// AddressWidth returns the configured address length or the default.
func (ns *Namespace) AddressWidth() int {
	if ns == nil || ns.AddressLength <= 0 {
		return DefaultAddressLength
	}
	return ns.AddressLength
}

// ContainsMapping reports whether t transitively contains a mapping.
func (ns *Namespace) ContainsMapping(t Type) bool {
	return ns.containsMapping(t, make(map[declRef]struct{}, 4))
}

// declRef names a struct or user type declaration.
type declRef struct {
	user bool
	no   int
}

func (ns *Namespace) containsMapping(t Type, seen map[declRef]struct{}) bool {
	switch tt := t.(type) {
	case MappingType:
		return true
	case ArrayType:
		return ns.containsMapping(tt.Elem, seen)
	case RefType:
		return ns.containsMapping(tt.Inner, seen)
	case StorageRefType:
		return ns.containsMapping(tt.Inner, seen)
	case UserType:
		ref := declRef{user: true, no: tt.No}
		if _, ok := seen[ref]; ok {
			return false
		}
		seen[ref] = struct{}{}
		if decl, ok := ns.UserTypeDecl(tt.No); ok {
			return ns.containsMapping(decl.Type, seen)
		}
		return false
	case StructType:
		ref := declRef{no: tt.No}
		if _, ok := seen[ref]; ok {
			return false
		}
		seen[ref] = struct{}{}
		decl, ok := ns.Struct(tt.No)
		if !ok {
			return false
		}
		for _, f := range decl.Fields {
			if ns.containsMapping(f.Type, seen) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Describe renders t with declaration names instead of numbers, for messages and display names.
func (ns *Namespace) Describe(t Type) string {
	switch tt := t.(type) {
	case nil:
		return "<nil>"
	case ContractType:
		if c, ok := ns.Contract(tt.No); ok {
			return c.Name
		}
	case StructType:
		if s, ok := ns.Struct(tt.No); ok {
			return "struct " + s.Name
		}
	case EnumType:
		if e, ok := ns.Enum(tt.No); ok {
			return "enum " + e.Name
		}
	case UserType:
		if u, ok := ns.UserTypeDecl(tt.No); ok {
			return u.Name
		}
	case ArrayType:
		out := ns.Describe(tt.Elem)
		for _, d := range tt.Dims {
			out += d.String()
		}
		return out
	case RefType:
		return ns.Describe(tt.Inner)
	case StorageRefType:
		return ns.Describe(tt.Inner) + " storage"
	case MappingType:
		return "mapping(" + ns.Describe(tt.Key) + " => " + ns.Describe(tt.Value) + ")"
	}
	return t.String()
}
