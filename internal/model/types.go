package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates all source type variants produced by semantic analysis.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindString
	KindAddress
	KindContract
	KindBytes
	KindDynamicBytes
	KindArray
	KindStruct
	KindEnum
	KindFunction
	KindRef
	KindStorageRef
	KindUser
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindAddress:
		return "address"
	case KindContract:
		return "contract"
	case KindBytes:
		return "bytes"
	case KindDynamicBytes:
		return "dynamic_bytes"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	case KindRef:
		return "ref"
	case KindStorageRef:
		return "storage_ref"
	case KindUser:
		return "user"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a fully resolved source type. The set of implementations is closed.
type Type interface {
	Kind() Kind
	// String renders the canonical form of the type. Two types with the same
	// canonical form are the same source type.
	String() string
	isType()
}

// BoolType is the boolean type.
type BoolType struct{}

// IntType is a signed or unsigned integer of an arbitrary bit width.
type IntType struct {
	Bits   uint16
	Signed bool
}

// StringType is a textual string.
type StringType struct{}

// AddressType is an account address.
type AddressType struct {
	Payable bool
}

// ContractType is a reference to a deployed contract, ContractNo indexes Namespace.Contracts.
type ContractType struct {
	No int
}

// BytesType is a fixed-length byte sequence (bytes1..bytes32).
type BytesType struct {
	Len uint8
}

// DynamicBytesType is a variable-length byte sequence.
type DynamicBytesType struct{}

// ArrayLength is one array dimension. Dynamic dimensions carry no count.
type ArrayLength struct {
	Dynamic bool
	Count   uint64
}

// Fixed returns a fixed dimension.
func Fixed(n uint64) ArrayLength { return ArrayLength{Count: n} }

// Dynamic returns a dynamic dimension.
func Dynamic() ArrayLength { return ArrayLength{Dynamic: true} }

// ArrayType is a possibly multi-dimensional array. Dims are stored innermost
// first, so T[2][3] has Dims [2, 3].
type ArrayType struct {
	Elem Type
	Dims []ArrayLength
}

// StructType refers to Namespace.Structs[No].
type StructType struct {
	No int
}

// EnumType refers to Namespace.Enums[No].
type EnumType struct {
	No int
}

// FunctionType is a function pointer. External pointers carry an address and a selector.
type FunctionType struct {
	External bool
}

// RefType is a memory reference to Inner.
type RefType struct {
	Inner Type
}

// StorageRefType is a reference into contract storage.
type StorageRefType struct {
	Immutable bool
	Inner     Type
}

// UserType refers to a user-defined value type, Namespace.UserTypes[No].
type UserType struct {
	No int
}

// MappingType is an unbounded key/value mapping; it only lives in storage.
type MappingType struct {
	Key   Type
	Value Type
}

func (BoolType) Kind() Kind         { return KindBool }
func (IntType) Kind() Kind          { return KindInt }
func (StringType) Kind() Kind       { return KindString }
func (AddressType) Kind() Kind      { return KindAddress }
func (ContractType) Kind() Kind     { return KindContract }
func (BytesType) Kind() Kind        { return KindBytes }
func (DynamicBytesType) Kind() Kind { return KindDynamicBytes }
func (ArrayType) Kind() Kind        { return KindArray }
func (StructType) Kind() Kind       { return KindStruct }
func (EnumType) Kind() Kind         { return KindEnum }
func (FunctionType) Kind() Kind     { return KindFunction }
func (RefType) Kind() Kind          { return KindRef }
func (StorageRefType) Kind() Kind   { return KindStorageRef }
func (UserType) Kind() Kind         { return KindUser }
func (MappingType) Kind() Kind      { return KindMapping }

func (BoolType) isType()         {}
func (IntType) isType()          {}
func (StringType) isType()       {}
func (AddressType) isType()      {}
func (ContractType) isType()     {}
func (BytesType) isType()        {}
func (DynamicBytesType) isType() {}
func (ArrayType) isType()        {}
func (StructType) isType()       {}
func (EnumType) isType()         {}
func (FunctionType) isType()     {}
func (RefType) isType()          {}
func (StorageRefType) isType()   {}
func (UserType) isType()         {}
func (MappingType) isType()      {}

func (BoolType) String() string { return "bool" }

func (t IntType) String() string {
	if t.Signed {
		return "int" + strconv.FormatUint(uint64(t.Bits), 10)
	}
	return "uint" + strconv.FormatUint(uint64(t.Bits), 10)
}

func (StringType) String() string { return "string" }

func (t AddressType) String() string {
	if t.Payable {
		return "address payable"
	}
	return "address"
}

func (t ContractType) String() string { return "contract#" + strconv.Itoa(t.No) }

func (t BytesType) String() string { return "bytes" + strconv.FormatUint(uint64(t.Len), 10) }

func (DynamicBytesType) String() string { return "bytes" }

func (t ArrayType) String() string {
	var sb strings.Builder
	sb.WriteString(typeString(t.Elem))
	for _, d := range t.Dims {
		sb.WriteString(d.String())
	}
	return sb.String()
}

func (d ArrayLength) String() string {
	if d.Dynamic {
		return "[]"
	}
	return "[" + strconv.FormatUint(d.Count, 10) + "]"
}

func (t StructType) String() string { return "struct#" + strconv.Itoa(t.No) }

func (t EnumType) String() string { return "enum#" + strconv.Itoa(t.No) }

func (t FunctionType) String() string {
	if t.External {
		return "function external"
	}
	return "function internal"
}

func (t RefType) String() string { return "ref(" + typeString(t.Inner) + ")" }

func (t StorageRefType) String() string {
	if t.Immutable {
		return "storage_ref immutable(" + typeString(t.Inner) + ")"
	}
	return "storage_ref(" + typeString(t.Inner) + ")"
}

func (t UserType) String() string { return "user#" + strconv.Itoa(t.No) }

func (t MappingType) String() string {
	return "mapping(" + typeString(t.Key) + " => " + typeString(t.Value) + ")"
}

func typeString(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// Uint8 is a shortcut used by lowering rules.
var Uint8 Type = IntType{Bits: 8}

// Uint32 is a shortcut used by lowering rules.
var Uint32 Type = IntType{Bits: 32}
