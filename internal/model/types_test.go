package model

import "testing"

func TestCanonicalStrings(t *testing.T) {
	cases := []struct {
		typ  Type
		want string
	}{
		{IntType{Bits: 24}, "uint24"},
		{IntType{Bits: 8, Signed: true}, "int8"},
		{AddressType{Payable: true}, "address payable"},
		{BytesType{Len: 4}, "bytes4"},
		{DynamicBytesType{}, "bytes"},
		{ArrayType{Elem: BoolType{}, Dims: []ArrayLength{Fixed(2), Dynamic()}}, "bool[2][]"},
		{StorageRefType{Immutable: true, Inner: StructType{No: 1}}, "storage_ref immutable(struct#1)"},
		{MappingType{Key: AddressType{}, Value: IntType{Bits: 256}}, "mapping(address => uint256)"},
		{FunctionType{External: true}, "function external"},
	}
	for _, tc := range cases {
		if got := tc.typ.String(); got != tc.want {
			t.Errorf("%#v: got %q, want %q", tc.typ, got, tc.want)
		}
	}
}

func TestContainsMapping(t *testing.T) {
	ns := &Namespace{
		Structs: []*StructDecl{
			{Name: "Plain", Fields: []StructField{{Name: "a", Type: BoolType{}}}},
			{Name: "Holder", Fields: []StructField{{Name: "m", Type: MappingType{Key: BoolType{}, Value: BoolType{}}}}},
			{Name: "Self", Fields: []StructField{{Name: "next", Type: ArrayType{Elem: StructType{No: 2}, Dims: []ArrayLength{Dynamic()}}}}},
		},
		UserTypes: []*UserTypeDecl{
			{Name: "Wrapped", Type: StructType{No: 1}},
			{Name: "Loop", Type: UserType{No: 1}},
			{Name: "Ping", Type: UserType{No: 3}},
			{Name: "Pong", Type: ArrayType{Elem: UserType{No: 2}, Dims: []ArrayLength{Fixed(2)}}},
		},
	}
	cases := []struct {
		typ  Type
		want bool
	}{
		{StructType{No: 0}, false},
		{StructType{No: 1}, true},
		{ArrayType{Elem: StructType{No: 1}, Dims: []ArrayLength{Fixed(3)}}, true},
		{UserType{No: 0}, true},
		{RefType{Inner: StructType{No: 2}}, false},
		{UserType{No: 1}, false},
		{UserType{No: 2}, false},
	}
	for _, tc := range cases {
		if got := ns.ContainsMapping(tc.typ); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	ns := &Namespace{
		Contracts: []*Contract{{Name: "Token"}},
		Structs:   []*StructDecl{{Name: "Point"}},
	}
	if got := ns.Describe(ArrayType{Elem: StructType{No: 0}, Dims: []ArrayLength{Fixed(2)}}); got != "struct Point[2]" {
		t.Fatalf("got %q", got)
	}
	if got := ns.Describe(ContractType{No: 0}); got != "Token" {
		t.Fatalf("got %q", got)
	}
	if got := ns.Describe(StructType{No: 9}); got != "struct#9" {
		t.Fatalf("unknown struct must fall back to canonical form, got %q", got)
	}
}
