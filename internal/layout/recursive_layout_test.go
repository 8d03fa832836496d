package layout_test

import (
	"errors"
	"math"
	"testing"

	"contractmeta/internal/layout"
	"contractmeta/internal/model"
)

func TestLayoutEngine_RecursiveStructReportsError(t *testing.T) {
	ns := &model.Namespace{Structs: []*model.StructDecl{{Name: "Node", Fields: []model.StructField{
		{Name: "next", Type: model.ArrayType{Elem: model.StructType{No: 0}, Dims: []model.ArrayLength{model.Fixed(1)}}},
	}}}}
	le := layout.New(layout.Wasm32(), ns, 0)
	_, err := le.LayoutOf(model.StructType{No: 0})
	if err == nil {
		t.Fatal("expected recursive layout error, got nil")
	}
	var lerr *layout.LayoutError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *layout.LayoutError, got %T (%v)", err, err)
	}
	if lerr.Kind != layout.LayoutErrRecursiveUnsized {
		t.Fatalf("expected LayoutErrRecursiveUnsized, got kind=%d (%v)", lerr.Kind, lerr)
	}
	if len(lerr.Cycle) == 0 {
		t.Fatalf("expected non-empty cycle path, got %+v", lerr)
	}
	if fits, _ := le.Fits(model.StructType{No: 0}); fits {
		t.Fatal("recursive struct must not fit")
	}
}

func TestLayoutEngine_UserTypeAliasCycle(t *testing.T) {
	ns := &model.Namespace{UserTypes: []*model.UserTypeDecl{{Name: "Loop", Type: model.UserType{No: 0}}}}
	le := layout.New(layout.Wasm32(), ns, 0)
	if _, err := le.LayoutOf(model.UserType{No: 0}); err == nil {
		t.Fatal("expected error for self-referential user type")
	}
}

func TestLayoutEngine_Sizes(t *testing.T) {
	ns := &model.Namespace{
		Structs: []*model.StructDecl{{Name: "S", Fields: []model.StructField{
			{Name: "flag", Type: model.BoolType{}},
			{Name: "n", Type: model.IntType{Bits: 24}},
		}}},
		Enums:     []*model.EnumDecl{{Name: "E"}},
		UserTypes: []*model.UserTypeDecl{{Name: "Amount", Type: model.IntType{Bits: 128}}},
	}
	le := layout.New(layout.Wasm32(), ns, 0)
	cases := []struct {
		name string
		typ  model.Type
		want uint64
	}{
		{"bool", model.BoolType{}, 1},
		{"uint24", model.IntType{Bits: 24}, 4},
		{"int256", model.IntType{Bits: 256, Signed: true}, 32},
		{"address", model.AddressType{}, 32},
		{"bytes7", model.BytesType{Len: 7}, 7},
		{"string", model.StringType{}, 4},
		{"bytes", model.DynamicBytesType{}, 4},
		{"internal fn", model.FunctionType{}, 4},
		{"external fn", model.FunctionType{External: true}, 36},
		{"enum", model.EnumType{No: 0}, 1},
		{"struct", model.StructType{No: 0}, 8},
		{"user", model.UserType{No: 0}, 16},
		{"ref", model.RefType{Inner: model.StructType{No: 0}}, 8},
		{"fixed array", model.ArrayType{Elem: model.IntType{Bits: 16}, Dims: []model.ArrayLength{model.Fixed(3)}}, 6},
		{"nested array", model.ArrayType{Elem: model.BoolType{}, Dims: []model.ArrayLength{model.Fixed(2), model.Fixed(5)}}, 10},
		{"dynamic outer", model.ArrayType{Elem: model.StructType{No: 0}, Dims: []model.ArrayLength{model.Fixed(2), model.Dynamic()}}, 4},
		{"dynamic inner", model.ArrayType{Elem: model.BoolType{}, Dims: []model.ArrayLength{model.Dynamic(), model.Fixed(3)}}, 12},
	}
	for _, tc := range cases {
		got, err := le.SizeOf(tc.typ)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: size %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestLayoutEngine_Saturates(t *testing.T) {
	le := layout.New(layout.Wasm32(), &model.Namespace{}, 0)
	huge := model.ArrayType{
		Elem: model.IntType{Bits: 256},
		Dims: []model.ArrayLength{model.Fixed(math.MaxUint64 / 2), model.Fixed(math.MaxUint64 / 2)},
	}
	size, err := le.SizeOf(huge)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if size != math.MaxUint64 {
		t.Fatalf("expected saturated size, got %d", size)
	}
	if fits, _ := le.Fits(huge); fits {
		t.Fatal("saturated size must not fit")
	}
}

func TestLayoutEngine_MappingIsUnsized(t *testing.T) {
	le := layout.New(layout.Wasm32(), &model.Namespace{}, 0)
	_, err := le.LayoutOf(model.MappingType{Key: model.BoolType{}, Value: model.BoolType{}})
	var lerr *layout.LayoutError
	if !errors.As(err, &lerr) || lerr.Kind != layout.LayoutErrUnsized {
		t.Fatalf("expected LayoutErrUnsized, got %v", err)
	}
}
