package layout

import (
	"math"
	"math/bits"

	"contractmeta/internal/model"
)

// canonicalType strips references and user type aliases.
func (e *LayoutEngine) canonicalType(t model.Type) model.Type {
	seen := make(map[int]struct{}, 4)
	for t != nil {
		switch tt := t.(type) {
		case model.RefType:
			t = tt.Inner
		case model.StorageRefType:
			t = tt.Inner
		case model.UserType:
			if _, ok := seen[tt.No]; ok {
				return t
			}
			seen[tt.No] = struct{}{}
			decl, ok := e.NS.UserTypeDecl(tt.No)
			if !ok {
				return t
			}
			t = decl.Type
		default:
			return t
		}
	}
	return t
}

func (e *LayoutEngine) computeLayout(t model.Type, path *visiting) (TypeLayout, *LayoutError) {
	switch tt := t.(type) {
	case model.BoolType:
		return TypeLayout{Size: 1, Align: 1}, nil

	case model.IntType:
		n := uint64(tt.Bits)
		if n == 0 || n > 256 {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsized, Type: t.String()}
		}
		if n <= 8 {
			return scalarLayoutBytes(1), nil
		}
		return scalarLayoutBytes((uint64(1) << bits.Len64(n-1)) / 8), nil

	case model.AddressType, model.ContractType:
		return TypeLayout{Size: e.AddressLength, Align: 1}, nil

	case model.BytesType:
		return TypeLayout{Size: uint64(tt.Len), Align: 1}, nil

	case model.StringType, model.DynamicBytesType:
		return e.ptrLayout(), nil

	case model.FunctionType:
		if !tt.External {
			return e.ptrLayout(), nil
		}
		return TypeLayout{Size: satAdd(roundUp(e.AddressLength, 4), 4), Align: 4}, nil

	case model.EnumType:
		return TypeLayout{Size: 1, Align: 1}, nil

	case model.ArrayType:
		cur, err := e.layoutOf(tt.Elem, path)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		for _, d := range tt.Dims {
			if d.Dynamic {
				cur = e.ptrLayout()
				continue
			}
			cur = arrayFixedLayout(cur, d.Count)
		}
		return cur, nil

	case model.StructType:
		decl, ok := e.NS.Struct(tt.No)
		if !ok {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownType, Type: t.String()}
		}
		return e.structLayout(decl, path)

	case model.UserType:
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownType, Type: t.String()}

	default:
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsized, Type: t.String()}
	}
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize == 0 {
		ptrSize = 4
	}
	if ptrAlign == 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func scalarLayoutBytes(size uint64) TypeLayout {
	if size == 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return satAdd(n, align-r)
}

func satAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func satMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

func arrayFixedLayout(elem TypeLayout, length uint64) TypeLayout {
	align := elem.Align
	if align == 0 {
		align = 1
	}
	stride := roundUp(elem.Size, align)
	return TypeLayout{
		Size:  satMul(stride, length),
		Align: align,
	}
}

func (e *LayoutEngine) structLayout(decl *model.StructDecl, path *visiting) (TypeLayout, *LayoutError) {
	if len(decl.Fields) == 0 {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	offsets := make([]uint64, len(decl.Fields))
	var size uint64
	align := uint64(1)
	for i, f := range decl.Fields {
		fl, err := e.layoutOf(f.Type, path)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := max(fl.Align, 1)
		size = roundUp(size, fAlign)
		offsets[i] = size
		size = satAdd(size, fl.Size)
		align = max(align, fAlign)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
	}, nil
}
