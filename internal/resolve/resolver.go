package resolve

import (
	"fmt"
	"math/bits"
	"slices"
	"strconv"

	"fortio.org/safecast"

	"contractmeta/internal/model"
	"contractmeta/internal/registry"
)

// MaxIntBits is the widest integer the target runtime can represent.
const MaxIntBits = 256

// Config tunes lowering.
type Config struct {
	// AddressLength overrides the namespace address length when positive.
	AddressLength int
}

// Resolver lowers source types into registry entries. One resolver serves one
// contract; its cache and registry are discarded afterwards.
type Resolver struct {
	ns         *model.Namespace
	reg        *registry.Registry
	cache      *Cache
	addressLen int

	stack []string
	index map[string]int
}

// New creates a resolver writing into reg.
func New(ns *model.Namespace, reg *registry.Registry, cfg Config) *Resolver {
	if reg == nil {
		reg = registry.New()
	}
	addressLen := cfg.AddressLength
	if addressLen <= 0 {
		addressLen = ns.AddressWidth()
	}
	return &Resolver{
		ns:         ns,
		reg:        reg,
		cache:      NewCache(),
		addressLen: addressLen,
		index:      make(map[string]int, 16),
	}
}

// Registry returns the registry being filled.
func (r *Resolver) Registry() *registry.Registry { return r.reg }

// Cache returns the resolution cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// Namespace returns the program model being resolved.
func (r *Resolver) Namespace() *model.Namespace { return r.ns }

// Resolve returns the registry entry for t, registering it and its children
// as needed.
func (r *Resolver) Resolve(t model.Type) (registry.PortableType, error) {
	if t == nil {
		return registry.PortableType{}, &Error{Kind: ErrMalformedInput, Type: "<nil>", Detail: "missing type"}
	}
	if pt, ok := r.cache.Lookup(t); ok {
		return pt, nil
	}

	key := t.String()
	if idx, ok := r.index[key]; ok {
		cycle := append(slices.Clone(r.stack[idx:]), key)
		return registry.PortableType{}, &Error{Kind: ErrRecursiveType, Type: r.ns.Describe(t), Cycle: cycle}
	}
	r.index[key] = len(r.stack)
	r.stack = append(r.stack, key)
	pt, err := r.lower(t)
	r.stack = r.stack[:len(r.stack)-1]
	delete(r.index, key)
	if err != nil {
		return registry.PortableType{}, err
	}
	r.cache.Insert(t, pt)
	return pt, nil
}

func (r *Resolver) lower(t model.Type) (registry.PortableType, error) {
	switch tt := t.(type) {
	case model.AddressType, model.ContractType:
		if c, isContract := tt.(model.ContractType); isContract {
			if _, found := r.ns.Contract(c.No); !found {
				return registry.PortableType{}, r.dangling(t, "contract")
			}
		}
		n, err := safecast.Conv[uint64](r.addressLen)
		if err != nil {
			return registry.PortableType{}, &Error{Kind: ErrMalformedInput, Type: r.ns.Describe(t), Detail: "invalid address length"}
		}
		raw, err := r.Resolve(model.ArrayType{Elem: model.Uint8, Dims: []model.ArrayLength{model.Fixed(n)}})
		if err != nil {
			return registry.PortableType{}, err
		}
		return r.reg.GetOrRegister(registry.Type{Def: registry.DefComposite{
			Fields: []registry.Field{{Type: raw.ID}},
		}}), nil

	case model.BoolType:
		return r.reg.GetOrRegister(registry.Prim(registry.PrimBool)), nil

	case model.StringType:
		return r.reg.GetOrRegister(registry.Prim(registry.PrimStr)), nil

	case model.IntType:
		width, ok := WidenBits(tt.Bits)
		if !ok {
			return registry.PortableType{}, &Error{Kind: ErrUnsupportedType, Type: t.String(), Detail: "integer width out of range"}
		}
		prim, _ := registry.IntPrimitive(width, tt.Signed)
		return r.reg.GetOrRegister(registry.Prim(prim)), nil

	case model.BytesType:
		return r.Resolve(model.ArrayType{Elem: model.Uint8, Dims: []model.ArrayLength{model.Fixed(uint64(tt.Len))}})

	case model.DynamicBytesType:
		return r.Resolve(model.ArrayType{Elem: model.Uint8, Dims: []model.ArrayLength{model.Dynamic()}})

	case model.ArrayType:
		if len(tt.Dims) == 0 {
			return registry.PortableType{}, &Error{Kind: ErrMalformedInput, Type: r.ns.Describe(t), Detail: "array without dimensions"}
		}
		cur, err := r.Resolve(tt.Elem)
		if err != nil {
			return registry.PortableType{}, err
		}
		for _, d := range tt.Dims {
			if d.Dynamic {
				cur = r.reg.GetOrRegister(registry.Type{Def: registry.DefSequence{Elem: cur.ID}})
				continue
			}
			n, err := safecast.Conv[uint32](d.Count)
			if err != nil {
				return registry.PortableType{}, &Error{Kind: ErrUnsupportedType, Type: r.ns.Describe(t), Detail: "array length " + strconv.FormatUint(d.Count, 10) + " exceeds u32"}
			}
			cur = r.reg.GetOrRegister(registry.Type{Def: registry.DefArray{Len: n, Elem: cur.ID}})
		}
		return cur, nil

	case model.StructType:
		decl, ok := r.ns.Struct(tt.No)
		if !ok {
			return registry.PortableType{}, r.dangling(t, "struct")
		}
		fields := make([]registry.Field, 0, len(decl.Fields))
		for _, f := range decl.Fields {
			ft, err := r.Resolve(f.Type)
			if err != nil {
				return registry.PortableType{}, err
			}
			fields = append(fields, registry.Field{Name: f.Name, Type: ft.ID})
		}
		return r.reg.GetOrRegister(registry.Type{Def: registry.DefComposite{Fields: fields}}), nil

	case model.EnumType:
		decl, ok := r.ns.Enum(tt.No)
		if !ok {
			return registry.PortableType{}, r.dangling(t, "enum")
		}
		values := slices.Clone(decl.Values)
		slices.SortStableFunc(values, func(a, b model.EnumValue) int {
			switch {
			case a.Discriminant < b.Discriminant:
				return -1
			case a.Discriminant > b.Discriminant:
				return 1
			default:
				return 0
			}
		})
		variants := make([]registry.Variant, 0, len(values))
		for _, v := range values {
			idx, err := safecast.Conv[uint8](v.Discriminant)
			if err != nil {
				return registry.PortableType{}, &Error{Kind: ErrUnsupportedType, Type: r.ns.Describe(t), Detail: fmt.Sprintf("discriminant %d of %s exceeds u8", v.Discriminant, v.Name)}
			}
			variants = append(variants, registry.Variant{Name: v.Name, Index: idx})
		}
		return r.reg.GetOrRegister(registry.Type{Def: registry.DefVariant{Variants: variants}}), nil

	case model.FunctionType:
		if !tt.External {
			return r.Resolve(model.Uint8)
		}
		addr, err := r.Resolve(model.AddressType{})
		if err != nil {
			return registry.PortableType{}, err
		}
		sel, err := r.Resolve(model.Uint32)
		if err != nil {
			return registry.PortableType{}, err
		}
		return r.reg.GetOrRegister(registry.Type{Def: registry.DefComposite{
			Fields: []registry.Field{{Type: addr.ID}, {Type: sel.ID}},
		}}), nil

	case model.RefType:
		return r.Resolve(tt.Inner)

	case model.StorageRefType:
		return r.Resolve(tt.Inner)

	case model.UserType:
		decl, ok := r.ns.UserTypeDecl(tt.No)
		if !ok {
			return registry.PortableType{}, r.dangling(t, "user type")
		}
		return r.Resolve(decl.Type)

	default:
		return registry.PortableType{}, &Error{Kind: ErrUnsupportedType, Type: r.ns.Describe(t)}
	}
}

func (r *Resolver) dangling(t model.Type, what string) *Error {
	return &Error{Kind: ErrMalformedInput, Type: t.String(), Detail: "unknown " + what}
}

// WidenBits rounds an integer width up to the next power of two, at least 8.
// It fails for zero and for widths that end up above MaxIntBits.
func WidenBits(n uint16) (uint16, bool) {
	if n == 0 || n > MaxIntBits {
		return 0, false
	}
	if n <= 8 {
		return 8, true
	}
	return uint16(1) << bits.Len16(n-1), true
}
