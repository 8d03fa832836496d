package layout

import (
	"slices"

	"contractmeta/internal/model"
)

// TypeLayout is the in-memory layout of a type for a specific Target.
type TypeLayout struct {
	Size  uint64
	Align uint64

	// Struct-only:
	FieldOffsets []uint64
}

var unsized = TypeLayout{Align: 1}

// LayoutEngine computes in-memory sizes of source types. Sizes saturate at
// math.MaxUint64 instead of wrapping.
type LayoutEngine struct {
	Target        Target
	NS            *model.Namespace
	AddressLength uint64

	cache *cache
}

// New returns an engine for target. A zero addressLength falls back to the
// namespace address width.
func New(target Target, ns *model.Namespace, addressLength uint64) *LayoutEngine {
	if addressLength == 0 {
		addressLength = uint64(ns.AddressWidth())
	}
	return &LayoutEngine{Target: target, NS: ns, AddressLength: addressLength, cache: newCache()}
}

// visiting is the chain of type keys whose layout is being computed.
type visiting []string

func (v visiting) cycleFrom(key string) ([]string, bool) {
	i := slices.Index(v, key)
	if i < 0 {
		return nil, false
	}
	return append(slices.Clone(v[i:]), key), true
}

// LayoutOf computes and caches the layout of a type.
func (e *LayoutEngine) LayoutOf(t model.Type) (TypeLayout, error) {
	if e == nil {
		return unsized, nil
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	var path visiting
	l, err := e.layoutOf(t, &path)
	if err != nil {
		return l, err
	}
	return l, nil
}

func (e *LayoutEngine) layoutOf(t model.Type, path *visiting) (TypeLayout, *LayoutError) {
	canon := e.canonicalType(t)
	if canon == nil {
		return unsized, &LayoutError{Kind: LayoutErrUnknownType, Type: "<nil>"}
	}
	key := canon.String()
	if hit, ok := e.cache.get(key); ok {
		return hit.layout, hit.err
	}
	if cycle, ok := path.cycleFrom(key); ok {
		err := &LayoutError{Kind: LayoutErrRecursiveUnsized, Type: key, Cycle: cycle}
		e.cache.put(key, unsized, err)
		return unsized, err
	}

	*path = append(*path, key)
	l, err := e.computeLayout(canon, path)
	*path = (*path)[:len(*path)-1]

	e.cache.put(key, l, err)
	return l, err
}

// SizeOf returns the size of a type in bytes.
func (e *LayoutEngine) SizeOf(t model.Type) (uint64, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *LayoutEngine) AlignOf(t model.Type) (uint64, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// Fits reports whether a value of type t can be held in target memory.
// Recursive and unsized types never fit.
func (e *LayoutEngine) Fits(t model.Type) (bool, error) {
	l, err := e.LayoutOf(t)
	if err != nil {
		return false, err
	}
	limit := e.Target.MemoryLimit
	if limit == 0 {
		limit = Wasm32().MemoryLimit
	}
	return l.Size <= limit, nil
}
