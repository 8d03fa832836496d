package layout

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"contractmeta/internal/model"
	"contractmeta/internal/registry"
	"contractmeta/internal/resolve"
)

// Key is a storage slot rendered as 32 big-endian bytes.
type Key [32]byte

// String returns the 0x-prefixed lower-case hex form.
func (k Key) String() string { return "0x" + hex.EncodeToString(k[:]) }

func (k Key) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Key) UnmarshalText(text []byte) error {
	s := string(text)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("storage key %q: missing 0x prefix", s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return fmt.Errorf("storage key %q: %w", s, err)
	}
	if len(raw) != len(k) {
		return fmt.Errorf("storage key %q: want %d bytes, got %d", s, len(k), len(raw))
	}
	copy(k[:], raw)
	return nil
}

// CellLayout is one storage cell.
type CellLayout struct {
	Key  Key             `json:"key"`
	Type registry.TypeID `json:"ty"`
}

// FieldLayout names a nested layout.
type FieldLayout struct {
	Name   string `json:"name"`
	Layout Layout `json:"layout"`
}

// StructLayout is an ordered set of named layouts.
type StructLayout struct {
	Fields []FieldLayout `json:"fields"`
}

// Layout has exactly one member set.
type Layout struct {
	Cell   *CellLayout   `json:"cell,omitempty"`
	Struct *StructLayout `json:"struct,omitempty"`
}

// ExclusionReason says why a variable has no layout entry.
type ExclusionReason uint8

const (
	ExcludedMapping ExclusionReason = iota + 1
	ExcludedTooLarge
	ExcludedUnsized
)

func (r ExclusionReason) String() string {
	switch r {
	case ExcludedMapping:
		return "contains mapping"
	case ExcludedTooLarge:
		return "exceeds memory limit"
	case ExcludedUnsized:
		return "unsized"
	default:
		return fmt.Sprintf("ExclusionReason(%d)", r)
	}
}

// Excluded is a storage variable left out of the layout.
type Excluded struct {
	Name   string
	Reason ExclusionReason
	Size   uint64
}

// Storage is the storage layout of one contract.
type Storage struct {
	Root     Layout
	Excluded []Excluded
}

// BuildStorage maps the computed slot assignments of a contract into a layout:
// one named cell per variable, in declaration order. Variables that contain a
// mapping or do not fit in target memory are skipped and listed in Excluded.
func BuildStorage(res *resolve.Resolver, engine *LayoutEngine, contractNo int) (*Storage, error) {
	ns := res.Namespace()
	c, ok := ns.Contract(contractNo)
	if !ok {
		return nil, &resolve.Error{Kind: resolve.ErrMalformedInput, Type: fmt.Sprintf("contract#%d", contractNo), Detail: "unknown contract"}
	}
	root := &StructLayout{Fields: make([]FieldLayout, 0, len(c.Layout))}
	out := &Storage{Root: Layout{Struct: root}}
	for i, slot := range c.Layout {
		name, typ, err := slotVariable(ns, slot)
		if err != nil {
			return nil, fmt.Errorf("storage entry %d of %s: %w", i, c.Name, err)
		}
		if ns.ContainsMapping(typ) {
			out.Excluded = append(out.Excluded, Excluded{Name: name, Reason: ExcludedMapping})
			continue
		}
		fits, err := engine.Fits(typ)
		if err != nil {
			var lerr *LayoutError
			if errors.As(err, &lerr) && lerr.Kind == LayoutErrRecursiveUnsized {
				out.Excluded = append(out.Excluded, Excluded{Name: name, Reason: ExcludedUnsized})
				continue
			}
			// The resolver names dangling and cyclic declarations precisely.
			if _, rerr := res.Resolve(typ); rerr != nil {
				return nil, fmt.Errorf("storage %s.%s: %w", c.Name, name, rerr)
			}
			return nil, fmt.Errorf("sizing %s.%s: %w", c.Name, name, err)
		}
		if !fits {
			size, _ := engine.SizeOf(typ)
			out.Excluded = append(out.Excluded, Excluded{Name: name, Reason: ExcludedTooLarge, Size: size})
			continue
		}
		pt, err := res.Resolve(typ)
		if err != nil {
			return nil, fmt.Errorf("storage %s.%s: %w", c.Name, name, err)
		}
		root.Fields = append(root.Fields, FieldLayout{
			Name:   name,
			Layout: Layout{Cell: &CellLayout{Key: Key(slot.Slot.Bytes32()), Type: pt.ID}},
		})
	}
	return out, nil
}

func slotVariable(ns *model.Namespace, slot model.StorageSlot) (string, model.Type, error) {
	owner, ok := ns.Contract(slot.ContractNo)
	if !ok {
		return "", nil, &resolve.Error{Kind: resolve.ErrMalformedInput, Type: fmt.Sprintf("contract#%d", slot.ContractNo), Detail: "unknown contract"}
	}
	if slot.VarNo < 0 || slot.VarNo >= len(owner.Variables) {
		return "", nil, &resolve.Error{Kind: resolve.ErrMalformedInput, Type: fmt.Sprintf("%s.var#%d", owner.Name, slot.VarNo), Detail: "unknown variable"}
	}
	v := owner.Variables[slot.VarNo]
	typ := slot.Type
	if typ == nil {
		typ = v.Type
	}
	return v.Name, typ, nil
}
