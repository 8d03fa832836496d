// Package testkit holds shared checks for registry and descriptor tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"contractmeta/internal/diag"
	"contractmeta/internal/metadata"
	"contractmeta/internal/registry"
)

// CheckRegistryInvariants runs the structural invariants of a registry:
// 1) every reference points at a strictly smaller id (no forward or self references)
// 2) no two entries are structurally equal
// 3) the wire form decodes back to the same entries
func CheckRegistryInvariants(r *registry.Registry) error {
	if r == nil {
		return fmt.Errorf("nil registry")
	}
	types := r.Types()
	for i, pt := range types {
		id, err := safecast.Conv[uint32](i)
		if err != nil {
			return fmt.Errorf("registry too large: %w", err)
		}
		if uint32(pt.ID) != id {
			return fmt.Errorf("entry at position %d has id %d", i, pt.ID)
		}
		for _, ref := range registry.References(pt.Type.Def) {
			if uint32(ref) >= id {
				return fmt.Errorf("entry #%d references #%d", id, ref)
			}
		}
		for _, prev := range types[:i] {
			if registry.Equal(prev.Type, pt.Type) {
				return fmt.Errorf("entries #%d and #%d are equal: %s", prev.ID, pt.ID, pt.Type)
			}
		}
	}

	back, err := registry.FromWire(r.Wire())
	if err != nil {
		return fmt.Errorf("wire form does not decode: %w", err)
	}
	if back.Len() != r.Len() {
		return fmt.Errorf("wire round trip has %d entries, want %d", back.Len(), r.Len())
	}
	for i, pt := range back.Types() {
		if !registry.Equal(pt.Type, types[i].Type) {
			return fmt.Errorf("wire round trip changed #%d: %s != %s", i, pt.Type, types[i].Type)
		}
	}
	return nil
}

// CheckDescriptorInvariants verifies d and its registry and fails on any
// diagnostic, warnings included.
func CheckDescriptorInvariants(d *metadata.Descriptor) error {
	if d == nil {
		return fmt.Errorf("nil descriptor")
	}
	bag := diag.NewBag(0)
	if err := metadata.Verify(d, diag.BagReporter{Bag: bag, Contract: d.Contract.Name}); err != nil {
		return fmt.Errorf("%w\n%s", err, diag.FormatShort(bag.Items(), true))
	}
	if bag.Len() > 0 {
		return fmt.Errorf("unexpected diagnostics:\n%s", diag.FormatShort(bag.Items(), true))
	}
	r, err := d.Registry()
	if err != nil {
		return err
	}
	return CheckRegistryInvariants(r)
}
