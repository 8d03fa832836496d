package metadata

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/crypto/blake2b"

	"contractmeta/internal/diag"
	"contractmeta/internal/layout"
	"contractmeta/internal/registry"
	"contractmeta/internal/spec"
)

// Verify checks that d is self-consistent: the registry is well formed, every
// type id used by storage and spec exists, every registry entry is reachable,
// selectors share one width, the version is semver and any embedded code
// matches the hash. Each problem is reported to r; the returned error is
// non-nil when at least one of them is an error.
func Verify(d *Descriptor, r diag.Reporter) error {
	if d == nil {
		return &Error{Kind: ErrMalformedInput, Subject: "descriptor", Detail: "nil descriptor"}
	}
	if r == nil {
		r = diag.NopReporter{}
	}
	v := &verifier{d: d, r: r, subject: d.Contract.Name}
	v.run()
	if v.errors > 0 {
		return &Error{Kind: ErrInconsistent, Subject: v.subject, Detail: fmt.Sprintf("%d problem(s) found", v.errors)}
	}
	return nil
}

type verifier struct {
	d       *Descriptor
	r       diag.Reporter
	subject string
	errors  int
	reach   *bitset.BitSet
	stack   []registry.TypeID
}

func (v *verifier) fail(code diag.Code, where, msg string) {
	v.errors++
	diag.ReportError(v.r, code, diag.Subject(v.subject+"::"+where), msg).Emit()
}

func (v *verifier) run() {
	if !ValidVersion(v.d.Contract.Version) {
		v.fail(diag.MetBadVersion, "contract", fmt.Sprintf("version %q is not a semantic version", v.d.Contract.Version))
	}
	v.checkSource()

	reg, err := v.d.Registry()
	if err != nil {
		v.fail(diag.MetVerifyFailed, "types", err.Error())
		return
	}
	n := reg.Len()
	v.reach = bitset.New(uint(n))

	v.checkLayout("storage", v.d.Storage, n)
	for _, c := range v.d.Spec.Constructors {
		where := "constructors::" + c.Label
		for _, a := range c.Args {
			v.root(where+"::"+a.Label, a.Type.Type, n)
		}
	}
	for _, m := range v.d.Spec.Messages {
		where := "messages::" + m.Label
		for _, a := range m.Args {
			v.root(where+"::"+a.Label, a.Type.Type, n)
		}
		if m.ReturnType != nil {
			v.root(where+"::return", m.ReturnType.Type, n)
		}
	}
	for _, e := range v.d.Spec.Events {
		for _, a := range e.Args {
			v.root("events::"+e.Label+"::"+a.Label, a.Type.Type, n)
		}
	}
	v.walk(reg)
	for i, ok := v.reach.NextClear(0); ok && i < uint(n); i, ok = v.reach.NextClear(i + 1) {
		diag.ReportWarning(v.r, diag.MetVerifyFailed, diag.Subject(v.subject+"::types::#"+strconv.FormatUint(uint64(i), 10)),
			"type is not referenced by storage or spec").Emit()
	}

	v.checkSelectors()
	spec.ReportCollisions(&v.d.Spec, v.subject, v.r)
}

func (v *verifier) checkSource() {
	if len(v.d.Source.Hash) != blake2b.Size256 {
		v.fail(diag.MetVerifyFailed, "source", fmt.Sprintf("hash is %d bytes, want %d", len(v.d.Source.Hash), blake2b.Size256))
		return
	}
	if len(v.d.Source.Wasm) == 0 {
		return
	}
	sum := blake2b.Sum256(v.d.Source.Wasm)
	if !bytes.Equal(sum[:], v.d.Source.Hash) {
		v.fail(diag.MetHashMismatch, "source", fmt.Sprintf("embedded code hashes to %s, descriptor says %s", Hex(sum[:]), v.d.Source.Hash))
	}
}

func (v *verifier) checkLayout(where string, l layout.Layout, n int) {
	if l.Cell != nil {
		v.root(where, l.Cell.Type, n)
	}
	if l.Struct != nil {
		for _, f := range l.Struct.Fields {
			v.checkLayout(where+"::"+f.Name, f.Layout, n)
		}
	}
}

func (v *verifier) root(where string, id registry.TypeID, n int) {
	if int(id) >= n {
		v.fail(diag.MetVerifyFailed, where, fmt.Sprintf("type #%d does not exist (%d types)", id, n))
		return
	}
	v.stack = append(v.stack, id)
}

func (v *verifier) walk(reg *registry.Registry) {
	for len(v.stack) > 0 {
		id := v.stack[len(v.stack)-1]
		v.stack = v.stack[:len(v.stack)-1]
		if v.reach.Test(uint(id)) {
			continue
		}
		v.reach.Set(uint(id))
		v.stack = append(v.stack, registry.References(reg.MustLookup(id).Def)...)
	}
}

func (v *verifier) checkSelectors() {
	width := -1
	check := func(where string, sel spec.Selector) {
		if width < 0 {
			width = len(sel)
		}
		if len(sel) == 0 || len(sel) != width {
			v.fail(diag.SpcSelectorWidth, where, fmt.Sprintf("selector %s is %d bytes, want %d", sel, len(sel), width))
		}
	}
	for _, c := range v.d.Spec.Constructors {
		check("constructors::"+c.Label, c.Selector)
	}
	for _, m := range v.d.Spec.Messages {
		check("messages::"+m.Label, m.Selector)
	}
}
