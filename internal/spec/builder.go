package spec

import (
	"fmt"
	"slices"
	"strconv"

	"contractmeta/internal/diag"
	"contractmeta/internal/model"
	"contractmeta/internal/registry"
	"contractmeta/internal/resolve"
	"contractmeta/internal/selector"
	"contractmeta/internal/tags"
)

// ConstructorLabel is the label of the first constructor; further ones get
// "_1", "_2", ... appended.
const ConstructorLabel = "new"

// Config tunes the Builder.
type Config struct {
	// Selector derives selectors for functions without one. Defaults to selector.Keccak.
	Selector selector.Func
	// SelectorWidth is the required selector width in bytes. Defaults to selector.DefaultWidth.
	SelectorWidth int
	// Reporter receives selector collision warnings.
	Reporter diag.Reporter
}

// Builder produces the contract spec of one contract, resolving every
// parameter type through a shared Resolver.
type Builder struct {
	res        *resolve.Resolver
	ns         *model.Namespace
	contractNo int
	contract   *model.Contract
	cfg        Config
}

// NewBuilder binds a builder to contractNo.
func NewBuilder(res *resolve.Resolver, contractNo int, cfg Config) (*Builder, error) {
	ns := res.Namespace()
	c, ok := ns.Contract(contractNo)
	if !ok {
		return nil, &Error{Kind: ErrMalformedInput, Subject: "contract#" + strconv.Itoa(contractNo), Detail: "unknown contract"}
	}
	if cfg.Selector == nil {
		cfg.Selector = selector.Keccak
	}
	if cfg.SelectorWidth <= 0 {
		cfg.SelectorWidth = selector.DefaultWidth
	}
	if cfg.Reporter == nil {
		cfg.Reporter = diag.NopReporter{}
	}
	return &Builder{res: res, ns: ns, contractNo: contractNo, contract: c, cfg: cfg}, nil
}

// Build assembles constructors, messages and events, in that order, and
// reports selector collisions.
func (b *Builder) Build() (*ContractSpec, error) {
	ctors, err := b.Constructors()
	if err != nil {
		return nil, err
	}
	msgs, err := b.Messages()
	if err != nil {
		return nil, err
	}
	events, err := b.Events()
	if err != nil {
		return nil, err
	}
	out := &ContractSpec{
		Constructors: ctors,
		Messages:     msgs,
		Events:       events,
		Docs:         tags.Docs(b.contract.Tags),
	}
	ReportCollisions(out, b.contract.Name, b.cfg.Reporter)
	return out, nil
}

// Constructors returns the declared constructors followed by the default one.
func (b *Builder) Constructors() ([]ConstructorSpec, error) {
	var fns []*model.Function
	for _, no := range b.contract.Functions {
		f, ok := b.ns.Function(no)
		if !ok {
			return nil, b.malformed("functions", "function #"+strconv.Itoa(no)+" out of range")
		}
		if !f.IsConstructor() {
			continue
		}
		if f.ContractNo == nil {
			return nil, b.malformed("constructors", "constructor "+f.Signature+" has no enclosing contract")
		}
		fns = append(fns, f)
	}
	if b.contract.DefaultConstructor != nil {
		fns = append(fns, b.contract.DefaultConstructor)
	}

	out := make([]ConstructorSpec, 0, len(fns))
	for i, f := range fns {
		label := ConstructorLabel
		if i > 0 {
			label += "_" + strconv.Itoa(i)
		}
		sel, err := b.selectorOf(f, "constructors::"+label)
		if err != nil {
			return nil, err
		}
		args, err := b.params(f.Params)
		if err != nil {
			return nil, fmt.Errorf("constructor %s of %s: %w", label, b.contract.Name, err)
		}
		out = append(out, ConstructorSpec{
			Label:    label,
			Selector: sel,
			Payable:  f.Mutability == model.MutPayable,
			Args:     args,
			Docs:     tags.Docs(f.Tags),
		})
	}
	return out, nil
}

// Messages returns every public or external plain function callable on the
// contract, in ascending function number. Library functions are skipped.
func (b *Builder) Messages() ([]MessageSpec, error) {
	nos := slices.Clone(b.contract.AllFunctions)
	slices.Sort(nos)
	nos = slices.Compact(nos)

	out := make([]MessageSpec, 0, len(nos))
	for _, no := range nos {
		f, ok := b.ns.Function(no)
		if !ok {
			return nil, b.malformed("messages", "function #"+strconv.Itoa(no)+" out of range")
		}
		if f.Kind != model.FuncFunction || !f.Visibility.Callable() {
			continue
		}
		if f.ContractNo == nil {
			return nil, b.malformed("messages::"+f.Name, "message has no enclosing contract")
		}
		owner, ok := b.ns.Contract(*f.ContractNo)
		if !ok {
			return nil, b.malformed("messages::"+f.Name, "enclosing contract #"+strconv.Itoa(*f.ContractNo)+" out of range")
		}
		if owner.IsLibrary() {
			continue
		}
		sel, err := b.selectorOf(f, "messages::"+f.Name)
		if err != nil {
			return nil, err
		}
		args, err := b.params(f.Params)
		if err != nil {
			return nil, fmt.Errorf("message %s of %s: %w", f.Name, b.contract.Name, err)
		}
		ret, err := b.returnType(f.Returns)
		if err != nil {
			return nil, fmt.Errorf("message %s of %s: %w", f.Name, b.contract.Name, err)
		}
		out = append(out, MessageSpec{
			Label:      f.Name,
			Selector:   sel,
			Mutates:    f.Mutability.Mutates(),
			Payable:    f.Mutability == model.MutPayable,
			Args:       args,
			ReturnType: ret,
			Docs:       tags.Docs(f.Tags),
		})
	}
	return out, nil
}

// Events returns the events the contract sends, in model order.
func (b *Builder) Events() ([]EventSpec, error) {
	out := make([]EventSpec, 0, len(b.contract.SendsEvents))
	for _, no := range b.contract.SendsEvents {
		ev, ok := b.ns.Event(no)
		if !ok {
			return nil, b.malformed("events", "event #"+strconv.Itoa(no)+" out of range")
		}
		args := make([]EventParamSpec, 0, len(ev.Fields))
		for _, field := range ev.Fields {
			ts, err := b.typeSpec(field.Type)
			if err != nil {
				return nil, fmt.Errorf("event %s of %s: %w", ev.Name, b.contract.Name, err)
			}
			args = append(args, EventParamSpec{
				Label:   field.Name,
				Indexed: field.Indexed,
				Type:    ts,
				Docs:    []string{},
			})
		}
		out = append(out, EventSpec{Label: ev.Name, Args: args, Docs: tags.Docs(ev.Tags)})
	}
	return out, nil
}

func (b *Builder) params(in []model.Parameter) ([]ParamSpec, error) {
	out := make([]ParamSpec, 0, len(in))
	for _, p := range in {
		ts, err := b.typeSpec(p.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, ParamSpec{Label: p.Name, Type: ts})
	}
	return out, nil
}

func (b *Builder) typeSpec(t model.Type) (TypeSpec, error) {
	pt, err := b.res.Resolve(t)
	if err != nil {
		return TypeSpec{}, err
	}
	return TypeSpec{Type: pt.ID, DisplayName: resolve.DisplayName(b.ns, t)}, nil
}

// returnType maps zero returns to nil, one to its type and several to a fresh
// composite named only when every return value is named.
func (b *Builder) returnType(returns []model.Parameter) (*TypeSpec, error) {
	switch len(returns) {
	case 0:
		return nil, nil
	case 1:
		ts, err := b.typeSpec(returns[0].Type)
		if err != nil {
			return nil, err
		}
		return &ts, nil
	}
	allNamed := true
	for _, r := range returns {
		if r.Name == "" {
			allNamed = false
			break
		}
	}
	fields := make([]registry.Field, 0, len(returns))
	for _, r := range returns {
		pt, err := b.res.Resolve(r.Type)
		if err != nil {
			return nil, err
		}
		f := registry.Field{Type: pt.ID, TypeName: resolve.DisplayString(b.ns, r.Type)}
		if allNamed {
			f.Name = r.Name
		}
		fields = append(fields, f)
	}
	tuple := b.res.Registry().GetOrRegister(registry.Type{Def: registry.DefComposite{Fields: fields}})
	return &TypeSpec{Type: tuple.ID, DisplayName: []string{}}, nil
}

func (b *Builder) selectorOf(f *model.Function, subject string) (Selector, error) {
	sel := f.Selector
	if sel == nil {
		if f.Signature == "" {
			return nil, b.malformed(subject, "function has neither selector nor signature")
		}
		sel = b.cfg.Selector(f.Signature)
	}
	if len(sel) != b.cfg.SelectorWidth {
		return nil, &Error{
			Kind:    ErrSelectorWidth,
			Subject: b.contract.Name + "::" + subject,
			Detail:  fmt.Sprintf("selector 0x%x is %d bytes, want %d", sel, len(sel), b.cfg.SelectorWidth),
		}
	}
	return Selector(slices.Clone(sel)), nil
}

func (b *Builder) malformed(subject, detail string) *Error {
	return &Error{Kind: ErrMalformedInput, Subject: b.contract.Name + "::" + subject, Detail: detail}
}

// ReportCollisions warns once for every constructor or message whose selector
// was already used by an earlier one. Nothing is merged. It returns the number
// of collisions.
func ReportCollisions(s *ContractSpec, contract string, r diag.Reporter) int {
	if s == nil || r == nil {
		return 0
	}
	first := make(map[string]string, len(s.Constructors)+len(s.Messages))
	n := 0
	check := func(kind, label string, sel Selector) {
		key := sel.String()
		subject := diag.Subject(contract + "::" + kind + "::" + label)
		if prev, ok := first[key]; ok {
			n++
			diag.ReportWarning(r, diag.SpcSelectorCollision, subject,
				fmt.Sprintf("selector %s is also used by %s", key, prev)).
				WithNote(diag.Subject(contract+"::"+prev), "first use").
				Emit()
			return
		}
		first[key] = kind + "::" + label
	}
	for _, c := range s.Constructors {
		check("constructors", c.Label, c.Selector)
	}
	for _, m := range s.Messages {
		check("messages", m.Label, m.Selector)
	}
	return n
}
