package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/semver"

	"contractmeta/internal/diag"
	"contractmeta/internal/layout"
	"contractmeta/internal/model"
	"contractmeta/internal/registry"
	"contractmeta/internal/resolve"
	"contractmeta/internal/selector"
	"contractmeta/internal/spec"
	"contractmeta/internal/tags"
	"contractmeta/internal/version"
)

// Config stamps identity into the descriptor and tunes the pipeline.
// Zero values select the defaults.
type Config struct {
	LanguageName    string
	LanguageVersion string
	CompilerName    string
	CompilerVersion string

	// ContractVersion overrides DefaultContractVersion; it must be valid semver without a "v" prefix.
	ContractVersion string
	// Authors overrides the author tags of the contract.
	Authors []string

	AddressLength int
	SelectorWidth int
	Selector      selector.Func
	Target        layout.Target

	// EmbedCode copies the code into source.wasm.
	EmbedCode bool

	Reporter      diag.Reporter
	OnRecordTrace OnRecordTraceFunc
}

func (c Config) withDefaults() Config {
	if c.LanguageName == "" {
		c.LanguageName = version.LanguageName
	}
	if c.LanguageVersion == "" {
		c.LanguageVersion = version.Release()
	}
	if c.CompilerName == "" {
		c.CompilerName = version.CompilerName
	}
	if c.CompilerVersion == "" {
		c.CompilerVersion = version.Release()
	}
	if c.ContractVersion == "" {
		c.ContractVersion = DefaultContractVersion
	}
	if c.SelectorWidth <= 0 {
		c.SelectorWidth = selector.DefaultWidth
	}
	if c.Selector == nil {
		c.Selector = selector.Keccak
	}
	if c.Target.Triple == "" {
		c.Target = layout.Wasm32()
	}
	if c.Reporter == nil {
		c.Reporter = diag.NopReporter{}
	}
	return c
}

// ValidVersion reports whether v is a full semantic version such as 1.2.3 or
// 1.2.3-rc.1+build. A leading "v" is rejected.
func ValidVersion(v string) bool {
	if !semver.IsValid("v" + v) {
		return false
	}
	core := v
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	return strings.Count(core, ".") == 2
}

type assembler struct {
	cfg        Config
	code       []byte
	ns         *model.Namespace
	contractNo int
	contract   *model.Contract
	res        *resolve.Resolver
}

// Assemble builds the descriptor of contract contractNo compiled to code.
// Storage is laid out first, then constructors, messages and events, so type
// ids only depend on the input. Any error aborts without partial output.
func Assemble(code []byte, ns *model.Namespace, contractNo int, cfg Config) (*Descriptor, error) {
	start := time.Now()
	cfg = cfg.withDefaults()

	c, ok := ns.Contract(contractNo)
	if !ok {
		return nil, &Error{Kind: ErrMalformedInput, Subject: "contract#" + strconv.Itoa(contractNo), Detail: "unknown contract"}
	}
	if !ValidVersion(cfg.ContractVersion) {
		return nil, &Error{Kind: ErrBadVersion, Subject: c.Name, Detail: fmt.Sprintf("version %q is not a semantic version", cfg.ContractVersion)}
	}
	if cfg.AddressLength < 0 {
		return nil, &Error{Kind: ErrMalformedInput, Subject: c.Name, Detail: "negative address length"}
	}

	a := &assembler{
		cfg:        cfg,
		code:       code,
		ns:         ns,
		contractNo: contractNo,
		contract:   c,
		res:        resolve.New(ns, registry.New(), resolve.Config{AddressLength: cfg.AddressLength}),
	}
	d, err := a.run()
	if err != nil {
		return nil, err
	}
	a.reportAssembleTrace(start)
	return d, nil
}

func (a *assembler) run() (*Descriptor, error) {
	storage, err := a.storage()
	if err != nil {
		return nil, err
	}

	b, err := spec.NewBuilder(a.res, a.contractNo, spec.Config{
		Selector:      a.cfg.Selector,
		SelectorWidth: a.cfg.SelectorWidth,
		Reporter:      a.cfg.Reporter,
	})
	if err != nil {
		return nil, err
	}
	passStart := time.Now()
	ctors, err := b.Constructors()
	if err != nil {
		return nil, err
	}
	a.reportCountTrace(tracingConstructors, len(ctors), passStart)

	passStart = time.Now()
	msgs, err := b.Messages()
	if err != nil {
		return nil, err
	}
	a.reportCountTrace(tracingMessages, len(msgs), passStart)

	passStart = time.Now()
	events, err := b.Events()
	if err != nil {
		return nil, err
	}
	a.reportCountTrace(tracingEvents, len(events), passStart)

	cs := spec.ContractSpec{
		Constructors: ctors,
		Messages:     msgs,
		Events:       events,
		Docs:         tags.Docs(a.contract.Tags),
	}
	spec.ReportCollisions(&cs, a.contract.Name, a.cfg.Reporter)

	return &Descriptor{
		Source:   a.source(),
		Contract: a.identity(),
		Storage:  storage.Root,
		Spec:     cs,
		Types:    a.res.Registry().Wire(),
	}, nil
}

func (a *assembler) storage() (*layout.Storage, error) {
	start := time.Now()
	addressLen := uint64(a.res.Namespace().AddressWidth())
	if a.cfg.AddressLength > 0 {
		addressLen = uint64(a.cfg.AddressLength)
	}
	engine := layout.New(a.cfg.Target, a.ns, addressLen)
	storage, err := layout.BuildStorage(a.res, engine, a.contractNo)
	if err != nil {
		return nil, err
	}
	for _, ex := range storage.Excluded {
		msg := fmt.Sprintf("%s is not part of the storage layout: %s", ex.Name, ex.Reason)
		if ex.Reason == layout.ExcludedTooLarge {
			msg += fmt.Sprintf(" (%d bytes)", ex.Size)
		}
		diag.ReportInfo(a.cfg.Reporter, diag.LayStorageExcluded,
			diag.Subject(a.contract.Name+"::storage::"+ex.Name), msg).Emit()
	}
	a.reportCountTrace(tracingStorage, len(storage.Root.Struct.Fields), start)
	return storage, nil
}

func (a *assembler) source() Source {
	hash := blake2b.Sum256(a.code)
	src := Source{
		Hash:     Hex(hash[:]),
		Language: Language{Name: a.cfg.LanguageName, Version: a.cfg.LanguageVersion},
		Compiler: Compiler{Name: a.cfg.CompilerName, Version: a.cfg.CompilerVersion},
	}
	if a.cfg.EmbedCode {
		src.Wasm = Hex(append([]byte{}, a.code...))
	}
	return src
}

func (a *assembler) identity() Contract {
	authors := a.cfg.Authors
	if len(authors) == 0 {
		authors = tags.Values(a.contract.Tags, "author")
	}
	if len(authors) == 0 {
		authors = []string{"unknown"}
	}
	description := append(tags.Values(a.contract.Tags, "title"), tags.Values(a.contract.Tags, "notice")...)
	return Contract{
		Name:        a.contract.Name,
		Version:     a.cfg.ContractVersion,
		Authors:     append([]string{}, authors...),
		Description: strings.Join(description, "\n"),
	}
}
