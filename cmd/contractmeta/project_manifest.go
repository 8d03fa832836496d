package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"contractmeta/internal/buildpipeline"
	"contractmeta/internal/metadata"
)

const manifestName = "contractmeta.toml"

const noManifestMessage = "no " + manifestName + " found\nplease name the contract explicitly, e.g.:\n  contractmeta gen --model build/model.json --code build/flipper.wasm --contract flipper"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package   packageConfig    `toml:"package"`
	Target    targetConfig     `toml:"target"`
	Output    outputConfig     `toml:"output"`
	Contracts []contractConfig `toml:"contract"`
}

type packageConfig struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Authors []string `toml:"authors"`
}

type targetConfig struct {
	AddressLength int `toml:"address_length"`
	SelectorWidth int `toml:"selector_width"`
}

type outputConfig struct {
	Dir       string `toml:"dir"`
	Format    string `toml:"format"`
	Pretty    bool   `toml:"pretty"`
	EmbedCode bool   `toml:"embed_code"`
}

type contractConfig struct {
	Name  string `toml:"name"`
	Model string `toml:"model"`
	Code  string `toml:"code"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("package") {
		return projectConfig{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if meta.IsDefined("package", "version") && !metadata.ValidVersion(cfg.Package.Version) {
		return projectConfig{}, fmt.Errorf("%s: [package].version %q is not a semantic version", path, cfg.Package.Version)
	}
	if cfg.Target.AddressLength < 0 || cfg.Target.SelectorWidth < 0 {
		return projectConfig{}, fmt.Errorf("%s: [target] widths must not be negative", path)
	}
	if meta.IsDefined("output", "format") {
		if _, err := metadata.ParseFormat(cfg.Output.Format); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [output].format: %w", path, err)
		}
	}
	if len(cfg.Contracts) == 0 {
		return projectConfig{}, fmt.Errorf("%s: missing [[contract]]", path)
	}
	seen := make(map[string]bool, len(cfg.Contracts))
	for i, c := range cfg.Contracts {
		if strings.TrimSpace(c.Name) == "" {
			return projectConfig{}, fmt.Errorf("%s: [[contract]] #%d: missing name", path, i+1)
		}
		if strings.TrimSpace(c.Model) == "" {
			return projectConfig{}, fmt.Errorf("%s: [[contract]] %s: missing model", path, c.Name)
		}
		if seen[c.Name] {
			return projectConfig{}, fmt.Errorf("%s: [[contract]] %s: declared twice", path, c.Name)
		}
		seen[c.Name] = true
	}
	return cfg, nil
}

// resolvePath joins a manifest-relative path onto the manifest root.
func (m *projectManifest) resolvePath(rel string) string {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return ""
	}
	p := filepath.FromSlash(rel)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}

// targets lists the manifest contracts, optionally restricted to names.
func (m *projectManifest) targets(names []string) ([]buildpipeline.Target, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	found := make(map[string]bool, len(names))
	out := make([]buildpipeline.Target, 0, len(m.Config.Contracts))
	for _, c := range m.Config.Contracts {
		if len(want) > 0 && !want[c.Name] {
			continue
		}
		found[c.Name] = true
		out = append(out, buildpipeline.Target{
			Contract:  c.Name,
			ModelPath: m.resolvePath(c.Model),
			CodePath:  m.resolvePath(c.Code),
		})
	}
	for _, n := range names {
		if !found[n] {
			return nil, fmt.Errorf("%s: no [[contract]] named %q", m.Path, n)
		}
	}
	return out, nil
}

// apply fills generation settings the command line left unset.
func (m *projectManifest) apply(s *genSettings, changed func(string) bool) error {
	cfg := m.Config
	if cfg.Package.Version != "" {
		s.metadata.ContractVersion = cfg.Package.Version
	}
	if len(cfg.Package.Authors) > 0 {
		s.metadata.Authors = cfg.Package.Authors
	}
	s.metadata.AddressLength = cfg.Target.AddressLength
	s.metadata.SelectorWidth = cfg.Target.SelectorWidth
	if !changed("out") && cfg.Output.Dir != "" {
		s.outDir = m.resolvePath(cfg.Output.Dir)
	}
	if !changed("format") && cfg.Output.Format != "" {
		f, err := metadata.ParseFormat(cfg.Output.Format)
		if err != nil {
			return err
		}
		s.encode.Format = f
	}
	if !changed("pretty") {
		s.encode.Pretty = cfg.Output.Pretty
	}
	if !changed("embed-code") {
		s.metadata.EmbedCode = cfg.Output.EmbedCode
	}
	return nil
}
