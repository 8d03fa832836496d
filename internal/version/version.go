package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build identity of the contractmeta tool. Version, GitCommit and BuildDate
// can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the tool, without a "v" prefix.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

const (
	// CompilerName is stamped into descriptors as source.compiler.name.
	CompilerName = "contractmeta"
	// LanguageName is stamped into descriptors as source.language.name.
	LanguageName = "Solidity"
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Release returns Version without pre-release or build suffixes, e.g. "0.1.0".
func Release() string {
	v := strings.TrimSpace(Version)
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return "0.0.0"
	}
	return v
}

// Pretty renders Version with colored major, minor and patch components.
// Colors are dropped when color.NoColor is set.
func Pretty() string {
	v := strings.TrimSpace(Version)
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	return majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2]) + suffix
}
