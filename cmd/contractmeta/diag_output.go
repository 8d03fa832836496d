package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"contractmeta/internal/diag"
	"contractmeta/internal/diagfmt"
	"contractmeta/internal/version"
)

// printDiagnostics renders bag in the --diag-format of the root command.
// Pretty output drops info diagnostics in quiet mode.
func printDiagnostics(cmd *cobra.Command, out io.Writer, bag *diag.Bag) error {
	if bag == nil {
		return nil
	}
	format := "pretty"
	if f := cmd.Root().PersistentFlags().Lookup("diag-format"); f != nil {
		format = strings.ToLower(f.Value.String())
	}
	switch format {
	case "json":
		return diagfmt.JSON(out, bag, diagfmt.JSONOpts{IncludeNotes: true})
	case "sarif":
		return diagfmt.Sarif(out, bag, diagfmt.SarifRunMeta{
			ToolName:       version.CompilerName,
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	case "pretty", "":
		opts := diagfmt.PrettyOpts{Color: !color.NoColor, ShowNotes: true}
		if quiet(cmd) {
			opts.MinSeverity = uint8(diag.SevWarning)
		}
		diagfmt.Pretty(out, bag, opts)
		return nil
	default:
		return fmt.Errorf("unsupported diagnostics format %q (expected pretty|json|sarif)", format)
	}
}
