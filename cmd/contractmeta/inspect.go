package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"contractmeta/internal/diag"
	"contractmeta/internal/metadata"
	"contractmeta/internal/spec"
	"contractmeta/internal/suggest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Summarize a descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().String("message", "", "show one constructor or message")
	inspectCmd.Flags().Bool("types", false, "print the type registry")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if _, err := useColor(cmd); err != nil {
		return err
	}
	label, err := cmd.Flags().GetString("message")
	if err != nil {
		return err
	}
	showTypes, err := cmd.Flags().GetBool("types")
	if err != nil {
		return err
	}

	d, err := loadDescriptor(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if label != "" {
		if !printCallable(out, d, label) {
			bag := diag.NewBag(1)
			unknownMessage(diag.BagReporter{Bag: bag, Contract: d.Contract.Name}, d, label)
			if err := printDiagnostics(cmd, cmd.ErrOrStderr(), bag); err != nil {
				return err
			}
			cmd.SilenceErrors = true
			return fmt.Errorf("unknown message %q", label)
		}
	} else {
		printSummary(out, d)
	}

	if showTypes {
		reg, err := d.Registry()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reg.String())
	}
	return nil
}

func printSummary(out io.Writer, d *metadata.Descriptor) {
	fmt.Fprintf(out, "contract %s %s\n", d.Contract.Name, d.Contract.Version)
	if len(d.Contract.Authors) > 0 {
		fmt.Fprintf(out, "authors %s\n", strings.Join(d.Contract.Authors, ", "))
	}
	if d.Contract.Description != "" {
		fmt.Fprintf(out, "description %s\n", d.Contract.Description)
	}
	fmt.Fprintf(out, "hash %s\n", d.Source.Hash)
	fmt.Fprintf(out, "compiler %s %s (%s %s)\n", d.Source.Compiler.Name, d.Source.Compiler.Version, d.Source.Language.Name, d.Source.Language.Version)
	for _, c := range d.Spec.Constructors {
		fmt.Fprintf(out, "constructor %s %s%s\n", c.Selector, c.Label, argList(c.Args))
	}
	for _, m := range d.Spec.Messages {
		fmt.Fprintf(out, "message %s %s%s%s\n", m.Selector, m.Label, argList(m.Args), returnText(m.ReturnType))
	}
	for _, e := range d.Spec.Events {
		fmt.Fprintf(out, "event %s (%d fields)\n", e.Label, len(e.Args))
	}
	fmt.Fprintf(out, "types %d\n", len(d.Types))
}

// printCallable prints the constructor or message named label and reports
// whether one exists.
func printCallable(out io.Writer, d *metadata.Descriptor, label string) bool {
	for _, c := range d.Spec.Constructors {
		if c.Label != label {
			continue
		}
		fmt.Fprintf(out, "constructor %s%s\n", c.Label, argList(c.Args))
		fmt.Fprintf(out, "  selector %s\n", c.Selector)
		fmt.Fprintf(out, "  payable  %t\n", c.Payable)
		printDocs(out, c.Docs)
		return true
	}
	m, ok := d.Spec.Message(label)
	if !ok {
		return false
	}
	fmt.Fprintf(out, "message %s%s%s\n", m.Label, argList(m.Args), returnText(m.ReturnType))
	fmt.Fprintf(out, "  selector %s\n", m.Selector)
	fmt.Fprintf(out, "  mutates  %t\n", m.Mutates)
	fmt.Fprintf(out, "  payable  %t\n", m.Payable)
	printDocs(out, m.Docs)
	return true
}

func unknownMessage(r diag.Reporter, d *metadata.Descriptor, label string) {
	b := diag.ReportError(r, diag.MetUnknownMessage, diag.Subject(d.Contract.Name+"::"+label),
		fmt.Sprintf("%s has no constructor or message %q", d.Contract.Name, label))
	if hint := suggest.Closest(label, d.Spec.Labels()); hint != "" {
		b = b.WithNote(diag.Subject(d.Contract.Name+"::"+hint), "did you mean "+hint+"?")
	}
	b.Emit()
}

func printDocs(out io.Writer, docs []string) {
	for _, line := range docs {
		fmt.Fprintf(out, "  /// %s\n", line)
	}
}

func argList(args []spec.ParamSpec) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Label + ": " + typeText(a.Type)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func returnText(ts *spec.TypeSpec) string {
	if ts == nil {
		return ""
	}
	return " -> " + typeText(*ts)
}

func typeText(ts spec.TypeSpec) string {
	if len(ts.DisplayName) == 0 {
		return fmt.Sprintf("#%d", ts.Type)
	}
	return strings.Join(ts.DisplayName, "::")
}
