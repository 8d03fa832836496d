package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contractmeta/internal/diag"
	"contractmeta/internal/metadata"
)

var verifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Check a descriptor for internal consistency",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	if _, err := useColor(cmd); err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	d, err := loadDescriptor(args[0])
	if err != nil {
		return err
	}

	bag := diag.NewBag(maxDiagnostics)
	verr := metadata.Verify(d, diag.BagReporter{Bag: bag, Contract: d.Contract.Name})
	bag.Sort()
	if err := printDiagnostics(cmd, cmd.ErrOrStderr(), bag); err != nil {
		return err
	}
	if verr != nil || bag.HasErrors() {
		cmd.SilenceErrors = true
		return fmt.Errorf("%s: descriptor is inconsistent", args[0])
	}
	if !quiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d types)\n", args[0], len(d.Types))
	}
	return nil
}
