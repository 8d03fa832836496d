package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"contractmeta/internal/buildpipeline"
	"contractmeta/internal/driver"
	"contractmeta/internal/metadata"
)

const cacheApp = "contractmeta"

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate contract descriptors",
	Long: `Generate metadata descriptors from a program model.

Without --model the contracts listed in the nearest ` + manifestName + ` are generated.`,
	Args: cobra.NoArgs,
	RunE: runGen,
}

func init() {
	addGenFlags(genCmd)
}

func addGenFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "program model file (json or yaml)")
	cmd.Flags().String("code", "", "compiled code file hashed into the descriptor")
	cmd.Flags().StringArray("contract", nil, "contract to generate (repeatable)")
	cmd.Flags().String("out", ".", "output directory")
	cmd.Flags().String("format", "json", "descriptor format (json|cbor|yaml)")
	cmd.Flags().Bool("pretty", false, "indent json output")
	cmd.Flags().Bool("embed-code", false, "embed the compiled code in source.wasm")
	cmd.Flags().Int("jobs", 0, "max parallel contracts (0=auto)")
	cmd.Flags().Bool("no-cache", false, "bypass the descriptor disk cache")
	cmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
}

// genSettings is the resolved configuration of one gen run.
type genSettings struct {
	targets  []buildpipeline.Target
	outDir   string
	metadata metadata.Config
	encode   metadata.EncodeOptions
}

func runGen(cmd *cobra.Command, _ []string) error {
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	if _, err := useColor(cmd); err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	settings, err := resolveGenSettings(cmd, ".")
	if err != nil {
		return err
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}

	var disk *driver.DiskCache
	if !noCache {
		disk, err = driver.OpenDiskCache(cacheApp)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: descriptor cache disabled: %v\n", err)
			disk = nil
		}
	}

	req := &buildpipeline.GenerateRequest{
		Targets:        settings.targets,
		OutputDir:      settings.outDir,
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
		Metadata:       settings.metadata,
		Encode:         settings.encode,
		Disk:           disk,
		EnableTimings:  showTimings,
	}

	var res *buildpipeline.GenerateResult
	if shouldUseTUI(mode, len(req.Targets)) && !quiet(cmd) {
		res, err = runGenerateWithUI(cmd.Context(), "generating", req)
	} else {
		res, err = buildpipeline.Generate(cmd.Context(), req)
	}
	if res == nil {
		return err
	}

	if perr := printDiagnostics(cmd, cmd.ErrOrStderr(), res.Bag); perr != nil {
		return perr
	}
	if !quiet(cmd) {
		printOutputs(cmd.OutOrStdout(), res.Outputs)
	}
	if showTimings {
		printStageTimings(cmd.OutOrStdout(), &res.Timings)
		printContractTimings(cmd.OutOrStdout(), res.Outputs)
	}
	return err
}

// resolveGenSettings builds targets and options from flags, falling back to
// the manifest found from startDir when no model is given.
func resolveGenSettings(cmd *cobra.Command, startDir string) (*genSettings, error) {
	flags := cmd.Flags()
	modelPath, _ := flags.GetString("model")
	codePath, _ := flags.GetString("code")
	contracts, _ := flags.GetStringArray("contract")
	outDir, _ := flags.GetString("out")
	formatName, _ := flags.GetString("format")
	prettyJSON, _ := flags.GetBool("pretty")
	embed, _ := flags.GetBool("embed-code")

	format, err := metadata.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	s := &genSettings{
		outDir:   outDir,
		metadata: metadata.Config{EmbedCode: embed},
		encode:   metadata.EncodeOptions{Format: format, Pretty: prettyJSON},
	}

	if modelPath != "" {
		if len(contracts) == 0 {
			return nil, fmt.Errorf("--model needs at least one --contract")
		}
		for _, name := range contracts {
			s.targets = append(s.targets, buildpipeline.Target{Contract: name, ModelPath: modelPath, CodePath: codePath})
		}
		return s, nil
	}
	if codePath != "" {
		return nil, fmt.Errorf("--code needs --model")
	}

	manifest, ok, err := loadProjectManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(noManifestMessage)
	}
	if err := manifest.apply(s, flags.Changed); err != nil {
		return nil, err
	}
	s.targets, err = manifest.targets(contracts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func printOutputs(out io.Writer, outputs []buildpipeline.Output) {
	for _, o := range outputs {
		if o.Err != nil {
			continue
		}
		state := "wrote"
		if o.Cached {
			state = "cached"
		}
		fmt.Fprintf(out, "%s %s %s (%d bytes)\n", state, o.Target.Contract, o.Path, o.Size)
	}
}
