package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"contractmeta/internal/metadata"
)

var queryCmd = &cobra.Command{
	Use:   "query EXPR FILE",
	Short: "Run a jq expression over a descriptor",
	Long: `Run a jq expression over a descriptor in any format, e.g.

  contractmeta query '.spec.messages[].label' flipper.metadata.json`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolP("raw", "r", false, "print string results without quotes")
	queryCmd.Flags().Bool("compact", false, "print each result on one line")
}

func runQuery(cmd *cobra.Command, args []string) error {
	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}
	compact, err := cmd.Flags().GetBool("compact")
	if err != nil {
		return err
	}
	d, err := loadDescriptor(args[1])
	if err != nil {
		return err
	}
	return queryDescriptor(cmd.Context(), cmd.OutOrStdout(), args[0], d, raw, compact)
}

// queryDescriptor evaluates expr against the JSON form of d and prints every
// result.
func queryDescriptor(ctx context.Context, out io.Writer, expr string, d *metadata.Descriptor, raw, compact bool) error {
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("compile query: %w", err)
	}
	input, err := descriptorValue(d)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	iter := code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			if herr, ok := err.(*gojq.HaltError); ok && herr.Value() == nil {
				return nil
			}
			return fmt.Errorf("query: %w", err)
		}
		if err := printValue(out, v, raw, compact); err != nil {
			return err
		}
	}
}

// descriptorValue converts d into the generic values gojq operates on.
func descriptorValue(d *metadata.Descriptor) (any, error) {
	data, err := metadata.Encode(d, metadata.EncodeOptions{Format: metadata.FormatJSON})
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("query input: %w", err)
	}
	return v, nil
}

func printValue(out io.Writer, v any, raw, compact bool) error {
	if s, ok := v.(string); ok && raw {
		_, err := fmt.Fprintln(out, s)
		return err
	}
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("query result: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
