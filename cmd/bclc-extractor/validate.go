// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bclc-extractor/internal/outcomes"
	"github.com/pdiddy/bclc-extractor/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate extraction documents against the BCLC schema",
	Long: `Validate checks each JSON extraction document against the BCLC schema and
reports every violation by field path.

Use --normalized to print the normalized document, or --derive to print the
survival comparisons that would be stored for it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	normalized, _ := cmd.Flags().GetBool("normalized")
	derive, _ := cmd.Flags().GetBool("derive")

	failed := 0
	for _, path := range args {
		out, err := parseFile(path)
		if err != nil {
			failed++
			reportInvalid(path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "valid   %s (%d arms, %d evidence spans)\n",
			path, len(out.Experiments), len(out.EvidenceSpans))

		if normalized {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
		}
		if derive {
			rows := outcomes.Derive(out)
			if rows == nil {
				rows = []outcomes.Survival{}
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(rows); err != nil {
				return err
			}
			if err := enc.Close(); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) invalid", failed, len(args))
	}
	return nil
}

// parseFile reads and validates one JSON extraction document.
func parseFile(path string) (*schema.ExtractionOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return schema.Parse(data)
}

func reportInvalid(path string, err error) {
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		fmt.Fprintf(os.Stderr, "invalid %s: %v\n", path, err)
		return
	}
	fmt.Fprintf(os.Stderr, "invalid %s: %d violation(s)\n", path, len(verr.Violations))
	for _, v := range verr.Violations {
		fmt.Fprintf(os.Stderr, "  %s\n", v)
	}
}

func init() {
	validateCmd.Flags().Bool("normalized", false, "print the normalized document as JSON")
	validateCmd.Flags().Bool("derive", false, "print the derived survival comparisons as YAML")

	rootCmd.AddCommand(validateCmd)
}
