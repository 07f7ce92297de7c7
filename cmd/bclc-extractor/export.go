// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bclc-extractor/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every stored survival comparison",
	Long: `Export writes all rows of outcomes_survival, joined with their article
identifiers, as YAML or JSON. Output goes to stdout unless --out is given.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	st, err := store.Open(pipelineConfig().Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	if err := st.ExportOutcomes(cmd.Context(), w, store.ExportFormat(format)); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", outPath)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(exportCmd)
}
