// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bclc-extractor/internal/store"
)

var loadCmd = &cobra.Command{
	Use:   "load [files...]",
	Short: "Store previously extracted JSON documents in the database",
	Long: `Load validates each JSON extraction document and persists it exactly as
extract --persist would. Use it to ingest documents written with --out-dir or
produced elsewhere.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if t, _ := cmd.Flags().GetString("article-type"); t != "" {
		cfg.ArticleType = t
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	failed := 0
	for _, path := range args {
		out, err := parseFile(path)
		if err != nil {
			failed++
			reportInvalid(path, err)
			continue
		}

		id, err := st.InsertExtraction(cmd.Context(), out, store.Provenance{
			SourcePath:    path,
			ArticleType:   cfg.ArticleType,
			SchemaVersion: cfg.Versions.Schema,
			BundleVersion: cfg.Versions.Bundle,
		})
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "stored  %s (extraction %s)\n", path, id)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) not stored", failed, len(args))
	}
	return nil
}

func init() {
	loadCmd.Flags().String("article-type", "", "article type recorded with the articles")

	rootCmd.AddCommand(loadCmd)
}
