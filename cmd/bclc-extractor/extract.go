// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bclc-extractor/internal/extract"
	"github.com/pdiddy/bclc-extractor/internal/pipeline"
	"github.com/pdiddy/bclc-extractor/internal/store"
	"github.com/pdiddy/bclc-extractor/internal/textsource"
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract BCLC-normalized trial data from article files",
	Long: `Extract reads each article (.pdf, .txt or .md), asks the configured model
for an extraction document, and validates it against the BCLC schema.

Validated documents are printed to stdout as JSON, or written to --out-dir as
<name>.json. With --persist each document is also stored in the database
together with its evidence spans and derived survival comparisons.

PDF files are converted with pdftotext when it is on PATH, otherwise with
a markitdown container run under docker or podman.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	persist, _ := cmd.Flags().GetBool("persist")
	outDir, _ := cmd.Flags().GetString("out-dir")

	cfg := pipelineConfig()
	cfg.Persist = persist
	if t, _ := cmd.Flags().GetString("article-type"); t != "" {
		cfg.ArticleType = t
	}

	backend, err := extract.NewBackend(cfg.AI)
	if err != nil {
		return err
	}

	extractor := extract.NewExtractor(backend, cfg.AI.MaxRetries)
	extractor.SetRateLimit(cfg.AI.RequestsPerMinute)

	proc := &pipeline.Processor{
		Loader:    textsource.NewLoader(),
		Extractor: extractor,
	}

	if cfg.Persist {
		st, err := store.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()
		proc.Store = st
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	summary, results, err := proc.ProcessAll(cmd.Context(), args, pipeline.Options{
		Persist:       cfg.Persist,
		ArticleType:   cfg.ArticleType,
		SchemaVersion: cfg.Versions.Schema,
		BundleVersion: cfg.Versions.Bundle,
	}, os.Stderr)
	if err != nil {
		return err
	}

	for _, res := range results {
		if err := writeDocument(res, outDir); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "\n%d file(s): %d extracted, %d persisted, %d failed\n",
		summary.Total(), summary.Extracted, summary.Persisted, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d file(s) failed extraction", summary.Failed)
	}
	return nil
}

// writeDocument prints res as indented JSON, to stdout or to outDir.
func writeDocument(res *pipeline.Result, outDir string) error {
	data, err := json.MarshalIndent(res.Output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", res.Path, err)
	}
	data = append(data, '\n')

	if outDir == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	base := strings.TrimSuffix(filepath.Base(res.Path), filepath.Ext(res.Path))
	path := filepath.Join(outDir, base+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func init() {
	extractCmd.Flags().Bool("persist", false, "store validated documents in the database")
	extractCmd.Flags().String("out-dir", "", "write one <name>.json per article instead of printing to stdout")
	extractCmd.Flags().String("article-type", "", "article type recorded with persisted articles (e.g. rct, cohort)")

	rootCmd.AddCommand(extractCmd)
}
