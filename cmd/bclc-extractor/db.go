// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bclc-extractor/internal/outcomes"
	"github.com/pdiddy/bclc-extractor/internal/schema"
	"github.com/pdiddy/bclc-extractor/internal/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the extraction database (init, ping, show, stats)",
	Long: `Db operates on the relational store configured with --db-driver and --db
(or database.driver and database.dsn in the config file, or DATABASE_URL).
The default is a SQLite file at data/bclc.db.`,
}

// --- init subcommand ---

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the tables and indexes if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(pipelineConfig().Database)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.InitSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Schema ready")
		return nil
	},
}

// --- ping subcommand ---

var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the database is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		st, err := store.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Ping(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Database %s reachable\n", cfg.Database.Driver)
		return nil
	},
}

// --- show subcommand ---

var dbShowCmd = &cobra.Command{
	Use:   "show <pmid|doi>",
	Short: "Show an article, its extractions and survival comparisons",
	Long: `Show looks up an article by PMID or DOI (anything containing a slash is
treated as a DOI) and prints it with every archived extraction and the
survival comparisons derived from the latest one.`,
	Args: cobra.ExactArgs(1),
	RunE: runDBShow,
}

// articleReport is the YAML shape printed by db show.
type articleReport struct {
	Article     *store.Article        `yaml:"article"`
	Extractions []store.Extraction    `yaml:"extractions"`
	Survival    []outcomes.Survival   `yaml:"outcomes_survival"`
	Evidence    []schema.EvidenceSpan `yaml:"evidence_spans,omitempty"`
}

func runDBShow(cmd *cobra.Command, args []string) error {
	withEvidence, _ := cmd.Flags().GetBool("evidence")

	st, err := store.Open(pipelineConfig().Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	pmid, doi := args[0], ""
	if strings.Contains(args[0], "/") {
		pmid, doi = "", args[0]
	}

	article, err := st.FindArticle(ctx, pmid, doi)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no article with identifier %q", args[0])
	}
	if err != nil {
		return err
	}

	report := articleReport{Article: article}
	report.Extractions, err = st.Extractions(ctx, article.ID)
	if err != nil {
		return err
	}

	if n := len(report.Extractions); n > 0 {
		latest := report.Extractions[n-1].ID
		if report.Survival, err = st.SurvivalOutcomes(ctx, latest); err != nil {
			return err
		}
		if withEvidence {
			if report.Evidence, err = st.EvidenceSpans(ctx, latest); err != nil {
				return err
			}
		}
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// --- stats subcommand ---

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts per table",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(pipelineConfig().Database)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %d\n", "articles", stats.Articles)
		fmt.Printf("%-20s %d\n", "extractions", stats.Extractions)
		fmt.Printf("%-20s %d\n", "evidence_spans", stats.EvidenceSpans)
		fmt.Printf("%-20s %d\n", "outcomes_survival", stats.Survival)
		return nil
	},
}

func init() {
	dbShowCmd.Flags().Bool("evidence", false, "include the evidence spans of the latest extraction")

	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbPingCmd)
	dbCmd.AddCommand(dbShowCmd)
	dbCmd.AddCommand(dbStatsCmd)

	rootCmd.AddCommand(dbCmd)
}
