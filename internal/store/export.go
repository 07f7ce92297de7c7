// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bclc-extractor/internal/outcomes"
)

// ExportFormat selects the encoding written by ExportOutcomes.
type ExportFormat string

const (
	FormatYAML ExportFormat = "yaml"
	FormatJSON ExportFormat = "json"
)

// OutcomeEntry is a survival row with the article it came from.
type OutcomeEntry struct {
	ExtractionID string  `json:"extraction_id" yaml:"extraction_id"`
	ArticleID    string  `json:"article_id" yaml:"article_id"`
	PMID         *string `json:"pmid" yaml:"pmid"`
	DOI          *string `json:"doi" yaml:"doi"`
	Title        *string `json:"title" yaml:"title"`

	outcomes.Survival `yaml:",inline"`
}

// OutcomeEntries returns every stored survival row, grouped by extraction
// in insertion order.
func (s *Store) OutcomeEntries(ctx context.Context) ([]OutcomeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, a.id, a.pmid, a.doi, a.title, `+survivalColumns+`
		 FROM outcomes_survival o
		 JOIN extractions e ON e.id = o.extraction_id
		 JOIN articles a ON a.id = e.article_id
		 ORDER BY e.created_at, e.id, o.position`)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes for export: %w", err)
	}
	defer rows.Close()

	var entries []OutcomeEntry
	for rows.Next() {
		var e OutcomeEntry
		r, err := scanSurvival(rows, &e.ExtractionID, &e.ArticleID, &e.PMID, &e.DOI, &e.Title)
		if err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		e.Survival = r
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ExportOutcomes writes every stored survival row to w as YAML or JSON.
func (s *Store) ExportOutcomes(ctx context.Context, w io.Writer, format ExportFormat) error {
	entries, err := s.OutcomeEntries(ctx)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []OutcomeEntry{}
	}

	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format %q: use %s or %s", format, FormatYAML, FormatJSON)
	}
}
