// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/bclc-extractor/internal/outcomes"
	"github.com/pdiddy/bclc-extractor/internal/schema"
)

// Article is one row of the articles table.
type Article struct {
	ID          string    `json:"id" yaml:"id"`
	PMID        *string   `json:"pmid" yaml:"pmid"`
	DOI         *string   `json:"doi" yaml:"doi"`
	Title       *string   `json:"title" yaml:"title"`
	Journal     *string   `json:"journal" yaml:"journal"`
	Year        *int      `json:"year" yaml:"year"`
	ArticleType *string   `json:"article_type" yaml:"article_type"`
	PDFPath     *string   `json:"pdf_path" yaml:"pdf_path"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Extraction describes one archived payload without the payload itself.
type Extraction struct {
	ID            string    `json:"id" yaml:"id"`
	ArticleID     string    `json:"article_id" yaml:"article_id"`
	SchemaVersion string    `json:"schema_version" yaml:"schema_version"`
	BundleVersion string    `json:"extractor_bundle_version" yaml:"extractor_bundle_version"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// Stats holds row counts per table.
type Stats struct {
	Articles      int `json:"articles" yaml:"articles"`
	Extractions   int `json:"extractions" yaml:"extractions"`
	EvidenceSpans int `json:"evidence_spans" yaml:"evidence_spans"`
	Survival      int `json:"outcomes_survival" yaml:"outcomes_survival"`
}

const articleColumns = `id, pmid, doi, title, journal, year, article_type, pdf_path, created_at, updated_at`

func scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.PMID, &a.DOI, &a.Title, &a.Journal, &a.Year,
		&a.ArticleType, &a.PDFPath, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Article returns the article with the given ID.
func (s *Store) Article(ctx context.Context, id string) (*Article, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+articleColumns+` FROM articles WHERE id = ?`), id)
	a, err := scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("article %s: %w", id, err)
	}
	return a, nil
}

// FindArticle returns the article matching pmid or doi, resolved the same
// way InsertExtraction resolves it. Empty keys are ignored.
func (s *Store) FindArticle(ctx context.Context, pmid, doi string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE `
	var args []any
	switch {
	case pmid != "" && doi != "":
		query += `pmid = ? OR doi = ?`
		args = append(args, pmid, doi)
	case pmid != "":
		query += `pmid = ?`
		args = append(args, pmid)
	case doi != "":
		query += `doi = ?`
		args = append(args, doi)
	default:
		return nil, fmt.Errorf("finding article: pmid or doi is required")
	}
	query += ` ORDER BY created_at, id LIMIT 1`

	a, err := scanArticle(s.db.QueryRowContext(ctx, s.rebind(query), args...))
	if err != nil {
		return nil, fmt.Errorf("finding article (pmid %q, doi %q): %w", pmid, doi, err)
	}
	return a, nil
}

// Extractions lists the archived extractions of an article, oldest first.
func (s *Store) Extractions(ctx context.Context, articleID string) ([]Extraction, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, article_id, schema_version, extractor_bundle_version, created_at
		 FROM extractions WHERE article_id = ? ORDER BY created_at, id`), articleID)
	if err != nil {
		return nil, fmt.Errorf("querying extractions: %w", err)
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		var e Extraction
		if err := rows.Scan(&e.ID, &e.ArticleID, &e.SchemaVersion, &e.BundleVersion, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning extraction: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Payload returns the archived document of an extraction. It passes back
// through schema.Parse, so a payload edited in the database to something
// invalid surfaces as a validation error.
func (s *Store) Payload(ctx context.Context, extractionID string) (*schema.ExtractionOutput, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT CAST(payload AS TEXT) FROM extractions WHERE id = ?`), extractionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("extraction %s: %w", extractionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}

	out, err := schema.Parse([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("extraction %s payload: %w", extractionID, err)
	}
	return out, nil
}

// EvidenceSpans returns the spans of an extraction in document order.
func (s *Store) EvidenceSpans(ctx context.Context, extractionID string) ([]schema.EvidenceSpan, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT field_path, value_json, evidence_section, evidence_page, table_figure, verbatim_excerpt, locator
		 FROM evidence_spans WHERE extraction_id = ? ORDER BY position`), extractionID)
	if err != nil {
		return nil, fmt.Errorf("querying evidence spans: %w", err)
	}
	defer rows.Close()

	var out []schema.EvidenceSpan
	for rows.Next() {
		var sp schema.EvidenceSpan
		if err := rows.Scan(&sp.FieldPath, &sp.ValueJSON, &sp.EvidenceSection, &sp.EvidencePage,
			&sp.TableFigure, &sp.VerbatimExcerpt, &sp.Locator); err != nil {
			return nil, fmt.Errorf("scanning evidence span: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

const survivalColumns = `endpoint, group_a, group_b, median_a_months, median_b_months, p_value, hr,
	hr_ci_low, hr_ci_high, evidence_section, evidence_page, table_figure, verbatim_excerpt`

func scanSurvival(rows *sql.Rows, dest ...any) (outcomes.Survival, error) {
	var r outcomes.Survival
	var endpoint string
	fields := []any{&endpoint, &r.GroupA, &r.GroupB, &r.MedianAMonths, &r.MedianBMonths, &r.PValue, &r.HR,
		&r.HRCILow, &r.HRCIHigh, &r.EvidenceSection, &r.EvidencePage, &r.TableFigure, &r.VerbatimExcerpt}
	if err := rows.Scan(append(dest, fields...)...); err != nil {
		return r, err
	}
	r.Endpoint = schema.Endpoint(endpoint)
	return r, nil
}

// SurvivalOutcomes returns the derived survival rows of an extraction in
// the order they were derived.
func (s *Store) SurvivalOutcomes(ctx context.Context, extractionID string) ([]outcomes.Survival, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+survivalColumns+` FROM outcomes_survival WHERE extraction_id = ? ORDER BY position`), extractionID)
	if err != nil {
		return nil, fmt.Errorf("querying survival outcomes: %w", err)
	}
	defer rows.Close()

	var out []outcomes.Survival
	for rows.Next() {
		r, err := scanSurvival(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning survival outcome: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats counts the rows in each table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		table string
		dest  *int
	}{
		{"articles", &st.Articles},
		{"extractions", &st.Extractions},
		{"evidence_spans", &st.EvidenceSpans},
		{"outcomes_survival", &st.Survival},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			return st, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}
	return st, nil
}
