// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/bclc-extractor/internal/outcomes"
	"github.com/pdiddy/bclc-extractor/internal/schema"
)

const (
	DefaultSchemaVersion = "1.0"
	DefaultBundleVersion = "0.1.0"
)

// Provenance describes one extraction run. None of it is part of the
// extraction document itself.
type Provenance struct {
	// SourcePath is the article file the document was extracted from.
	SourcePath string

	// ArticleType is a free-form tag recorded when the article row is created.
	ArticleType string

	// SchemaVersion defaults to DefaultSchemaVersion.
	SchemaVersion string

	// BundleVersion defaults to DefaultBundleVersion.
	BundleVersion string
}

func (p Provenance) withDefaults() Provenance {
	if p.SchemaVersion == "" {
		p.SchemaVersion = DefaultSchemaVersion
	}
	if p.BundleVersion == "" {
		p.BundleVersion = DefaultBundleVersion
	}
	return p
}

// InsertExtraction writes out and everything derived from it in a single
// transaction and returns the new extraction ID:
//
//  1. the article is resolved by PMID or DOI and updated, or created when
//     neither matches (or neither is present);
//  2. the full document is archived as a new extractions row;
//  3. each evidence span becomes an evidence_spans row;
//  4. comparative survival rows are derived and inserted.
//
// On any failure the transaction is rolled back and a *PersistenceError is
// returned. If a concurrent writer creates the same article between lookup
// and insert, the call is repeated once so that it resolves to that row.
func (s *Store) InsertExtraction(ctx context.Context, out *schema.ExtractionOutput, prov Provenance) (string, error) {
	prov = prov.withDefaults()

	payload, err := json.Marshal(out)
	if err != nil {
		return "", persistErr(err, "encoding payload")
	}

	id, err := s.insertExtraction(ctx, out, payload, prov)
	if err != nil && isUniqueViolation(err) {
		id, err = s.insertExtraction(ctx, out, payload, prov)
	}
	return id, err
}

func (s *Store) insertExtraction(ctx context.Context, out *schema.ExtractionOutput, payload []byte, prov Provenance) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", persistErr(err, "beginning transaction")
	}
	defer tx.Rollback()

	articleID, err := s.upsertArticle(ctx, tx, &out.StudyMetadata, prov)
	if err != nil {
		return "", err
	}

	extractionID := uuid.NewString()
	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO extractions (id, article_id, schema_version, extractor_bundle_version, payload, created_at)
		 VALUES (?, ?, ?, ?, `+s.dialect.jsonParam+`, ?)`),
		extractionID, articleID, prov.SchemaVersion, prov.BundleVersion, string(payload), s.now(),
	)
	if err != nil {
		return "", persistErr(err, "inserting extraction")
	}

	if err := s.insertEvidenceSpans(ctx, tx, extractionID, out.EvidenceSpans); err != nil {
		return "", err
	}
	if err := s.insertSurvival(ctx, tx, extractionID, outcomes.Derive(out)); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", persistErr(err, "committing transaction")
	}
	return extractionID, nil
}

// upsertArticle returns the ID of the article matching meta's PMID or DOI,
// refreshing its descriptive fields, or inserts a new article.
//
// When the PMID and the DOI are held by two different articles, the older
// one is used and each key stays on the row that already holds it.
func (s *Store) upsertArticle(ctx context.Context, tx *sql.Tx, meta *schema.StudyMetadata, prov Provenance) (string, error) {
	pmid := nullIfEmpty(meta.PMID)
	doi := nullIfEmpty(meta.DOI)
	now := s.now()

	matches, err := s.resolve(ctx, tx, pmid, doi)
	if err != nil {
		return "", err
	}

	if len(matches) > 0 {
		article := matches[0]
		setPMID, setDOI := pmid, doi
		for _, other := range matches[1:] {
			if sameKey(other.pmid, pmid) {
				setPMID = nil
			}
			if sameKey(other.doi, doi) {
				setDOI = nil
			}
		}

		_, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE articles
			 SET pmid = COALESCE(?, pmid), doi = COALESCE(?, doi), title = ?, journal = ?, year = ?, updated_at = ?
			 WHERE id = ?`),
			setPMID, setDOI, meta.Title, meta.Journal, meta.Year, now, article.id,
		)
		if err != nil {
			return "", persistErr(err, "updating article %s", article.id)
		}
		return article.id, nil
	}

	articleID := uuid.NewString()
	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO articles (id, pmid, doi, title, journal, year, article_type, pdf_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		articleID, pmid, doi, meta.Title, meta.Journal, meta.Year,
		nullIfEmpty(&prov.ArticleType), nullIfEmpty(&prov.SourcePath), now, now,
	)
	if err != nil {
		return "", persistErr(err, "inserting article")
	}
	return articleID, nil
}

// articleMatch is an article found by identity resolution.
type articleMatch struct {
	id   string
	pmid *string
	doi  *string
}

// matchArticles returns the articles holding pmid or doi, oldest first.
// The unique indexes allow at most two. With neither key present there is
// nothing to match on.
func (s *Store) matchArticles(ctx context.Context, tx *sql.Tx, pmid, doi *string) ([]articleMatch, error) {
	var clauses []string
	var args []any
	if pmid != nil {
		clauses = append(clauses, "pmid = ?")
		args = append(args, *pmid)
	}
	if doi != nil {
		clauses = append(clauses, "doi = ?")
		args = append(args, *doi)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	query := "SELECT id, pmid, doi FROM articles WHERE " + strings.Join(clauses, " OR ") + " ORDER BY created_at, id"
	rows, err := tx.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, persistErr(err, "resolving article")
	}
	defer rows.Close()

	var matches []articleMatch
	for rows.Next() {
		var m articleMatch
		if err := rows.Scan(&m.id, &m.pmid, &m.doi); err != nil {
			return nil, persistErr(err, "resolving article")
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr(err, "resolving article")
	}
	return matches, nil
}

func sameKey(stored, key *string) bool {
	return stored != nil && key != nil && *stored == *key
}

func (s *Store) insertEvidenceSpans(ctx context.Context, tx *sql.Tx, extractionID string, spans []schema.EvidenceSpan) error {
	if len(spans) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO evidence_spans (id, extraction_id, field_path, value_json, evidence_section,
			evidence_page, table_figure, verbatim_excerpt, locator, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return persistErr(err, "preparing evidence span insert")
	}
	defer stmt.Close()

	for i, span := range spans {
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(), extractionID, span.FieldPath, span.ValueJSON, span.EvidenceSection,
			span.EvidencePage, span.TableFigure, span.VerbatimExcerpt, span.Locator, i,
		)
		if err != nil {
			return persistErr(err, "inserting evidence span %d (%s)", i, span.FieldPath)
		}
	}
	return nil
}

func (s *Store) insertSurvival(ctx context.Context, tx *sql.Tx, extractionID string, rows []outcomes.Survival) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO outcomes_survival (id, extraction_id, endpoint, group_a, group_b,
			median_a_months, median_b_months, p_value, hr, hr_ci_low, hr_ci_high,
			evidence_section, evidence_page, table_figure, verbatim_excerpt, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return persistErr(err, "preparing survival outcome insert")
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(), extractionID, string(r.Endpoint), r.GroupA, r.GroupB,
			r.MedianAMonths, r.MedianBMonths, r.PValue, r.HR, r.HRCILow, r.HRCIHigh,
			r.EvidenceSection, r.EvidencePage, r.TableFigure, r.VerbatimExcerpt, i,
		)
		if err != nil {
			return persistErr(err, "inserting %s outcome for %s", r.Endpoint, r.GroupA)
		}
	}
	return nil
}

func nullIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
