// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

var sqliteDialect = dialect{
	name:      "sqlite3",
	jsonParam: "?",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			pmid TEXT,
			doi TEXT,
			title TEXT,
			journal TEXT,
			year INTEGER,
			article_type TEXT,
			pdf_path TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_pmid ON articles(pmid) WHERE pmid IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_doi ON articles(doi) WHERE doi IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS extractions (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL REFERENCES articles(id),
			schema_version TEXT NOT NULL,
			extractor_bundle_version TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_article_id ON extractions(article_id)`,
		`CREATE TABLE IF NOT EXISTS evidence_spans (
			id TEXT PRIMARY KEY,
			extraction_id TEXT NOT NULL REFERENCES extractions(id),
			field_path TEXT NOT NULL,
			value_json TEXT NOT NULL,
			evidence_section TEXT,
			evidence_page INTEGER,
			table_figure TEXT,
			verbatim_excerpt TEXT,
			locator TEXT,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_spans_extraction_id ON evidence_spans(extraction_id)`,
		`CREATE TABLE IF NOT EXISTS outcomes_survival (
			id TEXT PRIMARY KEY,
			extraction_id TEXT NOT NULL REFERENCES extractions(id),
			endpoint TEXT NOT NULL CHECK (endpoint IN ('OS', 'PFS', 'TTP')),
			group_a TEXT NOT NULL,
			group_b TEXT,
			median_a_months REAL NOT NULL,
			median_b_months REAL,
			p_value REAL,
			hr REAL,
			hr_ci_low REAL,
			hr_ci_high REAL,
			evidence_section TEXT,
			evidence_page INTEGER,
			table_figure TEXT,
			verbatim_excerpt TEXT,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_survival_extraction_id ON outcomes_survival(extraction_id)`,
	},
}

var postgresDialect = dialect{
	name:      "pgx",
	numbered:  true,
	jsonParam: "CAST(CAST(? AS TEXT) AS JSONB)",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			pmid TEXT,
			doi TEXT,
			title TEXT,
			journal TEXT,
			year INTEGER,
			article_type TEXT,
			pdf_path TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_pmid ON articles(pmid) WHERE pmid IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_doi ON articles(doi) WHERE doi IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS extractions (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL REFERENCES articles(id),
			schema_version TEXT NOT NULL,
			extractor_bundle_version TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_article_id ON extractions(article_id)`,
		`CREATE TABLE IF NOT EXISTS evidence_spans (
			id TEXT PRIMARY KEY,
			extraction_id TEXT NOT NULL REFERENCES extractions(id),
			field_path TEXT NOT NULL,
			value_json TEXT NOT NULL,
			evidence_section TEXT,
			evidence_page INTEGER,
			table_figure TEXT,
			verbatim_excerpt TEXT,
			locator TEXT,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_spans_extraction_id ON evidence_spans(extraction_id)`,
		`DO $$ BEGIN
			CREATE TYPE survival_endpoint AS ENUM ('OS', 'PFS', 'TTP');
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$`,
		`CREATE TABLE IF NOT EXISTS outcomes_survival (
			id TEXT PRIMARY KEY,
			extraction_id TEXT NOT NULL REFERENCES extractions(id),
			endpoint survival_endpoint NOT NULL,
			group_a TEXT NOT NULL,
			group_b TEXT,
			median_a_months DOUBLE PRECISION NOT NULL,
			median_b_months DOUBLE PRECISION,
			p_value DOUBLE PRECISION,
			hr DOUBLE PRECISION,
			hr_ci_low DOUBLE PRECISION,
			hr_ci_high DOUBLE PRECISION,
			evidence_section TEXT,
			evidence_page INTEGER,
			table_figure TEXT,
			verbatim_excerpt TEXT,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_survival_extraction_id ON outcomes_survival(extraction_id)`,
	},
}
