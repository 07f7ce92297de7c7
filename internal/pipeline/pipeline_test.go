// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bclc-extractor/internal/extract"
	"github.com/pdiddy/bclc-extractor/internal/schema"
	"github.com/pdiddy/bclc-extractor/internal/store"
	"github.com/pdiddy/bclc-extractor/internal/textsource"
	"github.com/pdiddy/bclc-extractor/pkg/types"
)

// --- test helpers ---

type failingPersister struct{ err error }

func (f failingPersister) InsertExtraction(context.Context, *schema.ExtractionOutput, store.Provenance) (string, error) {
	return "", f.err
}

func writeArticle(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(types.DatabaseConfig{DSN: filepath.Join(t.TempDir(), "bclc.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mockProcessor(backend *extract.MockBackend) *Processor {
	return &Processor{
		Loader:    &textsource.Loader{},
		Extractor: extract.NewExtractor(backend, 1),
	}
}

// --- tests ---

func TestProcessDryRun(t *testing.T) {
	path := writeArticle(t, t.TempDir(), "reflect.txt", "Lenvatinib versus sorafenib ...")
	backend := &extract.MockBackend{}

	res, err := mockProcessor(backend).Process(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.Empty(t, res.ExtractionID)
	assert.Equal(t, "12345678", *res.Output.StudyMetadata.PMID)
	assert.Contains(t, backend.LastPrompt(), "Lenvatinib versus sorafenib ...")
}

func TestProcessPersists(t *testing.T) {
	path := writeArticle(t, t.TempDir(), "reflect.md", "# REFLECT\n\nLenvatinib versus sorafenib")
	s := testStore(t)
	p := mockProcessor(&extract.MockBackend{})
	p.Store = s
	ctx := context.Background()

	res, err := p.Process(ctx, path, Options{Persist: true, ArticleType: "rct", BundleVersion: "0.2.0"})
	require.NoError(t, err)
	require.NotEmpty(t, res.ExtractionID)

	a, err := s.FindArticle(ctx, "12345678", "")
	require.NoError(t, err)
	assert.Equal(t, path, *a.PDFPath)
	assert.Equal(t, "rct", *a.ArticleType)

	exts, err := s.Extractions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, exts, 1)
	assert.Equal(t, store.DefaultSchemaVersion, exts[0].SchemaVersion)
	assert.Equal(t, "0.2.0", exts[0].BundleVersion)

	rows, err := s.SurvivalOutcomes(ctx, res.ExtractionID)
	require.NoError(t, err)
	// Lenvatinib OS and PFS parse; TTP is null. No Sorafenib arm to pair with.
	require.Len(t, rows, 2)
	assert.Equal(t, "Sorafenib", *rows[0].GroupB)
	assert.Nil(t, rows[0].MedianBMonths)
}

func TestProcessPersistWithoutStore(t *testing.T) {
	path := writeArticle(t, t.TempDir(), "a.txt", "text")
	backend := &extract.MockBackend{}

	_, err := mockProcessor(backend).Process(context.Background(), path, Options{Persist: true})
	assert.ErrorIs(t, err, ErrNoStore)
	assert.Equal(t, 0, backend.Calls())
}

func TestProcessErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := mockProcessor(&extract.MockBackend{}).Process(ctx, filepath.Join(dir, "nope.txt"), Options{})
		var nf *textsource.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("invalid model reply", func(t *testing.T) {
		path := writeArticle(t, dir, "a.txt", "text")
		_, err := mockProcessor(&extract.MockBackend{Reply: `{"study_metadata": {}}`}).Process(ctx, path, Options{})
		var verr *schema.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("persistence failure", func(t *testing.T) {
		path := writeArticle(t, dir, "b.txt", "text")
		p := mockProcessor(&extract.MockBackend{})
		p.Store = failingPersister{err: &store.PersistenceError{Op: "inserting article", Err: errors.New("disk full")}}
		_, err := p.Process(ctx, path, Options{Persist: true})
		var perr *store.PersistenceError
		assert.ErrorAs(t, err, &perr)
	})
}

func TestProcessAll(t *testing.T) {
	dir := t.TempDir()
	good1 := writeArticle(t, dir, "one.txt", "first article")
	bad := writeArticle(t, dir, "two.docx", "unsupported")
	good2 := writeArticle(t, dir, "three.md", "third article")

	s := testStore(t)
	p := mockProcessor(&extract.MockBackend{})
	p.Store = s

	var out bytes.Buffer
	summary, results, err := p.ProcessAll(context.Background(), []string{good1, bad, good2}, Options{Persist: true}, &out)
	require.NoError(t, err)

	assert.Equal(t, BatchSummary{Extracted: 2, Persisted: 2, Failed: 1}, summary)
	assert.Equal(t, 3, summary.Total())
	assert.True(t, summary.HasFailures())
	require.Len(t, results, 2)
	assert.Equal(t, good1, results[0].Path)
	assert.Equal(t, good2, results[1].Path)

	log := out.String()
	assert.Contains(t, log, "failed  "+bad)
	assert.Contains(t, log, "unsupported file type")
	assert.Contains(t, log, "stored  "+good2)

	// Same PMID in both documents: one article, two archived extractions.
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Articles)
	assert.Equal(t, 2, stats.Extractions)
}

func TestProcessAllDryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeArticle(t, dir, "one.txt", "article")

	var out bytes.Buffer
	summary, _, err := mockProcessor(&extract.MockBackend{}).ProcessAll(context.Background(), []string{path}, Options{}, &out)
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Extracted: 1}, summary)
	assert.False(t, summary.HasFailures())
	assert.Contains(t, out.String(), "extracted "+path+" (1 arms, 1 evidence spans)")
}

func TestProcessAllStopsOnCancel(t *testing.T) {
	path := writeArticle(t, t.TempDir(), "one.txt", "article")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	summary, _, err := mockProcessor(&extract.MockBackend{}).ProcessAll(ctx, []string{path}, Options{}, &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Total())
}

func TestProcessAllPersistWithoutStore(t *testing.T) {
	_, _, err := mockProcessor(&extract.MockBackend{}).ProcessAll(context.Background(), []string{"x.txt"}, Options{Persist: true}, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoStore)
}
