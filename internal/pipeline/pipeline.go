// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the article pipeline: read the file, extract a
// validated document, and optionally persist it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/bclc-extractor/internal/schema"
	"github.com/pdiddy/bclc-extractor/internal/store"
)

// ErrNoStore is returned when persistence is requested without a store.
var ErrNoStore = errors.New("persist requested but no store is configured")

// TextLoader reads the text of an article file.
type TextLoader interface {
	Load(ctx context.Context, path string) (string, error)
}

// Extractor turns article text into a validated document.
type Extractor interface {
	Extract(ctx context.Context, text string) (*schema.ExtractionOutput, error)
}

// Persister stores a validated document.
type Persister interface {
	InsertExtraction(ctx context.Context, out *schema.ExtractionOutput, prov store.Provenance) (string, error)
}

// Options controls one run.
type Options struct {
	// Persist writes each document through the Processor's Store.
	Persist bool

	ArticleType   string
	SchemaVersion string
	BundleVersion string
}

// Result is the outcome of processing one file.
type Result struct {
	Path   string
	Output *schema.ExtractionOutput

	// ExtractionID is set only when the document was persisted.
	ExtractionID string
}

// Processor wires the pipeline stages together. Store may be nil for dry
// runs.
type Processor struct {
	Loader    TextLoader
	Extractor Extractor
	Store     Persister
}

// Process runs the pipeline on a single file.
func (p *Processor) Process(ctx context.Context, path string, opts Options) (*Result, error) {
	if opts.Persist && p.Store == nil {
		return nil, ErrNoStore
	}

	text, err := p.Loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	out, err := p.Extractor.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}

	res := &Result{Path: path, Output: out}
	if !opts.Persist {
		return res, nil
	}

	id, err := p.Store.InsertExtraction(ctx, out, store.Provenance{
		SourcePath:    path,
		ArticleType:   opts.ArticleType,
		SchemaVersion: opts.SchemaVersion,
		BundleVersion: opts.BundleVersion,
	})
	if err != nil {
		return nil, err
	}
	res.ExtractionID = id
	return res, nil
}

// BatchSummary holds counts from a batch run.
type BatchSummary struct {
	Extracted int
	Persisted int
	Failed    int
}

// Total returns the number of files processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Failed
}

// HasFailures reports whether any file failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ProcessAll runs Process on each path in order, writing one progress line
// per file to w. A failing file is counted and reported; the batch
// continues. Only a cancelled context stops it early.
func (p *Processor) ProcessAll(ctx context.Context, paths []string, opts Options, w io.Writer) (BatchSummary, []*Result, error) {
	if opts.Persist && p.Store == nil {
		return BatchSummary{}, nil, ErrNoStore
	}

	var summary BatchSummary
	var results []*Result

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, results, err
		}

		fmt.Fprintf(w, "extracting %s\n", path)

		res, err := p.Process(ctx, path, opts)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		summary.Extracted++
		results = append(results, res)

		if res.ExtractionID != "" {
			summary.Persisted++
			fmt.Fprintf(w, "stored  %s (extraction %s, %d arms, %d evidence spans)\n",
				path, res.ExtractionID, len(res.Output.Experiments), len(res.Output.EvidenceSpans))
			continue
		}
		fmt.Fprintf(w, "extracted %s (%d arms, %d evidence spans)\n",
			path, len(res.Output.Experiments), len(res.Output.EvidenceSpans))
	}

	return summary, results, nil
}
