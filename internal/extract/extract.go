// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns article text into a validated extraction document.
// It renders the extraction prompt, sends it to a text-generation backend,
// strips any Markdown wrapping from the reply, and admits the result only
// through schema.Parse.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/pdiddy/bclc-extractor/internal/schema"
)

// ErrEmptyText is returned when there is no article text to extract from.
var ErrEmptyText = errors.New("article text is empty")

// Backend abstracts the text-generation API so tests can supply a mock.
// Generate returns the raw model reply for one prompt.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	defaultMaxRetries = 3
	cacheTTL          = time.Hour
	cacheCleanup      = 10 * time.Minute
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Extractor produces extraction documents from article text. It is safe
// for concurrent use when its Backend is.
type Extractor struct {
	backend    Backend
	maxRetries int

	// responses memoises accepted replies by prompt digest.
	responses *gocache.Cache

	// limiter paces backend calls, retries included. Nil means unlimited.
	limiter *rate.Limiter
}

// NewExtractor returns an Extractor that calls backend, retrying failed
// calls up to maxRetries times (default 3 when maxRetries <= 0).
func NewExtractor(backend Backend, maxRetries int) *Extractor {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Extractor{
		backend:    backend,
		maxRetries: maxRetries,
		responses:  gocache.New(cacheTTL, cacheCleanup),
	}
}

// SetRateLimit caps backend calls at perMinute, with a burst of one. Zero or
// less removes the cap.
func (e *Extractor) SetRateLimit(perMinute int) {
	if perMinute <= 0 {
		e.limiter = nil
		return
	}
	e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// Extract builds the prompt for text, obtains a reply, and parses it.
//
// Backend errors are retried with exponential backoff. A reply that is not
// JSON or that violates the schema is returned immediately as a
// *schema.ParseError or *schema.ValidationError; asking again would only
// repeat the model's answer to the same prompt.
func (e *Extractor) Extract(ctx context.Context, text string) (*schema.ExtractionOutput, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	prompt, err := BuildPrompt(text)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	key := promptKey(prompt)
	raw, cached := e.cachedReply(key)
	if !cached {
		raw, err = e.callWithRetry(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("generating extraction: %w", err)
		}
	}

	out, err := schema.Parse([]byte(StripCodeFence(raw)))
	if err != nil {
		return nil, fmt.Errorf("model reply: %w", err)
	}

	if !cached {
		e.responses.SetDefault(key, raw)
	}
	return out, nil
}

func (e *Extractor) cachedReply(key string) (string, bool) {
	v, ok := e.responses.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// promptKey is the hex SHA-256 of the prompt.
func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// callWithRetry calls the backend with exponential backoff.
func (e *Extractor) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		raw, err := e.backend.Generate(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", e.maxRetries, lastErr)
}
