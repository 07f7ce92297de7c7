// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/pdiddy/bclc-extractor/pkg/types"
)

//go:embed mock_response.json
var mockResponse string

// MockBackend returns a fixed reply without calling any service. With no
// Reply set it answers with a canned Lenvatinib vs Sorafenib document.
type MockBackend struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

// Generate records prompt and returns the configured reply.
func (m *MockBackend) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply == "" {
		return mockResponse, nil
	}
	return m.Reply, nil
}

// Calls returns the number of Generate calls so far.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// LastPrompt returns the most recent prompt, or "" before the first call.
func (m *MockBackend) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// NewBackend returns the backend selected by cfg.Provider. An empty
// provider means anthropic.
func NewBackend(cfg types.AIConfig) (Backend, error) {
	var client *http.Client
	if cfg.Timeout > 0 {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	switch cfg.Provider {
	case types.ProviderAnthropic, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Anthropic API key is required (set anthropic-api-key in .secrets/ or ANTHROPIC_API_KEY)")
		}
		return &ClaudeBackend{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			Client:     client,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
		}, nil
	case types.ProviderOpenAI:
		return NewOpenAIBackend(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, client)
	case types.ProviderMock:
		return &MockBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: use %s, %s or %s",
			cfg.Provider, types.ProviderAnthropic, types.ProviderOpenAI, types.ProviderMock)
	}
}
