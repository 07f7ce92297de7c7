// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for backends that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIProvider selects the text-generation backend.
type AIProvider string

const (
	ProviderAnthropic AIProvider = "anthropic"
	ProviderOpenAI    AIProvider = "openai"
	ProviderMock      AIProvider = "mock"
)

// AIConfig holds settings for the text-generation backend.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider is anthropic, openai, or mock.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier passed to the provider.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible servers).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens caps the completion length (default 8192).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerMinute caps model calls; zero means no cap.
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// DatabaseDriver names a database/sql driver supported by the store.
type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite3"
	DriverPostgres DatabaseDriver = "pgx"
)

// DatabaseConfig holds settings for the relational store.
type DatabaseConfig struct {
	// Driver is sqlite3 (default) or pgx.
	Driver DatabaseDriver `json:"driver" yaml:"driver"`

	// DSN is a file path for sqlite3 or a connection URL for pgx.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// MaxOpenConns limits the pool size; zero keeps the driver default.
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`
}

// VersionConfig tags each persisted extraction.
type VersionConfig struct {
	// Schema is the extraction schema version (default "1.0").
	Schema string `json:"schema" yaml:"schema"`

	// Bundle is the extractor bundle version (default "0.1.0").
	Bundle string `json:"bundle" yaml:"bundle"`
}

// PipelineConfig groups all settings for the extraction pipeline.
type PipelineConfig struct {
	AI          AIConfig       `json:"ai" yaml:"ai"`
	Database    DatabaseConfig `json:"database" yaml:"database"`
	Versions    VersionConfig  `json:"versions" yaml:"versions"`
	ArticleType string         `json:"article_type" yaml:"article_type"`
	Persist     bool           `json:"persist" yaml:"persist"`
}
