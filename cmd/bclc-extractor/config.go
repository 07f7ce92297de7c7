// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/bclc-extractor/internal/secrets"
	"github.com/pdiddy/bclc-extractor/pkg/types"
)

func init() {
	setDefaults()
}

// setDefaults registers the configuration defaults with viper.
func setDefaults() {
	viper.SetDefault("ai.provider", string(types.ProviderAnthropic))
	viper.SetDefault("ai.max_tokens", 8192)
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("ai.timeout", "5m")
	viper.SetDefault("versions.schema", "1.0")
	viper.SetDefault("versions.bundle", "0.1.0")
}

// bindFlag binds a viper key to a flag; a nil flag is a programming error.
func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// pipelineConfig assembles the run configuration from viper (config file,
// BCLC_EXTRACTOR_* environment, bound flags) and the loaded secrets.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		AI: types.AIConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("ai.timeout"),
				UserAgent: "bclc-extractor/" + version,
			},
			Provider:   types.AIProvider(viper.GetString("ai.provider")),
			Model:      viper.GetString("ai.model"),
			APIKey:     viper.GetString("ai.api_key"),
			BaseURL:    viper.GetString("ai.base_url"),
			MaxTokens:  viper.GetInt("ai.max_tokens"),
			MaxRetries: viper.GetInt("ai.max_retries"),

			RequestsPerMinute: viper.GetInt("ai.requests_per_minute"),
		},
		Database: types.DatabaseConfig{
			Driver:       types.DatabaseDriver(viper.GetString("database.driver")),
			DSN:          viper.GetString("database.dsn"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		Versions: types.VersionConfig{
			Schema: viper.GetString("versions.schema"),
			Bundle: viper.GetString("versions.bundle"),
		},
		ArticleType: viper.GetString("article_type"),
	}

	switch cfg.AI.Provider {
	case types.ProviderOpenAI:
		cfg.AI.APIKey = secretDefault(secrets.OpenAIAPIKey, firstNonEmpty(cfg.AI.APIKey, os.Getenv("OPENAI_API_KEY")))
	case types.ProviderAnthropic, "":
		cfg.AI.APIKey = secretDefault(secrets.AnthropicAPIKey, firstNonEmpty(cfg.AI.APIKey, os.Getenv("ANTHROPIC_API_KEY")))
	}

	// DATABASE_URL points at Postgres unless a DSN was configured explicitly.
	if cfg.Database.DSN == "" {
		if url := secretDefault(secrets.DatabaseURL, os.Getenv("DATABASE_URL")); url != "" {
			cfg.Database.DSN = url
			if isPostgresURL(url) && cfg.Database.Driver == "" {
				cfg.Database.Driver = types.DriverPostgres
			}
		}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = types.DriverSQLite
	}

	return cfg
}

func isPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
