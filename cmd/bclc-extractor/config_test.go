// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bclc-extractor/internal/secrets"
	"github.com/pdiddy/bclc-extractor/pkg/types"
)

// resetConfig clears viper and the loaded secrets for one test.
func resetConfig(t *testing.T, loaded map[string]string) {
	t.Helper()
	viper.Reset()
	setDefaults()
	loadedSecrets = loaded
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Cleanup(func() {
		viper.Reset()
		setDefaults()
		loadedSecrets = nil
	})
}

func TestPipelineConfigDefaults(t *testing.T) {
	resetConfig(t, nil)

	cfg := pipelineConfig()
	assert.Equal(t, types.ProviderAnthropic, cfg.AI.Provider)
	assert.Equal(t, 8192, cfg.AI.MaxTokens)
	assert.Equal(t, 3, cfg.AI.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.AI.Timeout)
	assert.Equal(t, types.DriverSQLite, cfg.Database.Driver)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, "1.0", cfg.Versions.Schema)
	assert.Equal(t, "0.1.0", cfg.Versions.Bundle)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestInitConfigReadsHomeConfig(t *testing.T) {
	resetConfig(t, nil)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	dir := filepath.Join(home, ".config", "bclc-extractor")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "bclc-extractor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai:\n  max_tokens: 1234\n"), 0o644))

	initConfig()

	assert.Equal(t, path, viper.ConfigFileUsed())
	assert.Equal(t, 1234, pipelineConfig().AI.MaxTokens)
	usage := rootCmd.PersistentFlags().Lookup("config").Usage
	assert.Contains(t, usage, "~/.config/bclc-extractor/bclc-extractor.yaml")
}

func TestPipelineConfigAPIKeyFromSecrets(t *testing.T) {
	resetConfig(t, map[string]string{
		secrets.AnthropicAPIKey: "sk-ant-secret",
		secrets.OpenAIAPIKey:    "sk-openai-secret",
	})

	assert.Equal(t, "sk-ant-secret", pipelineConfig().AI.APIKey)

	viper.Set("ai.provider", "openai")
	assert.Equal(t, "sk-openai-secret", pipelineConfig().AI.APIKey)
}

func TestPipelineConfigAPIKeyPrecedence(t *testing.T) {
	resetConfig(t, map[string]string{secrets.AnthropicAPIKey: "from-secrets"})
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	assert.Equal(t, "from-env", pipelineConfig().AI.APIKey, "environment beats secrets")

	viper.Set("ai.api_key", "from-config")
	assert.Equal(t, "from-config", pipelineConfig().AI.APIKey, "config beats environment")
}

func TestPipelineConfigMockNeedsNoKey(t *testing.T) {
	resetConfig(t, map[string]string{secrets.AnthropicAPIKey: "unused"})
	viper.Set("ai.provider", "mock")

	cfg := pipelineConfig()
	assert.Equal(t, types.ProviderMock, cfg.AI.Provider)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestPipelineConfigDatabaseURL(t *testing.T) {
	tests := []struct {
		name       string
		driver     string
		dsn        string
		url        string
		wantDriver types.DatabaseDriver
		wantDSN    string
	}{
		{
			name:       "postgres url selects pgx",
			url:        "postgres://bclc@localhost/bclc",
			wantDriver: types.DriverPostgres,
			wantDSN:    "postgres://bclc@localhost/bclc",
		},
		{
			name:       "postgresql scheme",
			url:        "postgresql://bclc@localhost/bclc",
			wantDriver: types.DriverPostgres,
			wantDSN:    "postgresql://bclc@localhost/bclc",
		},
		{
			name:       "file url stays sqlite",
			url:        "data/other.db",
			wantDriver: types.DriverSQLite,
			wantDSN:    "data/other.db",
		},
		{
			name:       "explicit dsn wins",
			dsn:        "data/explicit.db",
			url:        "postgres://ignored",
			wantDriver: types.DriverSQLite,
			wantDSN:    "data/explicit.db",
		},
		{
			name:       "explicit driver wins",
			driver:     "sqlite3",
			url:        "postgres://bclc@localhost/bclc",
			wantDriver: types.DriverSQLite,
			wantDSN:    "postgres://bclc@localhost/bclc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t, nil)
			t.Setenv("DATABASE_URL", tt.url)
			if tt.driver != "" {
				viper.Set("database.driver", tt.driver)
			}
			if tt.dsn != "" {
				viper.Set("database.dsn", tt.dsn)
			}

			cfg := pipelineConfig()
			assert.Equal(t, tt.wantDriver, cfg.Database.Driver)
			assert.Equal(t, tt.wantDSN, cfg.Database.DSN)
		})
	}
}

func TestPipelineConfigDatabaseURLFromSecrets(t *testing.T) {
	resetConfig(t, map[string]string{secrets.DatabaseURL: "postgres://secret@db/bclc"})

	cfg := pipelineConfig()
	assert.Equal(t, types.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://secret@db/bclc", cfg.Database.DSN)
}

func TestSecretDefault(t *testing.T) {
	resetConfig(t, map[string]string{"k": "secret"})

	assert.Equal(t, "flag", secretDefault("k", "flag"))
	assert.Equal(t, "secret", secretDefault("k", ""))
	assert.Equal(t, "", secretDefault("missing", ""))
}
