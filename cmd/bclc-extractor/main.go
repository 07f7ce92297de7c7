// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bclc-extractor CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bclc-extractor/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds keys loaded from .secrets/ and .env at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, else the secret value for key, else "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the bclc-extractor CLI.
var rootCmd = &cobra.Command{
	Use:   "bclc-extractor",
	Short: "Extract structured HCC trial data normalized to the BCLC framework",
	Long: `bclc-extractor reads hepatocellular carcinoma trial articles (PDF, text or
Markdown), asks a text-generation model for a structured extraction document,
validates it against the BCLC extraction schema, and stores it in a relational
database together with its evidence spans and derived survival comparisons.

Configuration is read from bclc-extractor.yaml (in . or ~/.config/bclc-extractor),
BCLC_EXTRACTOR_* environment variables, and flags. API keys and the database URL
can also be placed in .secrets/ or .env.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		envFile, _ := cmd.Flags().GetString("env-file")
		s, err := secrets.LoadAll(secretsDir, envFile)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./bclc-extractor.yaml or ~/.config/bclc-extractor/bclc-extractor.yaml)")
	pf.String("secrets-dir", ".secrets/", "directory of secret files (one key per file)")
	pf.String("env-file", ".env", "KEY=value file with API keys or DATABASE_URL")
	pf.String("provider", "", "text-generation provider: anthropic, openai or mock")
	pf.String("model", "", "model identifier for the provider")
	pf.String("db-driver", "", "database driver: sqlite3 or pgx")
	pf.String("db", "", "database DSN: SQLite file path or Postgres URL")

	bindFlag("ai.provider", pf.Lookup("provider"))
	bindFlag("ai.model", pf.Lookup("model"))
	bindFlag("database.driver", pf.Lookup("db-driver"))
	bindFlag("database.dsn", pf.Lookup("db"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bclc-extractor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bclc-extractor"))
		}
	}

	viper.SetEnvPrefix("BCLC_EXTRACTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
