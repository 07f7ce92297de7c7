package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bclc-extractor/internal/store"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of bclc-extractor",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bclc-extractor %s (schema %s, bundle %s)\n",
			version, store.DefaultSchemaVersion, store.DefaultBundleVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
