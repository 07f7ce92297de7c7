package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Extract runs the extractor over every article in papers/, writing the
// validated documents to extractions/ and storing them in the database.
func Extract() error {
	mg.Deps(Init, Build)

	var articles []string
	for _, pattern := range []string{"papers/*.pdf", "papers/*.txt", "papers/*.md"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return err
		}
		articles = append(articles, matches...)
	}
	if len(articles) == 0 {
		fmt.Println("[extract] No articles in papers/.")
		return nil
	}

	args := append([]string{"extract", "--persist", "--out-dir", "extractions"}, articles...)
	return sh.RunV(binPath, args...)
}

// Export writes every stored survival comparison to data/outcomes.yaml.
func Export() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "export", "--format", "yaml", "--out", filepath.Join("data", "outcomes.yaml"))
}
