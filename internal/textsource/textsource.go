// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textsource reads the full text of an article file. Plain text
// and Markdown are read directly; PDFs go through a Converter.
package textsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrEmptyText is returned when a file yields no text.
var ErrEmptyText = errors.New("no text could be extracted")

// NotFoundError reports a path that does not exist or is not a regular file.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("article file not found: %s", e.Path)
}

// UnsupportedTypeError reports a file suffix Load cannot read.
type UnsupportedTypeError struct {
	Path   string
	Suffix string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q for %s: use .pdf, .txt or .md", e.Suffix, e.Path)
}

// Converter extracts the text of a PDF.
type Converter interface {
	Name() string
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// Loader reads article files. The zero value reads text files only; PDF
// paths fail until PDF is set.
type Loader struct {
	PDF Converter
}

// NewLoader returns a Loader using the first PDF converter available on
// this machine. When none is available the Loader still reads text files.
func NewLoader() *Loader {
	c, _ := DetectConverter()
	return &Loader{PDF: c}
}

// Load reads path with a Loader that looks for a PDF converter only when
// path is a PDF.
func Load(ctx context.Context, path string) (string, error) {
	l := &Loader{}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		l.PDF, _ = DetectConverter()
	}
	return l.Load(ctx, path)
}

// Load returns the text of the file at path. The suffix decides how it is
// read and is matched case-insensitively.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", &NotFoundError{Path: path}
	}

	var text string
	switch suffix := strings.ToLower(filepath.Ext(path)); suffix {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		if !utf8.Valid(data) {
			return "", fmt.Errorf("reading %s: file is not valid UTF-8", path)
		}
		text = string(data)
	case ".pdf":
		if l.PDF == nil {
			return "", fmt.Errorf("reading %s: no PDF converter available (install pdftotext, docker or podman)", path)
		}
		text, err = l.PDF.Convert(ctx, path)
		if err != nil {
			return "", fmt.Errorf("converting %s with %s: %w", path, l.PDF.Name(), err)
		}
	default:
		return "", &UnsupportedTypeError{Path: path, Suffix: filepath.Ext(path)}
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", path, ErrEmptyText)
	}
	return text, nil
}
