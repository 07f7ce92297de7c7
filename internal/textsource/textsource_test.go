// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textsource

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runPipedFunc  func(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunPiped(_ context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	if m.runPipedFunc != nil {
		return m.runPipedFunc(name, args, stdin, stdout)
	}
	return nil
}

// fakeConverter returns fixed text for any PDF.
type fakeConverter struct {
	text string
	err  error
}

func (f fakeConverter) Name() string { return "fake" }

func (f fakeConverter) Convert(context.Context, string) (string, error) { return f.text, f.err }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTextFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, name := range []string{"article.txt", "article.md", "ARTICLE.TXT"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, name, "Median OS was 13.6 months.\n")
			got, err := (&Loader{}).Load(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, "Median OS was 13.6 months.\n", got)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	loader := &Loader{}

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(ctx, filepath.Join(dir, "missing.txt"))
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, filepath.Join(dir, "missing.txt"), nf.Path)
	})

	t.Run("directory", func(t *testing.T) {
		sub := filepath.Join(dir, "papers.txt")
		require.NoError(t, os.Mkdir(sub, 0o755))
		_, err := loader.Load(ctx, sub)
		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("unsupported suffix", func(t *testing.T) {
		path := writeFile(t, dir, "article.docx", "binary")
		_, err := loader.Load(ctx, path)
		var ut *UnsupportedTypeError
		require.ErrorAs(t, err, &ut)
		assert.Equal(t, ".docx", ut.Suffix)
	})

	t.Run("empty text", func(t *testing.T) {
		path := writeFile(t, dir, "blank.txt", "  \n\t\n")
		_, err := loader.Load(ctx, path)
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		path := writeFile(t, dir, "latin1.txt", "caf\xe9")
		_, err := loader.Load(ctx, path)
		assert.ErrorContains(t, err, "not valid UTF-8")
	})

	t.Run("pdf without converter", func(t *testing.T) {
		path := writeFile(t, dir, "article.pdf", "%PDF-1.7")
		_, err := loader.Load(ctx, path)
		assert.ErrorContains(t, err, "no PDF converter available")
	})
}

func TestLoadPDF(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	path := writeFile(t, dir, "article.PDF", "%PDF-1.7")

	got, err := (&Loader{PDF: fakeConverter{text: "Results\n13.6 months"}}).Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Results\n13.6 months", got)

	_, err = (&Loader{PDF: fakeConverter{text: "\n\f\n"}}).Load(ctx, path)
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = (&Loader{PDF: fakeConverter{err: errors.New("exit status 1")}}).Load(ctx, path)
	assert.ErrorContains(t, err, "converting")
	assert.ErrorContains(t, err, "with fake")
}

func TestPdftotextConvert(t *testing.T) {
	var gotName string
	var gotArgs []string
	ex := &mockExecutor{
		runPipedFunc: func(name string, args []string, _ io.Reader, stdout io.Writer) error {
			gotName, gotArgs = name, args
			_, err := io.WriteString(stdout, "page one text")
			return err
		},
	}

	got, err := (&Pdftotext{exec: ex}).Convert(context.Background(), "/tmp/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "page one text", got)
	assert.Equal(t, "pdftotext", gotName)
	assert.Equal(t, []string{"-layout", "/tmp/a.pdf", "-"}, gotArgs)
}

func TestContainerConverterStreamsPDF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.pdf", "%PDF-1.7 body")

	var gotStdin string
	var gotArgs []string
	ex := &mockExecutor{
		runPipedFunc: func(_ string, args []string, stdin io.Reader, stdout io.Writer) error {
			b, _ := io.ReadAll(stdin)
			gotStdin, gotArgs = string(b), args
			_, err := io.WriteString(stdout, "# Converted")
			return err
		},
	}

	c := &ContainerConverter{bin: "podman", image: DefaultImage, exec: ex}
	got, err := c.Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Converted", got)
	assert.Equal(t, "%PDF-1.7 body", gotStdin)
	assert.Equal(t, []string{"run", "--rm", "-i", DefaultImage}, gotArgs)
	assert.Equal(t, "podman markitdown:latest", c.Name())
}

func TestDetectConverter(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "pdftotext preferred",
			exec: &mockExecutor{
				availableBins: map[string]bool{"pdftotext": true, "docker": true},
				runnableCmds:  map[string]bool{"docker info": true, "docker image inspect img": true},
			},
			wantName: "pdftotext",
		},
		{
			name: "docker with image",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true, "docker image inspect img": true},
			},
			wantName: "docker img",
		},
		{
			name: "docker without image falls back to podman",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true, "podman image exists img": true},
			},
			wantName: "podman img",
		},
		{
			name: "docker on PATH but info fails",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker image inspect img": true},
			},
			wantErr: true,
		},
		{
			name:    "nothing available",
			exec:    &mockExecutor{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := detectConverter(context.Background(), tt.exec, "img")
			if tt.wantErr {
				assert.ErrorContains(t, err, "no PDF converter available")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name())
		})
	}
}
