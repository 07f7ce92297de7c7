// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

const (
	binPdftotext = "pdftotext"
	binDocker    = "docker"
	binPodman    = "podman"

	// DefaultImage is the container image used when pdftotext is not
	// installed locally. It reads a PDF on stdin and writes text to stdout.
	DefaultImage = "markitdown:latest"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

var defaultExec executor = osExecutor{}

// Pdftotext converts PDFs with poppler's pdftotext, preserving layout.
type Pdftotext struct {
	exec executor
}

// NewPdftotext returns a converter that runs pdftotext from PATH.
func NewPdftotext() *Pdftotext { return &Pdftotext{exec: defaultExec} }

func (p *Pdftotext) Name() string { return binPdftotext }

// Convert runs "pdftotext -layout <pdf> -" and returns its stdout.
func (p *Pdftotext) Convert(ctx context.Context, pdfPath string) (string, error) {
	var out bytes.Buffer
	if err := p.exec.RunPiped(ctx, binPdftotext, []string{"-layout", pdfPath, "-"}, nil, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

// ContainerConverter pipes a PDF through a container image with docker or
// podman.
type ContainerConverter struct {
	bin   string
	image string
	exec  executor
}

func (c *ContainerConverter) Name() string { return c.bin + " " + c.image }

// Convert streams the PDF to the container's stdin and returns its stdout.
func (c *ContainerConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := c.exec.RunPiped(ctx, c.bin, []string{"run", "--rm", "-i", c.image}, f, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

// DetectConverter prefers a local pdftotext and falls back to running
// DefaultImage with docker, then podman. It fails when none of them is
// usable.
func DetectConverter() (Converter, error) {
	return detectConverter(context.Background(), defaultExec, DefaultImage)
}

func detectConverter(ctx context.Context, ex executor, image string) (Converter, error) {
	if _, err := ex.LookPath(binPdftotext); err == nil {
		return &Pdftotext{exec: ex}, nil
	}

	checks := []struct {
		bin        string
		imageCheck []string
	}{
		{binDocker, []string{"image", "inspect", image}},
		{binPodman, []string{"image", "exists", image}},
	}
	for _, c := range checks {
		if _, err := ex.LookPath(c.bin); err != nil {
			continue
		}
		if ex.RunSilent(ctx, c.bin, "info") != nil {
			continue
		}
		if ex.RunSilent(ctx, c.bin, c.imageCheck...) != nil {
			continue
		}
		return &ContainerConverter{bin: c.bin, image: image, exec: ex}, nil
	}

	return nil, fmt.Errorf("no PDF converter available: install %s, or %s/%s with image %s",
		binPdftotext, binDocker, binPodman, image)
}
