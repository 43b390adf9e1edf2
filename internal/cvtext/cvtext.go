// Package cvtext extracts plain text from candidate CV files.
package cvtext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files that are neither PDF nor plain text.
var ErrUnsupportedFormat = errors.New("unsupported cv format")

// pdftotextBin is the poppler-utils binary used for PDFs.
var pdftotextBin = "pdftotext"

// Extract returns the trimmed text of the CV at path.
// PDFs go through pdftotext; .txt and .md files are read as is.
func Extract(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(ctx, path)
	case ".txt", ".md", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading cv: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func extractPDF(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("reading cv: %w", err)
	}

	// "-" sends the text to stdout.
	cmd := exec.CommandContext(ctx, pdftotextBin, "-layout", "-enc", "UTF-8", path, "-")
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("pdftotext failed: %s: %w", strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return "", fmt.Errorf("pdftotext failed (install poppler-utils): %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}
