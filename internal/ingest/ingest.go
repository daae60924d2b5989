// Package ingest converts source documents into plain text for downstream
// extraction. PDF conversion shells out to pdftotext; an unreadable or
// image-only PDF yields blank text, which callers must treat as a hard
// extraction failure rather than proceeding with empty context.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"claimtriage/internal/logging"
)

// Converter turns a source document path into plain text.
type Converter interface {
	ToText(ctx context.Context, path string) (string, error)
}

// PDFConverter implements Converter via the pdftotext binary. pdftotext
// separates pages with form feeds; output is re-joined with page markers so
// page provenance survives into the extraction prompt.
type PDFConverter struct {
	Binary  string
	Timeout time.Duration
}

// NewPDFConverter creates a converter with defaults applied.
func NewPDFConverter(binary string, timeout time.Duration) *PDFConverter {
	if binary == "" {
		binary = "pdftotext"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PDFConverter{Binary: binary, Timeout: timeout}
}

// ToText extracts text from every page of a PDF.
func (p *PDFConverter) ToText(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("pdf not readable: %w", err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	logging.IngestDebug("converting pdf: %s", path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, "-enc", "UTF-8", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", p.Binary, err, strings.TrimSpace(stderr.String()))
	}

	text := JoinPages(SplitPages(stdout.String()))
	logging.Ingest("converted pdf: %s text_len=%d", path, len(text))
	return text, nil
}

// SplitPages splits raw pdftotext output on form-feed page breaks.
func SplitPages(raw string) []string {
	return strings.Split(raw, "\f")
}

// JoinPages rebuilds a single string with page separators, one marker per
// page.
func JoinPages(pages []string) string {
	parts := make([]string, 0, len(pages))
	for i, page := range pages {
		if i == len(pages)-1 && strings.TrimSpace(page) == "" {
			// pdftotext emits a trailing form feed after the final page.
			continue
		}
		parts = append(parts, fmt.Sprintf("\n--- Page %d ---\n%s", i+1, page))
	}
	return strings.Join(parts, "\n")
}

// ReadDocument loads a document as text: PDFs go through the converter,
// anything else is read verbatim.
func ReadDocument(ctx context.Context, conv Converter, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		if conv == nil {
			return "", fmt.Errorf("no pdf converter configured")
		}
		return conv.ToText(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}
