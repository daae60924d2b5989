package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSplitPages(t *testing.T) {
	pages := SplitPages("page one\fpage two\f")
	if len(pages) != 3 {
		t.Fatalf("len(pages) = %d, want 3", len(pages))
	}
	if pages[0] != "page one" || pages[1] != "page two" {
		t.Errorf("pages = %q", pages)
	}
	if pages[2] != "" {
		t.Errorf("trailing page = %q, want empty", pages[2])
	}
}

func TestJoinPagesAddsMarkers(t *testing.T) {
	joined := JoinPages([]string{"first page text", "second page text"})

	if !strings.Contains(joined, "--- Page 1 ---") {
		t.Error("missing page 1 marker")
	}
	if !strings.Contains(joined, "--- Page 2 ---") {
		t.Error("missing page 2 marker")
	}
	if strings.Index(joined, "first page text") > strings.Index(joined, "second page text") {
		t.Error("page order not preserved")
	}
}

func TestJoinPagesDropsBlankTrailingPage(t *testing.T) {
	joined := JoinPages(SplitPages("only page\f"))

	if strings.Contains(joined, "--- Page 2 ---") {
		t.Errorf("blank trailing page kept: %q", joined)
	}
	if !strings.Contains(joined, "only page") {
		t.Errorf("content lost: %q", joined)
	}
}

func TestReadDocumentPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte("Patient: Jane Doe"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := ReadDocument(context.Background(), nil, path)
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if text != "Patient: Jane Doe" {
		t.Errorf("text = %q", text)
	}
}

func TestReadDocumentMissingFile(t *testing.T) {
	_, err := ReadDocument(context.Background(), nil, filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

type stubConverter struct {
	text     string
	err      error
	lastPath string
}

func (s *stubConverter) ToText(ctx context.Context, path string) (string, error) {
	s.lastPath = path
	return s.text, s.err
}

func TestReadDocumentRoutesPDFToConverter(t *testing.T) {
	conv := &stubConverter{text: "converted text"}

	text, err := ReadDocument(context.Background(), conv, "/claims/report.PDF")
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if text != "converted text" {
		t.Errorf("text = %q", text)
	}
	if conv.lastPath != "/claims/report.PDF" {
		t.Errorf("converter got path %q", conv.lastPath)
	}
}

func TestReadDocumentPDFWithoutConverter(t *testing.T) {
	_, err := ReadDocument(context.Background(), nil, "report.pdf")
	if err == nil {
		t.Error("expected error when no converter is configured")
	}
}

func TestPDFConverterMissingFile(t *testing.T) {
	conv := NewPDFConverter("pdftotext", time.Second)

	_, err := conv.ToText(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	if err == nil {
		t.Error("expected error for unreadable pdf")
	}
}

func TestNewPDFConverterDefaults(t *testing.T) {
	conv := NewPDFConverter("", 0)
	if conv.Binary != "pdftotext" {
		t.Errorf("Binary = %q, want pdftotext", conv.Binary)
	}
	if conv.Timeout <= 0 {
		t.Errorf("Timeout = %v, want positive default", conv.Timeout)
	}
}
