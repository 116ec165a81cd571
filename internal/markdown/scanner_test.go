package markdown

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sha1n/docsnip/internal/domain"
)

// writeTree creates files under dir from a map of relative path to content.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
}

func collect(t *testing.T, s *Scanner) ([]*domain.Document, []error) {
	t.Helper()
	var docs []*domain.Document
	var errs []error
	for doc, err := range s.Documents() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}

func TestScanner_Documents(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"API.md":                     "# API\n```python\nx = 1\n```\n",
		"FEATURES.markdown":          "# Features\n",
		"guides/setup.md":            "# Setup\n",
		"notes.txt":                  "not markdown",
		"node_modules/pkg/README.md": "# vendored\n",
	})

	docs, errs := collect(t, NewScanner(dir, NewFileFilter(nil), 0))
	if len(errs) != 0 {
		t.Fatalf("Unexpected scan errors: %v", errs)
	}

	var names []string
	for _, d := range docs {
		names = append(names, d.Name)
	}
	want := []string{"API", "FEATURES", "guides/setup"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Documents = %v, want %v", names, want)
	}

	if docs[0].Source != "API.md" {
		t.Errorf("Source = %q, want API.md", docs[0].Source)
	}
	if len(docs[0].Lines) != 4 || docs[0].Lines[1] != "```python\n" {
		t.Errorf("Unexpected lines: %q", docs[0].Lines)
	}
}

func TestScanner_Restartable(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"b.md": "b\n",
		"a.md": "a\n",
	})

	s := NewScanner(dir, nil, 0)
	first, _ := collect(t, s)
	second, _ := collect(t, s)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Expected 2 documents on both scans, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Name != second[i].Name {
			t.Errorf("Scan order differs at %d: %q vs %q", i, first[i].Name, second[i].Name)
		}
	}
}

func TestScanner_UnreadableFileIsolated(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.md": "a\n",
		"c.md": "c\n",
	})
	if err := os.Symlink(filepath.Join(dir, "missing-target"), filepath.Join(dir, "b.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	docs, errs := collect(t, NewScanner(dir, nil, 0))
	if len(docs) != 2 {
		t.Errorf("Expected 2 readable documents, got %d", len(docs))
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 scan error, got %d", len(errs))
	}

	var scanErr *domain.ScanError
	if !errors.As(errs[0], &scanErr) {
		t.Fatalf("Expected *domain.ScanError, got %T", errs[0])
	}
	if filepath.Base(scanErr.Path) != "b.md" {
		t.Errorf("ScanError path = %q", scanErr.Path)
	}
}

func TestScanner_NameCollision(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"API.md":       "```python\nfrom_md = 1\n```\n",
		"API.markdown": "```python\nfrom_markdown = 1\n```\n",
		"guide.md":     "text\n",
	})

	for range 2 {
		docs, errs := collect(t, NewScanner(dir, nil, 0))
		if len(docs) != 2 || docs[0].Source != "API.markdown" || docs[1].Source != "guide.md" {
			t.Fatalf("Unexpected documents: %v", docs)
		}
		if len(errs) != 1 {
			t.Fatalf("Expected 1 scan error, got %d", len(errs))
		}

		var scanErr *domain.ScanError
		if !errors.As(errs[0], &scanErr) || filepath.Base(scanErr.Path) != "API.md" {
			t.Fatalf("Expected ScanError for API.md, got %v", errs[0])
		}
		if !errors.Is(errs[0], ErrNameCollision) {
			t.Errorf("Expected ErrNameCollision, got %v", errs[0])
		}
		msg := errs[0].Error()
		if !strings.Contains(msg, "API.md") || !strings.Contains(msg, "API.markdown") {
			t.Errorf("Error should name both sources: %s", msg)
		}
	}
}

func TestScanner_TooLargeAndBinary(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"big.md":    strings.Repeat("x", 64),
		"binary.md": "abc\x00def",
		"ok.md":     "ok\n",
	})

	docs, errs := collect(t, NewScanner(dir, nil, 32))
	if len(docs) != 1 || docs[0].Name != "ok" {
		t.Errorf("Expected only ok.md, got %d documents", len(docs))
	}
	if len(errs) != 2 {
		t.Fatalf("Expected 2 scan errors, got %d: %v", len(errs), errs)
	}
	if !errors.Is(errs[0], ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge for big.md, got %v", errs[0])
	}
	if !errors.Is(errs[1], ErrBinary) {
		t.Errorf("Expected ErrBinary for binary.md, got %v", errs[1])
	}
}

func TestScanner_MissingRoot(t *testing.T) {
	docs, errs := collect(t, NewScanner(filepath.Join(t.TempDir(), "nope"), nil, 0))
	if len(docs) != 0 {
		t.Errorf("Expected no documents, got %d", len(docs))
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 scan error, got %d", len(errs))
	}
	if !errors.Is(errs[0], os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", errs[0])
	}
}

func TestScanner_SkipsOutputTree(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"API.md":                        "# API\n",
		"extracted/API/snippet_1.md":    "# generated\n",
		"archive/unused/extracted/x.md": "# archived\n",
		"docs/extracted/kept.md":        "# not generated\n",
	})

	filter := NewFileFilter(nil, OutputExcludes(dir, dir)...)
	docs, errs := collect(t, NewScanner(dir, filter, 0))
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}

	var names []string
	for _, d := range docs {
		names = append(names, d.Name)
	}
	want := "API,docs/extracted/kept"
	if strings.Join(names, ",") != want {
		t.Errorf("Documents = %v, want %s", names, want)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\n", []string{"a\n"}},
		{"a\r\nb", []string{"a\r\n", "b"}},
		{"\n\n", []string{"\n", "\n"}},
	}
	for _, tt := range tests {
		got := SplitLines(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("SplitLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputExcludes(t *testing.T) {
	in := t.TempDir()

	if got := OutputExcludes(in, in); len(got) == 0 || got[0] != "/extracted/**" {
		t.Errorf("Same root excludes = %v", got)
	}
	if got := OutputExcludes(in, filepath.Join(in, "site")); len(got) == 0 || got[0] != "/site/extracted/**" {
		t.Errorf("Nested output excludes = %v", got)
	}
	if got := OutputExcludes(in, t.TempDir()); got != nil {
		t.Errorf("Expected no excludes for sibling output, got %v", got)
	}
}
