package domain

import "path"

// Document is a Markdown source file read by the scanner.
// It is immutable once scanned.
type Document struct {
	// Name is the source path relative to the input root, slash-separated,
	// with the extension stripped.
	// Example: "API", "guides/setup"
	Name string `json:"name"`

	// Source is the source path relative to the input root, with extension.
	// Example: "API.md"
	Source string `json:"source"`

	// Path is the filesystem path the document was read from.
	Path string `json:"path"`

	// Lines holds the raw document lines with their terminators preserved.
	Lines []string `json:"-"`
}

// Fence is a fenced code block found in a Document.
type Fence struct {
	// Ordinal is the 1-based position of the fence within its document.
	Ordinal int `json:"ordinal"`

	// Lang is the language tag following the opening marker. May be empty.
	Lang string `json:"lang"`

	// Content is the raw text between the opening and closing markers.
	Content string `json:"content"`

	// Marker is the opening delimiter run, e.g. "```" or "~~~~".
	Marker string `json:"marker"`

	// StartLine and EndLine are the 1-based lines of the opening and closing
	// markers. EndLine is 0 for an unterminated fence.
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`

	Terminated bool `json:"terminated"`
}

// Artifact is the on-disk projection of a Fence.
type Artifact struct {
	Document string `json:"document"`
	Ordinal  int    `json:"ordinal"`
	Lang     string `json:"lang"`

	// Ext is the file extension without the leading dot.
	Ext string `json:"ext"`

	// Path is relative to the output root and always slash-separated.
	// Example: "extracted/API/snippet_1.py"
	Path string `json:"path"`

	// SHA256 is the hex digest of the full artifact bytes, header included.
	SHA256 string `json:"sha256"`
}

// Output layout directories, relative to the output root.
const (
	ExtractedDir = "extracted"
	ArchiveDir   = "archive/unused"

	// StateDir holds the manifest, run lock and search index.
	StateDir = ".docsnip"
)

// ArchivedPath returns where an artifact path lands once archived.
func ArchivedPath(artifactPath string) string {
	return path.Join(ArchiveDir, artifactPath)
}

// SnippetRecord is the document stored in the search index for an artifact.
type SnippetRecord struct {
	ID       string `json:"id"`
	Document string `json:"document"`
	Ordinal  int    `json:"ordinal"`
	Lang     string `json:"lang"`
	Ext      string `json:"ext"`
	Path     string `json:"path"`
	Content  string `json:"content"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	SnippetFieldID       = "id"
	SnippetFieldDocument = "document"
	SnippetFieldOrdinal  = "ordinal"
	SnippetFieldLang     = "lang"
	SnippetFieldExt      = "ext"
	SnippetFieldPath     = "path"
	SnippetFieldContent  = "content"
)
