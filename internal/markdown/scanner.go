package markdown

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sha1n/docsnip/internal/domain"
)

var (
	// ErrTooLarge indicates a document exceeds the configured size limit
	ErrTooLarge = errors.New("document exceeds max file size")

	// ErrBinary indicates a document does not look like text
	ErrBinary = errors.New("document appears to be binary")

	// ErrNameCollision indicates two sources map to the same document name
	ErrNameCollision = errors.New("document name already taken")
)

// Scanner enumerates Markdown documents below a root directory.
type Scanner struct {
	root        string
	filter      *FileFilter
	maxFileSize int64
}

// NewScanner creates a scanner. A maxFileSize of 0 disables the size limit.
func NewScanner(root string, filter *FileFilter, maxFileSize int64) *Scanner {
	if filter == nil {
		filter = NewFileFilter(nil)
	}
	return &Scanner{
		root:        root,
		filter:      filter,
		maxFileSize: maxFileSize,
	}
}

// Root returns the directory being scanned.
func (s *Scanner) Root() string {
	return s.root
}

// Documents returns a lazy sequence of documents in lexical path order.
// Each call walks the tree again. A file that cannot be read yields a
// *domain.ScanError and the walk continues with its siblings. Document
// names are unique: a later source whose name is taken (API.md after
// API.markdown) yields a *domain.ScanError wrapping ErrNameCollision.
func (s *Scanner) Documents() iter.Seq2[*domain.Document, error] {
	return func(yield func(*domain.Document, error) bool) {
		taken := make(map[string]string)
		_ = filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(nil, &domain.ScanError{Path: p, Err: err}) {
					return fs.SkipAll
				}
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			relPath, err := filepath.Rel(s.root, p)
			if err != nil || relPath == "." {
				return nil
			}

			if d.IsDir() {
				if s.filter.ShouldExclude(relPath) {
					return fs.SkipDir
				}
				return nil
			}

			if !s.filter.IsDocument(relPath) || s.filter.ShouldExclude(relPath) {
				return nil
			}

			doc, err := s.read(p, relPath, d)
			if err == nil {
				if prev, ok := taken[doc.Name]; ok {
					doc, err = nil, &domain.ScanError{
						Path: p,
						Err:  fmt.Errorf("%w: %s and %s both map to %q", ErrNameCollision, prev, doc.Source, doc.Name),
					}
				} else {
					taken[doc.Name] = doc.Source
				}
			}
			if !yield(doc, err) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

func (s *Scanner) read(p, relPath string, d fs.DirEntry) (*domain.Document, error) {
	if s.maxFileSize > 0 {
		if info, err := d.Info(); err == nil && info.Mode().IsRegular() && info.Size() > s.maxFileSize {
			return nil, &domain.ScanError{Path: p, Err: fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, info.Size(), s.maxFileSize)}
		}
	}

	content, err := os.ReadFile(p)
	if err != nil {
		return nil, &domain.ScanError{Path: p, Err: err}
	}
	if s.maxFileSize > 0 && int64(len(content)) > s.maxFileSize {
		return nil, &domain.ScanError{Path: p, Err: fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(content), s.maxFileSize)}
	}
	if IsBinary(content) {
		return nil, &domain.ScanError{Path: p, Err: ErrBinary}
	}

	return NewDocument(relPath, p, string(content)), nil
}

// NewDocument builds a Document from its root-relative path and text.
func NewDocument(relPath, fsPath, text string) *domain.Document {
	source := filepath.ToSlash(relPath)
	return &domain.Document{
		Name:   strings.TrimSuffix(source, path.Ext(source)),
		Source: source,
		Path:   fsPath,
		Lines:  SplitLines(text),
	}
}

// SplitLines splits text into lines, keeping each line's terminator.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// OutputExcludes returns anchored exclusion patterns for the generated
// trees when outputRoot lives inside inputRoot. Scanning them would pick
// up Markdown snippets emitted by earlier runs.
func OutputExcludes(inputRoot, outputRoot string) []string {
	in, err := filepath.Abs(inputRoot)
	if err != nil {
		return nil
	}
	out, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(in, out)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}

	prefix := "/"
	if rel != "." {
		prefix = "/" + filepath.ToSlash(rel) + "/"
	}
	return []string{
		prefix + domain.ExtractedDir + "/**",
		prefix + "archive/**",
		prefix + ".docsnip/**",
	}
}
