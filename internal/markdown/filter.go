package markdown

import (
	"path"
	"path/filepath"
	"strings"
)

// DefaultExcludePatterns lists directories never scanned for documents.
// These match dependency and VCS directories that carry third-party Markdown.
var DefaultExcludePatterns = []string{
	".git/**", ".hg/**", ".svn/**",
	"node_modules/**", "vendor/**", "venv/**", ".venv/**",
	"__pycache__/**", ".pytest_cache/**", ".tox/**",
	".docsnip/**",
}

// DefaultExtensions are the file extensions treated as Markdown documents.
var DefaultExtensions = []string{".md", ".markdown"}

// FileFilter determines which files are scanned as documents.
//
// Patterns ending in "/**" exclude a directory and everything below it. A
// pattern starting with "/" is anchored at the input root; otherwise the
// directory name matches at any depth. Other patterns are globs matched
// against both the relative path and the base name.
type FileFilter struct {
	patterns   []string
	extensions map[string]bool
}

// NewFileFilter creates a FileFilter with the default patterns plus extra.
func NewFileFilter(extensions []string, extra ...string) *FileFilter {
	patterns := make([]string, 0, len(DefaultExcludePatterns)+len(extra))
	patterns = append(patterns, DefaultExcludePatterns...)
	patterns = append(patterns, extra...)
	return NewFileFilterWithPatterns(patterns, extensions)
}

// NewFileFilterWithPatterns creates a FileFilter with exactly the given patterns.
func NewFileFilterWithPatterns(patterns []string, extensions []string) *FileFilter {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	return &FileFilter{patterns: patterns, extensions: exts}
}

// ShouldExclude returns true if relPath matches any exclusion pattern.
// relPath is relative to the input root.
func (f *FileFilter) ShouldExclude(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range f.patterns {
		if matchPattern(pattern, relPath) {
			return true
		}
	}
	return false
}

// IsDocument reports whether relPath has one of the document extensions.
func (f *FileFilter) IsDocument(relPath string) bool {
	return f.extensions[strings.ToLower(path.Ext(filepath.ToSlash(relPath)))]
}

func matchPattern(pattern, relPath string) bool {
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
		if anchored || strings.Contains(dir, "/") {
			return relPath == dir || strings.HasPrefix(relPath, dir+"/")
		}
		for _, part := range strings.Split(relPath, "/") {
			if part == dir {
				return true
			}
		}
		return false
	}

	if matched, _ := path.Match(pattern, relPath); matched {
		return true
	}
	if anchored {
		return false
	}
	matched, _ := path.Match(pattern, path.Base(relPath))
	return matched
}

// IsBinary checks for null bytes in the first 512 bytes of content.
func IsBinary(content []byte) bool {
	checkLen := min(len(content), 512)
	for i := range checkLen {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
