package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/sha1n/docsnip/internal/domain"
)

// RelPath returns the slash-separated artifact path relative to the output root.
func RelPath(docName string, ordinal int, ext string) string {
	return path.Join(domain.ExtractedDir, docName, fmt.Sprintf("snippet_%d.%s", ordinal, ext))
}

// Render builds the artifact bytes for a fence: the provenance header
// followed by the fence content, unmodified.
func Render(doc *domain.Document, f domain.Fence) (domain.Artifact, []byte) {
	syntax := Lookup(f.Lang)
	header := Header(doc, f)

	data := make([]byte, 0, len(header)+len(f.Content))
	data = append(data, header...)
	data = append(data, f.Content...)

	sum := sha256.Sum256(data)
	return domain.Artifact{
		Document: doc.Name,
		Ordinal:  f.Ordinal,
		Lang:     f.Lang,
		Ext:      syntax.Ext,
		Path:     RelPath(doc.Name, f.Ordinal, syntax.Ext),
		SHA256:   hex.EncodeToString(sum[:]),
	}, data
}

// Emitter writes artifacts below an output root.
type Emitter struct {
	root string
}

// NewEmitter creates an emitter writing under outputRoot.
func NewEmitter(outputRoot string) *Emitter {
	return &Emitter{root: outputRoot}
}

// Root returns the output root.
func (e *Emitter) Root() string {
	return e.root
}

// Put writes the artifact for fence f of doc, replacing any existing file.
// Failures are returned as *domain.WriteError.
func (e *Emitter) Put(doc *domain.Document, f domain.Fence) (domain.Artifact, error) {
	a, data := Render(doc, f)
	dest := filepath.Join(e.root, filepath.FromSlash(a.Path))

	if err := WriteFileAtomic(dest, data); err != nil {
		return a, &domain.WriteError{Document: doc.Name, Ordinal: f.Ordinal, Path: dest, Err: err}
	}
	return a, nil
}

// WriteFileAtomic writes data to a temp file next to dest and renames it
// into place, creating parent directories as needed.
func WriteFileAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
