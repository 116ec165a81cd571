// Package search indexes extracted snippet artifacts with Bleve and serves
// them to MCP clients.
package search

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/sha1n/docsnip/internal/domain"
)

const (
	// IndexDirName is the index directory inside the state directory
	IndexDirName = "index.bleve"

	// MaxBatchSize is the maximum number of records per batch
	MaxBatchSize = 100

	// MaxBatchBytes is the maximum bytes per batch (10MB)
	MaxBatchBytes = 10 * 1024 * 1024
)

// IndexPath returns the index location for an output root.
func IndexPath(outputRoot string) string {
	return filepath.Join(outputRoot, domain.StateDir, IndexDirName)
}

// CreateIndexMapping creates the Bleve index mapping for snippet records.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Content field - analyzed for full-text search
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	contentField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.SnippetFieldContent, contentField)

	for _, name := range []string{domain.SnippetFieldDocument, domain.SnippetFieldLang, domain.SnippetFieldExt, domain.SnippetFieldPath} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = keyword.Name
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	ordinalField := bleve.NewNumericFieldMapping()
	ordinalField.Store = true
	docMapping.AddFieldMappingsAt(domain.SnippetFieldOrdinal, ordinalField)

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.SnippetFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Body returns the artifact bytes that follow the provenance header line.
func Body(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[i+1:]
	}
	return nil
}

// Build replaces the index at path with one holding every artifact found
// under outputRoot. Artifacts whose files cannot be read are skipped.
func Build(path, outputRoot string, artifacts []domain.Artifact) (_ bleve.Index, count int, err error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, 0, fmt.Errorf("failed to remove previous index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, 0, fmt.Errorf("failed to create state directory: %w", err)
	}

	index, err := bleve.New(path, CreateIndexMapping())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create index: %w", err)
	}
	defer func() {
		if err != nil {
			_ = index.Close()
		}
	}()

	batch := index.NewBatch()
	batchSize := 0
	batchBytes := 0

	for _, a := range artifacts {
		data, readErr := os.ReadFile(filepath.Join(outputRoot, filepath.FromSlash(a.Path)))
		if readErr != nil {
			slog.Warn("Skipping unreadable artifact", "path", a.Path, "error", readErr)
			continue
		}

		record := domain.SnippetRecord{
			ID:       a.Path,
			Document: a.Document,
			Ordinal:  a.Ordinal,
			Lang:     strings.ToLower(a.Lang),
			Ext:      a.Ext,
			Path:     a.Path,
			Content:  string(Body(data)),
		}
		if err := batch.Index(record.ID, record); err != nil {
			slog.Warn("Skipping artifact", "path", a.Path, "error", err)
			continue
		}
		batchSize++
		batchBytes += len(data)

		if batchSize >= MaxBatchSize || batchBytes >= MaxBatchBytes {
			if err := index.Batch(batch); err != nil {
				return nil, count, fmt.Errorf("batch index failed: %w", err)
			}
			count += batchSize
			batch = index.NewBatch()
			batchSize = 0
			batchBytes = 0
		}
	}

	if batchSize > 0 {
		if err := index.Batch(batch); err != nil {
			return nil, count, fmt.Errorf("final batch index failed: %w", err)
		}
		count += batchSize
	}

	return index, count, nil
}
