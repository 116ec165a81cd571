package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/docsnip/internal/artifact"
	"github.com/sha1n/docsnip/internal/domain"
)

var (
	// ErrNotReady is returned while the index has not been built
	ErrNotReady = errors.New("snippet index not ready")

	// ErrSnippetNotFound is returned when no artifact matches a document and ordinal
	ErrSnippetNotFound = errors.New("snippet not found")
)

// Query describes a snippet search.
type Query struct {
	Text     string
	Document string
	Lang     string
}

// Hit is a single search result.
type Hit struct {
	Document  string
	Ordinal   int
	Lang      string
	Path      string
	Score     float64
	Fragments []string
}

// Result holds the hits of a search and the total number of matches.
type Result struct {
	Total uint64
	Hits  []Hit
}

// Snippet is an artifact together with its file content.
type Snippet struct {
	domain.Artifact
	Content string
}

// Service indexes the artifacts of an output root and answers queries.
type Service struct {
	outputRoot string
	maxResults int
	manifest   *artifact.Manifest
	index      bleve.Index
	ready      bool
	mu         sync.RWMutex
}

// NewService creates a search service over outputRoot.
func NewService(outputRoot string, maxResults int) (*Service, error) {
	if strings.TrimSpace(outputRoot) == "" {
		return nil, fmt.Errorf("output root cannot be empty")
	}
	if maxResults <= 0 {
		return nil, fmt.Errorf("max results must be positive, got: %d", maxResults)
	}
	return &Service{
		outputRoot: outputRoot,
		maxResults: maxResults,
	}, nil
}

// Initialize loads the manifest and rebuilds the index from the artifacts it lists.
// The caller must hold the output root run lock.
func (s *Service) Initialize(ctx context.Context) error {
	manifest, err := artifact.LoadManifest(artifact.ManifestPath(s.outputRoot))
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	artifacts := manifest.Artifacts()
	index, count, err := Build(IndexPath(s.outputRoot), s.outputRoot, artifacts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		_ = s.index.Close()
	}
	s.manifest = manifest
	s.index = index
	s.ready = true

	slog.Info("Snippet index ready", "artifacts", len(artifacts), "indexed", count)
	return nil
}

// IsReady returns true if the index is ready for search.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// MaxResults returns the maximum number of hits per search.
func (s *Service) MaxResults() int {
	return s.maxResults
}

// Search runs q against the content field, filtered by document and language.
func (s *Service) Search(ctx context.Context, q Query) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, ErrNotReady
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	req := bleve.NewSearchRequest(buildQuery(q))
	req.Size = s.maxResults
	req.Fields = []string{domain.SnippetFieldDocument, domain.SnippetFieldOrdinal, domain.SnippetFieldLang, domain.SnippetFieldPath}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField(domain.SnippetFieldContent)

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result := &Result{Total: res.Total, Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if v, ok := h.Fields[domain.SnippetFieldDocument].(string); ok {
			hit.Document = v
		}
		if v, ok := h.Fields[domain.SnippetFieldOrdinal].(float64); ok {
			hit.Ordinal = int(v)
		}
		if v, ok := h.Fields[domain.SnippetFieldLang].(string); ok {
			hit.Lang = v
		}
		if v, ok := h.Fields[domain.SnippetFieldPath].(string); ok {
			hit.Path = v
		}
		hit.Fragments = h.Fragments[domain.SnippetFieldContent]
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// buildQuery constructs a Bleve query from search arguments.
func buildQuery(q Query) query.Query {
	contentQuery := bleve.NewMatchQuery(q.Text)
	contentQuery.SetField(domain.SnippetFieldContent)

	if q.Document == "" && q.Lang == "" {
		return contentQuery
	}

	must := []query.Query{contentQuery}

	if q.Document != "" {
		docQuery := bleve.NewTermQuery(q.Document)
		docQuery.SetField(domain.SnippetFieldDocument)
		must = append(must, docQuery)
	}

	if q.Lang != "" {
		langQuery := bleve.NewTermQuery(strings.ToLower(q.Lang))
		langQuery.SetField(domain.SnippetFieldLang)
		must = append(must, langQuery)
	}

	return bleve.NewConjunctionQuery(must...)
}

// Read returns the artifact for fence ordinal of document, read from disk.
func (s *Service) Read(document string, ordinal int) (*Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, ErrNotReady
	}

	state, ok := s.manifest.Document(document)
	if !ok {
		return nil, fmt.Errorf("%w: document %q", ErrSnippetNotFound, document)
	}
	for _, a := range state.Artifacts {
		if a.Ordinal != ordinal {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.outputRoot, filepath.FromSlash(a.Path)))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrSnippetNotFound, a.Path)
			}
			return nil, fmt.Errorf("failed to read %s: %w", a.Path, err)
		}
		return &Snippet{Artifact: a, Content: string(data)}, nil
	}
	return nil, fmt.Errorf("%w: %s fence #%d", ErrSnippetNotFound, document, ordinal)
}

// Close releases the index.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		s.index = nil
	}

	s.ready = false
	return nil
}
