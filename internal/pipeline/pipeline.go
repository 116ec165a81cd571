package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sha1n/docsnip/internal/domain"
	"github.com/sha1n/docsnip/internal/markdown"
)

// Sink receives every extracted fence. The emitter writes artifacts to disk;
// other sinks render them in memory.
type Sink interface {
	Put(doc *domain.Document, f domain.Fence) (domain.Artifact, error)
}

// Options controls a pipeline run.
type Options struct {
	// Workers is the number of documents processed concurrently. Values
	// below 2 run fully sequentially.
	Workers int

	// Strict rejects unterminated fences instead of emitting them.
	Strict bool
}

// Failure is a single recorded error.
type Failure struct {
	Document string
	Ordinal  int
	Err      error
}

// Kind names the failure class: scan, parse or write.
func (f Failure) Kind() string {
	var scanErr *domain.ScanError
	var parseErr *domain.ParseError
	var writeErr *domain.WriteError
	switch {
	case errors.As(f.Err, &scanErr):
		return "scan"
	case errors.As(f.Err, &parseErr):
		return "parse"
	case errors.As(f.Err, &writeErr):
		return "write"
	default:
		return "error"
	}
}

// DocumentResult is the outcome of processing one document.
type DocumentResult struct {
	Name          string
	Source        string
	ContentSHA256 string
	Fences        int
	Artifacts     []domain.Artifact
	Failures      []Failure
}

// Summary aggregates a run. Results are ordered by document name, so the
// summary is the same whatever the worker scheduling.
type Summary struct {
	Documents int
	Fences    int
	Artifacts int
	Failures  []Failure
	Results   []DocumentResult
}

// Failed reports whether any document could not be scanned or parsed.
// Write failures are reported but do not fail the run.
func (s *Summary) Failed() bool {
	for _, f := range s.Failures {
		if k := f.Kind(); k == "scan" || k == "parse" {
			return true
		}
	}
	return false
}

// Pipeline runs Scanner → Extractor → Sink per document.
type Pipeline struct {
	scanner *markdown.Scanner
	sink    Sink
	opts    Options
}

// New creates a pipeline.
func New(scanner *markdown.Scanner, sink Sink, opts Options) *Pipeline {
	return &Pipeline{
		scanner: scanner,
		sink:    sink,
		opts:    opts,
	}
}

// Run processes every document. Individual failures are recorded in the
// summary; the returned error is non-nil only when ctx is canceled.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	workers := max(p.opts.Workers, 1)
	sem := make(chan struct{}, workers)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		results   []DocumentResult
		scanFails []Failure
	)

	for doc, err := range p.scanner.Documents() {
		if ctx.Err() != nil {
			break
		}

		if err != nil {
			name := p.documentName(err)
			slog.Error("Failed to scan document", "document", name, "error", err)
			scanFails = append(scanFails, Failure{Document: name, Err: err})
			continue
		}

		if workers == 1 {
			results = append(results, p.process(doc))
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(doc *domain.Document) {
			defer wg.Done()
			defer func() { <-sem }()
			r := p.process(doc)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(doc)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	summary := &Summary{Results: results, Failures: scanFails}
	for _, r := range results {
		summary.Documents++
		summary.Fences += r.Fences
		summary.Artifacts += len(r.Artifacts)
		summary.Failures = append(summary.Failures, r.Failures...)
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// process extracts and emits one document to completion.
func (p *Pipeline) process(doc *domain.Document) DocumentResult {
	sum := sha256.Sum256([]byte(strings.Join(doc.Lines, "")))
	result := DocumentResult{
		Name:          doc.Name,
		Source:        doc.Source,
		ContentSHA256: hex.EncodeToString(sum[:]),
	}

	fences, err := markdown.Extract(doc, markdown.ExtractOptions{Strict: p.opts.Strict})
	if err != nil {
		slog.Error("Failed to parse document", "document", doc.Name, "error", err)
		result.Failures = append(result.Failures, Failure{Document: doc.Name, Err: err})
	}
	result.Fences = len(fences)

	for _, f := range fences {
		if !f.Terminated {
			slog.Warn("Unterminated fence emitted", "document", doc.Name, "ordinal", f.Ordinal, "line", f.StartLine)
		}
		a, err := p.sink.Put(doc, f)
		if err != nil {
			slog.Error("Failed to emit snippet", "document", doc.Name, "ordinal", f.Ordinal, "error", err)
			result.Failures = append(result.Failures, Failure{Document: doc.Name, Ordinal: f.Ordinal, Err: err})
			continue
		}
		result.Artifacts = append(result.Artifacts, a)
	}

	slog.Debug("Processed document", "document", doc.Name, "fences", len(fences), "artifacts", len(result.Artifacts))
	return result
}

// documentName derives a document name from a scan error path.
func (p *Pipeline) documentName(err error) string {
	var scanErr *domain.ScanError
	if !errors.As(err, &scanErr) {
		return ""
	}
	rel, relErr := filepath.Rel(p.scanner.Root(), scanErr.Path)
	if relErr != nil || rel == "." {
		return filepath.ToSlash(scanErr.Path)
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel))
}
