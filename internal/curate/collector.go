// Package curate compares rendered snippets with what is on disk and moves
// orphaned artifacts to the archive. Nothing here runs during extraction.
package curate

import (
	"sort"
	"sync"

	"github.com/sha1n/docsnip/internal/artifact"
	"github.com/sha1n/docsnip/internal/domain"
)

// Collector is a pipeline sink that renders artifacts in memory.
type Collector struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{files: make(map[string][]byte)}
}

// Put renders the artifact for f and keeps it keyed by its relative path.
func (c *Collector) Put(doc *domain.Document, f domain.Fence) (domain.Artifact, error) {
	a, data := artifact.Render(doc, f)
	c.mu.Lock()
	c.files[a.Path] = data
	c.mu.Unlock()
	return a, nil
}

// Files returns the rendered artifacts keyed by relative path.
func (c *Collector) Files() map[string][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]byte, len(c.files))
	for p, data := range c.files {
		out[p] = data
	}
	return out
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
