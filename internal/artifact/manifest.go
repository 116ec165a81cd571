package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sha1n/docsnip/internal/domain"
)

const (
	// ManifestVersion is the current schema version
	ManifestVersion = 1

	// ManifestFilename is the manifest filename inside the state directory
	ManifestFilename = "manifest.json"
)

// ManifestPath returns the manifest location for an output root.
func ManifestPath(outputRoot string) string {
	return filepath.Join(outputRoot, domain.StateDir, ManifestFilename)
}

// Manifest records what the last extraction run produced per document.
type Manifest struct {
	Version   int                      `json:"version"`
	RunID     string                   `json:"run_id"`
	LastRun   time.Time                `json:"last_run"`
	Documents map[string]DocumentState `json:"documents"`
	mu        sync.RWMutex             `json:"-"`
}

// DocumentState is the extraction result for one document.
type DocumentState struct {
	Source        string            `json:"source"`
	ContentSHA256 string            `json:"content_sha256"`
	ExtractedAt   time.Time         `json:"extracted_at"`
	Artifacts     []domain.Artifact `json:"artifacts"`
	Error         string            `json:"error,omitempty"`
}

// NewManifest creates a new empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Version:   ManifestVersion,
		Documents: make(map[string]DocumentState),
	}
}

// LoadManifest reads a manifest from disk, or creates a new one if it doesn't exist.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Documents == nil {
		manifest.Documents = make(map[string]DocumentState)
	}
	return &manifest, nil
}

// Save writes the manifest to disk atomically.
func (m *Manifest) Save(path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// StartRun stamps the manifest with a new run.
func (m *Manifest) StartRun(runID string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunID = runID
	m.LastRun = at
}

// SetDocument replaces the state of a document.
func (m *Manifest) SetDocument(name string, state DocumentState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Documents[name] = state
}

// SetDocumentError records an error for a document, keeping its previous artifacts.
func (m *Manifest) SetDocumentError(name, err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.Documents[name]
	state.Error = err
	m.Documents[name] = state
}

// Document returns the state of a document.
func (m *Manifest) Document(name string) (DocumentState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.Documents[name]
	return state, ok
}

// DocumentNames returns all document names, sorted.
func (m *Manifest) DocumentNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.Documents))
	for name := range m.Documents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveStaleDocuments drops documents not in keep and returns their names.
func (m *Manifest) RemoveStaleDocuments(keep []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	expected := make(map[string]bool, len(keep))
	for _, name := range keep {
		expected[name] = true
	}

	var removed []string
	for name := range m.Documents {
		if !expected[name] {
			removed = append(removed, name)
		}
	}
	for _, name := range removed {
		delete(m.Documents, name)
	}
	sort.Strings(removed)
	return removed
}

// Artifacts returns every recorded artifact ordered by document and ordinal.
func (m *Manifest) Artifacts() []domain.Artifact {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []domain.Artifact
	for _, state := range m.Documents {
		all = append(all, state.Artifacts...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Document != all[j].Document {
			return all[i].Document < all[j].Document
		}
		return all[i].Ordinal < all[j].Ordinal
	})
	return all
}

// DocumentsWithErrors returns the documents whose last run failed.
func (m *Manifest) DocumentsWithErrors() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string)
	for name, state := range m.Documents {
		if state.Error != "" {
			result[name] = state.Error
		}
	}
	return result
}
