package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sha1n/docsnip/internal/domain"
)

func TestLoadManifest_Missing(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "manifest.json"))
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Version != ManifestVersion {
		t.Errorf("Version = %d", m.Version)
	}
	if len(m.Documents) != 0 {
		t.Errorf("Expected empty manifest, got %d documents", len(m.Documents))
	}
}

func TestLoadManifest_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestManifest_SaveAndLoad(t *testing.T) {
	out := t.TempDir()
	path := ManifestPath(out)

	m := NewManifest()
	m.StartRun("run-1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	m.SetDocument("API", DocumentState{
		Source: "API.md",
		Artifacts: []domain.Artifact{
			{Document: "API", Ordinal: 1, Lang: "python", Ext: "py", Path: "extracted/API/snippet_1.py"},
		},
	})

	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(domain.StateDir, ManifestFilename)) {
		t.Errorf("Unexpected manifest path %q", path)
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if loaded.RunID != "run-1" {
		t.Errorf("RunID = %q", loaded.RunID)
	}
	state, ok := loaded.Document("API")
	if !ok {
		t.Fatal("Expected API document")
	}
	if len(state.Artifacts) != 1 || state.Artifacts[0].Path != "extracted/API/snippet_1.py" {
		t.Errorf("Unexpected artifacts: %+v", state.Artifacts)
	}
}

func TestManifest_RemoveStaleDocuments(t *testing.T) {
	m := NewManifest()
	m.SetDocument("API", DocumentState{Source: "API.md"})
	m.SetDocument("OLD", DocumentState{Source: "OLD.md"})
	m.SetDocument("GONE", DocumentState{Source: "GONE.md"})

	removed := m.RemoveStaleDocuments([]string{"API"})
	if strings.Join(removed, ",") != "GONE,OLD" {
		t.Errorf("Removed = %v", removed)
	}
	if names := m.DocumentNames(); len(names) != 1 || names[0] != "API" {
		t.Errorf("Remaining = %v", names)
	}
}

func TestManifest_ArtifactsOrdered(t *testing.T) {
	m := NewManifest()
	m.SetDocument("B", DocumentState{Artifacts: []domain.Artifact{{Document: "B", Ordinal: 1}}})
	m.SetDocument("A", DocumentState{Artifacts: []domain.Artifact{
		{Document: "A", Ordinal: 2},
		{Document: "A", Ordinal: 1},
	}})

	all := m.Artifacts()
	if len(all) != 3 {
		t.Fatalf("Expected 3 artifacts, got %d", len(all))
	}
	if all[0].Document != "A" || all[0].Ordinal != 1 || all[1].Ordinal != 2 || all[2].Document != "B" {
		t.Errorf("Unexpected order: %+v", all)
	}
}

func TestManifest_DocumentErrors(t *testing.T) {
	m := NewManifest()
	m.SetDocument("API", DocumentState{Source: "API.md", Artifacts: []domain.Artifact{{Document: "API", Ordinal: 1}}})
	m.SetDocumentError("API", "boom")
	m.SetDocumentError("NEW", "unreadable")

	errs := m.DocumentsWithErrors()
	if errs["API"] != "boom" || errs["NEW"] != "unreadable" {
		t.Errorf("Unexpected errors: %v", errs)
	}
	state, _ := m.Document("API")
	if len(state.Artifacts) != 1 {
		t.Error("SetDocumentError should keep previous artifacts")
	}
}
