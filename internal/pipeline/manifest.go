package pipeline

import (
	"time"

	"github.com/sha1n/docsnip/internal/artifact"
)

// UpdateManifest folds a run summary into the manifest. Documents that no
// longer exist are dropped; documents that failed to scan keep their
// previous artifacts with the error recorded, unless another source holds
// the same name this run. Returns the dropped names.
func UpdateManifest(m *artifact.Manifest, s *Summary, runID string, now time.Time) []string {
	m.StartRun(runID, now)

	keep := make([]string, 0, len(s.Results)+len(s.Failures))
	extracted := make(map[string]bool, len(s.Results))
	for _, r := range s.Results {
		keep = append(keep, r.Name)
		extracted[r.Name] = true

		state := artifact.DocumentState{
			Source:        r.Source,
			ContentSHA256: r.ContentSHA256,
			ExtractedAt:   now,
			Artifacts:     r.Artifacts,
		}
		if len(r.Failures) > 0 {
			state.Error = r.Failures[0].Err.Error()
		}
		m.SetDocument(r.Name, state)
	}

	for _, f := range s.Failures {
		if f.Kind() != "scan" || f.Document == "" || extracted[f.Document] {
			continue
		}
		keep = append(keep, f.Document)
		m.SetDocumentError(f.Document, f.Err.Error())
	}

	return m.RemoveStaleDocuments(keep)
}
