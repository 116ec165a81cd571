package app

import (
	"fmt"
	"io"

	"github.com/sha1n/docsnip/internal/curate"
	"github.com/sha1n/docsnip/internal/pipeline"
)

// WriteSummary prints the counts of an extraction run followed by its failures.
func WriteSummary(w io.Writer, s *pipeline.Summary) {
	_, _ = fmt.Fprintf(w, "Documents scanned:  %d\n", s.Documents)
	_, _ = fmt.Fprintf(w, "Fences extracted:   %d\n", s.Fences)
	_, _ = fmt.Fprintf(w, "Artifacts written:  %d\n", s.Artifacts)
	_, _ = fmt.Fprintf(w, "Failures:           %d\n", len(s.Failures))
	WriteFailures(w, s.Failures)
}

// WriteFailures prints one line per failure.
func WriteFailures(w io.Writer, failures []pipeline.Failure) {
	for _, f := range failures {
		switch {
		case f.Ordinal > 0:
			_, _ = fmt.Fprintf(w, "  [%s] %s fence #%d: %v\n", f.Kind(), f.Document, f.Ordinal, f.Err)
		case f.Document != "":
			_, _ = fmt.Fprintf(w, "  [%s] %s: %v\n", f.Kind(), f.Document, f.Err)
		default:
			_, _ = fmt.Fprintf(w, "  [%s] %v\n", f.Kind(), f.Err)
		}
	}
}

// WriteDrifts prints each drift, with the diff of stale artifacts.
func WriteDrifts(w io.Writer, drifts []curate.Drift) {
	if len(drifts) == 0 {
		_, _ = fmt.Fprintln(w, "Extracted snippets are up to date")
		return
	}
	for _, d := range drifts {
		_, _ = fmt.Fprintf(w, "%-8s %s\n", d.Kind, d.Path)
		if d.Diff != "" {
			_, _ = fmt.Fprint(w, d.Diff)
		}
	}
	_, _ = fmt.Fprintf(w, "%d artifact(s) out of date\n", len(drifts))
}

// WriteArchived prints the archived paths.
func WriteArchived(w io.Writer, moved []string) {
	for _, p := range moved {
		_, _ = fmt.Fprintf(w, "archived %s\n", p)
	}
	_, _ = fmt.Fprintf(w, "%d artifact(s) archived\n", len(moved))
}
