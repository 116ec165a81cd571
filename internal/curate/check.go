package curate

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
	"github.com/sha1n/docsnip/internal/domain"
)

// DriftKind classifies a difference between rendered and on-disk artifacts.
type DriftKind string

const (
	DriftMissing  DriftKind = "missing"
	DriftStale    DriftKind = "stale"
	DriftOrphaned DriftKind = "orphaned"
)

// Drift is one artifact that does not match the current documents.
type Drift struct {
	Kind DriftKind
	Path string
	// Diff is a unified diff from disk to expected content, set for stale artifacts.
	Diff string
}

// DiffContext is the number of context lines in stale artifact diffs.
const DiffContext = 3

// Check compares expected artifacts with the files under outputRoot.
// Results are ordered by path.
func Check(outputRoot string, expected map[string][]byte) ([]Drift, error) {
	var drifts []Drift

	for _, rel := range sortedKeys(expected) {
		want := expected[rel]
		got, err := os.ReadFile(filepath.Join(outputRoot, filepath.FromSlash(rel)))
		if errors.Is(err, fs.ErrNotExist) {
			drifts = append(drifts, Drift{Kind: DriftMissing, Path: rel})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		if !bytes.Equal(got, want) {
			drifts = append(drifts, Drift{Kind: DriftStale, Path: rel, Diff: unified(rel, got, want)})
		}
	}

	orphans, err := Orphans(outputRoot, expected)
	if err != nil {
		return nil, err
	}
	for _, rel := range orphans {
		drifts = append(drifts, Drift{Kind: DriftOrphaned, Path: rel})
	}

	sort.SliceStable(drifts, func(i, j int) bool { return drifts[i].Path < drifts[j].Path })
	return drifts, nil
}

// Orphans lists artifacts under the extracted tree that the current
// documents no longer produce. Hidden files are ignored.
func Orphans(outputRoot string, expected map[string][]byte) ([]string, error) {
	base := filepath.Join(outputRoot, domain.ExtractedDir)

	var orphans []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == base {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(outputRoot, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if _, ok := expected[rel]; !ok {
			orphans = append(orphans, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", base, err)
	}

	sort.Strings(orphans)
	return orphans, nil
}

func unified(rel string, got, want []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(got)),
		B:        difflib.SplitLines(string(want)),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  DiffContext,
	})
	if err != nil || diff == "" {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n(content differs)\n", rel, rel)
	}
	return diff
}
