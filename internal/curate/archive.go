package curate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sha1n/docsnip/internal/domain"
)

// Archive moves the given artifacts (paths relative to outputRoot) to
// archive/unused, keeping their extracted/... layout, and prunes document
// directories left empty. An existing archived copy is replaced.
// It returns the archived paths.
func Archive(outputRoot string, paths []string) ([]string, error) {
	var moved []string
	for _, rel := range paths {
		src := filepath.Join(outputRoot, filepath.FromSlash(rel))
		dstRel := domain.ArchivedPath(rel)
		dst := filepath.Join(outputRoot, filepath.FromSlash(dstRel))

		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return moved, fmt.Errorf("failed to create archive directory: %w", err)
		}
		if err := os.Rename(src, dst); err != nil {
			return moved, fmt.Errorf("failed to archive %s: %w", rel, err)
		}
		slog.Info("Archived snippet", "path", rel, "archived", dstRel)
		moved = append(moved, dstRel)

		pruneEmptyDirs(filepath.Dir(src), filepath.Join(outputRoot, domain.ExtractedDir))
	}
	return moved, nil
}

// pruneEmptyDirs removes dir and its empty parents up to, but not including, stop.
func pruneEmptyDirs(dir, stop string) {
	for dir != stop && len(dir) > len(stop) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
