package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover returns the files under root matching a doublestar glob
// (e.g. "**/*.gpx"), as paths joined onto root, sorted for determinism.
func Discover(root, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %q under %s: %w", pattern, root, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(root, m))
	}
	sort.Strings(out)
	return out, nil
}

// MatchesGlob reports whether a path relative to root matches the pattern.
// Used by the watch worker to filter filesystem events.
func MatchesGlob(root, pattern, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// FindCompanionKML looks for a KML export next to a GPX file with the same
// stem; onX exports the two sides of one dataset under one name. Returns
// the path and true when one exists.
func FindCompanionKML(gpxPath string) (string, bool) {
	stem := strings.TrimSuffix(gpxPath, filepath.Ext(gpxPath))
	for _, ext := range []string{".kml", ".KML"} {
		candidate := stem + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
