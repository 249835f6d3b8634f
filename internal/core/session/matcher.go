package session

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-worktime-tracker/internal/core/constants"
)

// PathMatcher decides which directories are watched and which file events
// count as activity. Paths are relative to the watch root.
//
// Ignore patterns without a slash are globs matched against every path
// segment. Patterns containing a slash are prefixes of the relative path.
type PathMatcher struct {
	segmentGlobs []string
	prefixes     []string
	extensions   map[string]struct{}
}

// NewPathMatcher validates the patterns and builds a matcher. An empty
// extension list allows every file.
func NewPathMatcher(ignore, extensions []string) (*PathMatcher, error) {
	m := &PathMatcher{extensions: make(map[string]struct{}, len(extensions))}

	for _, pattern := range ignore {
		pattern = strings.TrimSpace(filepath.ToSlash(pattern))
		if pattern == "" {
			continue
		}
		if strings.Contains(strings.Trim(pattern, "/"), "/") {
			m.prefixes = append(m.prefixes, strings.Trim(pattern, "/"))
			continue
		}
		pattern = strings.Trim(pattern, "/")
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		m.segmentGlobs = append(m.segmentGlobs, pattern)
	}

	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.extensions[ext] = struct{}{}
	}

	return m, nil
}

// DefaultPathMatcher ignores dependency, build and VCS directories plus the
// state file, and tracks web source files
func DefaultPathMatcher() *PathMatcher {
	m, _ := NewPathMatcher(constants.DefaultIgnorePatterns, constants.DefaultExtensions)
	return m
}

// Ignored reports whether any segment or prefix of rel is excluded
func (m *PathMatcher) Ignored(rel string) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false
	}

	for _, prefix := range m.prefixes {
		if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}

	for _, segment := range strings.Split(rel, "/") {
		for _, glob := range m.segmentGlobs {
			if ok, _ := path.Match(glob, segment); ok {
				return true
			}
		}
	}
	return false
}

// WatchDir reports whether a directory should get a watch
func (m *PathMatcher) WatchDir(rel string) bool {
	return !m.Ignored(rel)
}

// Tracked reports whether a change to the file at rel counts as activity
func (m *PathMatcher) Tracked(rel string) bool {
	if m.Ignored(rel) {
		return false
	}
	if len(m.extensions) == 0 {
		return true
	}
	_, ok := m.extensions[strings.ToLower(path.Ext(filepath.ToSlash(rel)))]
	return ok
}
