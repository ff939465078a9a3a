package uidmapshift

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// PathPatterns is a cumulative set of glob patterns matched against the
// path strings produced by the tree walk, exactly as joined by the
// walker and not canonicalized in any way. An entry matching any pattern
// is excluded before its metadata is read. Single `*` and `?` stay
// within one path component; `**` crosses separators.
type PathPatterns []string

// NewPathPatterns validates every pattern up front so a malformed glob
// fails construction instead of the first traversal that reaches it.
func NewPathPatterns(patterns []string) (PathPatterns, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("malformed exclusion pattern %q", p)
		}
	}
	return PathPatterns(patterns), nil
}

// Match reports whether path matches at least one pattern. The first
// match wins; order is otherwise irrelevant.
func (pp PathPatterns) Match(path string) bool {
	for _, p := range pp {
		// Patterns were validated at construction.
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
