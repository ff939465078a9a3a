package uidmapshift

import "fmt"

// OutOfRangeError reports an identifier that left the 32-bit identifier
// space after applying an offset. This is a configuration problem (the
// offset does not fit the tree being shifted) rather than an
// environmental one, so it gets its own type instead of a generic wrap.
type OutOfRangeError struct {
	Kind   Kind
	ID     uint32
	Mapped int64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("invalid new %s: %d -> %d", e.Kind, e.ID, e.Mapped)
}

// EntryError wraps a failure to inspect or commit metadata for a single
// filesystem entry. The first EntryError aborts the whole run: partially
// shifted trees are considered worse than stopping early.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("failed to shift %s: %v", e.Path, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Cause supports github.com/pkg/errors traversal.
func (e *EntryError) Cause() error { return e.Err }
