// Package driver provides the filesystem primitives the shifting engine
// relies on: lstat-style inspection, ownership changes that never follow
// symlinks, and POSIX ACL access.
package driver

import (
	"github.com/joshlf/go-acl"
)

// Info carries the subset of entry metadata the engine inspects. It is
// always gathered without following symlinks, so for a symlink it
// describes the link itself, not its target.
type Info struct {
	UID     uint32
	GID     uint32
	Dir     bool
	Symlink bool
}

// Driver abstracts the metadata syscalls used by the engine. The engine
// should never reach for the os package directly; going through the
// driver keeps symlink handling in one place and lets tests substitute a
// fake filesystem.
type Driver interface {
	// Lstat inspects the entry at path without following symlinks.
	Lstat(path string) (Info, error)

	// Lchown changes ownership without following symlinks. A uid or gid
	// of -1 leaves that side untouched; the sentinel must reach the
	// underlying call unmodified.
	Lchown(path string, uid, gid int) error

	// AccessACL returns the access ACL for path, or nil if the entry
	// carries no extended ACL.
	AccessACL(path string) (acl.ACL, error)

	// DefaultACL returns the default ACL for the directory at path, or
	// nil if none is set. Only meaningful for directories.
	DefaultACL(path string) (acl.ACL, error)

	// SetAccessACL replaces the access ACL of path.
	SetAccessACL(path string, a acl.ACL) error

	// SetDefaultACL replaces the default ACL of the directory at path.
	SetDefaultACL(path string, a acl.ACL) error
}
