// Package uidmapshift rewrites the ownership metadata of a directory
// tree by a fixed signed offset: the owning user and group of every
// entry, and the named user and group entries of POSIX access and
// default ACLs. Identifier ranges and path globs can be excluded from
// shifting, and a dry-run mode performs every computation without
// committing anything to disk.
package uidmapshift

import (
	"io/fs"
	"path/filepath"

	"github.com/joshlf/go-acl"
	"github.com/pkg/errors"

	"github.com/laomaiweng/uidmapshift/driver"
)

// Options configure a single run. The same Shifter may be reused across
// runs with different options but identical remapping parameters, which
// is how the dry-run-then-commit sequence works.
type Options struct {
	// ShiftOwner enables remapping of the owning user and group.
	ShiftOwner bool

	// ShiftACL enables remapping of named-user and named-group entries
	// in access ACLs, and in default ACLs for directories. Symlinks
	// never get ACL work: no ACL can attach to the link itself.
	ShiftACL bool

	// DryRun computes and reports every change without committing any of
	// them to disk.
	DryRun bool
}

// Stats aggregates the results of one traversal. A fresh value is
// produced per Run call and never shared.
type Stats struct {
	// ShiftedPaths counts entries with at least one mutation.
	ShiftedPaths int64
	// ShiftedUIDs and ShiftedGIDs count entries whose owning user or
	// group changed.
	ShiftedUIDs int64
	ShiftedGIDs int64
	// ShiftedACLs and ShiftedDefaultACLs count individual rewritten ACL
	// entries, not entries of the tree.
	ShiftedACLs        int64
	ShiftedDefaultACLs int64
	// Skipped counts both pattern-excluded and no-op entries.
	Skipped int64
}

// State classifies the outcome of processing one entry.
type State int

const (
	// Excluded entries matched an exclusion pattern; their metadata was
	// never read.
	Excluded State = iota
	// Unchanged entries were inspected but nothing applied to them.
	Unchanged
	// Shifted entries had ownership or ACL entries remapped.
	Shifted
)

// Outcome is the structured per-entry record handed to the Reporter.
// Formatting is entirely the reporter's concern.
type Outcome struct {
	Path  string
	Dir   bool
	State State

	// Ownership before and after. Meaningless for Excluded entries,
	// whose metadata was never read. NewUID/NewGID equal UID/GID unless
	// the corresponding Changed flag is set.
	UID, GID       uint32
	NewUID, NewGID uint32
	UIDChanged     bool
	GIDChanged     bool

	ACLChanges        []ACLChange
	DefaultACLChanges []ACLChange
}

// Reporter receives one Outcome per visited entry. The engine reports
// unconditionally; suppressing output is the reporter's business.
// Implementations must not retain the Outcome past the call.
type Reporter interface {
	Report(*Outcome)
}

// Config carries the construction parameters for a Shifter.
type Config struct {
	UIDOffset int64
	GIDOffset int64

	// Exclusion ranges are cumulative: an identifier inside any range is
	// left alone. Overlaps are fine and mean nothing beyond union
	// membership.
	ExcludeUIDs []Range
	ExcludeGIDs []Range

	// ExcludePaths are glob patterns matched against the joined path of
	// each visited entry; a match skips the entry before any metadata is
	// read.
	ExcludePaths []string

	// Driver substitutes the filesystem implementation; nil means the
	// system driver.
	Driver driver.Driver

	// Reporter receives per-entry outcomes; nil disables reporting.
	Reporter Reporter
}

// Shifter remaps ownership and ACL identifiers across a directory tree.
// Configuration is immutable after construction; a single Shifter may be
// used for any number of sequential runs.
type Shifter struct {
	uids     IDMap
	gids     IDMap
	exclude  PathPatterns
	driver   driver.Driver
	reporter Reporter
}

// New validates cfg and builds a Shifter. Malformed exclusion ranges or
// patterns fail here, before anything is walked.
func New(cfg Config) (*Shifter, error) {
	patterns, err := NewPathPatterns(cfg.ExcludePaths)
	if err != nil {
		return nil, err
	}
	if err := validateRanges(cfg.ExcludeUIDs); err != nil {
		return nil, errors.Wrap(err, "uid exclusions")
	}
	if err := validateRanges(cfg.ExcludeGIDs); err != nil {
		return nil, errors.Wrap(err, "gid exclusions")
	}

	d := cfg.Driver
	if d == nil {
		d = driver.System
	}

	// Exclusion slices are copied so an engine never aliases caller
	// state across runs.
	return &Shifter{
		uids:     IDMap{Kind: UID, Offset: cfg.UIDOffset, Exclude: append([]Range(nil), cfg.ExcludeUIDs...)},
		gids:     IDMap{Kind: GID, Offset: cfg.GIDOffset, Exclude: append([]Range(nil), cfg.ExcludeGIDs...)},
		exclude:  patterns,
		driver:   d,
		reporter: cfg.Reporter,
	}, nil
}

func validateRanges(ranges []Range) error {
	for _, r := range ranges {
		if r.End > MaxID {
			return errors.Errorf("range [%d, %d) exceeds the identifier space", r.Start, r.End)
		}
		if r.End <= r.Start {
			return errors.Errorf("inverted range [%d, %d)", r.Start, r.End)
		}
	}
	return nil
}

// Run walks every entry under root in lexical order and applies the
// configured shift to each one. The root itself is left alone, symlinked
// directories are visited as leaves and never descended into, and the
// first entry failure aborts the walk. The returned Stats are complete
// only when the error is nil.
func (s *Shifter) Run(root string, opts Options) (Stats, error) {
	var stats Stats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &EntryError{Path: path, Err: err}
		}
		if path == root {
			return nil
		}
		// DirEntry knows dir-ness from the directory listing, so an
		// excluded entry still never gets stat'ed.
		return s.shift(path, d.IsDir(), opts, &stats)
	})
	return stats, err
}

// shift processes a single entry: exclusion check, inspection, remap,
// and, outside dry-run, commit.
func (s *Shifter) shift(path string, dir bool, opts Options, stats *Stats) error {
	if s.exclude.Match(path) {
		stats.Skipped++
		s.report(&Outcome{Path: path, Dir: dir, State: Excluded})
		return nil
	}

	info, err := s.driver.Lstat(path)
	if err != nil {
		return &EntryError{Path: path, Err: err}
	}

	out := Outcome{
		Path:   path,
		Dir:    info.Dir,
		UID:    info.UID,
		GID:    info.GID,
		NewUID: info.UID,
		NewGID: info.GID,
	}

	if opts.ShiftOwner {
		newUID, changed, err := s.uids.Remap(info.UID)
		if err != nil {
			return &EntryError{Path: path, Err: err}
		}
		if changed {
			out.NewUID = newUID
			out.UIDChanged = true
		}
		newGID, changed, err := s.gids.Remap(info.GID)
		if err != nil {
			return &EntryError{Path: path, Err: err}
		}
		if changed {
			out.NewGID = newGID
			out.GIDChanged = true
		}
	}

	var access, dflt acl.ACL
	if opts.ShiftACL && !info.Symlink {
		access, err = s.driver.AccessACL(path)
		if err != nil {
			return &EntryError{Path: path, Err: errors.Wrap(err, "reading access ACL")}
		}
		out.ACLChanges, err = rewriteACL(access, false, s.uids, s.gids)
		if err != nil {
			return &EntryError{Path: path, Err: err}
		}

		if info.Dir {
			dflt, err = s.driver.DefaultACL(path)
			if err != nil {
				return &EntryError{Path: path, Err: errors.Wrap(err, "reading default ACL")}
			}
			out.DefaultACLChanges, err = rewriteACL(dflt, true, s.uids, s.gids)
			if err != nil {
				return &EntryError{Path: path, Err: err}
			}
		}
	}

	if !out.UIDChanged && !out.GIDChanged && len(out.ACLChanges) == 0 && len(out.DefaultACLChanges) == 0 {
		stats.Skipped++
		out.State = Unchanged
		s.report(&out)
		return nil
	}

	out.State = Shifted
	stats.ShiftedPaths++
	if out.UIDChanged {
		stats.ShiftedUIDs++
	}
	if out.GIDChanged {
		stats.ShiftedGIDs++
	}
	stats.ShiftedACLs += int64(len(out.ACLChanges))
	stats.ShiftedDefaultACLs += int64(len(out.DefaultACLChanges))
	s.report(&out)

	if opts.DryRun {
		return nil
	}

	if out.UIDChanged || out.GIDChanged {
		// -1 is the chown sentinel for "leave this side alone" and must
		// pass through untouched.
		uid, gid := -1, -1
		if out.UIDChanged {
			uid = int(out.NewUID)
		}
		if out.GIDChanged {
			gid = int(out.NewGID)
		}
		if err := s.driver.Lchown(path, uid, gid); err != nil {
			return &EntryError{Path: path, Err: err}
		}
	}
	if len(out.ACLChanges) > 0 {
		if err := s.driver.SetAccessACL(path, access); err != nil {
			return &EntryError{Path: path, Err: errors.Wrap(err, "writing access ACL")}
		}
	}
	if len(out.DefaultACLChanges) > 0 {
		if err := s.driver.SetDefaultACL(path, dflt); err != nil {
			return &EntryError{Path: path, Err: errors.Wrap(err, "writing default ACL")}
		}
	}

	return nil
}

func (s *Shifter) report(o *Outcome) {
	if s.reporter != nil {
		s.reporter.Report(o)
	}
}
