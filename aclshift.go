package uidmapshift

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joshlf/go-acl"
	"github.com/pkg/errors"
)

// ACLChange describes one rewritten ACL entry. Only named-user and
// named-group entries carry a qualifier and are ever rewritten.
type ACLChange struct {
	// Default is set when the entry belongs to a directory's default ACL
	// rather than its access ACL.
	Default bool
	Kind    Kind
	Old     uint32
	New     uint32
	Perms   os.FileMode
}

// String renders the change in getfacl short form, e.g.
// "u:1000:rwx -> u:101000:rwx" or "d:g:4:r-x -> d:g:100004:r-x".
func (c ACLChange) String() string {
	var prefix string
	if c.Default {
		prefix = "d:"
	}
	tag := "u"
	if c.Kind == GID {
		tag = "g"
	}
	perms := formatPerms(c.Perms)
	return fmt.Sprintf("%s%s:%d:%s -> %s%s:%d:%s", prefix, tag, c.Old, perms, prefix, tag, c.New, perms)
}

func formatPerms(m os.FileMode) string {
	buf := []byte("---")
	if m&4 != 0 {
		buf[0] = 'r'
	}
	if m&2 != 0 {
		buf[1] = 'w'
	}
	if m&1 != 0 {
		buf[2] = 'x'
	}
	return string(buf)
}

// rewriteACL remaps the qualifiers of named-user and named-group entries
// in place and returns one change per mutated entry. Entry order is
// preserved: the mask entry makes ACL semantics order-sensitive, so
// reordering is not an option. An empty result means the ACL is
// unaffected. Permission bits are never touched.
//
// A remapping failure aborts the rewrite mid-ACL; the partially mutated
// copy only ever lives in memory at that point, nothing has been
// committed.
func rewriteACL(a acl.ACL, dflt bool, uids, gids IDMap) ([]ACLChange, error) {
	var changes []ACLChange
	for i := range a {
		var m IDMap
		switch a[i].Tag {
		case acl.TagUser:
			m = uids
		case acl.TagGroup:
			m = gids
		default:
			// Owner, owning-group, mask and other entries carry no
			// qualifier and are never rewritten.
			continue
		}

		id, err := strconv.ParseUint(a[i].Qualifier, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed ACL qualifier %q", a[i].Qualifier)
		}
		mapped, changed, err := m.Remap(uint32(id))
		if err != nil {
			return nil, err
		}
		if !changed {
			continue
		}

		a[i].Qualifier = strconv.FormatUint(uint64(mapped), 10)
		changes = append(changes, ACLChange{
			Default: dflt,
			Kind:    m.Kind,
			Old:     uint32(id),
			New:     mapped,
			Perms:   a[i].Perms,
		})
	}
	return changes, nil
}
