//go:build !windows

package driver

import (
	"os"
	"syscall"

	"github.com/joshlf/go-acl"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// System is exported as a global since it is just a wrapper around the
// os package, go-acl and a handful of syscalls, so it has no internal
// state.
var System Driver = &systemDriver{}

type systemDriver struct{}

func (*systemDriver) Lstat(path string) (Info, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Info{}, err
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return Info{}, errors.Errorf("unable to extract raw stat information for %s", path)
	}
	return Info{
		UID:     st.Uid,
		GID:     st.Gid,
		Dir:     fi.IsDir(),
		Symlink: fi.Mode()&os.ModeSymlink != 0,
	}, nil
}

func (*systemDriver) Lchown(path string, uid, gid int) error {
	return os.Lchown(path, uid, gid)
}

func (*systemDriver) AccessACL(path string) (acl.ACL, error) {
	a, err := acl.Get(path)
	if err != nil {
		if isNoACL(err) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (*systemDriver) DefaultACL(path string) (acl.ACL, error) {
	a, err := acl.GetDefault(path)
	if err != nil {
		if isNoACL(err) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (*systemDriver) SetAccessACL(path string, a acl.ACL) error {
	return acl.Set(path, a)
}

func (*systemDriver) SetDefaultACL(path string, a acl.ACL) error {
	return acl.SetDefault(path, a)
}

// isNoACL reports whether err means the object simply has no extended
// ACL attribute. That is the common case and maps to a nil ACL.
// ENOTSUP, by contrast, means the filesystem cannot do ACLs at all and
// is surfaced to the caller.
func isNoACL(err error) bool {
	return errors.Is(err, unix.ENODATA)
}
