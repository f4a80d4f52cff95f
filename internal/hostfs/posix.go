package hostfs

import (
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/tarblock/tarblock/internal/header"
)

// posix is the default Filesystem and Identity implementation, built on
// golang.org/x/sys/unix (unix.Stat_t / unix.Major / unix.Minor) rather
// than the portable-but-lossier os.FileInfo alone, which cannot surface
// inode identity or device numbers without a type assertion anyway.
type posix struct{}

// NewFilesystem returns the default POSIX Filesystem implementation.
func NewFilesystem() Filesystem { return posix{} }

// NewIdentity returns the default POSIX Identity implementation. Callers
// normally wrap this in NewCachingIdentity before handing it to the
// writer, which is what New/NewCallback do.
func NewIdentity() Identity { return posix{} }

func lstat(path string) (unix.Stat_t, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		if err == unix.ENOENT || err == unix.ENOTDIR {
			return st, xerrors.Errorf("lstat %s: %w", path, ErrNotFound)
		}
		return st, xerrors.Errorf("lstat %s: %v", path, err)
	}
	return st, nil
}

func (posix) Exists(path string) bool {
	_, err := lstat(path)
	return err == nil
}

func kindFromMode(mode uint32) (header.Kind, error) {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return header.Regular, nil
	case unix.S_IFLNK:
		return header.Symlink, nil
	case unix.S_IFDIR:
		return header.Directory, nil
	case unix.S_IFCHR:
		return header.CharDevice, nil
	case unix.S_IFBLK:
		return header.BlockDevice, nil
	case unix.S_IFIFO:
		return header.Fifo, nil
	default:
		return 0, ErrUnsupported
	}
}

func (posix) Kind(path string) (header.Kind, error) {
	st, err := lstat(path)
	if err != nil {
		return 0, err
	}
	kind, err := kindFromMode(uint32(st.Mode))
	if err != nil {
		return 0, xerrors.Errorf("%s: %w", path, err)
	}
	return kind, nil
}

func (posix) Size(path string) (uint64, error) {
	st, err := lstat(path)
	if err != nil {
		return 0, err
	}
	return uint64(st.Size), nil
}

func (posix) Mtime(path string) (int64, error) {
	st, err := lstat(path)
	if err != nil {
		return 0, err
	}
	return int64(st.Mtim.Sec), nil
}

func (posix) Mode(path string) (uint32, error) {
	st, err := lstat(path)
	if err != nil {
		return 0, err
	}
	return uint32(st.Mode) & 07777, nil
}

func (posix) ReadSymlink(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", xerrors.Errorf("readlink %s: %w", path, ErrNotFound)
		}
		return "", xerrors.Errorf("readlink %s: %v", path, err)
	}
	return target, nil
}

func (posix) Realpath(path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", xerrors.Errorf("realpath %s: %w", path, ErrNotFound)
		}
		return "", xerrors.Errorf("realpath %s: %v", path, err)
	}
	return real, nil
}

func (posix) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.Errorf("open %s: %w", path, ErrNotFound)
		}
		return nil, xerrors.Errorf("open %s: %v", path, err)
	}
	return f, nil
}

// Walk visits path in pre-order: path itself, then (if it is a directory)
// each child in lexical order, recursively. It never follows a symlink
// into recursion, even a symlink to a directory, so a symlink cycle
// cannot make the descent unbounded.
func (p posix) Walk(path string, visit VisitFunc) error {
	if err := visit(path); err != nil {
		return err
	}
	kind, err := p.Kind(path)
	if err != nil {
		return err
	}
	if kind != header.Directory {
		return nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return xerrors.Errorf("readdir %s: %v", path, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	for _, name := range names {
		if err := p.Walk(filepath.Join(path, name), visit); err != nil {
			return err
		}
	}
	return nil
}

func (posix) UserID() uint32  { return uint32(os.Getuid()) }
func (posix) GroupID() uint32 { return uint32(os.Getgid()) }

func (posix) UserName(uid uint32) (string, error) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		if _, ok := err.(user.UnknownUserIdError); ok {
			return strconv.FormatUint(uint64(uid), 10), nil
		}
		return "", xerrors.Errorf("lookup uid %d: %v", uid, err)
	}
	return u.Username, nil
}

func (posix) GroupName(gid uint32) (string, error) {
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil {
		if _, ok := err.(user.UnknownGroupIdError); ok {
			return strconv.FormatUint(uint64(gid), 10), nil
		}
		return "", xerrors.Errorf("lookup gid %d: %v", gid, err)
	}
	return g.Name, nil
}

func (posix) FileOwner(path string) (uint32, error) {
	st, err := lstat(path)
	if err != nil {
		return 0, err
	}
	return st.Uid, nil
}

func (posix) FileGroup(path string) (uint32, error) {
	st, err := lstat(path)
	if err != nil {
		return 0, err
	}
	return st.Gid, nil
}

func (posix) MajorMinor(path string) (major, minor uint32, err error) {
	st, err := lstat(path)
	if err != nil {
		return 0, 0, err
	}
	rdev := uint64(st.Rdev)
	return uint32(unix.Major(rdev)), uint32(unix.Minor(rdev)), nil
}

func (posix) Inode(path string) (Ino, error) {
	st, err := lstat(path)
	if err != nil {
		return Ino{}, err
	}
	return Ino{Dev: uint64(st.Dev), Ino: st.Ino}, nil
}

func (posix) PathSeparator() byte { return os.PathSeparator }
