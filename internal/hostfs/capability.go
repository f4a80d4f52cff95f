// Package hostfs is the default POSIX implementation of the two host
// capabilities the archive writer depends on: observing filesystem
// metadata, and resolving OS identity (uids/gids and their names). The writer itself only ever talks to the Filesystem and
// Identity interfaces below, so a caller on a platform without a usable
// golang.org/x/sys/unix (or one embedding the writer in a test with fake
// files) can supply their own implementation instead.
package hostfs

import (
	"io"

	"github.com/tarblock/tarblock/internal/header"
)

// Ino is an opaque, host-unique identifier for a filesystem object,
// comparable for equality. Inode numbers alone are only unique per
// device, so both fields participate in comparison.
type Ino struct {
	Dev uint64
	Ino uint64
}

// VisitFunc is called once per path during a Filesystem.Walk, in
// pre-order (a directory before its children).
type VisitFunc func(path string) error

// Filesystem is the observational host capability: stat-like metadata
// lookups plus directory descent. It never mutates the filesystem.
type Filesystem interface {
	// Exists reports whether path refers to any filesystem object,
	// without following a trailing symlink.
	Exists(path string) bool

	// Kind classifies path's filesystem object. It inspects path itself
	// (a symlink is reported as Symlink, never followed) so that
	// symlinks are always classified before the regular-file case.
	// Returns an error satisfying errors.Is(err, ErrNotFound) if path
	// does not exist, or errors.Is(err, ErrUnsupported) for a socket or
	// other kind this package does not recognize.
	Kind(path string) (header.Kind, error)

	// Size returns the size in bytes of the regular file at path.
	Size(path string) (uint64, error)

	// Mtime returns path's modification time as seconds since the Unix
	// epoch.
	Mtime(path string) (int64, error)

	// Mode returns the lower 12 permission bits of path's mode.
	Mode(path string) (uint32, error)

	// ReadSymlink returns the target of the symlink at path.
	ReadSymlink(path string) (string, error)

	// Realpath resolves path to its canonical form, following every
	// symlink along the way.
	Realpath(path string) (string, error)

	// Open opens path's regular-file content for reading. The caller
	// closes the returned ReadCloser.
	Open(path string) (io.ReadCloser, error)

	// Walk visits path, then, if it is a directory, every descendant in
	// deterministic pre-order (parent before children; siblings in
	// lexical order). visit is called once per visited path, including
	// path itself. Symlinks to directories are reported but not
	// descended into.
	Walk(path string, visit VisitFunc) error
}

// Identity is the OS-identity host capability: the current process's
// uid/gid, uid/gid to name resolution, and per-file ownership/device
// metadata.
type Identity interface {
	// UserID returns the current process's uid.
	UserID() uint32
	// GroupID returns the current process's gid.
	GroupID() uint32

	// UserName resolves uid to a user name, falling back to uid's
	// decimal representation if no such user exists. Only propagates an
	// error for an underlying I/O failure, never for a missing entry.
	UserName(uid uint32) (string, error)
	// GroupName resolves gid to a group name with the same fallback
	// policy as UserName.
	GroupName(gid uint32) (string, error)

	// FileOwner returns the uid that owns path.
	FileOwner(path string) (uint32, error)
	// FileGroup returns the gid that owns path.
	FileGroup(path string) (uint32, error)

	// MajorMinor returns path's device major/minor numbers. Only
	// meaningful for character- and block-device files.
	MajorMinor(path string) (major, minor uint32, err error)

	// Inode returns path's opaque host-unique identifier, used by the
	// writer to detect that two paths name the same underlying file.
	Inode(path string) (Ino, error)

	// PathSeparator returns the host's path separator byte.
	PathSeparator() byte
}
