package tarblock

import (
	"errors"
	"path/filepath"

	"github.com/tarblock/tarblock/internal/header"
	"github.com/tarblock/tarblock/internal/hostfs"
)

// mapFsErr classifies an error from a Filesystem/Identity call on path
// into the matching Error kind.
func mapFsErr(err error, path string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hostfs.ErrNotFound):
		return notFoundf(err, "path %q", path)
	case errors.Is(err, hostfs.ErrUnsupported):
		return unsupportedf("path %q: unsupported filesystem object", path)
	default:
		return ioErrorf(err, "accessing %q", path)
	}
}

// AddFromPath admits one filesystem object at src, named dst in the
// archive (dst defaults to src when empty). If followSymlinks is true and
// src is itself a symlink, its target's kind and metadata are used
// instead (but the archive entry keeps src's name, not the target's).
//
// A REGULAR source whose inode was already admitted (under any archive
// name, including the same one) is coalesced into a HARDLINK entry
// pointing at the name it was first stored under,
// instead of being stored a second time. Coalescing is keyed on inode
// identity, never on pathname equality or content.
func (w *Writer) AddFromPath(src, dst string, followSymlinks bool) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if dst == "" {
		dst = src
	}
	if w.archivePath != "" && filepath.Clean(src) == filepath.Clean(w.archivePath) {
		return invalidf("cannot archive the archive's own output path %q", src)
	}
	if !w.fs.Exists(src) {
		return notFoundf(nil, "source path %q does not exist", src)
	}

	kind, err := w.fs.Kind(src)
	if err != nil {
		return mapFsErr(err, src)
	}
	lookup := src
	if followSymlinks && kind == header.Symlink {
		real, err := w.fs.Realpath(src)
		if err != nil {
			return mapFsErr(err, src)
		}
		lookup = real
		kind, err = w.fs.Kind(real)
		if err != nil {
			return mapFsErr(err, real)
		}
	}

	name, err := relName(dst)
	if err != nil {
		return err
	}
	if err := validateDst(name, kind); err != nil {
		return err
	}

	mode, err := w.fs.Mode(lookup)
	if err != nil {
		return mapFsErr(err, lookup)
	}
	uid, err := w.identity.FileOwner(lookup)
	if err != nil {
		return mapFsErr(err, lookup)
	}
	gid, err := w.identity.FileGroup(lookup)
	if err != nil {
		return mapFsErr(err, lookup)
	}
	mtime, err := w.fs.Mtime(lookup)
	if err != nil {
		return mapFsErr(err, lookup)
	}
	attrs := Attrs{Mode: mode, UID: uid, GID: gid, ModTime: mtime}

	switch kind {
	case header.Directory:
		entry, err := w.buildEntry(header.Directory, name, attrs, "", 0, 0, 0)
		if err != nil {
			return err
		}
		return w.admitEntry(entry, nil)

	case header.Symlink:
		target, err := w.fs.ReadSymlink(lookup)
		if err != nil {
			return mapFsErr(err, lookup)
		}
		entry, err := w.buildEntry(header.Symlink, name, attrs, target, 0, 0, 0)
		if err != nil {
			return err
		}
		return w.admitEntry(entry, nil)

	case header.CharDevice, header.BlockDevice:
		major, minor, err := w.identity.MajorMinor(lookup)
		if err != nil {
			return mapFsErr(err, lookup)
		}
		entry, err := w.buildEntry(kind, name, attrs, "", major, minor, 0)
		if err != nil {
			return err
		}
		return w.admitEntry(entry, nil)

	case header.Fifo:
		entry, err := w.buildEntry(header.Fifo, name, attrs, "", 0, 0, 0)
		if err != nil {
			return err
		}
		return w.admitEntry(entry, nil)

	case header.Regular:
		return w.admitRegularFromPath(lookup, name, attrs)

	default:
		return unsupportedf("path %q: kind %v not supported", src, kind)
	}
}

func (w *Writer) admitRegularFromPath(lookup, name string, attrs Attrs) error {
	ino, err := w.identity.Inode(lookup)
	if err != nil {
		return mapFsErr(err, lookup)
	}
	if existing, ok := w.inodeMap[ino]; ok {
		entry, err := w.buildEntry(header.HardLink, name, attrs, existing, 0, 0, 0)
		if err != nil {
			return err
		}
		return w.admitEntry(entry, nil)
	}

	size, err := w.fs.Size(lookup)
	if err != nil {
		return mapFsErr(err, lookup)
	}
	entry, err := w.buildEntry(header.Regular, name, attrs, "", 0, 0, size)
	if err != nil {
		return err
	}
	f, err := w.fs.Open(lookup)
	if err != nil {
		return mapFsErr(err, lookup)
	}
	defer f.Close()
	if err := w.admitEntry(entry, f); err != nil {
		return err
	}
	w.inodeMap[ino] = name
	return nil
}

// AddFromPathRecursive admits src and, if it is a directory, every
// descendant in pre-order (parents before children), substituting the dst prefix
// for the src prefix in every visited path's archive name. If src is not
// a directory this is equivalent to AddFromPath. followSymlinks governs
// the directory decision itself, the same way it governs AddFromPath: a
// symlink to a directory is only walked when followSymlinks is true,
// resolved through Realpath first so the walk (and Kind, which is always
// lstat-based) sees the real directory instead of the symlink.
func (w *Writer) AddFromPathRecursive(src, dst string, followSymlinks bool) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if dst == "" {
		dst = src
	}
	kind, err := w.fs.Kind(src)
	if err != nil {
		return mapFsErr(err, src)
	}
	walkRoot := src
	if followSymlinks && kind == header.Symlink {
		real, err := w.fs.Realpath(src)
		if err != nil {
			return mapFsErr(err, src)
		}
		walkRoot = real
		kind, err = w.fs.Kind(real)
		if err != nil {
			return mapFsErr(err, real)
		}
	}
	if kind != header.Directory {
		return w.AddFromPath(src, dst, followSymlinks)
	}

	srcClean := filepath.Clean(walkRoot)
	dstClean := filepath.Clean(dst)
	return w.fs.Walk(walkRoot, func(path string) error {
		visitKind, err := w.fs.Kind(path)
		if err != nil {
			return mapFsErr(err, path)
		}
		if !header.Supports(w.format, visitKind) {
			// A walk skips what the active format cannot represent
			// instead of aborting the rest of the tree; a caller that
			// explicitly names an unsupported kind through one of the
			// Add* methods still gets a hard failure.
			w.log("tarblock: skipping %q: kind %v unsupported in %v", path, visitKind, w.format)
			return nil
		}

		rel, err := filepath.Rel(srcClean, filepath.Clean(path))
		if err != nil {
			return ioErrorf(err, "computing relative path for %q under %q", path, srcClean)
		}
		target := dstClean
		if rel != "." {
			target = filepath.Join(dstClean, rel)
		}
		return w.AddFromPath(path, target, followSymlinks)
	})
}
