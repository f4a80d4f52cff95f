package tarblock

import (
	"log"

	"github.com/tarblock/tarblock/internal/header"
	"github.com/tarblock/tarblock/internal/hostfs"
	"github.com/tarblock/tarblock/internal/sink"
)

// Format selects which of the two tar variants a Writer emits.
type Format = header.Format

const (
	// FormatUnixV7 is the original pre-POSIX Unix V7 tar format: regular
	// files, hard links, symlinks, and directories (encoded as regular
	// files with a trailing "/"), no owner/group names, no path prefix.
	FormatUnixV7 = header.FormatUnixV7
	// FormatUstar is the POSIX.1-1988 ustar format: adds device nodes,
	// FIFOs, owner/group name strings, and a 155-byte path prefix that
	// extends the 100-byte name field up to 255 bytes total.
	FormatUstar = header.FormatUstar
)

// Kind identifies the type of archive member an entry encodes.
type Kind = header.Kind

// The entry kinds this package can admit. Contiguous is accepted by no
// Add* method and exists only so Kind's wire tag space is complete.
const (
	Regular     = header.Regular
	HardLink    = header.HardLink
	Symlink     = header.Symlink
	CharDevice  = header.CharDevice
	BlockDevice = header.BlockDevice
	Directory   = header.Directory
	Fifo        = header.Fifo
	Contiguous  = header.Contiguous
)

// Compression selects the optional output codec a Writer pipes its block
// stream through.
type Compression int

const (
	// CompressionNone passes every block straight through to the sink.
	CompressionNone Compression = iota
	// CompressionLz4 frames every block through an LZ4 frame encoder:
	// 256 KiB blocks, block-independent, no content or block checksums.
	CompressionLz4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLz4:
		return "Lz4"
	default:
		return "Compression(?)"
	}
}

// Block is one 512-byte unit of tar I/O, the unit BlockFunc receives in
// Callback mode.
type Block = header.Block

// BlockFunc is the Callback-mode contract: invoked
// synchronously with a reference to one fully-populated block. usedBytes
// is always 512; this package never emits a short block. The callback
// must not call back into the Writer that invoked it.
type BlockFunc = sink.BlockFunc

// Filesystem is the observational host capability a Writer depends on for
// AddFromPath/AddFromPathRecursive. The default,
// returned by a nil Options.Filesystem, is a POSIX implementation backed
// by golang.org/x/sys/unix.
type Filesystem = hostfs.Filesystem

// Identity is the OS-identity host capability a Writer depends on for
// resolving uid/gid ownership and, under FormatUstar, owner/group names.
// The default, returned by a nil Options.Identity, is a
// POSIX implementation wrapped in a per-Writer name cache.
type Identity = hostfs.Identity

// Ino is the opaque, host-unique identifier Identity.Inode returns. Two
// paths admitted through AddFromPath that report equal Ino values are
// coalesced into one REGULAR entry and one HARDLINK entry.
type Ino = hostfs.Ino

// Attrs holds the owner/permission/timestamp metadata every admission
// method needs but that has no underlying filesystem object to read it
// from (AddSymlink, AddHardLink, AddDirectory, the device/FIFO
// constructors, and StreamComplete). Owner and group *names* (ustar only)
// are always resolved from UID/GID through the Writer's Identity rather
// than taken from the caller, the same way a real filesystem entry's
// names are resolved.
type Attrs struct {
	Mode    uint32 // lower 12 permission bits; higher bits are masked off
	UID     uint32
	GID     uint32
	ModTime int64 // seconds since the Unix epoch
}

// Options configures a Writer at construction. The zero value selects
// FormatUnixV7, CompressionNone, no logger, and the default POSIX
// Filesystem/Identity.
type Options struct {
	Format      Format
	Compression Compression

	// Logger, if non-nil, receives one line per admitted entry, one per
	// entry skipped by AddFromPathRecursive, and one when Close succeeds.
	// The Writer has no package-level logger (it is a library, not a
	// program).
	Logger *log.Logger

	// Filesystem and Identity override the default POSIX host
	// capabilities. Both are optional; a nil field
	// falls back to the hostfs-provided POSIX implementation.
	Filesystem Filesystem
	Identity   Identity
}
