package tarblock

import (
	"errors"
	"io"
	"log"

	"github.com/google/renameio"

	"github.com/tarblock/tarblock/internal/blockio"
	"github.com/tarblock/tarblock/internal/header"
	"github.com/tarblock/tarblock/internal/hostfs"
	"github.com/tarblock/tarblock/internal/lz4frame"
	"github.com/tarblock/tarblock/internal/sink"
)

// writerMode distinguishes File mode (seekable, backed by a real path)
// from Callback mode (forward-only, backed by a caller callback).
type writerMode int

const (
	modeFile writerMode = iota
	modeCallback
)

// state is the writer's lifecycle: Open accepts any admission method,
// Streaming accepts only StreamData/StreamComplete, Closed accepts
// nothing.
type state int

const (
	stateOpen state = iota
	stateStreaming
	stateClosed
)

// Writer admits tar entries and emits their wire encoding to a File- or
// Callback-mode sink, optionally through an LZ4 compression stage. It is
// single-threaded cooperative: every method must be called
// from one logical owner, serialized; a Writer shared across goroutines
// without external synchronization has undefined behavior.
type Writer struct {
	format      Format
	compression Compression
	mode        writerMode
	bio         blockio.Writer
	logger      *log.Logger

	fs       Filesystem
	identity Identity

	state state

	streamHeaderPos int64 // -1 unless state == stateStreaming
	streamBuf       []byte
	streamTotal     uint64 // bytes passed to StreamData since the current StreamBegin

	inodeMap map[Ino]string      // inode -> archive name of the first REGULAR entry stored for it
	nameSet  map[string]struct{} // archive names already written as REGULAR entries

	archivePath string      // File mode only: rejects archiving the archive's own output
	fh          *fileHandle // File mode only: commits the renameio temp file on Close
}

// fileHandle adapts a *renameio.PendingFile to internal/sink.FileWriter,
// routing Close through CloseAtomicallyReplace so a Writer that reaches
// Close never leaves a partial file at the requested path, and a Writer
// that never reaches Close leaves only an orphaned temp file rather than
// a corrupt one.
type fileHandle struct {
	pending *renameio.PendingFile
}

func (h *fileHandle) Write(p []byte) (int, error) { return h.pending.Write(p) }

func (h *fileHandle) Seek(offset int64, whence int) (int64, error) {
	return h.pending.Seek(offset, whence)
}

func (h *fileHandle) Close() error {
	err := h.pending.CloseAtomicallyReplace()
	h.pending.Cleanup()
	return err
}

var _ sink.FileWriter = (*fileHandle)(nil)

// New returns a File-mode Writer that will atomically replace path with
// the completed archive once Close succeeds (via renameio). A Writer that
// never reaches Close leaves an orphaned temp file next to path and
// nothing at path itself; there is no finalizer, so callers that forget
// to Close leak that temp file the same way forgetting to close an
// *os.File leaks a descriptor.
func New(path string, opts Options) (*Writer, error) {
	pending, err := renameio.TempFile("", path)
	if err != nil {
		return nil, ioErrorf(err, "creating temp file for %q", path)
	}
	fh := &fileHandle{pending: pending}
	bio, err := newBlockWriter(sink.NewFile(fh), opts.Compression)
	if err != nil {
		pending.Cleanup()
		return nil, err
	}
	w := newWriter(bio, modeFile, opts)
	w.archivePath = path
	w.fh = fh
	return w, nil
}

// NewCallback returns a Callback-mode Writer that invokes fn synchronously
// for every block produced. Callback mode cannot seek, so
// StreamBegin/StreamData/StreamComplete (which need to backpatch a
// placeholder header) always fail with an IllegalState error; use one of
// the kind-specific Add* methods, which know every field (including size)
// up front.
//
// Callback mode never combines with LZ4 compression: the compressor
// emits variable-length chunks, which would violate the callback
// contract that every delivered block is exactly 512 bytes.
// opts.Compression must be CompressionNone.
func NewCallback(fn BlockFunc, opts Options) (*Writer, error) {
	if opts.Compression != CompressionNone {
		return nil, unsupportedf("Callback mode does not support compression %v", opts.Compression)
	}
	bio, err := newBlockWriter(sink.NewCallback(fn), opts.Compression)
	if err != nil {
		return nil, err
	}
	return newWriter(bio, modeCallback, opts), nil
}

func newBlockWriter(s sink.Sink, c Compression) (blockio.Writer, error) {
	switch c {
	case CompressionNone:
		return blockio.Plain(s), nil
	case CompressionLz4:
		bio, err := lz4frame.New(s)
		if err != nil {
			return nil, codecf(err, "initializing LZ4 frame")
		}
		return bio, nil
	default:
		return nil, invalidf("unknown compression %v", c)
	}
}

func newWriter(bio blockio.Writer, m writerMode, opts Options) *Writer {
	fs := opts.Filesystem
	if fs == nil {
		fs = hostfs.NewFilesystem()
	}
	id := opts.Identity
	if id == nil {
		id = hostfs.NewIdentity()
	}
	return &Writer{
		format:          opts.Format,
		compression:     opts.Compression,
		mode:            m,
		bio:             bio,
		logger:          opts.Logger,
		fs:              fs,
		identity:        hostfs.NewCachingIdentity(id),
		state:           stateOpen,
		streamHeaderPos: -1,
		inodeMap:        make(map[Ino]string),
		nameSet:         make(map[string]struct{}),
	}
}

// checkOpen rejects every admission method except StreamData/
// StreamComplete while Streaming, and everything once Closed.
func (w *Writer) checkOpen() error {
	switch w.state {
	case stateStreaming:
		return illegalStatef("writer has a streaming entry in progress; only StreamData/StreamComplete are valid")
	case stateClosed:
		return illegalStatef("writer is closed")
	default:
		return nil
	}
}

func (w *Writer) log(format string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

// buildEntry validates name and resolves ustar owner/group names (always
// derived from uid/gid through Identity, never taken directly from a
// caller-supplied string) before assembling the in-memory descriptor.
func (w *Writer) buildEntry(kind Kind, name string, attrs Attrs, linkName string, devMajor, devMinor uint32, size uint64) (header.Entry, error) {
	if err := validateDst(name, kind); err != nil {
		return header.Entry{}, err
	}
	var uname, gname string
	if w.format == FormatUstar {
		var err error
		uname, err = w.identity.UserName(attrs.UID)
		if err != nil {
			return header.Entry{}, ioErrorf(err, "resolving uid %d", attrs.UID)
		}
		gname, err = w.identity.GroupName(attrs.GID)
		if err != nil {
			return header.Entry{}, ioErrorf(err, "resolving gid %d", attrs.GID)
		}
	}
	return header.Entry{
		Name:     name,
		Mode:     attrs.Mode,
		UID:      attrs.UID,
		GID:      attrs.GID,
		Uname:    uname,
		Gname:    gname,
		Size:     size,
		ModTime:  attrs.ModTime,
		Kind:     kind,
		LinkName: linkName,
		DevMajor: devMajor,
		DevMinor: devMinor,
	}, nil
}

// admitEntry is the common tail of every Add* method: build the 512-byte
// header, reject a duplicate REGULAR name, write the
// header block, then (for REGULAR entries with a body) stream the
// content.
func (w *Writer) admitEntry(entry header.Entry, body io.Reader) error {
	if entry.Kind == Regular {
		if _, exists := w.nameSet[entry.Name]; exists {
			return illegalStatef("duplicate regular-file entry %q", entry.Name)
		}
	}
	block, err := header.Build(entry, w.format)
	if err != nil {
		return wrapHeaderErr(err, entry.Name)
	}
	if err := w.bio.WriteHeader(&block); err != nil {
		return ioErrorf(err, "writing header for %q", entry.Name)
	}
	if entry.Kind == Regular {
		if body != nil {
			if err := w.writeConstSizeBody(body, entry.Size); err != nil {
				return err
			}
		}
		w.nameSet[entry.Name] = struct{}{}
	}
	w.log("tarblock: added %s %q (%d bytes)", entry.Kind, entry.Name, entry.Size)
	return nil
}

// writeConstSizeBody streams exactly ceil(size/512) blocks from r. If r
// yields fewer than size bytes (the source shrank), the remainder is
// zero-padded; if r has more than size bytes (the source grew), reading
// stops at size and the rest is ignored. Either way the header and the
// emitted block count stay consistent.
func (w *Writer) writeConstSizeBody(r io.Reader, size uint64) error {
	lr := io.LimitReader(r, int64(size))
	remaining := size
	var block header.Block
	for remaining > 0 {
		n := uint64(header.Size)
		if remaining < n {
			n = remaining
		}
		for i := range block {
			block[i] = 0
		}
		if _, err := io.ReadFull(lr, block[:n]); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return ioErrorf(err, "reading entry content")
		}
		if err := w.bio.WriteData(&block); err != nil {
			return ioErrorf(err, "writing entry content")
		}
		remaining -= n
	}
	return nil
}

// admitDirect builds and admits an entry with no filesystem-sourced body:
// every kind-specific Add* method below except AddFromPath funnels
// through this.
func (w *Writer) admitDirect(kind Kind, name, linkName string, devMajor, devMinor uint32, attrs Attrs) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	entry, err := w.buildEntry(kind, name, attrs, linkName, devMajor, devMinor, 0)
	if err != nil {
		return err
	}
	return w.admitEntry(entry, nil)
}

// AddSymlink admits a symbolic link entry named name, pointing at target.
// target is stored verbatim; it is not resolved or validated against
// the archive's own contents.
func (w *Writer) AddSymlink(name, target string, attrs Attrs) error {
	return w.admitDirect(Symlink, name, target, 0, 0, attrs)
}

// AddHardLink admits a hard-link entry named name, referring to the
// archive entry linkName (which need not already have been admitted; the
// writer trusts the caller, the same way it trusts the linkname produced
// by its own inode-coalescing logic in AddFromPath).
func (w *Writer) AddHardLink(name, linkName string, attrs Attrs) error {
	return w.admitDirect(HardLink, name, linkName, 0, 0, attrs)
}

// AddCharacterDevice admits a character-special device entry. Rejected
// under FormatUnixV7, which has no device typeflag.
func (w *Writer) AddCharacterDevice(name string, major, minor uint32, attrs Attrs) error {
	return w.admitDirect(CharDevice, name, "", major, minor, attrs)
}

// AddBlockDevice admits a block-special device entry. Rejected under
// FormatUnixV7.
func (w *Writer) AddBlockDevice(name string, major, minor uint32, attrs Attrs) error {
	return w.admitDirect(BlockDevice, name, "", major, minor, attrs)
}

// AddFifo admits a FIFO entry. Rejected under FormatUnixV7.
func (w *Writer) AddFifo(name string, attrs Attrs) error {
	return w.admitDirect(Fifo, name, "", 0, 0, attrs)
}

// AddDirectory admits a directory entry. The builder appends a trailing
// "/" to name if it is missing; under FormatUnixV7 the entry is encoded
// as REGULAR (UnixV7 has no directory typeflag) but is not subject to the
// REGULAR duplicate-name check, matching the header builder's
// kind-before-encoding rewrite.
func (w *Writer) AddDirectory(name string, attrs Attrs) error {
	return w.admitDirect(Directory, name, "", 0, 0, attrs)
}

