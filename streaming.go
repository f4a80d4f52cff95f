package tarblock

import "github.com/tarblock/tarblock/internal/header"

// StreamBegin starts a streaming-file entry (File mode only): it snapshots
// the current sink position and writes a zero placeholder header, putting
// the writer into the Streaming state until StreamComplete. Only
// StreamData and StreamComplete are valid while Streaming; every other
// admission method fails with an IllegalState error.
//
// StreamBegin always fails with IllegalState in Callback mode: Callback
// output is forward-only, and a streaming entry needs to seek back and
// rewrite its header once the final size is known.
func (w *Writer) StreamBegin() error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.mode != modeFile {
		return illegalStatef("StreamBegin is not supported in Callback mode")
	}
	pos, err := w.bio.Tell()
	if err != nil {
		return ioErrorf(err, "StreamBegin: reading current position")
	}
	if err := w.bio.WriteHeader(&header.Zero); err != nil {
		return ioErrorf(err, "StreamBegin: writing placeholder header")
	}
	w.streamHeaderPos = pos
	w.streamBuf = w.streamBuf[:0]
	w.streamTotal = 0
	w.state = stateStreaming
	return nil
}

// StreamData appends p to the streaming entry's buffered content, emitting
// full 512-byte blocks as they accumulate. It fails with IllegalState if
// no stream is in progress.
func (w *Writer) StreamData(p []byte) error {
	if w.state != stateStreaming {
		return illegalStatef("StreamData called with no stream in progress")
	}
	w.streamBuf = append(w.streamBuf, p...)
	w.streamTotal += uint64(len(p))
	for len(w.streamBuf) >= header.Size {
		var block header.Block
		copy(block[:], w.streamBuf[:header.Size])
		if err := w.bio.WriteData(&block); err != nil {
			return ioErrorf(err, "StreamData: writing block")
		}
		w.streamBuf = w.streamBuf[header.Size:]
	}
	return nil
}

// StreamComplete finishes the streaming entry opened by StreamBegin: it
// flushes any partial final block (zero-padded to 512), reconciles size
// against the bytes actually passed to StreamData, backpatches the
// placeholder header written by StreamBegin with the real header built
// from name/size/attrs, and returns the writer to the Open state.
//
// Unlike the const-size body strategy used for a known-size source,
// a streamed entry's blocks are
// already committed to the sink as StreamData is called; StreamComplete
// cannot retroactively shrink them. So reconciliation only pads: if size
// implies more 512-byte blocks than the bytes streamed so far account
// for, StreamComplete emits the missing zero blocks itself, the same way
// the const-size path pads a source that shrank underneath it. If size
// implies fewer blocks than have already been streamed, the blocks
// written so far can no longer be made to fit under the declared size
// without corrupting this or a later entry's alignment, so
// StreamComplete fails instead of silently truncating a header over an
// already-written body.
//
// If entry validation fails (an invalid name, a duplicate REGULAR name, a
// kind this writer's Format cannot represent) or size is inconsistent
// with the streamed bytes, the stream stays open: the
// caller may retry StreamComplete with a corrected descriptor, or
// abandon it via Close (which finalizes regardless). The same applies to
// an I/O failure partway through the backpatch: the stream is left open
// and stream position recoverable for a retry.
func (w *Writer) StreamComplete(name string, size uint64, attrs Attrs) error {
	if w.state != stateStreaming {
		return illegalStatef("StreamComplete called with no stream in progress")
	}
	entry, err := w.buildEntry(Regular, name, attrs, "", 0, 0, size)
	if err != nil {
		return err
	}
	if _, exists := w.nameSet[entry.Name]; exists {
		return illegalStatef("duplicate regular-file entry %q", entry.Name)
	}
	wantBlocks := (size + uint64(header.Size) - 1) / uint64(header.Size)
	gotBlocks := (w.streamTotal + uint64(header.Size) - 1) / uint64(header.Size)
	if gotBlocks > wantBlocks {
		return invalidf("StreamComplete: declared size %d (%d blocks) is smaller than the %d bytes (%d blocks) already streamed", size, wantBlocks, w.streamTotal, gotBlocks)
	}
	block, err := header.Build(entry, w.format)
	if err != nil {
		return wrapHeaderErr(err, entry.Name)
	}

	if len(w.streamBuf) > 0 {
		var last header.Block
		copy(last[:], w.streamBuf)
		if err := w.bio.WriteData(&last); err != nil {
			return ioErrorf(err, "StreamComplete: flushing final block")
		}
		w.streamBuf = w.streamBuf[:0]
	}
	for ; gotBlocks < wantBlocks; gotBlocks++ {
		if err := w.bio.WriteData(&header.Zero); err != nil {
			return ioErrorf(err, "StreamComplete: writing padding block")
		}
	}
	if err := w.bio.Flush(); err != nil {
		return ioErrorf(err, "StreamComplete: flushing before backpatch")
	}
	end, err := w.bio.Tell()
	if err != nil {
		return ioErrorf(err, "StreamComplete: reading end position")
	}
	if err := w.bio.Seek(w.streamHeaderPos); err != nil {
		return ioErrorf(err, "StreamComplete: seeking to placeholder header")
	}
	if err := w.bio.WriteHeader(&block); err != nil {
		return ioErrorf(err, "StreamComplete: rewriting header")
	}
	if err := w.bio.Seek(end); err != nil {
		return ioErrorf(err, "StreamComplete: seeking back past entry body")
	}

	w.nameSet[entry.Name] = struct{}{}
	w.streamHeaderPos = -1
	w.state = stateOpen
	w.log("tarblock: completed stream %q (%d bytes)", entry.Name, size)
	return nil
}
