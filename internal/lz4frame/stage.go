// Package lz4frame implements the optional compression stage: an LZ4
// frame encoder that sits between the archive writer and internal/sink.
// Data blocks (file content, as 512-byte tar blocks) are buffered and
// handed to github.com/pierrec/lz4/v4's block compressor in 256 KiB
// chunks. Header blocks are written as literal, uncompressed frame blocks
// instead, so that a header written once can later be located by byte
// offset and overwritten in place with corrected field values (the
// streaming-file backpatch) without perturbing the length of anything
// else in the frame.
//
// pierrec/lz4/v4's streaming Writer has no equivalent of the C LZ4 frame
// API's LZ4F_uncompressedUpdate, so this package assembles the frame
// itself: magic number, frame descriptor, and a sequence of
// length-prefixed blocks, using pierrec's block-level Compressor for the
// bytes that do get compressed.
package lz4frame

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"

	"github.com/tarblock/tarblock/internal/blockio"
	"github.com/tarblock/tarblock/internal/header"
	"github.com/tarblock/tarblock/internal/sink"
)

// blockMaxSize is the frame's fixed block size: 256 KiB, matching
// lz4.Block256Kb.
const blockMaxSize = 256 * 1024

const (
	magic0 = 0x04
	magic1 = 0x22
	magic2 = 0x4D
	magic3 = 0x18

	flgByte = 0x60 // version 01, block-independence set, everything else off
	bdByte  = 0x50 // block max size code 5 (256 KiB), all other bits reserved/0

	uncompressedBit = 0x80000000
)

// Stage is a blockio.Writer that LZ4-compresses data blocks and stores
// header blocks literally.
type Stage struct {
	s    sink.Sink
	comp lz4.Compressor

	pending    []byte // buffered, not-yet-compressed WriteData bytes
	compressed []byte // scratch buffer for CompressBlock output
}

// New writes the LZ4 frame magic number and descriptor to s and returns a
// Stage ready to accept blocks.
func New(s sink.Sink) (*Stage, error) {
	st := &Stage{
		s:          s,
		pending:    make([]byte, 0, blockMaxSize),
		compressed: make([]byte, lz4.CompressBlockBound(blockMaxSize)),
	}
	if err := st.writeFrameHeader(); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *Stage) writeFrameHeader() error {
	var buf [7]byte
	buf[0], buf[1], buf[2], buf[3] = magic0, magic1, magic2, magic3
	buf[4] = flgByte
	buf[5] = bdByte
	hc := xxhash32(0, buf[4:6])
	buf[6] = byte(hc >> 8)
	return st.s.Write(buf[:])
}

// WriteData buffers block's contents, compressing and emitting a frame
// block once blockMaxSize bytes have accumulated.
func (st *Stage) WriteData(block *header.Block) error {
	st.pending = append(st.pending, block[:]...)
	if len(st.pending) < blockMaxSize {
		return nil
	}
	return st.flushPending()
}

// WriteHeader flushes any buffered data block first (to preserve byte
// ordering in the frame), then writes block as a literal, uncompressed
// frame block: a fixed 4-byte length prefix (always header.Size with the
// uncompressed bit set, independent of block's contents) followed by the
// 512 raw bytes. Because the prefix never changes, Seek-ing back to the
// position Tell reported before this call and calling WriteHeader again
// is always a same-length, in-place overwrite.
func (st *Stage) WriteHeader(block *header.Block) error {
	if err := st.flushPending(); err != nil {
		return err
	}
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uncompressedBit|uint32(header.Size))
	if err := st.s.Write(prefix[:]); err != nil {
		return err
	}
	return st.s.Write(block[:])
}

func (st *Stage) flushPending() error {
	if len(st.pending) == 0 {
		return nil
	}
	n, err := st.comp.CompressBlock(st.pending, st.compressed)
	if err != nil {
		return err
	}
	var prefix [4]byte
	if n == 0 || n >= len(st.pending) {
		// Incompressible (or pierrec declined, signalled by n == 0):
		// store this block literally instead of expanding it.
		binary.LittleEndian.PutUint32(prefix[:], uncompressedBit|uint32(len(st.pending)))
		if err := st.s.Write(prefix[:]); err != nil {
			return err
		}
		if err := st.s.Write(st.pending); err != nil {
			return err
		}
	} else {
		binary.LittleEndian.PutUint32(prefix[:], uint32(n))
		if err := st.s.Write(prefix[:]); err != nil {
			return err
		}
		if err := st.s.Write(st.compressed[:n]); err != nil {
			return err
		}
	}
	st.pending = st.pending[:0]
	return nil
}

// Flush drains any buffered data block as its own frame block, then
// flushes the underlying sink. It does not close the frame: more blocks
// may follow.
func (st *Stage) Flush() error {
	if err := st.flushPending(); err != nil {
		return err
	}
	return st.s.Flush()
}

// Tell flushes any buffered data block first, the same way WriteHeader
// does, so the reported position always accounts for every byte this
// stage has committed to emit. Without this, a Tell taken while a
// not-yet-compressed WriteData block is still pending would under-report
// the position by that block's eventual on-wire length, corrupting any
// later Seek back to it.
func (st *Stage) Tell() (int64, error) {
	if err := st.flushPending(); err != nil {
		return 0, err
	}
	return st.s.Tell()
}

// Seek passes straight through to the sink: every unit this stage writes
// (frame header, stored header blocks, compressed data blocks) has a
// length that is either fixed or was already recorded by the writer at
// the time it was produced, so no translation is needed at this layer.
func (st *Stage) Seek(pos int64) error { return st.s.Seek(pos) }

// Close flushes any pending block, writes the frame end mark (no content
// checksum, since the frame descriptor disables one), and closes the
// sink.
func (st *Stage) Close() error {
	if err := st.flushPending(); err != nil {
		return err
	}
	var endMark [4]byte
	if err := st.s.Write(endMark[:]); err != nil {
		return err
	}
	return st.s.Close()
}

var _ blockio.Writer = (*Stage)(nil)
