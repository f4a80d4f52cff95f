// Package blockio is the block-granular layer between the archive writer
// and the byte-granular internal/sink. It is the seam where compression
// (internal/lz4frame) attaches: both implementations below speak in whole
// 512-byte header.Blocks, matching the wire unit the archive writer itself
// works in, while the sink underneath only ever sees bytes.
package blockio

import "github.com/tarblock/tarblock/internal/header"

// Writer accepts whole blocks, distinguishing header blocks (the 512-byte
// record that begins an entry, or a no-op when compression is disabled)
// from data blocks (file content) only because the compression stage
// needs to store the former literally so it can be backpatched in place.
type Writer interface {
	WriteHeader(block *header.Block) error
	WriteData(block *header.Block) error
	Flush() error
	// Tell reports the current write position and Seek returns to one,
	// so a writer that records Tell()'s result just before a WriteHeader
	// can later Seek back to it and overwrite that same header in place.
	// Both return sink.ErrSeekUnsupported in Callback mode.
	Tell() (int64, error)
	Seek(pos int64) error
	Close() error
}
