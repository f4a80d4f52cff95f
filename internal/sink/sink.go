// Package sink provides the uniform write path that the archive
// writer's block encoder (internal/blockio) writes bytes into, regardless
// of whether the destination is a seekable file or a caller-supplied
// callback.
//
// Sink itself is byte-granular, not block-granular: File mode needs
// byte-exact Tell/Seek so that the LZ4 compression stage (internal/lz4frame)
// can backpatch a header that was stored uncompressed inside a frame whose
// surrounding bytes are compressed and therefore not a multiple of 512.
// Block-size discipline (writing exactly one 512-byte header.Block per
// call) is enforced by internal/blockio, one layer up.
package sink

import "errors"

// ErrSeekUnsupported is returned by Tell/Seek on a Sink that cannot seek
// (Callback mode). The archive writer turns this into an IllegalState
// error before admitting a streaming-file entry, rather than letting
// callers observe it directly.
var ErrSeekUnsupported = errors.New("sink: seek not supported in this mode")

// Sink is the write path under the block/compression layers.
type Sink interface {
	// Write appends p to the stream.
	Write(p []byte) error
	// Flush drains any buffered bytes to the underlying writer.
	Flush() error
	// Tell reports the current write position. ErrSeekUnsupported in
	// Callback mode.
	Tell() (int64, error)
	// Seek repositions subsequent writes. ErrSeekUnsupported in Callback
	// mode.
	Seek(pos int64) error
	// Close flushes and releases the underlying resource.
	Close() error
}
