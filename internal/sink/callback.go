package sink

import "github.com/tarblock/tarblock/internal/header"

// BlockFunc is the callback contract: invoked synchronously with a
// reference to one fully-populated 512-byte block. usedBytes is always
// header.Size; the writer never emits short blocks. Callback mode never
// combines with LZ4 compression, so every Write this sink ever receives
// is exactly one block wide.
type BlockFunc func(block *header.Block, usedBytes int) error

// callbackSink forwards every block synchronously to fn. It cannot seek,
// so streaming-file entries (which need backpatching) are rejected before
// ever reaching this sink; see the writer's state machine.
type callbackSink struct {
	fn BlockFunc
}

// NewCallback returns a forward-only Sink that calls fn for every block.
func NewCallback(fn BlockFunc) Sink {
	return &callbackSink{fn: fn}
}

func (s *callbackSink) Write(p []byte) error {
	var block header.Block
	copy(block[:], p)
	return s.fn(&block, len(p))
}

func (s *callbackSink) Flush() error { return nil }

func (s *callbackSink) Tell() (int64, error) { return 0, ErrSeekUnsupported }

func (s *callbackSink) Seek(pos int64) error { return ErrSeekUnsupported }

func (s *callbackSink) Close() error { return nil }
