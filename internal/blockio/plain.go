package blockio

import (
	"github.com/tarblock/tarblock/internal/header"
	"github.com/tarblock/tarblock/internal/sink"
)

// plainWriter writes blocks straight through to the sink, uncompressed.
// It makes no distinction between header and data blocks: both are just
// 512 bytes on the wire.
type plainWriter struct {
	s sink.Sink
}

// Plain returns a Writer with compression disabled.
func Plain(s sink.Sink) Writer {
	return &plainWriter{s: s}
}

func (w *plainWriter) WriteHeader(block *header.Block) error {
	return w.s.Write(block[:])
}

func (w *plainWriter) WriteData(block *header.Block) error {
	return w.s.Write(block[:])
}

func (w *plainWriter) Flush() error { return w.s.Flush() }

func (w *plainWriter) Tell() (int64, error) { return w.s.Tell() }

func (w *plainWriter) Seek(pos int64) error { return w.s.Seek(pos) }

func (w *plainWriter) Close() error { return w.s.Close() }
