package sink

import "io"

// ringSize is how many bytes the file sink coalesces in memory before
// draining to the underlying writer.
const ringSize = 512 * 512

// FileWriter is the subset of *os.File (or github.com/google/renameio's
// pending file, or github.com/orcaman/writerseeker's in-memory buffer)
// that the File-mode sink needs.
type FileWriter interface {
	io.Writer
	io.Seeker
	Close() error
}

// fileSink buffers writes in memory up to ringSize bytes, draining to w on
// capacity exhaustion or explicit Flush/Tell/Seek. It is seekable: Tell and
// Seek both flush first so the underlying writer's position always
// reflects everything previously written through the sink. Positions are
// byte-exact, not rounded to any block size, so the LZ4 compression stage
// can backpatch a stored header sitting inside an otherwise-compressed
// frame.
type fileSink struct {
	w   FileWriter
	buf []byte
}

// NewFile returns a Sink backed by a seekable writer, buffering writes in
// a ringSize in-memory buffer. Tar archives routinely contain many small
// files, so coalescing avoids issuing a syscall per 512-byte block.
func NewFile(w FileWriter) Sink {
	return &fileSink{w: w, buf: make([]byte, 0, ringSize)}
}

func (s *fileSink) Write(p []byte) error {
	if len(s.buf)+len(p) > cap(s.buf) {
		if err := s.drain(); err != nil {
			return err
		}
	}
	if len(p) > cap(s.buf) {
		_, err := s.w.Write(p)
		return err
	}
	s.buf = append(s.buf, p...)
	return nil
}

func (s *fileSink) drain() error {
	if len(s.buf) == 0 {
		return nil
	}
	if _, err := s.w.Write(s.buf); err != nil {
		return err
	}
	s.buf = s.buf[:0]
	return nil
}

func (s *fileSink) Flush() error {
	return s.drain()
}

func (s *fileSink) Tell() (int64, error) {
	if err := s.drain(); err != nil {
		return 0, err
	}
	return s.w.Seek(0, io.SeekCurrent)
}

func (s *fileSink) Seek(pos int64) error {
	if err := s.drain(); err != nil {
		return err
	}
	_, err := s.w.Seek(pos, io.SeekStart)
	return err
}

func (s *fileSink) Close() error {
	if err := s.drain(); err != nil {
		return err
	}
	return s.w.Close()
}
