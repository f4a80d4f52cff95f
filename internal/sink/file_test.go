package sink

import (
	"bytes"
	"io"
	"testing"

	"github.com/orcaman/writerseeker"
)

// noCloseWriterSeeker adapts writerseeker.WriterSeeker (an in-memory
// io.WriteSeeker with no Close) to the FileWriter interface for tests;
// the real File-mode path is backed by *os.File or a renameio pending
// file, both of which already have a meaningful Close.
type noCloseWriterSeeker struct {
	*writerseeker.WriterSeeker
}

func (noCloseWriterSeeker) Close() error { return nil }

func TestFileSinkCoalescesAndFlushes(t *testing.T) {
	t.Parallel()

	var ws writerseeker.WriterSeeker
	s := NewFile(noCloseWriterSeeker{&ws})

	for i := 0; i < 3; i++ {
		if err := s.Write(bytes.Repeat([]byte{byte('a' + i)}, 100)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	r := ws.Reader()
	got, err := readAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := append(append(bytes.Repeat([]byte{'a'}, 100), bytes.Repeat([]byte{'b'}, 100)...), bytes.Repeat([]byte{'c'}, 100)...)
	if !bytes.Equal(got, want) {
		t.Errorf("content mismatch: got %d bytes, want %d bytes", len(got), len(want))
	}
}

func TestFileSinkTellSeekRoundTrip(t *testing.T) {
	t.Parallel()

	var ws writerseeker.WriterSeeker
	s := NewFile(noCloseWriterSeeker{&ws})

	if err := s.Write([]byte("0123456789")); err != nil {
		t.Fatal(err)
	}
	pos, err := s.Tell()
	if err != nil {
		t.Fatal(err)
	}
	if pos != 10 {
		t.Fatalf("Tell() = %d, want 10", pos)
	}
	if err := s.Write([]byte("ABCDE")); err != nil {
		t.Fatal(err)
	}
	if err := s.Seek(0); err != nil {
		t.Fatal(err)
	}
	if err := s.Write([]byte("XY")); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	got, err := readAll(ws.Reader())
	if err != nil {
		t.Fatal(err)
	}
	want := "XY23456789ABCDE"
	if string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func readAll(r io.Reader) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 64)
	for {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return buf, err
		}
	}
}
