package tarblock

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
)

// Streaming equivalence: stream_begin/stream_data*/stream_complete across
// any chunking of the same bytes produces the same archive as writing
// those bytes with a single AddFromReader call.
func TestStreamingEquivalentToSingleCallWrite(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("0123456789"), 65) // 650 bytes, not block-aligned
	attrs := Attrs{Mode: 0600, UID: 7, GID: 8, ModTime: 42}

	dir := t.TempDir()
	constPath := filepath.Join(dir, "const.tar")
	wConst, err := New(constPath, Options{Format: FormatUstar})
	if err != nil {
		t.Fatal(err)
	}
	if err := wConst.AddFromReader("f", bytes.NewReader(content), attrs); err != nil {
		t.Fatal(err)
	}
	if err := wConst.Close(); err != nil {
		t.Fatal(err)
	}

	chunkSizes := []int{1, 7, 100, 650}
	for _, chunk := range chunkSizes {
		chunk := chunk
		t.Run(fmt.Sprintf("chunk=%d", chunk), func(t *testing.T) {
			streamPath := filepath.Join(t.TempDir(), "stream.tar")
			wStream, err := New(streamPath, Options{Format: FormatUstar})
			if err != nil {
				t.Fatal(err)
			}
			if err := wStream.StreamBegin(); err != nil {
				t.Fatal(err)
			}
			for off := 0; off < len(content); off += chunk {
				end := off + chunk
				if end > len(content) {
					end = len(content)
				}
				if err := wStream.StreamData(content[off:end]); err != nil {
					t.Fatal(err)
				}
			}
			if err := wStream.StreamComplete("f", uint64(len(content)), attrs); err != nil {
				t.Fatal(err)
			}
			if err := wStream.Close(); err != nil {
				t.Fatal(err)
			}

			got, err := os.ReadFile(streamPath)
			if err != nil {
				t.Fatal(err)
			}
			want, err := os.ReadFile(constPath)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("chunk size %d: streamed archive differs from const-size archive", chunk)
			}
		})
	}
}

// Scenario 3: a streamed, LZ4-compressed file.
func TestScenarioStreamedCompressedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "out.tar.lz4")

	w, err := New(archive, Options{Format: FormatUnixV7, Compression: CompressionLz4})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.StreamBegin(); err != nil {
		t.Fatal(err)
	}
	chunk := bytes.Repeat([]byte{0x41}, 100)
	for i := 0; i < 6; i++ {
		if err := w.StreamData(chunk); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.StreamComplete("stdin", 600, Attrs{Mode: 0777}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	compressed, err := os.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	zr := lz4.NewReader(bytes.NewReader(compressed))
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}

	tr := tar.NewReader(bytes.NewReader(plain))
	hdr, err := tr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Name != "stdin" || hdr.Size != 600 {
		t.Fatalf("hdr = %+v", hdr)
	}
	body, err := io.ReadAll(tr)
	if err != nil {
		t.Fatal(err)
	}
	if len(body) != 600 {
		t.Fatalf("body length = %d, want 600", len(body))
	}
	want := bytes.Repeat(chunk, 6)
	if !bytes.Equal(body, want) {
		t.Fatalf("body content mismatch")
	}
}

// A Regular entry admitted before a streamed entry, both under
// CompressionLz4, must not corrupt the streamed entry's header: StreamBegin
// has to account for the preceding entry's still-unflushed compressed data
// block before it records streamHeaderPos, or the later backpatch seek
// lands inside the previous entry's frame block instead of the streamed
// entry's placeholder header.
func TestScenarioRegularThenStreamedCompressedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "out.tar.lz4")

	w, err := New(archive, Options{Format: FormatUstar, Compression: CompressionLz4})
	if err != nil {
		t.Fatal(err)
	}
	first := []byte("small file content")
	firstPath := filepath.Join(dir, "first-src")
	if err := os.WriteFile(firstPath, first, 0644); err != nil {
		t.Fatal(err)
	}
	if err := w.AddFromPath(firstPath, "first", false); err != nil {
		t.Fatal(err)
	}

	if err := w.StreamBegin(); err != nil {
		t.Fatal(err)
	}
	chunk := bytes.Repeat([]byte{0x42}, 100)
	for i := 0; i < 6; i++ {
		if err := w.StreamData(chunk); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.StreamComplete("stdin", 600, Attrs{Mode: 0777}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	compressed, err := os.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	zr := lz4.NewReader(bytes.NewReader(compressed))
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}

	tr := tar.NewReader(bytes.NewReader(plain))

	hdr, err := tr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Name != "first" || hdr.Size != int64(len(first)) {
		t.Fatalf("first entry = %+v", hdr)
	}
	gotFirst, err := io.ReadAll(tr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotFirst, first) {
		t.Fatalf("first entry content mismatch")
	}

	hdr, err = tr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Name != "stdin" || hdr.Size != 600 {
		t.Fatalf("second entry = %+v", hdr)
	}
	gotSecond, err := io.ReadAll(tr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotSecond, bytes.Repeat(chunk, 6)) {
		t.Fatalf("second entry content mismatch")
	}
}

// A declared size larger than the bytes actually streamed must be padded
// out to the full number of blocks the header promises, the same way the
// const-size body strategy pads a source file that shrank underneath it.
func TestStreamCompleteSizeLargerThanStreamedPads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "out.tar")

	w, err := New(archive, Options{Format: FormatUstar})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.StreamBegin(); err != nil {
		t.Fatal(err)
	}
	if err := w.StreamData([]byte("only a hundred bytes or so, not a full block..x")); err != nil {
		t.Fatal(err)
	}
	if err := w.StreamComplete("f", 1000, Attrs{Mode: 0644}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tr := tar.NewReader(f)
	hdr, err := tr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Name != "f" || hdr.Size != 1000 {
		t.Fatalf("hdr = %+v", hdr)
	}
	body, err := io.ReadAll(tr)
	if err != nil {
		t.Fatalf("reading declared 1000 bytes of body: %v", err)
	}
	if len(body) != 1000 {
		t.Fatalf("body length = %d, want 1000", len(body))
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Fatalf("expected EOF after the only entry, got %v", err)
	}
}

// A declared size that is smaller than the bytes already streamed cannot
// be honored after the fact (the extra blocks are already committed to
// the sink), so StreamComplete must reject it instead of writing a
// header that understates the body actually on disk.
func TestStreamCompleteSizeSmallerThanStreamedFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "out.tar")

	w, err := New(archive, Options{Format: FormatUstar})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.StreamBegin(); err != nil {
		t.Fatal(err)
	}
	if err := w.StreamData(bytes.Repeat([]byte{0x01}, 1000)); err != nil {
		t.Fatal(err)
	}
	err = w.StreamComplete("f", 10, Attrs{Mode: 0644})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}

	// The stream is left open after the failure: a corrected
	// StreamComplete call still succeeds.
	if err := w.StreamComplete("f", 1000, Attrs{Mode: 0644}); err != nil {
		t.Fatalf("retry with a correct size: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
