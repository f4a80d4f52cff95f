package tarblock

import (
	"archive/tar"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// wantEntry is the metadata a reference tar reader should recover
// unchanged: {name, size, owner, group, mode, mtime, kind, linkname,
// dev_major, dev_minor}.
type wantEntry struct {
	Name     string
	Size     int64
	UID, GID int
	Mode     int64
	ModTime  int64
	Typeflag byte
	Linkname string
	DevMajor int64
	DevMinor int64
}

func gotEntry(h *tar.Header) wantEntry {
	return wantEntry{
		Name:     h.Name,
		Size:     h.Size,
		UID:      h.Uid,
		GID:      h.Gid,
		Mode:     h.Mode & 07777,
		ModTime:  h.ModTime.Unix(),
		Typeflag: h.Typeflag,
		Linkname: h.Linkname,
		DevMajor: h.Devmajor,
		DevMinor: h.Devminor,
	}
}

// Round-trip against a reference tar reader: every admitted entry's
// metadata is recovered unchanged, in admission order.
func TestRoundTripPreservesEntryMetadataAndOrder(t *testing.T) {
	t.Parallel()

	archive := filepath.Join(t.TempDir(), "out.tar")
	w, err := New(archive, Options{Format: FormatUstar})
	if err != nil {
		t.Fatal(err)
	}

	attrs := Attrs{Mode: 0640, UID: 12, GID: 34, ModTime: 1000}
	want := []wantEntry{
		{Name: "d/", UID: 12, GID: 34, Mode: 0640, ModTime: 1000, Typeflag: tar.TypeDir},
		{Name: "d/f", Size: 3, UID: 12, GID: 34, Mode: 0640, ModTime: 1000, Typeflag: tar.TypeReg},
		{Name: "d/l", UID: 12, GID: 34, Mode: 0640, ModTime: 1000, Typeflag: tar.TypeSymlink, Linkname: "f"},
		{Name: "d/c", UID: 12, GID: 34, Mode: 0640, ModTime: 1000, Typeflag: tar.TypeChar, DevMajor: 1, DevMinor: 2},
	}

	if err := w.AddDirectory("d/", attrs); err != nil {
		t.Fatal(err)
	}
	if err := w.AddFromReader("d/f", bytes.NewReader([]byte("abc")), attrs); err != nil {
		t.Fatal(err)
	}
	if err := w.AddSymlink("d/l", "f", attrs); err != nil {
		t.Fatal(err)
	}
	if err := w.AddCharacterDevice("d/c", 1, 2, attrs); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	headers := readArchive(t, archive)
	if len(headers) != len(want) {
		t.Fatalf("got %d entries, want %d", len(headers), len(want))
	}
	for i, h := range headers {
		if diff := cmp.Diff(want[i], gotEntry(h)); diff != "" {
			t.Errorf("entry %d (-want +got):\n%s", i, diff)
		}
	}
}
