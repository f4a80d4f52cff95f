package hostfs

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/tarblock/tarblock/internal/header"
)

func TestPosixKindClassifiesSymlinkBeforeTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	if err := os.WriteFile(target, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	fs := NewFilesystem()
	if kind, err := fs.Kind(target); err != nil || kind != header.Regular {
		t.Fatalf("Kind(target) = %v, %v, want Regular", kind, err)
	}
	if kind, err := fs.Kind(link); err != nil || kind != header.Symlink {
		t.Fatalf("Kind(link) = %v, %v, want Symlink", kind, err)
	}
}

func TestPosixNotFound(t *testing.T) {
	t.Parallel()

	fs := NewFilesystem()
	if fs.Exists(filepath.Join(t.TempDir(), "nope")) {
		t.Error("Exists reported true for a missing path")
	}
	if _, err := fs.Kind(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Kind succeeded for a missing path")
	}
}

func TestPosixInodeIdentifiesHardLinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	if err := os.WriteFile(a, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Link(a, b); err != nil {
		t.Skipf("hard links unsupported here: %v", err)
	}
	c := filepath.Join(dir, "c")
	if err := os.WriteFile(c, []byte("other"), 0644); err != nil {
		t.Fatal(err)
	}

	id := NewIdentity()
	inoA, err := id.Inode(a)
	if err != nil {
		t.Fatal(err)
	}
	inoB, err := id.Inode(b)
	if err != nil {
		t.Fatal(err)
	}
	inoC, err := id.Inode(c)
	if err != nil {
		t.Fatal(err)
	}
	if inoA != inoB {
		t.Errorf("Inode(a) = %+v, Inode(b) = %+v, want equal (hard-linked)", inoA, inoB)
	}
	if inoA == inoC {
		t.Errorf("Inode(a) == Inode(c), want distinct (unrelated files)")
	}
}

func TestPosixWalkPreOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustMkdir(t, filepath.Join(dir, "sub"))
	mustWrite(t, filepath.Join(dir, "f"), "f")
	mustWrite(t, filepath.Join(dir, "sub", "g"), "g")

	var visited []string
	fs := NewFilesystem()
	if err := fs.Walk(dir, func(path string) error {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		visited = append(visited, rel)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	want := []string{".", "f", "sub", "sub/g"}
	sort.Strings(visited[1:]) // keep root first, siblings are already lexical
	if visited[0] != "." {
		t.Fatalf("first visited entry = %q, want root \".\"", visited[0])
	}
	got := append([]string{"."}, visited[1:]...)
	if len(got) != len(want) {
		t.Fatalf("visited = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// The directory must be visited before its child.
	idxSub, idxG := -1, -1
	for i, p := range visited {
		if p == "sub" {
			idxSub = i
		}
		if p == "sub/g" {
			idxG = i
		}
	}
	if idxSub < 0 || idxG < 0 || idxSub > idxG {
		t.Errorf("sub (%d) must be visited before sub/g (%d)", idxSub, idxG)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
