package files

import (
	"io"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawtsauceTR/flaghunter/internal/errs"
)

func newTree(t *testing.T, files map[string]string) *FS {
	t.Helper()
	mem := memfs.New()
	for name, body := range files {
		require.NoError(t, util.WriteFile(mem, name, []byte(body), 0o644))
	}
	return New(mem)
}

func TestListEntriesFlatAndRecursive(t *testing.T) {
	fs := newTree(t, map[string]string{
		"loot/a.txt":        "a",
		"loot/b.bin":        "b",
		"loot/deep/c.log":   "c",
		"loot/deep/x/d.txt": "d",
	})

	flat, err := fs.ListEntries("loot", false)
	require.NoError(t, err)
	sort.Strings(flat)
	assert.Equal(t, []string{filepath.Join("loot", "a.txt"), filepath.Join("loot", "b.bin")}, flat)

	all, err := fs.ListEntries("loot", true)
	require.NoError(t, err)
	sort.Strings(all)
	assert.Equal(t, []string{
		filepath.Join("loot", "a.txt"),
		filepath.Join("loot", "b.bin"),
		filepath.Join("loot", "deep", "c.log"),
		filepath.Join("loot", "deep", "x", "d.txt"),
	}, all)
}

func TestListEntriesMissingDir(t *testing.T) {
	fs := newTree(t, nil)

	_, err := fs.ListEntries("nope", false)

	assert.ErrorIs(t, err, errs.ErrFileIO)
}

func TestExistsIsDirFileSize(t *testing.T) {
	fs := newTree(t, map[string]string{"d/f.txt": "12345"})

	assert.True(t, fs.Exists("d/f.txt"))
	assert.True(t, fs.IsDir("d"))
	assert.False(t, fs.IsDir("d/f.txt"))
	assert.False(t, fs.Exists("d/missing"))
	assert.Equal(t, int64(5), fs.FileSize("d/f.txt"))
	assert.Equal(t, int64(0), fs.FileSize("d/missing"))
}

func TestReadTextLenient(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "bad.txt", []byte("ok \xff\xfe CTF{still_here}"), 0o644))
	fs := New(mem)

	text, err := fs.ReadText("bad.txt")

	require.NoError(t, err)
	assert.Contains(t, text, "CTF{still_here}")
	assert.Contains(t, text, "�")
}

func TestReadTextUTF16BOM(t *testing.T) {
	// "HTB{u}" as UTF-16LE with a byte order mark.
	data := []byte{0xff, 0xfe, 'H', 0, 'T', 0, 'B', 0, '{', 0, 'u', 0, '}', 0}
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "wide.txt", data, 0o644))

	text, err := New(mem).ReadText("wide.txt")

	require.NoError(t, err)
	assert.Equal(t, "HTB{u}", text)
}

func TestReadTextMissing(t *testing.T) {
	_, err := newTree(t, nil).ReadText("ghost.txt")
	assert.ErrorIs(t, err, errs.ErrFileIO)
}

func TestReadLinesSkipsBlank(t *testing.T) {
	fs := newTree(t, map[string]string{"urls.txt": "http://a\n\n   \n  http://b  \r\n"})

	lines, err := fs.ReadLines("urls.txt")

	require.NoError(t, err)
	assert.Equal(t, []string{"http://a", "http://b"}, lines)
}

func TestIsText(t *testing.T) {
	fs := newTree(t, map[string]string{
		"notes.dat":  "just some plain notes\nwith lines\n",
		"image.dat":  "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR",
		"empty.dat":  "",
		"page.noext": "<html><body>hi</body></html>",
	})

	assert.True(t, fs.IsText("notes.dat"))
	assert.True(t, fs.IsText("page.noext"))
	assert.False(t, fs.IsText("image.dat"))
	assert.False(t, fs.IsText("empty.dat"))
	assert.False(t, fs.IsText("missing.dat"))
}

func TestHasExtension(t *testing.T) {
	exts := []string{".txt", ".log"}
	assert.True(t, HasExtension("a/b.txt", exts))
	assert.True(t, HasExtension("c.log", exts))
	assert.False(t, HasExtension("b.bin", exts))
	assert.False(t, HasExtension("b.txt.bak", exts))
}

func TestWriteFileAndRendered(t *testing.T) {
	fs := newTree(t, nil)

	require.NoError(t, fs.WriteFile("out/r.txt", []byte("one")))
	require.NoError(t, fs.WriteRendered("out/r2.txt", func(w io.Writer) error {
		_, err := io.WriteString(w, "two")
		return err
	}))

	one, err := fs.ReadText("out/r.txt")
	require.NoError(t, err)
	assert.Equal(t, "one", one)
	two, err := fs.ReadText("out/r2.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", two)
}
