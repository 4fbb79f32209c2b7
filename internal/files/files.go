// Package files is the filesystem side of the scanner. It reads through a
// go-billy filesystem so the scanners run unchanged against the real disk
// or an in-memory tree.
package files

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/hawtsauceTR/flaghunter/internal/errs"
)

// sniffLen is how much of a file mimetype gets to look at.
const sniffLen = 512

// FS wraps a billy.Filesystem with the operations the scanners need.
type FS struct {
	fs  billy.Filesystem
	abs bool
}

// New wraps fs. Paths are passed through unchanged.
func New(fs billy.Filesystem) *FS {
	return &FS{fs: fs}
}

// NewOS returns an FS over the host filesystem. Relative paths resolve
// against the working directory and a leading ~ expands to $HOME.
func NewOS() *FS {
	return &FS{fs: osfs.New("/"), abs: true}
}

// Billy exposes the underlying filesystem.
func (f *FS) Billy() billy.Filesystem {
	return f.fs
}

func (f *FS) resolve(path string) string {
	if !f.abs {
		return path
	}
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	if a, err := filepath.Abs(path); err == nil {
		return a
	}
	return path
}

// Exists reports whether path exists.
func (f *FS) Exists(path string) bool {
	_, err := f.fs.Stat(f.resolve(path))
	return err == nil
}

// IsDir reports whether path is an existing directory.
func (f *FS) IsDir(path string) bool {
	info, err := f.fs.Stat(f.resolve(path))
	return err == nil && info.IsDir()
}

// FileSize returns the size of path, or 0 when it cannot be stat'ed.
func (f *FS) FileSize(path string) int64 {
	info, err := f.fs.Stat(f.resolve(path))
	if err != nil {
		return 0
	}
	return info.Size()
}

// ListEntries returns the regular files under dir, descending into
// subdirectories when recursive is set. Returned paths are dir joined with
// the entry's relative path, so they read the way the caller wrote dir.
func (f *FS) ListEntries(dir string, recursive bool) ([]string, error) {
	root := f.resolve(dir)

	if !recursive {
		infos, err := f.fs.ReadDir(root)
		if err != nil {
			return nil, errs.New(errs.CodeFileIO, "list", dir, err)
		}
		var out []string
		for _, info := range infos {
			if info.Mode().IsRegular() {
				out = append(out, filepath.Join(dir, info.Name()))
			}
		}
		return out, nil
	}

	var out []string
	err := util.Walk(f.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, the rest of the walk goes on.
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		out = append(out, filepath.Join(dir, rel))
		return nil
	})
	if err != nil {
		return out, errs.New(errs.CodeFileIO, "walk", dir, err)
	}
	return out, nil
}

// ReadBytes returns the raw content of path.
func (f *FS) ReadBytes(path string) ([]byte, error) {
	data, err := util.ReadFile(f.fs, f.resolve(path))
	if err != nil {
		return nil, errs.New(errs.CodeFileIO, "read", path, err)
	}
	return data, nil
}

// ReadText returns the content of path as UTF-8 text. A UTF-8 or UTF-16
// byte order mark selects the decoding; bytes that do not decode become
// U+FFFD instead of failing the read.
func (f *FS) ReadText(path string) (string, error) {
	data, err := f.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return DecodeText(data), nil
}

// DecodeText leniently decodes data to a UTF-8 string.
func DecodeText(data []byte) string {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(out)
}

// ReadLines returns the trimmed, non-empty lines of path.
func (f *FS) ReadLines(path string) ([]string, error) {
	text, err := f.ReadText(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return lines, errs.New(errs.CodeFileIO, "read lines", path, err)
	}
	return lines, nil
}

// IsText sniffs the head of path and reports whether it looks like text.
func (f *FS) IsText(path string) bool {
	file, err := f.fs.Open(f.resolve(path))
	if err != nil {
		return false
	}
	defer file.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	if n == 0 {
		return false
	}
	mt := mimetype.Detect(buf[:n])
	for ; mt != nil; mt = mt.Parent() {
		if strings.HasPrefix(mt.String(), "text/") {
			return true
		}
	}
	return false
}

// HasExtension reports whether path ends with one of exts.
func HasExtension(path string, exts []string) bool {
	for _, ext := range exts {
		if ext != "" && strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// WriteFile writes data to path, creating parent directories.
func (f *FS) WriteFile(path string, data []byte) error {
	p := f.resolve(path)
	if dir := filepath.Dir(p); dir != "." && dir != "" {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return errs.New(errs.CodeFileIO, "mkdir", dir, err)
		}
	}
	if err := util.WriteFile(f.fs, p, data, 0o644); err != nil {
		return errs.New(errs.CodeFileIO, "write", path, err)
	}
	return nil
}

// WriteRendered writes whatever render produces to path. Nothing is
// written when render fails.
func (f *FS) WriteRendered(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return f.WriteFile(path, buf.Bytes())
}
