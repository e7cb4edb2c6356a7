// Package storage keeps uploaded product images on the local filesystem.
package storage

import (
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// URLPrefix is the public path prefix of stored files.
const URLPrefix = "uploads"

const timeLayout = "2006-01-02_15-04"

var whitespace = regexp.MustCompile(`\s+`)

// Local stores files in a single directory.
type Local struct {
	dir string
	now func() time.Time
}

// NewLocal creates dir if needed and returns a Local rooted at it.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &Local{dir: dir, now: time.Now}, nil
}

// Dir is the directory files are written to.
func (l *Local) Dir() string { return l.dir }

// FileName prefixes the base name of original with the minute of upload and
// collapses whitespace runs to a single space.
func FileName(now time.Time, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = whitespace.ReplaceAllString(strings.TrimSpace(base), " ")
	return now.Format(timeLayout) + "_" + base
}

// Save writes the uploaded file and returns its public path,
// e.g. "uploads/2026-03-01_10-30_mug.png".
func (l *Local) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer func() { _ = src.Close() }()

	name := FileName(l.now(), fh.Filename)
	dst, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return "", errors.Wrap(err, "create file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", errors.Wrap(err, "write file")
	}
	if err := dst.Close(); err != nil {
		return "", errors.Wrap(err, "close file")
	}
	return path.Join(URLPrefix, name), nil
}

// Remove deletes a file previously returned by Save. Missing files are not
// an error.
func (l *Local) Remove(public string) error {
	name := strings.TrimPrefix(public, URLPrefix+"/")
	if name == "" || name != path.Base(name) {
		return errors.Errorf("invalid stored path %q", public)
	}
	err := os.Remove(filepath.Join(l.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove file")
	}
	return nil
}
