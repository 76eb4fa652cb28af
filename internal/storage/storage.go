// Package storage keeps uploaded attachment files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotFound = errors.New("file not found")
	ErrTooLarge = errors.New("file exceeds the upload limit")
)

// FileStore saves, opens and removes files by location. A location is an
// opaque key returned by Save.
type FileStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (location string, size int64, err error)
	Open(location string) (*os.File, error)
	Remove(location string) error
	ContentType(location string) string
}

// LocalStore keeps files in a directory on local disk.
type LocalStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Save writes r to a new file named <unix-nano>_<sanitized filename>.
// Partial files are removed on failure.
func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) (string, int64, error) {
	location := fmt.Sprintf("%d_%s", s.now().UnixNano(), SanitizeFilename(filename))
	path := filepath.Join(s.dir, location)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}

	size, err := io.Copy(f, io.LimitReader(&ctxReader{ctx: ctx, r: r}, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("write file: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("close file: %w", closeErr)
	case size > s.maxBytes:
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return location, size, nil
}

// Open opens a stored file for reading.
func (s *LocalStore) Open(location string) (*os.File, error) {
	path, err := s.path(location)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (s *LocalStore) Remove(location string) error {
	path, err := s.path(location)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ContentType sniffs the stored file's MIME type.
func (s *LocalStore) ContentType(location string) string {
	path, err := s.path(location)
	if err != nil {
		return "application/octet-stream"
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return mtype.String()
}

// path rejects locations that would escape the store directory.
func (s *LocalStore) path(location string) (string, error) {
	if location == "" || location != filepath.Base(location) || strings.HasPrefix(location, ".") {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, location), nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a client supplied name to a safe base name.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, "._")
	if len(name) > 200 {
		name = name[len(name)-200:]
	}
	if name == "" {
		return "file"
	}
	return name
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
