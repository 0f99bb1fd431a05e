// Package tempstore persists uploaded audio to uniquely named temporary files and
// hands out handles that delete the file exactly once.
package tempstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const filePrefix = "upload-"

// Store writes uploads into a directory.
type Store struct {
	dir               string
	fallbackExtension string
}

// New creates a Store writing into dir (os.TempDir() when empty). fallbackExtension is
// used when an upload's filename carries no usable extension, e.g. ".webm".
func New(dir, fallbackExtension string) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create temp dir %s: %w", dir, err)
	}
	if !validExtension(fallbackExtension) {
		return nil, fmt.Errorf("invalid fallback extension: %q", fallbackExtension)
	}
	return &Store{dir: dir, fallbackExtension: fallbackExtension}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Extension returns the suffix used for an upload named filename.
func (s *Store) Extension(filename string) string {
	ext := filepath.Ext(filepath.Base(filename))
	if !validExtension(ext) {
		return s.fallbackExtension
	}
	return ext
}

// Store copies r into a new temporary file. On error no file is left behind.
func (s *Store) Store(r io.Reader, filename string) (*Handle, error) {
	f, err := os.CreateTemp(s.dir, filePrefix+"*"+s.Extension(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	h := &Handle{path: f.Name()}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		h.Release()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	h.size = n

	return h, nil
}

// Writable reports whether a file can be created in the store directory.
func (s *Store) Writable() error {
	f, err := os.CreateTemp(s.dir, filePrefix+"probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// Handle references one stored upload.
type Handle struct {
	path string
	size int64

	once sync.Once
	err  error
}

// Path returns the absolute file path.
func (h *Handle) Path() string {
	return h.path
}

// Size returns the number of bytes written.
func (h *Handle) Size() int64 {
	return h.size
}

// Release deletes the file. Only the first call does work; an already missing
// file is not an error.
func (h *Handle) Release() error {
	h.once.Do(func() {
		if err := os.Remove(h.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			h.err = err
		}
	})
	return h.err
}

func validExtension(ext string) bool {
	if len(ext) < 2 || ext[0] != '.' {
		return false
	}
	return !strings.ContainsAny(ext, `*/\`+"\x00")
}
