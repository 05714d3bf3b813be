package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/uploads/"

// LocalStorage persists uploaded files on disk under a base directory.
type LocalStorage struct {
	baseDir string
	now     func() time.Time
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, now: time.Now}, nil
}

// Save copies r into a new file named after originalName, prefixed with a
// millisecond timestamp so repeated uploads never overwrite each other. It
// returns the public path of the stored file.
func (s *LocalStorage) Save(originalName string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitize(originalName))
	file, err := os.OpenFile(filepath.Join(s.baseDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return PublicPrefix + name, nil
}

// Open returns a read-only handle for a file previously returned by Save.
func (s *LocalStorage) Open(publicPath string) (*os.File, error) {
	name, err := s.resolve(publicPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(publicPath string) error {
	name, err := s.resolve(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Dir exposes the base directory for static serving.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

func (s *LocalStorage) resolve(publicPath string) (string, error) {
	name := path.Base(strings.TrimPrefix(publicPath, PublicPrefix))
	if name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("invalid upload path %q", publicPath)
	}
	return filepath.Join(s.baseDir, name), nil
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
