package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

var (
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}
	PDFExtensions   = []string{".pdf"}
)

// Storage keeps uploaded files on local disk under a single directory.
type Storage struct {
	dir      string
	maxBytes int64
}

// NewStorage creates dir if needed. maxMB <= 0 disables the size check.
func NewStorage(dir string, maxMB int) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Storage{dir: dir, maxBytes: int64(maxMB) << 20}, nil
}

// Dir is the directory files are written to.
func (s *Storage) Dir() string {
	return s.dir
}

// StoredName builds a collision-resistant name: "<unix nanos>-<clean base name>".
func StoredName(original string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		base = "file"
	}
	return fmt.Sprintf("%d-%s", now.UnixNano(), base)
}

// Save writes an uploaded file and returns its stored name. allowed lists
// accepted lower-case extensions; empty accepts any.
func (s *Storage) Save(file *multipart.FileHeader, allowed ...string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(allowed) > 0 && !slices.Contains(allowed, ext) {
		return "", invalid(fmt.Sprintf("file type %q is not allowed", ext))
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return "", invalid(fmt.Sprintf("file exceeds %d MB", s.maxBytes>>20))
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := StoredName(file.Filename, time.Now())
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// Remove deletes a stored file. Missing files are ignored.
func (s *Storage) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
