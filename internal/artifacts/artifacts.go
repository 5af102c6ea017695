// Package artifacts stores uploaded print payloads on the local filesystem.
// The request store holds only opaque references to these files; saving and
// expiring the bytes themselves happens here.
package artifacts

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store manages payload files under a single upload directory.
type Store struct {
	dir string
}

// NewStore ensures the upload directory exists.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("artifact directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the upload directory path.
func (s *Store) Dir() string { return s.dir }

// Save streams a payload into the store under a collision-free name derived
// from the display name. It returns the stored path.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	base := sanitizeName(name)
	target := filepath.Join(s.dir, uuid.NewString()[:8]+"_"+base)

	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	return target, nil
}

// Import copies an existing file into the store and returns the stored path.
func (s *Store) Import(src string) (string, error) {
	source, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open payload %q: %w", src, err)
	}
	defer source.Close()
	return s.Save(filepath.Base(src), source)
}

// Remove deletes a stored artifact. A missing file is not an error: expiry
// may race with manual cleanup. Paths outside the upload directory are
// refused.
func (s *Store) Remove(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve artifact path: %w", err)
	}
	if !strings.HasPrefix(abs, s.dir+string(os.PathSeparator)) {
		return fmt.Errorf("artifact path %q is outside the upload directory", path)
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(os.PathSeparator) {
		return "payload"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "payload"
	}
	return cleaned
}
