package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"printq/internal/request"
)

const (
	activeFileName  = "requests.json"
	archiveFileName = "archive.json"
)

// fsBackend persists each collection as a single indented JSON document.
// Writes go to a temp file in the same directory, are fsynced, and are
// renamed over the previous document so readers of the file never observe a
// partial write.
type fsBackend struct {
	activePath  string
	archivePath string
}

func newFSBackend(dataDir string) (*fsBackend, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %q: %w", dataDir, err)
	}
	return &fsBackend{
		activePath:  filepath.Join(dataDir, activeFileName),
		archivePath: filepath.Join(dataDir, archiveFileName),
	}, nil
}

func (b *fsBackend) Load() (Snapshot, error) {
	active, err := loadCollection(b.activePath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load active collection: %w", err)
	}
	archive, err := loadCollection(b.archivePath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load archive collection: %w", err)
	}
	return Snapshot{Active: active, Archive: archive}, nil
}

func (b *fsBackend) SaveActive(active []*request.Request) error {
	return saveCollection(b.activePath, active)
}

func (b *fsBackend) SaveArchive(archive []*request.Request) error {
	return saveCollection(b.archivePath, archive)
}

func (b *fsBackend) Close() error { return nil }

func loadCollection(path string) ([]*request.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var requests []*request.Request
	if err := json.Unmarshal(data, &requests); err != nil {
		// Corrupt durable state is fatal to store initialization; integrity
		// cannot be assumed past this point.
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return requests, nil
}

func saveCollection(path string, requests []*request.Request) error {
	if requests == nil {
		requests = []*request.Request{}
	}
	data, err := json.MarshalIndent(requests, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data)
}

// writeFileAtomic replaces path with data via a temp file and rename. The
// temp file lives in the target directory so the rename stays on one
// filesystem.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
