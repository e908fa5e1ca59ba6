package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

var (
	createTempFile = os.CreateTemp
	renameFile     = os.Rename
	mkdirAll       = os.MkdirAll
)

type fileStore struct {
	dir string
	ext string
}

func newFileStore(dir, ext string) Store {
	if dir == "" {
		dir = defaultFileDir()
	}
	if ext == "" {
		ext = defaultFileExtension
	}
	return &fileStore{dir: dir, ext: ext}
}

func (s *fileStore) Driver() Driver {
	return DriverFile
}

func (s *fileStore) Get(_ context.Context, name string) ([]byte, bool, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set writes through a temp file in the target directory and renames it into
// place, so a crash mid-write leaves the previous record intact.
func (s *fileStore) Set(_ context.Context, name string, body []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := mkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := createTempFile(dir, ".persist-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := renameFile(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *fileStore) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(name)+s.ext), nil
}
