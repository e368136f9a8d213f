package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage keeps each key in its own JSON file under a directory.
type FileStorage struct {
	rootDir string
}

var _ KeyValueStore = (*FileStorage)(nil)

func NewFileStorage(directory string) *FileStorage {
	return &FileStorage{
		rootDir: directory,
	}
}

func (f *FileStorage) filePath(key string) string {
	return filepath.Join(f.rootDir, key+".json")
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

func (f *FileStorage) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}

	contents, err := os.ReadFile(f.filePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: fmt.Errorf("os.ReadFile > %w", err)}
	}
	return contents, nil
}

// Set replaces the file through a rename so a crash never leaves a partial value.
func (f *FileStorage) Set(_ context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	if err := os.MkdirAll(f.rootDir, 0755); err != nil {
		return &StorageError{Op: "set", Key: key, Err: fmt.Errorf("os.MkdirAll > %w", err)}
	}

	file, err := os.CreateTemp(f.rootDir, key+".*.tmp")
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: fmt.Errorf("os.CreateTemp > %w", err)}
	}
	tmpPath := file.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := file.Write(value); err != nil {
		_ = file.Close()
		return &StorageError{Op: "set", Key: key, Err: fmt.Errorf("file.Write > %w", err)}
	}
	if err := file.Close(); err != nil {
		return &StorageError{Op: "set", Key: key, Err: fmt.Errorf("file.Close > %w", err)}
	}
	if err := os.Rename(tmpPath, f.filePath(key)); err != nil {
		return &StorageError{Op: "set", Key: key, Err: fmt.Errorf("os.Rename > %w", err)}
	}
	return nil
}
