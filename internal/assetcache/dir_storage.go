package assetcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStorage keeps one directory per cache and one JSON file per response,
// so the cache survives restarts of the process. Only directories holding the marker file
// are caches; Keys and Delete leave every other directory under rootDir alone.
type DirStorage struct {
	rootDir string
}

var _ Storage = (*DirStorage)(nil)

const cacheMarkerFile = ".offlinedict-cache"

func NewDirStorage(rootDir string) *DirStorage {
	return &DirStorage{rootDir: rootDir}
}

func validateCacheName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid cache name %q", name)
	}
	return nil
}

func (s *DirStorage) Open(_ context.Context, name string) (Cache, error) {
	if err := validateCacheName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.rootDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
	}
	marker := filepath.Join(dir, cacheMarkerFile)
	if err := os.WriteFile(marker, []byte(name+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("os.WriteFile(%s) > %w", marker, err)
	}
	return &dirCache{dir: dir}, nil
}

func (s *DirStorage) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.rootDir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadDir(%s) > %w", s.rootDir, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && s.isCache(entry.Name()) {
			keys = append(keys, entry.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *DirStorage) Delete(_ context.Context, name string) (bool, error) {
	if err := validateCacheName(name); err != nil {
		return false, err
	}
	if !s.isCache(name) {
		return false, nil
	}
	dir := filepath.Join(s.rootDir, name)
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("os.RemoveAll(%s) > %w", dir, err)
	}
	return true, nil
}

func (s *DirStorage) isCache(name string) bool {
	info, err := os.Stat(filepath.Join(s.rootDir, name, cacheMarkerFile))
	return err == nil && info.Mode().IsRegular()
}

type dirCache struct {
	dir string
}

func (c *dirCache) filePath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

func (c *dirCache) Match(_ context.Context, url string) (*Response, bool, error) {
	contents, err := os.ReadFile(c.filePath(url))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("os.ReadFile > %w", err)
	}

	var response Response
	if err := json.Unmarshal(contents, &response); err != nil {
		return nil, false, fmt.Errorf("json.Unmarshal > %w", err)
	}
	return &response, true, nil
}

func (c *dirCache) Put(_ context.Context, response *Response) error {
	contents, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("json.Marshal > %w", err)
	}

	file, err := os.CreateTemp(c.dir, "response.*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp > %w", err)
	}
	tmpPath := file.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := file.Write(contents); err != nil {
		_ = file.Close()
		return fmt.Errorf("file.Write > %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("file.Close > %w", err)
	}
	if err := os.Rename(tmpPath, c.filePath(response.URL)); err != nil {
		return fmt.Errorf("os.Rename > %w", err)
	}
	return nil
}
