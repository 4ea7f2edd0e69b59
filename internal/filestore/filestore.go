package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps JSON artifacts as flat files in one directory. Writes go
// through a temporary file and a rename, so readers never see half a record.
type FileStore struct {
	fileDirectory string
	tmpDirectory  string
}

func New(dir string) *FileStore {
	return &FileStore{
		fileDirectory: dir,
		tmpDirectory:  filepath.Join(dir, ".tmp"),
	}
}

// Init creates the store's directories.
func (fs *FileStore) Init() error {
	if err := os.MkdirAll(fs.fileDirectory, 0o755); err != nil {
		return fmt.Errorf("failed to create file store directory: %w", err)
	}
	if err := os.MkdirAll(fs.tmpDirectory, 0o755); err != nil {
		return fmt.Errorf("failed to create tmp directory: %w", err)
	}
	return nil
}

func (fs *FileStore) Dir() string {
	return fs.fileDirectory
}

func (fs *FileStore) Path(key string) string {
	return filepath.Join(fs.fileDirectory, key)
}

// WriteJSON stores v under key, replacing what was there, and returns the file path.
func (fs *FileStore) WriteJSON(key string, v any) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(fs.tmpDirectory, key+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create tmp file for %s: %w", key, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}

	path := fs.Path(key)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move %s to file store: %w", key, err)
	}
	return path, nil
}

func (fs *FileStore) ReadJSON(key string, v any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := os.ReadFile(fs.Path(key))
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// List returns the sorted keys ending in suffix.
func (fs *FileStore) List(suffix string) ([]string, error) {
	entries, err := os.ReadDir(fs.fileDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to list file store: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid file store key %q", key)
	}
	return nil
}
