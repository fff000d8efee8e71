package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each document as a pretty-printed JSON file and each log as
// a newline-delimited JSON file under a single data directory. Documents are
// replaced atomically (temp file + rename) so the previous snapshot survives
// a crash during the write.
type FileStore struct {
	dir string
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// PutJSON writes the document via temp file and atomic rename.
func (s *FileStore) PutJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	data = append(data, '\n')

	path := s.docPath(key)

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp for %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", key, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", key, err)
	}

	return nil
}

// GetJSON reads and decodes the latest document. A missing file maps to
// ErrNotFound so callers can treat it as "zero signals" or "no state yet".
func (s *FileStore) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := os.ReadFile(s.docPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

// AppendJSON appends one compact JSON line to the named log.
func (s *FileStore) AppendJSON(ctx context.Context, log string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal log entry for %s: %w", log, err)
	}

	f, err := os.OpenFile(s.logPath(log), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", log, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append log %s: %w", log, err)
	}

	return nil
}

func (s *FileStore) docPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) logPath(log string) string {
	return filepath.Join(s.dir, log+".log")
}
