package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNotFound = errors.New("no memory document persisted")

// Store reads and writes the memory document wholesale. Load returns
// ErrNotFound when nothing has been persisted yet.
type Store interface {
	Load(ctx context.Context) (*Data, error)
	Save(ctx context.Context, data *Data) error
}

// FileStore persists the document as a JSON file, replacing it
// atomically on every save. Used by the CLI and by server deployments
// without a database.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (*Data, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read memory file: %w", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unable to parse memory file: %w", err)
	}
	return &data, nil
}

func (s *FileStore) Save(_ context.Context, data *Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("unable to encode memory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".memory-*")
	if err != nil {
		return fmt.Errorf("unable to create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("unable to write memory file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, s.path); err != nil {
		os.Remove(name)
		return fmt.Errorf("unable to replace memory file: %w", err)
	}
	return nil
}
