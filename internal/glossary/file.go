package glossary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the glossary file stored next to config.toml
const FileName = "keywords.json"

// FileStore keeps all entries as one JSON array in a single file.
// Every call re-reads the file so edits from another process are seen.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the glossary location under the user config dir
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "confersense", FileName), nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse glossary %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *FileStore) save(entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create glossary dir: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode glossary: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write glossary: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace glossary: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Lookup(ctx context.Context, source, target string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	return Lookup(entries, source, target), nil
}

func (s *FileStore) Add(ctx context.Context, e Entry) (Entry, error) {
	e, err := prepare(e)
	if err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return Entry{}, err
	}
	if err := s.save(append(entries, e)); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *FileStore) Update(ctx context.Context, id string, patch Patch) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return Entry{}, err
	}
	for i, e := range entries {
		if e.ID != id {
			continue
		}
		updated, err := prepare(patch.apply(e))
		if err != nil {
			return Entry{}, err
		}
		entries[i] = updated
		if err := s.save(entries); err != nil {
			return Entry{}, err
		}
		return updated, nil
	}
	return Entry{}, ErrNotFound
}

func (s *FileStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.ID == id {
			return s.save(append(entries[:i], entries[i+1:]...))
		}
	}
	return ErrNotFound
}

func (s *FileStore) Close() error { return nil }
