package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DocumentStore persists a single shared JSON document. It has no notion of
// transactions; callers that read, modify and write must serialize themselves.
type DocumentStore interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Archiver is implemented by stores that can keep a labelled copy of the
// document next to the live one.
type Archiver interface {
	WriteArchive(ctx context.Context, label string, data []byte) error
}

type FileDocumentStore struct {
	path string

	mu sync.RWMutex
}

func NewFileDocumentStore(path string) (*FileDocumentStore, error) {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("checking document directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	return &FileDocumentStore{path: path}, nil
}

// Read returns the document bytes. A document that was never written reads as
// empty without error.
func (s *FileDocumentStore) Read(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return data, nil
}

func (s *FileDocumentStore) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return atomicWrite(s.path, data, 0644)
}

func (s *FileDocumentStore) WriteArchive(_ context.Context, label string, data []byte) error {
	if err := ValidateIdentifier("archive", label); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return atomicWrite(s.archivePath(label), data, 0644)
}

func (s *FileDocumentStore) archivePath(label string) string {
	ext := filepath.Ext(s.path)
	base := strings.TrimSuffix(s.path, ext)
	if ext == "" {
		ext = ".json"
	}
	return fmt.Sprintf("%s.%s%s", base, label, ext)
}

// atomicWrite writes data to a temp file then renames it to the target path.
// This prevents partial or empty files if the process is interrupted.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("failed to remove temp file after rename failure", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// MemoryDocumentStore keeps the document in process memory. It is used for
// dry runs and tests.
type MemoryDocumentStore struct {
	data     []byte
	archives map[string][]byte

	mu sync.RWMutex
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{archives: map[string][]byte{}}
}

func (s *MemoryDocumentStore) Read(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]byte(nil), s.data...), nil
}

func (s *MemoryDocumentStore) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemoryDocumentStore) WriteArchive(_ context.Context, label string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.archives[label] = append([]byte(nil), data...)
	return nil
}

// Archive returns a stored archive copy, if one exists for label.
func (s *MemoryDocumentStore) Archive(label string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.archives[label]
	return data, ok
}
