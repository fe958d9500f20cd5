package command

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-storyweave/internal/storage"
)

const (
	StorageBackendFile   = "file"
	StorageBackendSQLite = "sqlite"
	StorageBackendMemory = "memory"
)

// StorageConfig selects where the shared choice document lives.
type StorageConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// Name keys the document inside a sqlite database.
	Name string `json:"name"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	switch c.backend() {
	case StorageBackendFile:
		if c.Path == "" {
			el.Add(fmt.Errorf("storage: path is required for the file backend"))
		}
	case StorageBackendSQLite:
		if c.Path == "" {
			el.Add(fmt.Errorf("storage: path is required for the sqlite backend"))
		}
		if c.Name != "" {
			if err := storage.ValidateIdentifier("document", c.Name); err != nil {
				el.Add(fmt.Errorf("storage: %w", err))
			}
		}
	case StorageBackendMemory:
	default:
		el.Add(fmt.Errorf("storage: unknown backend %q", c.Backend))
	}

	return el.Err()
}

func (c *StorageConfig) backend() string {
	if c.Backend == "" {
		return StorageBackendFile
	}
	return c.Backend
}

func (c *StorageConfig) buildDocumentStore() (storage.DocumentStore, error) {
	switch c.backend() {
	case StorageBackendFile:
		s, err := storage.NewFileDocumentStore(c.Path)
		if err != nil {
			return nil, fmt.Errorf("creating file document store: %w", err)
		}
		return s, nil
	case StorageBackendSQLite:
		name := c.Name
		if name == "" {
			name = "choices"
		}
		s, err := storage.NewSQLiteDocumentStore(c.Path, name)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite document store: %w", err)
		}
		return s, nil
	case StorageBackendMemory:
		return storage.NewMemoryDocumentStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}
