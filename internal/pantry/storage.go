package pantry

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage keeps captured camera frames
type Storage interface {
	// Save stores a frame under the given name
	Save(name string, data []byte) error

	// Get retrieves a frame by name
	Get(name string) ([]byte, error)

	// Delete removes a frame
	Delete(name string) error
}

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the frame directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// path confines names to the base directory
func (l *LocalStorage) path(name string) string {
	return filepath.Join(l.basePath, filepath.Base(name))
}

// Save writes a frame to disk
func (l *LocalStorage) Save(name string, data []byte) error {
	if err := os.WriteFile(l.path(name), data, 0644); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Get reads a frame from disk
func (l *LocalStorage) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(l.path(name))
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	return data, nil
}

// Delete removes a frame from disk
func (l *LocalStorage) Delete(name string) error {
	if err := os.Remove(l.path(name)); err != nil {
		return fmt.Errorf("deleting frame: %w", err)
	}
	return nil
}
