// Package storage keeps uploaded multimedia files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidPath is returned for keys that escape the storage root
var ErrInvalidPath = errors.New("invalid storage path")

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores a file at the given path
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Open retrieves a file from the given path
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file at the given path. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// Exists checks if a file exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// URL returns the public URL for the file
	URL(path string) string
}

// Config holds storage configuration
type Config struct {
	Type     string // only "local" is supported
	BasePath string
	BaseURL  string // Public URL base
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
