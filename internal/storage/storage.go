package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotDir        = errors.New("given root is not a directory")
	ErrInternal      = errors.New("internal error")
	ErrCreate        = errors.New("failed to create file")
	ErrAlreadyExists = errors.New("filename already exists")
	ErrNotExist      = errors.New("file does not exist")
	ErrInvalidPath   = errors.New("invalid path")
)

// Storage holds the uploaded schedule files. Paths are slash separated and relative to the store's root.
type Storage interface {
	Open(ctx context.Context, path string) ([]byte, error)
	Create(ctx context.Context, content io.Reader, path string) error
	Delete(ctx context.Context, path string) error
	// URL returns an address the browser can download the file from.
	URL(ctx context.Context, path string) (string, error)
}
