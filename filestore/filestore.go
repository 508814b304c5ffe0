// Package filestore defines the file-content boundary used by uploads and
// attachment retrieval: put bytes in, get bytes back by id.
package filestore

import (
	"context"
	"errors"
)

// ErrFileNotFound is returned by Get for an unknown file id.
var ErrFileNotFound = errors.New("file not found")

// File is stored content plus its hints.
type File struct {
	ID       string
	Filename string
	MimeType string
	Content  []byte
}

// Store is the file store boundary. Implementations decide retention.
type Store interface {
	Put(ctx context.Context, filename, mimeType string, content []byte) (File, error)
	Get(ctx context.Context, id string) (File, error)
}
