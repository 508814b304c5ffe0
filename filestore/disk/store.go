// Package disk stores uploaded files on the local filesystem under
// uuid-derived names, one metadata sidecar per file.
package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/promptfile/promptfile/filestore"
)

type metadata struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

type Store struct {
	dir string
}

var _ filestore.Store = (*Store)(nil)

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Put(_ context.Context, filename, mimeType string, content []byte) (filestore.File, error) {
	id := uuid.NewString()

	if err := os.WriteFile(s.contentPath(id), content, 0o640); err != nil {
		return filestore.File{}, fmt.Errorf("store file %q: %w", filename, err)
	}
	meta, err := json.Marshal(metadata{Filename: filename, MimeType: mimeType})
	if err != nil {
		return filestore.File{}, fmt.Errorf("encode file metadata %q: %w", filename, err)
	}
	if err := os.WriteFile(s.metaPath(id), meta, 0o640); err != nil {
		return filestore.File{}, fmt.Errorf("store file metadata %q: %w", filename, err)
	}

	return filestore.File{ID: id, Filename: filename, MimeType: mimeType, Content: content}, nil
}

func (s *Store) Get(_ context.Context, id string) (filestore.File, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return filestore.File{}, fmt.Errorf("invalid file id %q", id)
	}

	content, err := os.ReadFile(s.contentPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return filestore.File{}, fmt.Errorf("%w: %q", filestore.ErrFileNotFound, id)
		}
		return filestore.File{}, fmt.Errorf("read file %q: %w", id, err)
	}

	file := filestore.File{ID: id, Content: content}
	if meta, err := os.ReadFile(s.metaPath(id)); err == nil {
		var decoded metadata
		if err := json.Unmarshal(meta, &decoded); err == nil {
			file.Filename = decoded.Filename
			file.MimeType = decoded.MimeType
		}
	}
	return file, nil
}

func (s *Store) contentPath(id string) string {
	return filepath.Join(s.dir, id)
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.dir, id+".meta.json")
}
