// Package attachments records references to user-uploaded and
// provider-generated files, keyed by the (container id, file id) pair the
// provider boundary understands. It is a lookup table; retention policy
// belongs to the file-store collaborator.
package attachments

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned by Resolve for an unknown (container, file) pair.
var ErrNotFound = errors.New("attachment not found")

// Origin tells where an attachment came from.
type Origin string

const (
	OriginUserUploaded      Origin = "user_uploaded"
	OriginProviderGenerated Origin = "provider_generated"
)

// Attachment is a reference to file content associated with a run.
type Attachment struct {
	FileID string `json:"file_id"`
	// ContainerID groups files generated by the same tool invocation, e.g.
	// a code-execution sandbox. Empty for plain uploads.
	ContainerID string `json:"container_id,omitempty"`
	Origin      Origin `json:"origin"`
	// ContentRef is a retrievable pointer: a filestore id for uploads, a
	// provider file handle for generated files.
	ContentRef string    `json:"content_ref"`
	Filename   string    `json:"filename,omitempty"`
	MimeType   string    `json:"mime_type,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

type key struct {
	containerID string
	fileID      string
}

// Tracker is a concurrency-safe attachment lookup table.
type Tracker struct {
	mu      sync.RWMutex
	entries map[key]Attachment
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[key]Attachment)}
}

// Record stores an attachment reference. The (container id, file id) pair is
// unique; recording the same pair again replaces the entry.
func (t *Tracker) Record(attachment Attachment) (Attachment, error) {
	if attachment.FileID == "" {
		return Attachment{}, errors.New("attachment file id is empty")
	}
	if attachment.RecordedAt.IsZero() {
		attachment.RecordedAt = time.Now().UTC()
	}

	t.mu.Lock()
	t.entries[key{attachment.ContainerID, attachment.FileID}] = attachment
	t.mu.Unlock()
	return attachment, nil
}

// Resolve returns the attachment recorded for the pair.
func (t *Tracker) Resolve(fileID, containerID string) (Attachment, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	attachment, ok := t.entries[key{containerID, fileID}]
	if !ok {
		return Attachment{}, fmt.Errorf("%w: file %q container %q", ErrNotFound, fileID, containerID)
	}
	return attachment, nil
}
