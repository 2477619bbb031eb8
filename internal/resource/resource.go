// Package resource stores generated image payloads and hands out stable
// resource handles. Decoded base64 images land here; remote images are
// stored as references without fetching the bytes.
package resource

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no resource exists for an ID.
var ErrNotFound = errors.New("resource: not found")

// Handle is the stable reference returned to callers. Either URL is set
// (remote reference) or the resource carries stored bytes addressable by ID.
type Handle struct {
	ID        string    `json:"id"`
	MediaType string    `json:"media_type,omitempty"`
	URL       string    `json:"url,omitempty"`
	Size      int       `json:"size,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Resource is a stored resource with its payload.
type Resource struct {
	Handle
	Data []byte
}

// Store persists resources.
type Store interface {
	// SaveImage stores decoded image bytes and returns a handle.
	SaveImage(ctx context.Context, mediaType string, data []byte) (Handle, error)

	// SaveReference stores a remote image URL and returns a handle.
	SaveReference(ctx context.Context, url string) (Handle, error)

	// Get returns a stored resource by ID.
	Get(ctx context.Context, id string) (Resource, error)

	// Prune deletes resources older than maxAge and reports how many.
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}
