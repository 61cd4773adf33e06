package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alimasry/resume-editor/document"
)

var (
	ErrNotFound       = errors.New("document not found")
	ErrExists         = errors.New("document already exists")
	ErrInvalidVersion = errors.New("invalid revision version")
)

// Document holds document metadata and the JSON content last saved.
type Document struct {
	ID        string          `json:"id"`
	Kind      document.Kind   `json:"kind"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Revision is the content saved at one version. Versions start at 1.
type Revision struct {
	Version int             `json:"version"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
	SavedAt time.Time       `json:"savedAt"`
}

// DocumentStore abstracts document persistence.
// Implementations: MemoryStore, FirestoreStore, and CachedStore wrapping either.
type DocumentStore interface {
	// Create stores doc at version 0. CreatedAt and UpdatedAt are set by the store.
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, id string) (*Document, error)
	// List returns documents of kind, newest first. An empty kind lists all.
	List(ctx context.Context, kind document.Kind) ([]Document, error)
	UpdateContent(ctx context.Context, id, title string, content json.RawMessage, version int) error
	Delete(ctx context.Context, id string) error
	AppendRevision(ctx context.Context, id string, rev Revision) error
	// GetRevisions returns revisions newer than fromVersion, oldest first.
	GetRevisions(ctx context.Context, id string, fromVersion int) ([]Revision, error)
}
