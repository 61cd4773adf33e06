package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alimasry/resume-editor/document"
)

type docRecord struct {
	doc       Document
	revisions []Revision
}

// MemoryStore is an in-memory implementation of DocumentStore.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*docRecord
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*docRecord), now: time.Now}
}

func copyDoc(d Document) Document {
	d.Content = bytes.Clone(d.Content)
	return d
}

func copyRevision(r Revision) Revision {
	r.Content = bytes.Clone(r.Content)
	return r
}

func (s *MemoryStore) Create(_ context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; exists {
		return fmt.Errorf("%w: %q", ErrExists, doc.ID)
	}
	now := s.now()
	doc = copyDoc(doc)
	doc.Version = 0
	doc.CreatedAt = now
	doc.UpdatedAt = now
	s.docs[doc.ID] = &docRecord{doc: doc}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	doc := copyDoc(rec.doc)
	return &doc, nil
}

func (s *MemoryStore) List(_ context.Context, kind document.Kind) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Document, 0, len(s.docs))
	for _, rec := range s.docs {
		if kind != "" && rec.doc.Kind != kind {
			continue
		}
		result = append(result, copyDoc(rec.doc))
	}
	sortNewestFirst(result)
	return result, nil
}

func sortNewestFirst(docs []Document) {
	slices.SortFunc(docs, func(a, b Document) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func (s *MemoryStore) UpdateContent(_ context.Context, id, title string, content json.RawMessage, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	rec.doc.Title = title
	rec.doc.Content = bytes.Clone(content)
	rec.doc.Version = version
	rec.doc.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) AppendRevision(_ context.Context, id string, rev Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if want := len(rec.revisions) + 1; rev.Version != want {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidVersion, rev.Version, want)
	}
	if rev.SavedAt.IsZero() {
		rev.SavedAt = s.now()
	}
	rec.revisions = append(rec.revisions, copyRevision(rev))
	return nil
}

func (s *MemoryStore) GetRevisions(_ context.Context, id string, fromVersion int) ([]Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if fromVersion < 0 || fromVersion > len(rec.revisions) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, fromVersion)
	}
	revs := make([]Revision, 0, len(rec.revisions)-fromVersion)
	for _, r := range rec.revisions[fromVersion:] {
		revs = append(revs, copyRevision(r))
	}
	return revs, nil
}
