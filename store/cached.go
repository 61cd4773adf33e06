package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alimasry/resume-editor/document"
)

// dirtyState tracks what needs flushing for a single document.
type dirtyState struct {
	contentDirty bool // title/content/version needs writing to backing store
	flushedRevs  int  // number of revisions already flushed
	created      bool // doc created locally but not yet in backing store
}

// CachedStore wraps a backing DocumentStore with an in-memory cache.
// All reads and writes are served from the cache. Dirty documents are
// flushed to the backing store periodically in the background.
type CachedStore struct {
	cache         *MemoryStore
	backing       DocumentStore
	mu            sync.Mutex
	dirty         map[string]*dirtyState
	flushMu       sync.Mutex // serialises flush with Delete
	flushInterval time.Duration
	log           *slog.Logger
	stop          chan struct{}
	done          chan struct{}
}

// NewCachedStore creates a CachedStore that caches in memory and flushes
// dirty documents to the backing store every flushInterval.
func NewCachedStore(backing DocumentStore, flushInterval time.Duration) *CachedStore {
	cs := &CachedStore{
		cache:         NewMemoryStore(),
		backing:       backing,
		dirty:         make(map[string]*dirtyState),
		flushInterval: flushInterval,
		log:           slog.With("component", "cached_store"),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go cs.flushLoop()
	return cs
}

func (cs *CachedStore) Create(ctx context.Context, doc Document) error {
	if _, err := cs.backing.Get(ctx, doc.ID); err == nil {
		return fmt.Errorf("%w: %q", ErrExists, doc.ID)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := cs.cache.Create(ctx, doc); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.dirty[doc.ID] = &dirtyState{contentDirty: true, created: true}
	cs.mu.Unlock()
	return nil
}

func (cs *CachedStore) Get(ctx context.Context, id string) (*Document, error) {
	doc, err := cs.cache.Get(ctx, id)
	if err == nil {
		return doc, nil
	}
	// Cache miss, load from backing store.
	if err := cs.loadFromBacking(ctx, id); err != nil {
		return nil, err
	}
	return cs.cache.Get(ctx, id)
}

// List merges the backing listing with cached documents, which may hold
// newer unflushed state.
func (cs *CachedStore) List(ctx context.Context, kind document.Kind) ([]Document, error) {
	backed, err := cs.backing.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	cached, err := cs.cache.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Document, len(backed)+len(cached))
	for _, d := range backed {
		byID[d.ID] = d
	}
	for _, d := range cached {
		byID[d.ID] = d
	}
	result := make([]Document, 0, len(byID))
	for _, d := range byID {
		result = append(result, d)
	}
	sortNewestFirst(result)
	return result, nil
}

func (cs *CachedStore) UpdateContent(ctx context.Context, id, title string, content json.RawMessage, version int) error {
	// Ensure doc is in cache.
	if _, err := cs.Get(ctx, id); err != nil {
		return err
	}
	if err := cs.cache.UpdateContent(ctx, id, title, content, version); err != nil {
		return err
	}
	cs.mu.Lock()
	ds := cs.dirty[id]
	if ds == nil {
		ds = &dirtyState{flushedRevs: cs.revisionCount(id)}
		cs.dirty[id] = ds
	}
	ds.contentDirty = true
	cs.mu.Unlock()
	return nil
}

// Delete removes the document from the cache and the backing store
// immediately.
func (cs *CachedStore) Delete(ctx context.Context, id string) error {
	cs.flushMu.Lock()
	defer cs.flushMu.Unlock()

	cs.mu.Lock()
	ds := cs.dirty[id]
	delete(cs.dirty, id)
	cs.mu.Unlock()

	cacheErr := cs.cache.Delete(ctx, id)
	if ds != nil && ds.created {
		// Never reached the backing store.
		return cacheErr
	}
	err := cs.backing.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) && cacheErr == nil {
		return nil
	}
	return err
}

func (cs *CachedStore) AppendRevision(ctx context.Context, id string, rev Revision) error {
	// Ensure doc is in cache.
	if _, err := cs.Get(ctx, id); err != nil {
		return err
	}

	// Snapshot the revision count before append so we know how many were
	// already flushed if this doc was previously clean.
	prevLen := cs.revisionCount(id)

	if err := cs.cache.AppendRevision(ctx, id, rev); err != nil {
		return err
	}
	cs.mu.Lock()
	if cs.dirty[id] == nil {
		cs.dirty[id] = &dirtyState{flushedRevs: prevLen}
	}
	cs.mu.Unlock()
	return nil
}

func (cs *CachedStore) GetRevisions(ctx context.Context, id string, fromVersion int) ([]Revision, error) {
	// Ensure doc is in cache.
	if _, err := cs.Get(ctx, id); err != nil {
		return nil, err
	}
	return cs.cache.GetRevisions(ctx, id, fromVersion)
}

func (cs *CachedStore) revisionCount(id string) int {
	cs.cache.mu.RLock()
	defer cs.cache.mu.RUnlock()
	if rec, ok := cs.cache.docs[id]; ok {
		return len(rec.revisions)
	}
	return 0
}

// loadFromBacking loads a document and its revisions from the backing
// store into the cache. It sets flushedRevs so that already-persisted
// revisions are not re-flushed.
func (cs *CachedStore) loadFromBacking(ctx context.Context, id string) error {
	doc, err := cs.backing.Get(ctx, id)
	if err != nil {
		return err
	}
	revs, err := cs.backing.GetRevisions(ctx, id, 0)
	if err != nil {
		return err
	}

	// Write directly into cache's internal map.
	cs.cache.mu.Lock()
	if _, exists := cs.cache.docs[id]; !exists {
		cs.cache.docs[id] = &docRecord{doc: *doc, revisions: revs}
	}
	cs.cache.mu.Unlock()

	cs.mu.Lock()
	if cs.dirty[id] == nil {
		cs.dirty[id] = &dirtyState{flushedRevs: len(revs)}
	}
	cs.mu.Unlock()

	return nil
}

func (cs *CachedStore) flushLoop() {
	ticker := time.NewTicker(cs.flushInterval)
	defer ticker.Stop()
	defer close(cs.done)

	for {
		select {
		case <-ticker.C:
			cs.flush()
		case <-cs.stop:
			cs.flush()
			return
		}
	}
}

// Flush writes all dirty documents to the backing store now.
func (cs *CachedStore) Flush() {
	cs.flush()
}

// flush writes all dirty documents to the backing store.
func (cs *CachedStore) flush() {
	cs.flushMu.Lock()
	defer cs.flushMu.Unlock()

	cs.mu.Lock()
	// Snapshot the dirty map and work on a copy.
	snapshot := make(map[string]*dirtyState, len(cs.dirty))
	for id, ds := range cs.dirty {
		cp := *ds
		snapshot[id] = &cp
	}
	cs.mu.Unlock()

	ctx := context.Background()

	for id, ds := range snapshot {
		// Read current state from cache.
		cs.cache.mu.RLock()
		rec, ok := cs.cache.docs[id]
		if !ok {
			cs.cache.mu.RUnlock()
			continue
		}
		doc := copyDoc(rec.doc)
		totalRevs := len(rec.revisions)
		var newRevs []Revision
		if ds.flushedRevs < totalRevs {
			newRevs = make([]Revision, totalRevs-ds.flushedRevs)
			copy(newRevs, rec.revisions[ds.flushedRevs:])
		}
		cs.cache.mu.RUnlock()

		log := cs.log.With("doc", id)

		// 1. Create doc in backing store if needed.
		if ds.created {
			err := cs.backing.Create(ctx, Document{ID: id, Kind: doc.Kind, Title: doc.Title, Content: doc.Content})
			if err != nil && !errors.Is(err, ErrExists) {
				log.Error("create in backing store failed", "error", err)
				continue
			}
			ds.created = false
		}

		// 2. Flush new revisions before content so the latest content always
		// has its revision persisted.
		for _, rev := range newRevs {
			if err := cs.backing.AppendRevision(ctx, id, rev); err != nil {
				log.Error("flush revision failed", "version", rev.Version, "error", err)
				// Stop flushing this doc, retry next cycle.
				break
			}
			ds.flushedRevs++
		}

		// 3. Flush content if dirty.
		if ds.contentDirty {
			if err := cs.backing.UpdateContent(ctx, id, doc.Title, doc.Content, doc.Version); err != nil {
				log.Error("flush content failed", "error", err)
			} else {
				ds.contentDirty = false
				log.Debug("flushed", "version", doc.Version)
			}
		}

		// Update the authoritative dirty state.
		cs.mu.Lock()
		cur := cs.dirty[id]
		if cur != nil {
			cur.flushedRevs = ds.flushedRevs
			cur.created = ds.created
			if !ds.contentDirty && !cs.changedSince(id, doc) {
				cur.contentDirty = false
			}
			// Remove from dirty map if fully clean.
			if !cur.contentDirty && !cur.created && cur.flushedRevs >= cs.revisionCount(id) {
				delete(cs.dirty, id)
			}
		}
		cs.mu.Unlock()
	}
}

// changedSince reports whether the cached document moved on from the
// snapshot that was just flushed.
func (cs *CachedStore) changedSince(id string, flushed Document) bool {
	cs.cache.mu.RLock()
	defer cs.cache.mu.RUnlock()
	rec, ok := cs.cache.docs[id]
	return ok && !rec.doc.UpdatedAt.Equal(flushed.UpdatedAt)
}

// Close signals the flush loop to perform a final flush and waits for it
// to complete.
func (cs *CachedStore) Close() {
	close(cs.stop)
	<-cs.done
}
