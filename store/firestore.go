package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alimasry/resume-editor/document"
)

// DefaultCollection is the top-level collection documents are kept in.
const DefaultCollection = "documents"

// FirestoreStore is a Firestore-backed implementation of DocumentStore.
// Revisions live in a "revisions" sub-collection of each document.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore creates a new FirestoreStore using the given Firestore
// client. An empty collection uses DefaultCollection.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreStore{
		client:     client,
		collection: collection,
	}
}

type docFields struct {
	Kind      string    `firestore:"kind"`
	Title     string    `firestore:"title"`
	Content   string    `firestore:"content"`
	Version   int       `firestore:"version"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type revisionFields struct {
	Version int       `firestore:"version"`
	Title   string    `firestore:"title"`
	Content string    `firestore:"content"`
	SavedAt time.Time `firestore:"savedAt"`
}

func (s *FirestoreStore) docRef(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

func (s *FirestoreStore) revisionsCollection(docID string) *firestore.CollectionRef {
	return s.docRef(docID).Collection("revisions")
}

func zeroPad(version int) string {
	return fmt.Sprintf("%010d", version)
}

// mapErr turns gRPC status codes into the package sentinels.
func mapErr(err error, id string) error {
	switch status.Code(err) {
	case codes.OK:
		return err
	case codes.NotFound:
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %q", ErrExists, id)
	}
	return err
}

func (s *FirestoreStore) Create(ctx context.Context, doc Document) error {
	now := time.Now()
	_, err := s.docRef(doc.ID).Create(ctx, docFields{
		Kind:      string(doc.Kind),
		Title:     doc.Title,
		Content:   string(doc.Content),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return mapErr(err, doc.ID)
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*Document, error) {
	snap, err := s.docRef(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err, id)
	}
	return snapshotToDocument(snap)
}

func snapshotToDocument(snap *firestore.DocumentSnapshot) (*Document, error) {
	var f docFields
	if err := snap.DataTo(&f); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", snap.Ref.ID, err)
	}
	return &Document{
		ID:        snap.Ref.ID,
		Kind:      document.Kind(f.Kind),
		Title:     f.Title,
		Content:   json.RawMessage(f.Content),
		Version:   f.Version,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}, nil
}

func (s *FirestoreStore) List(ctx context.Context, kind document.Kind) ([]Document, error) {
	q := s.client.Collection(s.collection).Query
	if kind != "" {
		q = q.Where("kind", "==", string(kind))
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		doc, err := snapshotToDocument(snap)
		if err != nil {
			return nil, err
		}
		result = append(result, *doc)
	}
	sortNewestFirst(result)
	return result, nil
}

func (s *FirestoreStore) UpdateContent(ctx context.Context, id, title string, content json.RawMessage, version int) error {
	_, err := s.docRef(id).Update(ctx, []firestore.Update{
		{Path: "title", Value: title},
		{Path: "content", Value: string(content)},
		{Path: "version", Value: version},
		{Path: "updatedAt", Value: time.Now()},
	})
	return mapErr(err, id)
}

// Delete removes the document and its revisions.
func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := s.docRef(id).Get(ctx); err != nil {
		return mapErr(err, id)
	}

	bw := s.client.BulkWriter(ctx)
	iter := s.revisionsCollection(id).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			bw.End()
			return err
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			bw.End()
			return err
		}
	}
	bw.End()

	_, err := s.docRef(id).Delete(ctx)
	return mapErr(err, id)
}

func (s *FirestoreStore) AppendRevision(ctx context.Context, id string, rev Revision) error {
	if rev.Version < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, rev.Version)
	}
	if rev.SavedAt.IsZero() {
		rev.SavedAt = time.Now()
	}
	_, err := s.revisionsCollection(id).Doc(zeroPad(rev.Version)).Set(ctx, revisionFields{
		Version: rev.Version,
		Title:   rev.Title,
		Content: string(rev.Content),
		SavedAt: rev.SavedAt,
	})
	return mapErr(err, id)
}

func (s *FirestoreStore) GetRevisions(ctx context.Context, id string, fromVersion int) ([]Revision, error) {
	if fromVersion < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, fromVersion)
	}
	// Verify document exists.
	if _, err := s.docRef(id).Get(ctx); err != nil {
		return nil, mapErr(err, id)
	}

	iter := s.revisionsCollection(id).
		OrderBy(firestore.DocumentID, firestore.Asc).
		StartAfter(zeroPad(fromVersion)).
		Documents(ctx)
	defer iter.Stop()

	var revs []Revision
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var f revisionFields
		if err := snap.DataTo(&f); err != nil {
			return nil, fmt.Errorf("decode revision %s: %w", snap.Ref.ID, err)
		}
		revs = append(revs, Revision{
			Version: f.Version,
			Title:   f.Title,
			Content: json.RawMessage(f.Content),
			SavedAt: f.SavedAt,
		})
	}
	return revs, nil
}
