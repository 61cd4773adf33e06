package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alimasry/resume-editor/document"
)

func newDoc(id string, kind document.Kind, content string) Document {
	return Document{ID: id, Kind: kind, Title: id, Content: json.RawMessage(content)}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, newDoc("doc1", document.KindResume, `{"title":"a"}`)); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Get(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if string(doc.Content) != `{"title":"a"}` || doc.Version != 0 || doc.ID != "doc1" || doc.Kind != document.KindResume {
		t.Errorf("unexpected doc: %+v", doc)
	}
	if doc.CreatedAt.IsZero() || !doc.CreatedAt.Equal(doc.UpdatedAt) {
		t.Errorf("timestamps not set: %+v", doc)
	}
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Create(ctx, newDoc("doc1", document.KindResume, `{}`))
	err := s.Create(ctx, newDoc("doc1", document.KindResume, `{}`))
	if !errors.Is(err, ErrExists) {
		t.Errorf("got %v, want ErrExists", err)
	}
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.Create(ctx, newDoc("doc1", document.KindResume, `{"a":1}`))

	doc, _ := s.Get(ctx, "doc1")
	doc.Content[1] = 'X'

	again, _ := s.Get(ctx, "doc1")
	if string(again.Content) != `{"a":1}` {
		t.Errorf("stored content changed: %s", again.Content)
	}
}

func TestMemoryStore_List(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	s.Create(ctx, newDoc("a", document.KindResume, `{}`))
	s.Create(ctx, newDoc("b", document.KindCoverLetter, `{}`))
	s.Create(ctx, newDoc("c", document.KindResume, `{}`))

	docs, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}
	if docs[0].ID != "c" || docs[2].ID != "a" {
		t.Errorf("want newest first, got %s..%s", docs[0].ID, docs[2].ID)
	}

	resumes, _ := s.List(ctx, document.KindResume)
	if len(resumes) != 2 {
		t.Errorf("got %d resumes, want 2", len(resumes))
	}
	letters, _ := s.List(ctx, document.KindCoverLetter)
	if len(letters) != 1 || letters[0].ID != "b" {
		t.Errorf("unexpected cover letters: %+v", letters)
	}
}

func TestMemoryStore_UpdateContent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Create(ctx, newDoc("doc1", document.KindResume, `{}`))
	if err := s.UpdateContent(ctx, "doc1", "Ada", json.RawMessage(`{"title":"Ada"}`), 1); err != nil {
		t.Fatal(err)
	}

	doc, _ := s.Get(ctx, "doc1")
	if string(doc.Content) != `{"title":"Ada"}` || doc.Version != 1 || doc.Title != "Ada" {
		t.Errorf("unexpected: %+v", doc)
	}

	err := s.UpdateContent(ctx, "nope", "", json.RawMessage(`{}`), 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Create(ctx, newDoc("doc1", document.KindResume, `{}`))
	if err := s.Delete(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "doc1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v after delete, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "doc1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Revisions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Create(ctx, newDoc("doc1", document.KindCoverLetter, `{}`))

	for v := 1; v <= 3; v++ {
		rev := Revision{Version: v, Content: json.RawMessage(`{"v":` + strconv.Itoa(v) + `}`)}
		if err := s.AppendRevision(ctx, "doc1", rev); err != nil {
			t.Fatal(err)
		}
	}

	revs, err := s.GetRevisions(ctx, "doc1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 3 {
		t.Fatalf("got %d revisions, want 3", len(revs))
	}
	if revs[0].SavedAt.IsZero() {
		t.Error("SavedAt not set")
	}

	revs, err = s.GetRevisions(ctx, "doc1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 1 || revs[0].Version != 3 || string(revs[0].Content) != `{"v":3}` {
		t.Errorf("unexpected revisions from 2: %+v", revs)
	}

	if _, err := s.GetRevisions(ctx, "doc1", 4); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("got %v, want ErrInvalidVersion", err)
	}
	if err := s.AppendRevision(ctx, "doc1", Revision{Version: 7}); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("out of order append: got %v, want ErrInvalidVersion", err)
	}
	if err := s.AppendRevision(ctx, "nope", Revision{Version: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
