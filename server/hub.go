package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alimasry/resume-editor/document"
	"github.com/alimasry/resume-editor/editor"
	"github.com/alimasry/resume-editor/store"
)

type joinRequest struct {
	client *Client
	docID  string
	kind   document.Kind
}

type evictRequest struct {
	docID  string
	reason string
	done   chan struct{}
}

// Hub manages document sessions and routes clients to the right session.
// The sessions map is owned by the Run goroutine.
type Hub struct {
	store    store.DocumentStore
	opts     Options
	sessions map[string]*Session
	now      func() time.Time
	log      *slog.Logger

	joinDoc chan joinRequest
	release chan *Session
	evict   chan evictRequest
	lookup  chan lookupRequest
	quit    chan struct{}
	done    chan struct{}
}

type lookupRequest struct {
	docID string
	reply chan *Session
}

func NewHub(st store.DocumentStore, opts Options) *Hub {
	return &Hub{
		store:    st,
		opts:     opts,
		sessions: make(map[string]*Session),
		now:      time.Now,
		log:      slog.With("component", "hub"),
		joinDoc:  make(chan joinRequest, 64),
		release:  make(chan *Session, 16),
		evict:    make(chan evictRequest),
		lookup:   make(chan lookupRequest),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns after Close.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case req := <-h.joinDoc:
			h.handleJoinDoc(req)
		case s := <-h.release:
			h.handleRelease(s)
		case req := <-h.evict:
			if s, ok := h.sessions[req.docID]; ok {
				delete(h.sessions, req.docID)
				s.halt(stopRequest{reason: req.reason})
			}
			close(req.done)
		case req := <-h.lookup:
			req.reply <- h.sessions[req.docID]
		case <-h.quit:
			for id, s := range h.sessions {
				s.halt(stopRequest{save: true, reason: "server shutting down"})
				delete(h.sessions, id)
			}
			return
		}
	}
}

// Close saves and stops every session, then stops the hub loop.
func (h *Hub) Close() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
	<-h.done
}

// join queues a join request. It reports false once the hub has stopped.
func (h *Hub) join(req joinRequest) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.joinDoc <- req:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) handleJoinDoc(req joinRequest) {
	log := h.log.With("doc", req.docID)
	if req.docID == "" {
		req.client.refuseJoin("docId required")
		return
	}

	s, ok := h.sessions[req.docID]
	if !ok {
		var err error
		s, err = h.openSession(context.Background(), req.docID, req.kind)
		if err != nil {
			log.Error("open session failed", "error", err)
			req.client.refuseJoin(err.Error())
			return
		}
	}
	if req.kind != "" && req.kind != s.buf.Kind() {
		req.client.refuseJoin(fmt.Sprintf("document %s is a %s", req.docID, s.buf.Kind()))
		return
	}
	if !ok {
		h.sessions[req.docID] = s
		go s.Run()
		log.Info("session opened", "kind", s.buf.Kind(), "version", s.version)
	}

	s.join <- req.client
}

// openSession loads the document, creating it with the kind's blank
// content if it does not exist yet.
func (h *Hub) openSession(ctx context.Context, docID string, kind document.Kind) (*Session, error) {
	doc, err := h.store.Get(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		doc, err = h.createDocument(ctx, docID, kind)
	}
	if err != nil {
		return nil, err
	}

	buf, err := editor.Open(doc.Kind, doc.Content, h.now(), h.opts.Editor)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", docID, err)
	}
	s := newSession(docID, buf, doc.Version, h.store, h.opts)
	s.now = h.now
	s.onIdle = h.releaseLater
	return s, nil
}

func (h *Hub) createDocument(ctx context.Context, docID string, kind document.Kind) (*store.Document, error) {
	if kind == "" {
		kind = document.KindResume
	}
	content, err := document.Blank(kind, h.now())
	if err != nil {
		return nil, err
	}
	title, err := document.TitleOf(kind, content)
	if err != nil {
		return nil, err
	}
	if err := h.store.Create(ctx, store.Document{ID: docID, Kind: kind, Title: title, Content: content}); err != nil {
		return nil, fmt.Errorf("create document %s: %w", docID, err)
	}
	return h.store.Get(ctx, docID)
}

// releaseLater asks the hub loop to retire an idle session. It runs on the
// session goroutine and must not block on the hub.
func (h *Hub) releaseLater(s *Session) {
	go func() {
		select {
		case h.release <- s:
		case <-h.done:
		}
	}()
}

func (h *Hub) handleRelease(s *Session) {
	if h.sessions[s.docID] != s {
		return
	}
	reply := make(chan bool)
	select {
	case s.retire <- reply:
	case <-s.done:
		delete(h.sessions, s.docID)
		return
	}
	if <-reply {
		delete(h.sessions, s.docID)
		h.log.Info("session closed", "doc", s.docID)
	}
}

// GetSession returns the session for a document, if active.
func (h *Hub) GetSession(docID string) *Session {
	reply := make(chan *Session, 1)
	select {
	case h.lookup <- lookupRequest{docID: docID, reply: reply}:
		return <-reply
	case <-h.done:
		return nil
	}
}

// Replace commits content as the whole document in its live session and
// saves it. It reports false when the document has no live session.
func (h *Hub) Replace(docID string, content json.RawMessage) (bool, error) {
	s := h.GetSession(docID)
	if s == nil {
		return false, nil
	}
	var replaceErr error
	if err := s.call(func() { replaceErr = s.replace(content) }); err != nil {
		// Retired in the meantime; its last state is in the store.
		return false, nil
	}
	return true, replaceErr
}

// Evict stops the document's live session without saving and disconnects
// its clients with reason.
func (h *Hub) Evict(docID, reason string) {
	done := make(chan struct{})
	select {
	case h.evict <- evictRequest{docID: docID, reason: reason, done: done}:
		<-done
	case <-h.done:
	}
}

// Buffer runs fn against the live buffer of a document, serialised with
// the session's edits. It reports false when there is no live session.
func (h *Hub) Buffer(docID string, fn func(editor.Buffer)) bool {
	s := h.GetSession(docID)
	if s == nil {
		return false
	}
	return s.call(func() { fn(s.buf) }) == nil
}
