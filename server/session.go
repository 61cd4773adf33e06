package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alimasry/resume-editor/document"
	"github.com/alimasry/resume-editor/editor"
	"github.com/alimasry/resume-editor/store"
)

var errSessionClosed = errors.New("session closed")

// Options control editing sessions.
type Options struct {
	Editor editor.Options
	// CommitDelay is how long transient edits wait before they are
	// checkpointed. Zero leaves them pending until the next commit.
	CommitDelay time.Duration
	// AutosaveInterval is how often unsaved changes are written to the
	// store. Zero disables periodic saves.
	AutosaveInterval time.Duration
}

type inbound struct {
	client *Client
	msg    ClientMessage
}

type sessionCall struct {
	fn   func()
	done chan struct{}
}

type stopRequest struct {
	save   bool
	reason string // sent to clients when non-empty
}

// Session manages editing for a single document.
// All edits are serialized through a single goroutine.
type Session struct {
	docID   string
	buf     editor.Buffer
	version int // last saved revision
	store   store.DocumentStore
	opts    Options
	clients map[*Client]bool
	log     *slog.Logger
	now     func() time.Time

	// onIdle is called from the session goroutine when the last client
	// leaves. It must not block.
	onIdle func(*Session)

	incoming chan inbound
	join     chan *Client
	leave    chan *Client
	calls    chan sessionCall
	retire   chan chan bool
	stop     chan stopRequest
	done     chan struct{}
}

func newSession(docID string, buf editor.Buffer, version int, st store.DocumentStore, opts Options) *Session {
	return &Session{
		docID:    docID,
		buf:      buf,
		version:  version,
		store:    st,
		opts:     opts,
		clients:  make(map[*Client]bool),
		log:      slog.With("doc", docID, "kind", buf.Kind()),
		now:      time.Now,
		onIdle:   func(*Session) {},
		incoming: make(chan inbound, 64),
		join:     make(chan *Client, 16),
		leave:    make(chan *Client, 16),
		calls:    make(chan sessionCall),
		retire:   make(chan chan bool),
		stop:     make(chan stopRequest),
		done:     make(chan struct{}),
	}
}

// Run is the session's main loop. It serializes all edits.
func (s *Session) Run() {
	defer close(s.done)

	commitTimer := time.NewTimer(time.Hour)
	commitTimer.Stop()
	defer commitTimer.Stop()

	var autosave <-chan time.Time
	if s.opts.AutosaveInterval > 0 {
		ticker := time.NewTicker(s.opts.AutosaveInterval)
		defer ticker.Stop()
		autosave = ticker.C
	}

	for {
		select {
		case c := <-s.join:
			s.handleJoin(c)
		case c := <-s.leave:
			s.handleLeave(c)
		case in := <-s.incoming:
			if s.handleMessage(in) && s.opts.CommitDelay > 0 {
				commitTimer.Reset(s.opts.CommitDelay)
			}
		case <-commitTimer.C:
			if s.buf.Commit() {
				s.broadcastState("")
			}
		case <-autosave:
			s.autosave("interval")
		case call := <-s.calls:
			call.fn()
			close(call.done)
		case reply := <-s.retire:
			if len(s.clients) > 0 || len(s.join) > 0 {
				reply <- false
				continue
			}
			s.autosave("idle")
			reply <- true
			return
		case req := <-s.stop:
			if req.save {
				s.autosave("shutdown")
			}
			for c := range s.clients {
				if req.reason != "" {
					c.sendError(req.reason)
				}
				c.detach()
			}
			s.refusePendingJoins(req.reason)
			return
		}
	}
}

// refusePendingJoins turns away clients whose join was queued before the
// session stopped.
func (s *Session) refusePendingJoins(reason string) {
	if reason == "" {
		reason = "document closed"
	}
	for {
		select {
		case c := <-s.join:
			c.refuseJoin(reason)
			c.detach()
		default:
			return
		}
	}
}

// Close saves unsaved changes, disconnects all clients and waits for the
// session goroutine to exit.
func (s *Session) Close() {
	s.halt(stopRequest{save: true})
}

func (s *Session) halt(req stopRequest) {
	select {
	case s.stop <- req:
	case <-s.done:
	}
	<-s.done
}

// call runs fn on the session goroutine and waits for it.
func (s *Session) call(fn func()) error {
	done := make(chan struct{})
	select {
	case s.calls <- sessionCall{fn: fn, done: done}:
	case <-s.done:
		return errSessionClosed
	}
	<-done
	return nil
}

func (s *Session) handleJoin(c *Client) {
	s.clients[c] = true
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	// Send current document state to the joining client.
	msg := s.stateMessage(MsgDoc, "")
	msg.Clients = s.clientInfos()
	c.sendMsg(msg)

	// Notify other clients about the new user.
	for other := range s.clients {
		if other != c {
			other.sendMsg(ServerMessage{
				Type:     MsgJoin,
				ClientID: c.ID,
				Name:     c.Name,
				Color:    c.Color,
			})
		}
	}
	c.settleJoin(true)
}

func (s *Session) handleLeave(c *Client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	c.detach()

	// Notify others.
	for other := range s.clients {
		other.sendMsg(ServerMessage{
			Type:     MsgLeave,
			ClientID: c.ID,
		})
	}

	if len(s.clients) == 0 {
		s.autosave("last client left")
		s.onIdle(s)
	}
}

// handleMessage applies one client message. It reports whether the message
// left transient edits that the commit timer should checkpoint.
func (s *Session) handleMessage(in inbound) (transient bool) {
	msg := in.msg
	var err error
	changed := true

	switch msg.Type {
	case MsgSet:
		err = s.buf.Set(msg.Path, msg.Value)
	case MsgRemove:
		err = s.buf.Remove(msg.Path)
	case MsgUpdate:
		err = s.buf.Update(msg.Path, msg.Value)
		transient = err == nil
	case MsgEdit:
		if msg.Delta == nil {
			err = errors.New("edit requires a delta")
			break
		}
		err = s.buf.Edit(msg.Path, *msg.Delta)
		transient = err == nil
	case MsgCommit:
		changed = s.buf.Commit()
	case MsgUndo:
		changed = s.buf.Undo()
	case MsgRedo:
		changed = s.buf.Redo()
	case MsgSave:
		s.handleSave(in.client)
		return false
	case MsgRestore:
		err = s.restoreRevision(msg.Version)
	case MsgATS:
		in.client.sendMsg(ServerMessage{Type: MsgATS, DocID: s.docID, Issues: s.buf.ATSIssues()})
		return false
	default:
		err = fmt.Errorf("unknown message type: %s", msg.Type)
	}

	if err != nil {
		s.log.Debug("rejected message", "type", msg.Type, "path", msg.Path, "error", err)
		in.client.sendError(err.Error())
		return false
	}
	if changed {
		s.broadcastState(in.client.ID)
	} else {
		in.client.sendMsg(s.stateMessage(MsgState, ""))
	}
	return transient
}

func (s *Session) handleSave(c *Client) {
	if err := s.save(context.Background()); err != nil {
		msg := ServerMessage{Type: MsgError, DocID: s.docID, Message: err.Error()}
		var verr *document.ValidationError
		if errors.As(err, &verr) {
			msg.Fields = verr.Fields
		}
		c.sendMsg(msg)
		return
	}
	c.sendMsg(ServerMessage{Type: MsgSaved, DocID: s.docID, Title: s.buf.Title(), Version: s.version})
	s.broadcastState(c.ID)
}

// save validates the present document and writes it as a new revision.
func (s *Session) save(ctx context.Context) error {
	if err := s.buf.Validate(); err != nil {
		return err
	}
	content, err := s.buf.Content()
	if err != nil {
		return err
	}
	title := s.buf.Title()
	version := s.version + 1
	rev := store.Revision{Version: version, Title: title, Content: content, SavedAt: s.now()}
	if err := s.store.AppendRevision(ctx, s.docID, rev); err != nil {
		return fmt.Errorf("save revision %d: %w", version, err)
	}
	// The revision is stored, so the next save must follow it even when
	// the content write below fails.
	s.version = version
	if err := s.store.UpdateContent(ctx, s.docID, title, content, version); err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	s.buf.MarkSaved()
	s.log.Info("saved", "version", version)
	return nil
}

// autosave saves when there are unsaved changes. Failures are logged.
func (s *Session) autosave(reason string) {
	if !s.buf.Status().Unsaved {
		return
	}
	if err := s.save(context.Background()); err != nil {
		s.log.Warn("autosave failed", "reason", reason, "error", err)
		return
	}
	s.broadcastState("")
}

func (s *Session) restoreRevision(version int) error {
	if version < 1 || version > s.version {
		return fmt.Errorf("%w: %d", store.ErrInvalidVersion, version)
	}
	revs, err := s.store.GetRevisions(context.Background(), s.docID, version-1)
	if err != nil {
		return err
	}
	if len(revs) == 0 || revs[0].Version != version {
		return fmt.Errorf("%w: %d", store.ErrInvalidVersion, version)
	}
	return s.buf.Restore(revs[0].Content)
}

// replace commits content as the whole document and saves it.
func (s *Session) replace(content []byte) error {
	if err := s.buf.Restore(content); err != nil {
		return err
	}
	if err := s.save(context.Background()); err != nil {
		// Keep the edit as an undoable step so clients stay in sync.
		s.broadcastState("")
		return err
	}
	s.broadcastState("")
	return nil
}

func (s *Session) stateMessage(typ, origin string) ServerMessage {
	content, err := s.buf.Content()
	if err != nil {
		s.log.Error("encode content", "error", err)
	}
	st := s.buf.Status()
	return ServerMessage{
		Type:     typ,
		DocID:    s.docID,
		Kind:     s.buf.Kind(),
		Title:    s.buf.Title(),
		Content:  content,
		Version:  s.version,
		Status:   &st,
		ClientID: origin,
	}
}

// broadcastState sends the current state to every client. origin is the
// client whose message caused the change, empty for server-side changes.
func (s *Session) broadcastState(origin string) {
	msg := s.stateMessage(MsgState, origin)
	for c := range s.clients {
		c.sendMsg(msg)
	}
}

func (s *Session) clientInfos() []ClientInfo {
	infos := make([]ClientInfo, 0, len(s.clients))
	for c := range s.clients {
		infos = append(infos, c.Info())
	}
	return infos
}
