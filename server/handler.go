package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/alimasry/resume-editor/document"
	"github.com/alimasry/resume-editor/editor"
	"github.com/alimasry/resume-editor/logger"
	"github.com/alimasry/resume-editor/store"
)

// HandlerOptions configure the HTTP surface.
type HandlerOptions struct {
	// AllowedOrigins lists the origins allowed to open WebSockets. Empty
	// allows any origin.
	AllowedOrigins []string
}

type api struct {
	hub      *Hub
	store    store.DocumentStore
	upgrader websocket.Upgrader
}

// NewHandler creates the HTTP handler with all routes.
func NewHandler(hub *Hub, opts HandlerOptions) http.Handler {
	a := &api{
		hub:   hub,
		store: hub.store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(opts.AllowedOrigins) == 0 {
					return true
				}
				return slices.Contains(opts.AllowedOrigins, r.Header.Get("Origin"))
			},
		},
	}

	engine := gin.New()
	engine.Use(requestID(), requestLogger(), gin.CustomRecovery(recovered))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	a.documentRoutes(engine.Group("/api/resumes"), document.KindResume)
	a.documentRoutes(engine.Group("/api/cover-letters"), document.KindCoverLetter)
	a.personaRoutes(engine.Group("/api/profiles"))
	engine.GET("/api/documents/:id/revisions", a.handleRevisions)
	engine.GET("/api/documents/:id/ats", a.handleATS)

	// WebSocket endpoint.
	engine.GET("/ws", a.handleWebSocket)

	return engine
}

func (a *api) documentRoutes(g *gin.RouterGroup, kind document.Kind) {
	g.GET("", a.handleList(kind))
	g.POST("", a.handleCreate(kind))
	g.GET("/:id", a.handleGet(kind))
	g.PUT("/:id", a.handlePut(kind))
	g.DELETE("/:id", a.handleDelete(kind))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "request failed", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "request rejected", attrs...)
		default:
			slog.InfoContext(ctx, "request", attrs...)
		}
	}
}

func recovered(c *gin.Context, err any) {
	slog.ErrorContext(c.Request.Context(), "panic recovered", "error", err, "path", c.Request.URL.Path)
	respondError(c, newAPIError(http.StatusInternalServerError, "unexpected server error"))
}

// documentRequest is the body of POST and PUT. Content may be partial;
// missing fields take the kind's defaults.
type documentRequest struct {
	ID      string          `json:"id"`
	Content json.RawMessage `json:"content"`
}

// documentResponse is a stored document plus its ATS findings.
type documentResponse struct {
	store.Document
	Live      bool     `json:"live"`
	ATSIssues []string `json:"atsIssues"`
}

type documentSummary struct {
	ID        string        `json:"id"`
	Kind      document.Kind `json:"kind"`
	Title     string        `json:"title"`
	Version   int           `json:"version"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (a *api) handleList(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := a.store.List(c.Request.Context(), kind)
		if err != nil {
			respondError(c, toAPIError(err))
			return
		}
		out := make([]documentSummary, 0, len(docs))
		for _, d := range docs {
			out = append(out, documentSummary{
				ID: d.ID, Kind: d.Kind, Title: d.Title, Version: d.Version,
				CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

// normalize fills defaults into content and validates it. A cover letter
// may only name a stored persona.
func (a *api) normalize(ctx context.Context, kind document.Kind, raw json.RawMessage) (editor.Buffer, json.RawMessage, error) {
	buf, err := editor.Open(kind, raw, a.hub.now(), a.hub.opts.Editor)
	if err != nil {
		return nil, nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, nil, err
	}
	content, err := buf.Content()
	if err != nil {
		return nil, nil, err
	}
	if kind == document.KindCoverLetter {
		if err := a.checkPersonaRef(ctx, content); err != nil {
			return nil, nil, err
		}
	}
	return buf, content, nil
}

func (a *api) handleCreate(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req documentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, newAPIError(http.StatusBadRequest, "invalid json"))
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		buf, content, err := a.normalize(c.Request.Context(), kind, req.Content)
		if err != nil {
			respondError(c, toAPIError(err))
			return
		}
		ctx := c.Request.Context()
		doc := store.Document{ID: req.ID, Kind: kind, Title: buf.Title(), Content: content}
		if err := a.store.Create(ctx, doc); err != nil {
			respondError(c, toAPIError(err))
			return
		}
		created, err := a.store.Get(ctx, req.ID)
		if err != nil {
			respondError(c, toAPIError(err))
			return
		}
		c.JSON(http.StatusCreated, documentResponse{Document: *created, ATSIssues: buf.ATSIssues()})
	}
}

// load fetches a stored document of kind, answering 404 for other kinds.
func (a *api) load(c *gin.Context, kind document.Kind) (*store.Document, bool) {
	doc, err := a.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, toAPIError(err))
		return nil, false
	}
	if kind != "" && doc.Kind != kind {
		respondError(c, newAPIError(http.StatusNotFound, "no "+string(kind)+" "+doc.ID))
		return nil, false
	}
	return doc, true
}

// withLive overlays the live session state on a stored document.
func (a *api) withLive(doc *store.Document) (documentResponse, error) {
	resp := documentResponse{Document: *doc}
	var liveErr error
	resp.Live = a.hub.Buffer(doc.ID, func(buf editor.Buffer) {
		resp.Title = buf.Title()
		resp.ATSIssues = buf.ATSIssues()
		resp.Content, liveErr = buf.Content()
	})
	if liveErr != nil {
		return resp, liveErr
	}
	if !resp.Live {
		buf, err := editor.Open(doc.Kind, doc.Content, a.hub.now(), a.hub.opts.Editor)
		if err != nil {
			return resp, err
		}
		resp.ATSIssues = buf.ATSIssues()
	}
	return resp, nil
}

func (a *api) handleGet(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok := a.load(c, kind)
		if !ok {
			return
		}
		resp, err := a.withLive(doc)
		if err != nil {
			respondError(c, toAPIError(err))
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (a *api) handlePut(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req documentRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Content) == 0 {
			respondError(c, newAPIError(http.StatusBadRequest, "content required"))
			return
		}
		doc, ok := a.load(c, kind)
		if !ok {
			return
		}
		buf, content, err := a.normalize(c.Request.Context(), kind, req.Content)
		if err != nil {
			respondError(c, toAPIError(err))
			return
		}

		live, err := a.hub.Replace(doc.ID, content)
		if err != nil {
			respondError(c, toAPIError(err))
			return
		}
		ctx := c.Request.Context()
		if !live {
			// Re-read in case a session saved while we were validating.
			if doc, ok = a.load(c, kind); !ok {
				return
			}
			version := doc.Version + 1
			rev := store.Revision{Version: version, Title: buf.Title(), Content: content}
			if err := a.store.AppendRevision(ctx, doc.ID, rev); err != nil {
				respondError(c, toAPIError(err))
				return
			}
			if err := a.store.UpdateContent(ctx, doc.ID, buf.Title(), content, version); err != nil {
				respondError(c, toAPIError(err))
				return
			}
		}

		updated, err := a.store.Get(ctx, doc.ID)
		if err != nil {
			respondError(c, toAPIError(err))
			return
		}
		c.JSON(http.StatusOK, documentResponse{Document: *updated, Live: live, ATSIssues: buf.ATSIssues()})
	}
}

func (a *api) handleDelete(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok := a.load(c, kind)
		if !ok {
			return
		}
		a.hub.Evict(doc.ID, "document deleted")
		if err := a.store.Delete(c.Request.Context(), doc.ID); err != nil {
			respondError(c, toAPIError(err))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (a *api) handleRevisions(c *gin.Context) {
	from := 0
	if v := c.Query("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, newAPIError(http.StatusBadRequest, "from must be an integer"))
			return
		}
		from = n
	}
	revs, err := a.store.GetRevisions(c.Request.Context(), c.Param("id"), from)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	if revs == nil {
		revs = []store.Revision{}
	}
	c.JSON(http.StatusOK, revs)
}

func (a *api) handleATS(c *gin.Context) {
	doc, ok := a.load(c, "")
	if !ok {
		return
	}
	if _, err := document.ParseKind(string(doc.Kind)); err != nil {
		respondError(c, newAPIError(http.StatusNotFound, "no editable document "+doc.ID))
		return
	}
	resp, err := a.withLive(doc)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	issues := resp.ATSIssues
	if issues == nil {
		issues = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"id": doc.ID, "live": resp.Live, "issues": issues})
}

func (a *api) handleWebSocket(c *gin.Context) {
	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	client := newClient(a.hub, conn)
	go client.WritePump()
	go client.ReadPump()
}
