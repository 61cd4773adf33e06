package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/alimasry/resume-editor/document"
	"github.com/alimasry/resume-editor/store"
)

var (
	errUnknownPersona = errors.New("unknown persona")
	errLastPersona    = errors.New("cannot delete the only persona")
)

// personaResponse flattens the persona fields next to the record metadata.
type personaResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	document.Persona
}

type personaSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	JobSector string `json:"jobSector"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (a *api) personaRoutes(g *gin.RouterGroup) {
	g.GET("", a.handleListPersonas)
	g.POST("", a.handleCreatePersona)
	g.GET("/:id", a.handleGetPersona)
	g.PUT("/:id", a.handlePutPersona)
	g.DELETE("/:id", a.handleDeletePersona)
}

func decodePersona(doc *store.Document) (document.Persona, error) {
	p, err := document.ApplyPersona(document.Persona{}, doc.Content)
	if err != nil {
		return p, fmt.Errorf("persona %s: %w", doc.ID, err)
	}
	return p, nil
}

func newPersonaResponse(doc *store.Document, p document.Persona) personaResponse {
	return personaResponse{
		ID:        doc.ID,
		Name:      p.DisplayName(),
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Persona:   p,
	}
}

func (a *api) handleListPersonas(c *gin.Context) {
	docs, err := a.store.List(c.Request.Context(), document.KindPersona)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	out := make([]personaSummary, 0, len(docs))
	for i := range docs {
		p, err := decodePersona(&docs[i])
		if err != nil {
			respondError(c, toAPIError(err))
			return
		}
		out = append(out, personaSummary{
			ID: docs[i].ID, Name: p.DisplayName(), JobSector: p.JobSector,
			FirstName: p.FirstName, LastName: p.LastName,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (a *api) handleCreatePersona(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || (len(raw) > 0 && !gjson.ValidBytes(raw)) {
		respondError(c, newAPIError(http.StatusBadRequest, "invalid json"))
		return
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	id := gjson.GetBytes(raw, "id").String()
	if id == "" {
		id = uuid.NewString()
	}
	if raw, err = sjson.DeleteBytes(raw, "id"); err != nil {
		respondError(c, newAPIError(http.StatusBadRequest, "invalid json"))
		return
	}

	p, err := document.ApplyPersona(document.NewPersona(), raw)
	if err == nil {
		err = p.Validate()
	}
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	content, err := json.Marshal(p)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}

	ctx := c.Request.Context()
	doc := store.Document{ID: id, Kind: document.KindPersona, Title: p.DisplayName(), Content: content}
	if err := a.store.Create(ctx, doc); err != nil {
		respondError(c, toAPIError(err))
		return
	}
	created, err := a.store.Get(ctx, id)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	c.JSON(http.StatusCreated, newPersonaResponse(created, p))
}

func (a *api) handleGetPersona(c *gin.Context) {
	doc, ok := a.load(c, document.KindPersona)
	if !ok {
		return
	}
	p, err := decodePersona(doc)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	c.JSON(http.StatusOK, newPersonaResponse(doc, p))
}

// handlePutPersona merges the fields present in the body into the stored
// persona.
func (a *api) handlePutPersona(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		respondError(c, newAPIError(http.StatusBadRequest, "body required"))
		return
	}
	doc, ok := a.load(c, document.KindPersona)
	if !ok {
		return
	}
	current, err := decodePersona(doc)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	p, err := document.ApplyPersona(current, raw)
	if err == nil {
		err = p.Validate()
	}
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	content, err := json.Marshal(p)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}

	ctx := c.Request.Context()
	if err := a.store.UpdateContent(ctx, doc.ID, p.DisplayName(), content, doc.Version+1); err != nil {
		respondError(c, toAPIError(err))
		return
	}
	updated, err := a.store.Get(ctx, doc.ID)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	c.JSON(http.StatusOK, newPersonaResponse(updated, p))
}

func (a *api) handleDeletePersona(c *gin.Context) {
	doc, ok := a.load(c, document.KindPersona)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	all, err := a.store.List(ctx, document.KindPersona)
	if err != nil {
		respondError(c, toAPIError(err))
		return
	}
	if len(all) <= 1 {
		respondError(c, toAPIError(errLastPersona))
		return
	}
	if err := a.store.Delete(ctx, doc.ID); err != nil {
		respondError(c, toAPIError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// checkPersonaRef rejects cover letter content naming a persona that does
// not exist.
func (a *api) checkPersonaRef(ctx context.Context, content json.RawMessage) error {
	id := gjson.GetBytes(content, "personaId").String()
	if id == "" {
		return nil
	}
	doc, err := a.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && doc.Kind != document.KindPersona) {
		return fmt.Errorf("%w: %q", errUnknownPersona, id)
	}
	return err
}
