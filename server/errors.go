package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alimasry/resume-editor/document"
	"github.com/alimasry/resume-editor/logger"
	"github.com/alimasry/resume-editor/store"
)

// apiError is the JSON body of every failed REST response.
type apiError struct {
	Code      int                   `json:"code"`
	Message   string                `json:"message"`
	Detail    string                `json:"detail,omitempty"`
	Fields    []document.FieldError `json:"fields,omitempty"`
	RequestID string                `json:"request_id,omitempty"`
}

func newAPIError(code int, detail string) *apiError {
	return &apiError{Code: code, Message: http.StatusText(code), Detail: detail}
}

func (e *apiError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// toAPIError maps package sentinels to HTTP status codes.
func toAPIError(err error) *apiError {
	var verr *document.ValidationError
	switch {
	case errors.As(err, &verr):
		e := newAPIError(http.StatusUnprocessableEntity, err.Error())
		e.Fields = verr.Fields
		return e
	case errors.Is(err, errUnknownPersona):
		return newAPIError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return newAPIError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrExists):
		return newAPIError(http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidVersion),
		errors.Is(err, document.ErrInvalidValue),
		errors.Is(err, document.ErrUnknownKind),
		errors.Is(err, errLastPersona):
		return newAPIError(http.StatusBadRequest, err.Error())
	}
	return newAPIError(http.StatusInternalServerError, err.Error())
}

func respondError(c *gin.Context, e *apiError) {
	e.RequestID = logger.GetRequestID(c.Request.Context())
	c.AbortWithStatusJSON(e.Code, e)
}
