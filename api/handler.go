/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/suparena/contentgate"
	"github.com/suparena/contentgate/errors"
)

// Lock tokens are read from the query string first, then from the header.
const (
	LockUIDParam  = "lockUid"
	LockUIDHeader = "X-Lock-UID"
	ForceParam    = "force"
)

// ContentHandler exposes a Gateway over HTTP.
type ContentHandler struct {
	gw      *contentgate.Gateway
	callers CallerResolver
	logger  *zap.Logger
}

// HandlerOption configures a ContentHandler.
type HandlerOption func(*ContentHandler)

// WithLogger sets the logger used for rejected requests.
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *ContentHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewContentHandler creates a handler for gw. callers resolves the Caller of
// each request.
func NewContentHandler(gw *contentgate.Gateway, callers CallerResolver, opts ...HandlerOption) *ContentHandler {
	h := &ContentHandler{gw: gw, callers: callers, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the content routes, to be mounted under a prefix such as
// /content.
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/{model}", func(r chi.Router) {
		r.Get("/", h.Find)
		r.Post("/", h.Create)
		r.Post("/actions/bulkDelete", h.BulkDelete)

		r.Get("/{id}", h.FindOne)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/actions/publish", h.Publish)
		r.Post("/{id}/actions/unpublish", h.Unpublish)

		// Routes for edit locks
		r.Post("/{id}/lock", h.SetLock)
		r.Put("/{id}/lock", h.ExtendLock)
		r.Delete("/{id}/lock", h.Unlock)
		r.Get("/{id}/lock", h.LockInfo)
	})

	return r
}

// BulkDeleteRequest is the request body of a bulk delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDeleteResponse lists the deleted entities.
type BulkDeleteResponse struct {
	Results []map[string]any `json:"results"`
	Count   int              `json:"count"`
}

// Find lists entities of a model.
func (h *ContentHandler) Find(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	query, err := ParseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.gw.Find(r.Context(), caller, chi.URLParam(r, "model"), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// FindOne returns one entity.
func (h *ContentHandler) FindOne(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	out, err := h.gw.FindOne(r.Context(), caller, chi.URLParam(r, "model"), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, out)
}

// Create stores a new entity.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	body, ok := h.decode(w, r)
	if !ok {
		return
	}
	out, err := h.gw.Create(r.Context(), caller, chi.URLParam(r, "model"), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, out)
}

// Update writes the request body onto an entity.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	body, ok := h.decode(w, r)
	if !ok {
		return
	}
	out, err := h.gw.Update(r.Context(), caller, chi.URLParam(r, "model"), chi.URLParam(r, "id"), lockUID(r), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, out)
}

// Delete removes an entity and returns it.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	out, err := h.gw.Delete(r.Context(), caller, chi.URLParam(r, "model"), chi.URLParam(r, "id"), lockUID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, out)
}

// Publish publishes a draft.
func (h *ContentHandler) Publish(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	out, err := h.gw.Publish(r.Context(), caller, chi.URLParam(r, "model"), chi.URLParam(r, "id"), lockUID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, out)
}

// Unpublish turns a published entity back into a draft.
func (h *ContentHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	out, err := h.gw.Unpublish(r.Context(), caller, chi.URLParam(r, "model"), chi.URLParam(r, "id"), lockUID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, out)
}

// BulkDelete deletes the listed ids that the query filters also select.
func (h *ContentHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, errors.NewValidationError("body", "invalid JSON"))
		return
	}
	query, err := ParseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	deleted, err := h.gw.BulkDelete(r.Context(), caller, chi.URLParam(r, "model"), query, req.IDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, BulkDeleteResponse{Results: deleted, Count: len(deleted)})
}

func (h *ContentHandler) caller(w http.ResponseWriter, r *http.Request) (contentgate.Caller, bool) {
	caller, err := h.callers.Resolve(r)
	if err != nil {
		h.fail(w, r, err)
		return contentgate.Caller{}, false
	}
	return caller, true
}

func (h *ContentHandler) decode(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.fail(w, r, errors.NewValidationError("body", "invalid JSON"))
		return nil, false
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, true
}

func lockUID(r *http.Request) string {
	if uid := r.URL.Query().Get(LockUIDParam); uid != "" {
		return uid
	}
	return r.Header.Get(LockUIDHeader)
}

func force(r *http.Request) (bool, error) {
	v := r.URL.Query().Get(ForceParam)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.NewValidationError(ForceParam, "must be a boolean")
	}
	return b, nil
}
