/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/suparena/contentgate"
)

// NewRouter mounts the content routes under /content next to health and
// version endpoints.
func NewRouter(h *ContentHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	RoutesHealthz(r)
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, contentgate.GetVersionInfo())
	})
	r.Mount("/content", h.Routes())
	return r
}

// RoutesHealthz registers the liveness probe.
func RoutesHealthz(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})
}
