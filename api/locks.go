/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-openapi/strfmt"

	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/errors"
)

// LockResponse is returned to the holder of a lock. UID must be presented on
// later edits.
type LockResponse struct {
	UID         string          `json:"uid"`
	Model       string          `json:"model"`
	EntityID    string          `json:"entityId"`
	OwnerUserID string          `json:"ownerUserId"`
	CreatedAt   strfmt.DateTime `json:"createdAt"`
	ExpiresAt   strfmt.DateTime `json:"expiresAt"`
}

// LockInfoResponse tells an editor whether an entity is being edited.
type LockInfoResponse struct {
	Model       string           `json:"model"`
	EntityID    string           `json:"entityId"`
	IsLockFree  bool             `json:"isLockFree"`
	OwnerUserID string           `json:"ownerUserId,omitempty"`
	LockedAt    *strfmt.DateTime `json:"lockedAt,omitempty"`
	ExpiresAt   *strfmt.DateTime `json:"expiresAt,omitempty"`
	AgeSeconds  int64            `json:"ageSeconds,omitempty"`
}

func newLockResponse(l *editlock.EditLock) LockResponse {
	return LockResponse{
		UID:         l.UID,
		Model:       l.Model,
		EntityID:    l.EntityID,
		OwnerUserID: l.OwnerUserID,
		CreatedAt:   strfmt.DateTime(l.CreatedAt),
		ExpiresAt:   strfmt.DateTime(l.ExpiresAt),
	}
}

func newLockInfoResponse(info *editlock.Info) LockInfoResponse {
	resp := LockInfoResponse{
		Model:      info.Model,
		EntityID:   info.EntityID,
		IsLockFree: info.IsLockFree,
	}
	if !info.IsLockFree {
		lockedAt := strfmt.DateTime(info.LockedAt)
		expiresAt := strfmt.DateTime(info.ExpiresAt)
		resp.OwnerUserID = info.OwnerUserID
		resp.LockedAt = &lockedAt
		resp.ExpiresAt = &expiresAt
		resp.AgeSeconds = int64(info.Age.Seconds())
	}
	return resp
}

// SetLock takes the edit lock. ?force=true displaces another editor.
func (h *ContentHandler) SetLock(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	f, err := force(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lock, err := h.gw.SetLock(r.Context(), caller, chi.URLParam(r, "model"), chi.URLParam(r, "id"), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newLockResponse(lock))
}

// ExtendLock slides the expiry of the caller's lock.
func (h *ContentHandler) ExtendLock(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	uid := lockUID(r)
	if uid == "" {
		h.fail(w, r, errors.NewValidationError(LockUIDParam, "lock uid is required"))
		return
	}
	lock, err := h.gw.ExtendLock(r.Context(), caller, chi.URLParam(r, "model"), chi.URLParam(r, "id"), uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, newLockResponse(lock))
}

// Unlock releases the lock. Without ?force=true the lock uid is required.
func (h *ContentHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	f, err := force(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	uid := lockUID(r)
	if uid == "" && !f {
		h.fail(w, r, errors.NewValidationError(LockUIDParam, "lock uid is required"))
		return
	}
	if err := h.gw.Unlock(r.Context(), caller, chi.URLParam(r, "model"), chi.URLParam(r, "id"), uid, f); err != nil {
		h.fail(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// LockInfo reports who is editing the entity.
func (h *ContentHandler) LockInfo(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	info, err := h.gw.LockInfo(r.Context(), caller, chi.URLParam(r, "model"), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, newLockInfoResponse(info))
}
