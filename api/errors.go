/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-openapi/strfmt"
	"go.uber.org/zap"

	"github.com/suparena/contentgate/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody names the error class. Details is set for lock conflicts and
// validation failures.
type ErrorBody struct {
	Status  int            `json:"status"`
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.IsForbidden(err):
		return http.StatusForbidden
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsLockError(err), errors.IsAlreadyExists(err):
		return http.StatusConflict
	case errors.IsValidationError(err), errors.IsBackend(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func newErrorBody(err error) ErrorBody {
	body := ErrorBody{Status: Status(err), Message: err.Error()}

	var (
		conflict   *errors.LockConflictError
		bulk       *errors.BulkLockError
		validation *errors.ValidationError
	)
	switch {
	case stderrors.As(err, &bulk):
		// the aggregated causes stay in the logs
		body.Details = map[string]any{"ids": bulk.IDs}
		if errors.IsLockConflict(err) {
			body.Name = "LockConflictError"
			body.Message = fmt.Sprintf("%d %s entities could not be locked", len(bulk.IDs), bulk.Model)
		} else {
			body.Name = "BadRequestError"
			body.Message = "the request could not be completed"
		}
	case stderrors.As(err, &conflict):
		body.Name = "LockConflictError"
		body.Details = map[string]any{
			"ownerUserId": conflict.OwnerUserID,
			"since":       strfmt.DateTime(conflict.Since),
			"ageSeconds":  int64(conflict.Age.Seconds()),
		}
	case errors.IsLockMismatch(err):
		body.Name = "LockMismatchError"
	case errors.IsLockNotFound(err):
		body.Name = "LockNotFoundError"
	case errors.IsForbidden(err):
		body.Name = "ForbiddenError"
	case errors.IsNotFound(err):
		body.Name = "NotFoundError"
	case errors.IsAlreadyExists(err):
		body.Name = "AlreadyExistsError"
	case stderrors.As(err, &validation):
		body.Name = "ValidationError"
		if validation.Field != "" {
			body.Details = map[string]any{"field": validation.Field}
		}
	case errors.IsBackend(err):
		// storage details stay in the logs
		body.Name = "BadRequestError"
		body.Message = "the request could not be completed"
	default:
		body.Name = "InternalServerError"
		body.Message = http.StatusText(http.StatusInternalServerError)
	}
	return body
}

func (h *ContentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	body := newErrorBody(err)
	if body.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	} else {
		h.logger.Debug("request rejected",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", body.Status),
			zap.Error(err))
	}
	render.Status(r, body.Status)
	render.JSON(w, r, ErrorResponse{Error: body})
}
