/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package contentgate

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/sanitize"
	"github.com/suparena/contentgate/storagemodels"
)

// Create stores a new entity of model from body. Fields the caller may not
// write are dropped and the creator fields are set from the caller. When the
// model held no entries before the write, telemetry is told in the
// background.
func (g *Gateway) Create(ctx context.Context, caller Caller, model string, body map[string]any) (map[string]any, error) {
	r, err := g.begin(caller, model)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(permission.ActionCreate, nil); err != nil {
		return nil, err
	}

	data := sanitize.CreateInput(r.model, r.checker, r.user)(body)
	first := g.telemetry != nil && g.empty(ctx, r)

	e, err := r.store.Create(ctx, model, data)
	if err != nil {
		return nil, g.backend("create", model, err)
	}
	if e == nil {
		return nil, g.backend("create", model, stderrors.New("store returned no entity"))
	}

	out := r.checker.SanitizeOutput(e)
	if first {
		g.spawn(ctx, func(ctx context.Context) {
			g.telemetry.EntryCreated(ctx, model)
		})
	}
	return out, nil
}

// empty reports whether the model holds no entries. A failed count is
// logged and reports false.
func (g *Gateway) empty(ctx context.Context, r *request) bool {
	page, err := r.store.FindPage(ctx, r.model.UID, storagemodels.Query{PageSize: 1})
	if err != nil {
		g.logger.Warn("entry count failed",
			zap.String("model", r.model.UID),
			zap.Error(err))
		return false
	}
	return page != nil && page.Pagination.Total == 0
}
