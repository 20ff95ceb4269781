/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package contentgate

import (
	"context"

	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/storagemodels"
)

// FindResult is one sanitized page of a listing.
type FindResult struct {
	Results    []map[string]any         `json:"results"`
	Pagination storagemodels.Pagination `json:"pagination"`
}

// Find lists the entities of model the caller may read. A non-empty
// query.Search runs a full-text search instead of a plain listing. Filters
// may only name model attributes and server-owned fields.
func (g *Gateway) Find(ctx context.Context, caller Caller, model string, query storagemodels.Query) (*FindResult, error) {
	r, err := g.begin(caller, model)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(permission.ActionRead, nil); err != nil {
		return nil, err
	}
	if err := r.checkFilters(query); err != nil {
		return nil, err
	}

	scoped := r.checker.BuildPermissionQuery(permission.ActionRead, query)

	var page *storagemodels.Page
	if query.Search != "" {
		page, err = r.store.SearchPage(ctx, model, scoped)
		if err != nil {
			return nil, g.backend("searchPage", model, err)
		}
	} else {
		page, err = r.store.FindPage(ctx, model, scoped)
		if err != nil {
			return nil, g.backend("findPage", model, err)
		}
	}

	res := &FindResult{Results: make([]map[string]any, 0)}
	if page == nil {
		return res, nil
	}
	for _, e := range page.Results {
		res.Results = append(res.Results, r.checker.SanitizeOutput(e))
	}
	res.Pagination = page.Pagination
	return res, nil
}

// FindOne returns the entity id of model if the caller may read it.
func (g *Gateway) FindOne(ctx context.Context, caller Caller, model, id string) (map[string]any, error) {
	r, e, err := g.load(ctx, caller, model, id, permission.ActionRead)
	if err != nil {
		return nil, err
	}
	return r.checker.SanitizeOutput(e), nil
}
