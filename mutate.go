/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package contentgate

import (
	"context"

	"github.com/suparena/contentgate/errors"
	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/registry"
	"github.com/suparena/contentgate/sanitize"
	"github.com/suparena/contentgate/storagemodels"
)

// mutation describes one single-entity write.
type mutation struct {
	op     string
	action permission.Action
	// check rejects requests that cannot apply to the loaded entity. It runs
	// before the lock is taken.
	check func(model registry.Model, e *storagemodels.Entity) error
	apply func(ctx context.Context, r *request, e *storagemodels.Entity) (*storagemodels.Entity, error)
}

// mutate authorizes, fetches and re-authorizes the entity, then applies m
// while holding its edit lock. With lockUID the caller's lock is validated,
// extended and kept; without it a forced lock is taken and released on every
// path.
func (g *Gateway) mutate(ctx context.Context, caller Caller, model, id, lockUID string, m mutation) (map[string]any, error) {
	r, e, err := g.load(ctx, caller, model, id, m.action)
	if err != nil {
		return nil, err
	}
	if m.check != nil {
		if err := m.check(r.model, e); err != nil {
			return nil, err
		}
	}

	var (
		out      *storagemodels.Entity
		applyErr error
	)
	err = g.locks.Hold(ctx, model, id, r.user.ID, lockUID, func(ctx context.Context) error {
		out, applyErr = m.apply(ctx, r, e)
		switch {
		case errors.IsNotFound(applyErr), applyErr == nil && out == nil:
			// removed since it was fetched
			applyErr = errors.NewNotFoundError(model, id)
		case applyErr != nil:
			applyErr = g.backend(m.op, model, applyErr)
		}
		return applyErr
	})
	if applyErr != nil {
		return nil, applyErr
	}
	if err != nil {
		return nil, g.lockFailure(model, err)
	}
	return r.checker.SanitizeOutput(out), nil
}

// Update writes body onto entity id. Fields the caller may not write, given
// the entity's current state, are dropped.
func (g *Gateway) Update(ctx context.Context, caller Caller, model, id, lockUID string, body map[string]any) (map[string]any, error) {
	return g.mutate(ctx, caller, model, id, lockUID, mutation{
		op:     "update",
		action: permission.ActionUpdate,
		apply: func(ctx context.Context, r *request, e *storagemodels.Entity) (*storagemodels.Entity, error) {
			data := sanitize.UpdateInput(r.model, r.checker, r.user, e)(body)
			return r.store.Update(ctx, model, e, data)
		},
	})
}

// Delete removes entity id and returns it.
func (g *Gateway) Delete(ctx context.Context, caller Caller, model, id, lockUID string) (map[string]any, error) {
	return g.mutate(ctx, caller, model, id, lockUID, mutation{
		op:     "delete",
		action: permission.ActionDelete,
		apply: func(ctx context.Context, r *request, e *storagemodels.Entity) (*storagemodels.Entity, error) {
			return r.store.Delete(ctx, model, e)
		},
	})
}

// Publish publishes draft entity id.
func (g *Gateway) Publish(ctx context.Context, caller Caller, model, id, lockUID string) (map[string]any, error) {
	return g.mutate(ctx, caller, model, id, lockUID, mutation{
		op:     "publish",
		action: permission.ActionPublish,
		check: func(m registry.Model, e *storagemodels.Entity) error {
			if err := draftAndPublish(m); err != nil {
				return err
			}
			if e.IsPublished() {
				return errors.NewValidationError(storagemodels.FieldPublishedAt, "already published")
			}
			return nil
		},
		apply: func(ctx context.Context, r *request, e *storagemodels.Entity) (*storagemodels.Entity, error) {
			return r.store.Publish(ctx, model, e)
		},
	})
}

// Unpublish turns published entity id back into a draft.
func (g *Gateway) Unpublish(ctx context.Context, caller Caller, model, id, lockUID string) (map[string]any, error) {
	return g.mutate(ctx, caller, model, id, lockUID, mutation{
		op:     "unpublish",
		action: permission.ActionPublish,
		check: func(m registry.Model, e *storagemodels.Entity) error {
			if err := draftAndPublish(m); err != nil {
				return err
			}
			if !e.IsPublished() {
				return errors.NewValidationError(storagemodels.FieldPublishedAt, "already a draft")
			}
			return nil
		},
		apply: func(ctx context.Context, r *request, e *storagemodels.Entity) (*storagemodels.Entity, error) {
			return r.store.Unpublish(ctx, model, e)
		},
	})
}

func draftAndPublish(m registry.Model) error {
	if !m.DraftAndPublish {
		return errors.NewValidationError("model", m.UID+" does not support draft and publish")
	}
	return nil
}
