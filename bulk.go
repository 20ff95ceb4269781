/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package contentgate

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/errors"
	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/storagemodels"
)

// BulkDelete deletes the entities of model among ids that query and the
// caller's delete permission select, and returns them.
//
// Every id is force-locked before the delete. If any lock fails nothing is
// deleted and the locks already taken are released. The failed ids are
// listed by a *errors.BulkLockError, returned as is for lock protocol
// failures and wrapped in a *errors.BackendError otherwise. Locks are
// released once the delete returns.
func (g *Gateway) BulkDelete(ctx context.Context, caller Caller, model string, query storagemodels.Query, ids []string) ([]map[string]any, error) {
	ids = lo.Uniq(lo.Compact(ids))
	if len(ids) == 0 {
		return nil, errors.NewValidationError("ids", "must be a non-empty list")
	}

	r, err := g.begin(caller, model)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(permission.ActionDelete, nil); err != nil {
		return nil, err
	}
	if err := r.checkFilters(query); err != nil {
		return nil, err
	}

	scoped := r.checker.BuildPermissionQuery(permission.ActionDelete,
		query.And(storagemodels.In(storagemodels.FieldID, ids)))

	locks, err := g.lockAll(ctx, model, ids, r.user.ID)
	defer g.releaseAll(ctx, locks)
	if err != nil {
		return nil, err
	}

	deleted, err := r.store.FindAndDelete(ctx, model, scoped)
	if err != nil {
		return nil, g.backend("findAndDelete", model, err)
	}

	out := make([]map[string]any, 0, len(deleted))
	for _, e := range deleted {
		out = append(out, r.checker.SanitizeOutput(e))
	}
	return out, nil
}

// lockAll force-locks every id concurrently. It returns the locks it took even
// when some failed.
func (g *Gateway) lockAll(ctx context.Context, model string, ids []string, userID string) ([]*editlock.EditLock, error) {
	var (
		mu     sync.Mutex
		locks  []*editlock.EditLock
		failed []string
		merr   *multierror.Error
	)

	var eg errgroup.Group
	eg.SetLimit(g.bulkConcurrency)
	for _, id := range ids {
		eg.Go(func() error {
			lock, err := g.locks.SetLock(ctx, model, id, userID, editlock.SetLockOptions{Force: true})
			if err != nil {
				err = g.lockFailure(model, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, id)
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", id, err))
				return nil
			}
			locks = append(locks, lock)
			return nil
		})
	}
	_ = eg.Wait()

	if merr == nil {
		return locks, nil
	}
	g.logger.Warn("bulk lock failed",
		zap.String("model", model),
		zap.Strings("ids", failed),
		zap.Error(merr))

	bulk := &errors.BulkLockError{Model: model, IDs: failed, Err: merr.ErrorOrNil()}
	if errors.IsLockError(bulk.Err) {
		return locks, bulk
	}
	// no failure is a lock outcome
	return locks, errors.NewBackendError("lock", model, bulk)
}

func (g *Gateway) releaseAll(ctx context.Context, locks []*editlock.EditLock) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range locks {
		if err := g.locks.Unlock(ctx, l.Model, l.EntityID, l.UID, editlock.UnlockOptions{Force: true}); err != nil {
			g.logger.Warn("failed to release lock",
				zap.String("model", l.Model),
				zap.String("entity_id", l.EntityID),
				zap.Error(err))
		}
	}
}
