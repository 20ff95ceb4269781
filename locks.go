/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package contentgate

import (
	"context"

	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/permission"
)

// Client-held locks let an editor keep an entity across several requests.
// Every lock operation requires update permission on the entity.

// SetLock takes the edit lock on entity id for the caller. Without force it
// fails with a *errors.LockConflictError while another editor holds it.
func (g *Gateway) SetLock(ctx context.Context, caller Caller, model, id string, force bool) (*editlock.EditLock, error) {
	r, _, err := g.load(ctx, caller, model, id, permission.ActionUpdate)
	if err != nil {
		return nil, err
	}
	lock, err := g.locks.SetLock(ctx, model, id, r.user.ID, editlock.SetLockOptions{Force: force})
	if err != nil {
		return nil, g.lockFailure(model, err)
	}
	return lock, nil
}

// ExtendLock validates the caller's lock uid on entity id and slides its expiry.
func (g *Gateway) ExtendLock(ctx context.Context, caller Caller, model, id, uid string) (*editlock.EditLock, error) {
	if _, _, err := g.load(ctx, caller, model, id, permission.ActionUpdate); err != nil {
		return nil, err
	}
	lock, err := g.locks.ValidateAndExtendLock(ctx, model, id, uid)
	if err != nil {
		return nil, g.lockFailure(model, err)
	}
	return lock, nil
}

// Unlock releases the lock on entity id. Without force uid must hold it.
func (g *Gateway) Unlock(ctx context.Context, caller Caller, model, id, uid string, force bool) error {
	if _, _, err := g.load(ctx, caller, model, id, permission.ActionUpdate); err != nil {
		return err
	}
	if err := g.locks.Unlock(ctx, model, id, uid, editlock.UnlockOptions{Force: force}); err != nil {
		return g.lockFailure(model, err)
	}
	return nil
}

// LockInfo reports who is editing entity id.
func (g *Gateway) LockInfo(ctx context.Context, caller Caller, model, id string) (*editlock.Info, error) {
	if _, _, err := g.load(ctx, caller, model, id, permission.ActionUpdate); err != nil {
		return nil, err
	}
	info, err := g.locks.Info(ctx, model, id)
	if err != nil {
		return nil, g.lockFailure(model, err)
	}
	return info, nil
}
