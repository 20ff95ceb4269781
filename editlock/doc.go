/*
Package editlock implements cooperative editing locks: short-lived, client
presentable leases that keep two editors from modifying the same entity at
the same time.

A lock is keyed by (model, entityID) and identified by an opaque uid. At most
one live lock exists per key. Clients that edit over several requests take a
lock and present its uid with every mutation; each presentation slides the
expiry forward:

	lock, err := m.SetLock(ctx, model, id, userID, editlock.SetLockOptions{})
	// later, before each save
	_, err = m.ValidateAndExtendLock(ctx, model, id, lock.UID)
	// when done
	err = m.Unlock(ctx, model, id, lock.UID, editlock.UnlockOptions{})

Single-shot callers do not manage tokens; Hold takes a forced lock for the
duration of one operation and always releases it:

	err := m.Hold(ctx, model, id, userID, "", func(ctx context.Context) error {
	    return store.Delete(ctx, model, entity)
	})

The Store holds the only shared state. MemoryStore serves a single process;
the redislock and ddb sub-packages share locks across processes. A lock whose
holder disappears is reclaimed by its TTL.
*/
package editlock
