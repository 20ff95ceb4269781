/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package editlock

import (
	"context"
	"fmt"
	"time"
)

// Key identifies the entity a lock protects.
type Key struct {
	Model    string
	EntityID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Model, k.EntityID)
}

// EditLock is an exclusive edit lease on one entity.
type EditLock struct {
	UID         string    `json:"uid"`
	Model       string    `json:"model"`
	EntityID    string    `json:"entityId"`
	OwnerUserID string    `json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	// PurgeAt is when a store may forget the record once it is no longer live.
	PurgeAt time.Time `json:"-"`
}

// Key returns the lock's key.
func (l *EditLock) Key() Key {
	return Key{Model: l.Model, EntityID: l.EntityID}
}

// IsLive reports whether the lock is held at now.
func (l *EditLock) IsLive(now time.Time) bool {
	return l != nil && now.Before(l.ExpiresAt)
}

// Store persists lock records. Every method must be atomic per key.
//
// Releasing a lock does not delete its record: it sets ExpiresAt to now and
// keeps the record until PurgeAt, so superseded holders still see a uid
// mismatch rather than a missing lock.
type Store interface {
	// Acquire writes lock unless a live lock exists for its key and force is
	// false, in which case the live lock is returned and nothing is written.
	Acquire(ctx context.Context, lock EditLock, force bool, now time.Time) (existing *EditLock, err error)

	// Get returns the record for key, live or not, or nil when there is none.
	Get(ctx context.Context, key Key) (*EditLock, error)

	// Extend moves ExpiresAt of the live lock holding uid. It returns
	// errors.ErrLockNotFound when no record exists or it is not live, and
	// errors.ErrLockMismatch when the record holds a different uid.
	Extend(ctx context.Context, key Key, uid string, expiresAt, purgeAt, now time.Time) error

	// Release ends the live lock for key. Without force it returns
	// errors.ErrLockMismatch when the live lock holds a different uid.
	// Releasing a key without a live lock is a no-op.
	Release(ctx context.Context, key Key, uid string, force bool, now, purgeAt time.Time) error
}
