/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package redislock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/errors"
)

const model = "api::article.article"

func setup(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, New(client)
}

func testLock(uid, owner string, now time.Time) editlock.EditLock {
	return editlock.EditLock{
		UID:         uid,
		Model:       model,
		EntityID:    "42",
		OwnerUserID: owner,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Minute),
		PurgeAt:     now.Add(2 * time.Minute),
	}
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mr, s := setup(t)

	existing, err := s.Acquire(ctx, testLock("L1", "alice", now), false, now)
	require.NoError(t, err)
	assert.Nil(t, existing)
	assert.True(t, mr.Exists(DefaultPrefix+model+":42"))
	assert.Equal(t, "alice", mr.HGet(DefaultPrefix+model+":42", "owner"))

	existing, err = s.Acquire(ctx, testLock("L2", "bob", now), false, now.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "L1", existing.UID)
	assert.Equal(t, "alice", existing.OwnerUserID)
	assert.Equal(t, now, existing.CreatedAt)

	existing, err = s.Acquire(ctx, testLock("L2", "bob", now), true, now.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, existing)

	got, err := s.Get(ctx, editlock.Key{Model: model, EntityID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "L2", got.UID)
	assert.Equal(t, now.Add(time.Minute), got.ExpiresAt)
}

func TestAcquireAfterExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	_, s := setup(t)

	_, err := s.Acquire(ctx, testLock("L1", "alice", now), false, now)
	require.NoError(t, err)

	later := now.Add(time.Minute)
	existing, err := s.Acquire(ctx, testLock("L2", "bob", later), false, later)
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestExtendAndRelease(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	key := editlock.Key{Model: model, EntityID: "42"}

	t.Run("extend", func(t *testing.T) {
		_, s := setup(t)
		_, err := s.Acquire(ctx, testLock("L1", "alice", now), false, now)
		require.NoError(t, err)

		later := now.Add(30 * time.Second)
		require.NoError(t, s.Extend(ctx, key, "L1", later.Add(time.Minute), later.Add(2*time.Minute), later))

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, later.Add(time.Minute), got.ExpiresAt)

		assert.True(t, errors.IsLockMismatch(s.Extend(ctx, key, "L9", later, later, later)))
		assert.True(t, errors.IsLockNotFound(s.Extend(ctx, key, "L1", later, later, later.Add(time.Hour))))
		assert.True(t, errors.IsLockNotFound(s.Extend(ctx, editlock.Key{Model: model, EntityID: "7"}, "L1", later, later, later)))
	})

	t.Run("release keeps a tombstone until purge", func(t *testing.T) {
		mr, s := setup(t)
		_, err := s.Acquire(ctx, testLock("L1", "alice", now), false, now)
		require.NoError(t, err)

		assert.True(t, errors.IsLockMismatch(s.Release(ctx, key, "L9", false, now, now.Add(time.Minute))))
		require.NoError(t, s.Release(ctx, key, "L9", true, now, now.Add(time.Minute)))

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.IsLive(now))
		assert.True(t, errors.IsLockMismatch(s.Extend(ctx, key, "other", now, now, now)))

		// releasing again is a no-op
		require.NoError(t, s.Release(ctx, key, "L9", false, now, now.Add(time.Minute)))

		mr.FastForward(time.Minute)
		got, err = s.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestManagerOnRedis(t *testing.T) {
	ctx := context.Background()
	_, s := setup(t)

	var seq atomic.Int64
	m := editlock.NewManager(s,
		editlock.WithTTL(time.Minute),
		editlock.WithUIDGenerator(func() string { return fmt.Sprintf("L%d", seq.Add(1)) }),
	)

	const callers = 16
	var wg sync.WaitGroup
	var won atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.SetLock(ctx, model, "42", fmt.Sprintf("user-%d", i), editlock.SetLockOptions{}); err == nil {
				won.Add(1)
			} else if !errors.IsLockConflict(err) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), won.Load())

	info, err := m.Info(ctx, model, "42")
	require.NoError(t, err)
	assert.False(t, info.IsLockFree)

	require.NoError(t, m.Hold(ctx, model, "42", "admin", "", func(context.Context) error { return nil }))

	info, err = m.Info(ctx, model, "42")
	require.NoError(t, err)
	assert.True(t, info.IsLockFree)
}

func TestOptions(t *testing.T) {
	opts, err := options(Config{URL: "rediss://u:p@cache:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.NotNil(t, opts.TLSConfig)

	opts, err = options(Config{Addr: " localhost:6379 ", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	_, err = options(Config{})
	assert.Error(t, err)
	_, err = options(Config{URL: "http://cache"})
	assert.Error(t, err)
	_, err = options(Config{URL: "redis://cache/x"})
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
