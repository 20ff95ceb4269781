//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/errors"
)

func integrationStore(t *testing.T) *Store {
	t.Helper()
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}

	cfg := Config{
		Region:    os.Getenv("AWS_REGION"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Table:     os.Getenv("AWS_DDB_LOCK_TABLE"),
		Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
	}
	if cfg.Table == "" || cfg.Region == "" {
		t.Skip("AWS_DDB_LOCK_TABLE and AWS_REGION are required")
	}

	client, err := NewDynamoDBClient(context.Background(), cfg)
	require.NoError(t, err)
	return New(client, cfg.Table)
}

func TestIntegrationLockLifecycle(t *testing.T) {
	ctx := context.Background()
	m := editlock.NewManager(integrationStore(t), editlock.WithTTL(10*time.Second))
	entityID := uuid.NewString()

	lock, err := m.SetLock(ctx, model, entityID, "alice", editlock.SetLockOptions{})
	require.NoError(t, err)

	_, err = m.SetLock(ctx, model, entityID, "bob", editlock.SetLockOptions{})
	assert.True(t, errors.IsLockConflict(err))

	_, err = m.ValidateAndExtendLock(ctx, model, entityID, lock.UID)
	require.NoError(t, err)

	require.NoError(t, m.Hold(ctx, model, entityID, "bob", "", func(context.Context) error { return nil }))

	_, err = m.ValidateAndExtendLock(ctx, model, entityID, lock.UID)
	assert.True(t, errors.IsLockMismatch(err))

	info, err := m.Info(ctx, model, entityID)
	require.NoError(t, err)
	assert.True(t, info.IsLockFree)
}
