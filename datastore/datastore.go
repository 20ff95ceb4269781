/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/contentgate/storagemodels"
)

// EntityStore is the storage collaborator of the gateway.
//
// Lookups that find nothing may return either a nil entity with a nil error
// or an error satisfying errors.IsNotFound; callers must treat both as absent.
// Any other error is a backend failure.
type EntityStore interface {
	FindPage(ctx context.Context, model string, query storagemodels.Query) (*storagemodels.Page, error)

	SearchPage(ctx context.Context, model string, query storagemodels.Query) (*storagemodels.Page, error)

	// FindOneWithCreatorRoles loads an entity with CreatedBy populated,
	// including the creator's roles.
	FindOneWithCreatorRoles(ctx context.Context, model, id string) (*storagemodels.Entity, error)

	Create(ctx context.Context, model string, data map[string]any) (*storagemodels.Entity, error)

	Update(ctx context.Context, model string, entity *storagemodels.Entity, data map[string]any) (*storagemodels.Entity, error)

	Delete(ctx context.Context, model string, entity *storagemodels.Entity) (*storagemodels.Entity, error)

	Publish(ctx context.Context, model string, entity *storagemodels.Entity) (*storagemodels.Entity, error)

	Unpublish(ctx context.Context, model string, entity *storagemodels.Entity) (*storagemodels.Entity, error)

	// FindAndDelete deletes every entity matching query and returns them.
	FindAndDelete(ctx context.Context, model string, query storagemodels.Query) ([]*storagemodels.Entity, error)
}
