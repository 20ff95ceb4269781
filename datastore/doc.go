/*
Package datastore defines the storage contract the gateway depends on.

The main interface is EntityStore, which covers every storage call the
gateway makes for a model:

	type EntityStore interface {
	    FindPage(ctx context.Context, model string, query storagemodels.Query) (*storagemodels.Page, error)
	    SearchPage(ctx context.Context, model string, query storagemodels.Query) (*storagemodels.Page, error)
	    FindOneWithCreatorRoles(ctx context.Context, model, id string) (*storagemodels.Entity, error)
	    Create(ctx context.Context, model string, data map[string]any) (*storagemodels.Entity, error)
	    Update(ctx context.Context, model string, entity *storagemodels.Entity, data map[string]any) (*storagemodels.Entity, error)
	    Delete(ctx context.Context, model string, entity *storagemodels.Entity) (*storagemodels.Entity, error)
	    Publish(ctx context.Context, model string, entity *storagemodels.Entity) (*storagemodels.Entity, error)
	    Unpublish(ctx context.Context, model string, entity *storagemodels.Entity) (*storagemodels.Entity, error)
	    FindAndDelete(ctx context.Context, model string, query storagemodels.Query) ([]*storagemodels.Entity, error)
	}

Queries arrive already scoped by the caller's permissions. Implementations
must honour both Where and Scopes; storagemodels.Query.Matches is the
reference evaluation.

Implementations:
  - memory: in-memory store with failure injection, used by tests and the
    demo server
*/
package datastore
