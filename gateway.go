/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package contentgate

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/suparena/contentgate/datastore"
	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/errors"
	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/registry"
	"github.com/suparena/contentgate/storagemodels"
)

// DefaultBulkLockConcurrency bounds the concurrent lock requests of a bulk delete.
const DefaultBulkLockConcurrency = 8

// Caller is the authenticated principal of a request.
type Caller struct {
	Ability permission.Ability
}

// Telemetry receives usage signals. Calls run on their own goroutine and never
// affect the response.
type Telemetry interface {
	EntryCreated(ctx context.Context, model string)
}

// Gateway performs content operations for any registered model, enforcing
// permissions, input sanitization and edit locks around the storage calls.
type Gateway struct {
	models          *registry.Registry
	stores          *Stores
	permissions     permission.Factory
	locks           *editlock.Manager
	telemetry       Telemetry
	logger          *zap.Logger
	bulkConcurrency int

	background sync.WaitGroup
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithModels sets the model registry.
func WithModels(models *registry.Registry) Option {
	return func(g *Gateway) {
		g.models = models
	}
}

// WithStore routes every model to ds.
func WithStore(ds datastore.EntityStore) Option {
	return func(g *Gateway) {
		g.stores = NewStores(ds)
	}
}

// WithStores sets per-model store routing.
func WithStores(stores *Stores) Option {
	return func(g *Gateway) {
		g.stores = stores
	}
}

// WithPermissions sets the permission checker factory.
func WithPermissions(f permission.Factory) Option {
	return func(g *Gateway) {
		g.permissions = f
	}
}

// WithLockManager sets the edit lock manager.
func WithLockManager(m *editlock.Manager) Option {
	return func(g *Gateway) {
		g.locks = m
	}
}

// WithTelemetry sets the telemetry sink.
func WithTelemetry(t Telemetry) Option {
	return func(g *Gateway) {
		g.telemetry = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithBulkLockConcurrency bounds the concurrent lock requests of a bulk delete.
func WithBulkLockConcurrency(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.bulkConcurrency = n
		}
	}
}

// New creates a Gateway. Models, a store, permissions and a lock manager are
// required.
func New(opts ...Option) (*Gateway, error) {
	g := &Gateway{
		logger:          zap.NewNop(),
		bulkConcurrency: DefaultBulkLockConcurrency,
	}
	for _, opt := range opts {
		opt(g)
	}

	switch {
	case g.models == nil:
		return nil, stderrors.New("contentgate: a model registry is required")
	case g.stores == nil:
		return nil, stderrors.New("contentgate: an entity store is required")
	case g.permissions == nil:
		return nil, stderrors.New("contentgate: a permission factory is required")
	case g.locks == nil:
		return nil, stderrors.New("contentgate: a lock manager is required")
	}
	return g, nil
}

// Wait blocks until background telemetry calls have finished.
func (g *Gateway) Wait() {
	g.background.Wait()
}

// request holds what an operation resolves once per call.
type request struct {
	model   registry.Model
	store   datastore.EntityStore
	checker permission.Checker
	user    permission.User
}

func (g *Gateway) begin(caller Caller, model string) (*request, error) {
	m, err := g.models.Get(model)
	if err != nil {
		return nil, err
	}
	if caller.Ability == nil {
		return nil, errors.NewForbiddenError("access", model)
	}
	store, err := g.stores.Get(model)
	if err != nil {
		return nil, err
	}
	checker, err := g.permissions.Create(caller.Ability, model)
	if err != nil {
		return nil, g.backend("permissions", model, err)
	}
	return &request{model: m, store: store, checker: checker, user: caller.Ability.User()}, nil
}

// authorize fails closed when the caller cannot perform action on e, or on
// the model at all when e is nil.
func (r *request) authorize(action permission.Action, e *storagemodels.Entity) error {
	if r.checker.Cannot(action, e) {
		return errors.NewForbiddenError(string(action), r.model.UID)
	}
	return nil
}

// checkFilters rejects conditions on fields the model does not have.
func (r *request) checkFilters(q storagemodels.Query) error {
	for _, c := range lo.Flatten(append([][]storagemodels.Condition{q.Where}, q.Scopes...)) {
		if !r.model.HasAttribute(c.Field) && !lo.Contains(storagemodels.ServerOwnedFields, c.Field) {
			return errors.NewValidationError(c.Field, fmt.Sprintf("%s has no field %q", r.model.UID, c.Field))
		}
	}
	return nil
}

// fetch loads an entity with its creator. A nil entity and a not-found error
// from the store both mean absent.
func (g *Gateway) fetch(ctx context.Context, r *request, id string) (*storagemodels.Entity, error) {
	e, err := r.store.FindOneWithCreatorRoles(ctx, r.model.UID, id)
	if err != nil && !errors.IsNotFound(err) {
		return nil, g.backend("findOne", r.model.UID, err)
	}
	if e == nil || err != nil {
		return nil, errors.NewNotFoundError(r.model.UID, id)
	}
	return e, nil
}

// load runs the authorize, fetch, authorize-instance sequence shared by
// every single-entity operation.
func (g *Gateway) load(ctx context.Context, caller Caller, model, id string, action permission.Action) (*request, *storagemodels.Entity, error) {
	r, err := g.begin(caller, model)
	if err != nil {
		return nil, nil, err
	}
	if err := r.authorize(action, nil); err != nil {
		return nil, nil, err
	}
	e, err := g.fetch(ctx, r, id)
	if err != nil {
		return nil, nil, err
	}
	if err := r.authorize(action, e); err != nil {
		return nil, nil, err
	}
	return r, e, nil
}

// backend wraps and logs a collaborator failure.
func (g *Gateway) backend(op, model string, err error) error {
	g.logger.Error("backend failure",
		zap.String("op", op),
		zap.String("model", model),
		zap.Error(err))
	return errors.NewBackendError(op, model, err)
}

// lockFailure passes lock protocol errors through and wraps anything else as
// a lock backend failure.
func (g *Gateway) lockFailure(model string, err error) error {
	if errors.IsLockError(err) {
		return err
	}
	return g.backend("lock", model, err)
}

// spawn runs fn in the background, detached from ctx cancellation.
func (g *Gateway) spawn(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	g.background.Add(1)
	go func() {
		defer g.background.Done()
		defer func() {
			if p := recover(); p != nil {
				g.logger.Error("background task panicked", zap.Any("panic", p))
			}
		}()
		fn(ctx)
	}()
}
