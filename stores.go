/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package contentgate

import (
	"fmt"
	"sync"

	"github.com/suparena/contentgate/datastore"
	"github.com/suparena/contentgate/errors"
)

// Stores routes models to their EntityStore. It is safe for concurrent use.
type Stores struct {
	mu       sync.RWMutex
	stores   map[string]datastore.EntityStore
	fallback datastore.EntityStore
}

// NewStores creates a router. fallback serves every model without its own
// store and may be nil.
func NewStores(fallback datastore.EntityStore) *Stores {
	return &Stores{
		stores:   make(map[string]datastore.EntityStore),
		fallback: fallback,
	}
}

// Register routes model to ds.
func (s *Stores) Register(model string, ds datastore.EntityStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[model]; exists {
		return fmt.Errorf("datastore for model %q already registered", model)
	}
	s.stores[model] = ds
	return nil
}

// Get returns the store for model.
func (s *Stores) Get(model string) (datastore.EntityStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ds, ok := s.stores[model]; ok {
		return ds, nil
	}
	if s.fallback != nil {
		return s.fallback, nil
	}
	return nil, errors.NewNotFoundError("datastore", model)
}
