/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/suparena/contentgate/errors"
	"github.com/suparena/contentgate/storagemodels"
)

// Attribute describes one field of a model.
type Attribute struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Writable defaults to true when unset.
	Writable *bool `yaml:"writable,omitempty"`
	// Private attributes are never returned to callers.
	Private bool `yaml:"private,omitempty"`
}

// IsWritable reports whether callers may set the attribute.
func (a Attribute) IsWritable() bool {
	if lo.Contains(storagemodels.ServerOwnedFields, a.Name) {
		return false
	}
	return a.Writable == nil || *a.Writable
}

// Model is the descriptor of a content type, resolved once per request.
type Model struct {
	UID             string      `yaml:"uid"`
	Attributes      []Attribute `yaml:"attributes"`
	DraftAndPublish bool        `yaml:"draftAndPublish"`
}

// WritableFields returns the attribute names callers may write.
func (m Model) WritableFields() []string {
	return lo.FilterMap(m.Attributes, func(a Attribute, _ int) (string, bool) {
		return a.Name, a.IsWritable()
	})
}

// PrivateFields returns the attribute names that are never output.
func (m Model) PrivateFields() []string {
	return lo.FilterMap(m.Attributes, func(a Attribute, _ int) (string, bool) {
		return a.Name, a.Private
	})
}

// HasAttribute reports whether the model declares the named attribute.
func (m Model) HasAttribute(name string) bool {
	return lo.ContainsBy(m.Attributes, func(a Attribute) bool { return a.Name == name })
}

// Validate checks the descriptor for missing or duplicate names.
func (m Model) Validate() error {
	if m.UID == "" {
		return errors.NewValidationError("uid", "model uid is required")
	}
	seen := make(map[string]struct{}, len(m.Attributes))
	for _, a := range m.Attributes {
		if a.Name == "" {
			return errors.NewValidationError("attributes", fmt.Sprintf("model %q has an unnamed attribute", m.UID))
		}
		if _, dup := seen[a.Name]; dup {
			return errors.NewValidationError("attributes", fmt.Sprintf("model %q declares %q twice", m.UID, a.Name))
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// Registry maps model identifiers to their descriptors. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
}

// New creates a registry holding the given models.
func New(models ...Model) (*Registry, error) {
	r := &Registry{models: make(map[string]Model, len(models))}
	for _, m := range models {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a model. Registering the same uid twice is an error.
func (r *Registry) Register(m Model) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[m.UID]; exists {
		return errors.NewAlreadyExistsError("model", m.UID)
	}
	r.models[m.UID] = m
	return nil
}

// Get returns the descriptor for uid, or a NotFoundError.
func (r *Registry) Get(uid string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[uid]
	if !ok {
		return Model{}, errors.NewNotFoundError("model", uid)
	}
	return m, nil
}

// UIDs returns the registered model identifiers in sorted order.
func (r *Registry) UIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uids := lo.Keys(r.models)
	sort.Strings(uids)
	return uids
}

type modelsFile struct {
	Models []Model `yaml:"models"`
}

// LoadYAML reads a document of the form
//
//	models:
//	  - uid: api::article.article
//	    draftAndPublish: true
//	    attributes:
//	      - {name: title, type: string}
//	      - {name: slug, type: uid, writable: false}
func LoadYAML(r io.Reader) (*Registry, error) {
	var doc modelsFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode models: %w", err)
	}
	return New(doc.Models...)
}
