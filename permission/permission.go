/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package permission

import (
	"github.com/suparena/contentgate/storagemodels"
)

// Action is an operation class checked against a caller's ability.
type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionPublish Action = "publish"
)

// User is the authenticated principal behind an ability.
type User struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name,omitempty" yaml:"name,omitempty"`
	Roles []string `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// Ability is the caller's resolved permission set for the current session.
// Its evaluation is owned by the Factory that understands it.
type Ability interface {
	User() User
}

// Checker answers permission questions for one caller and one model.
type Checker interface {
	// Cannot reports whether action is denied. A nil entity asks the
	// coarse question ("can update at all").
	Cannot(action Action, entity *storagemodels.Entity) bool

	// BuildPermissionQuery scopes a caller query to the entities action may touch.
	BuildPermissionQuery(action Action, query storagemodels.Query) storagemodels.Query

	// SanitizeOutput strips fields the caller may not read.
	SanitizeOutput(entity *storagemodels.Entity) map[string]any

	// SanitizeCreateInput drops fields the caller may not set on create.
	SanitizeCreateInput(data map[string]any) map[string]any

	// SanitizeUpdateInput returns a filter for fields the caller may set on
	// the existing entity.
	SanitizeUpdateInput(existing *storagemodels.Entity) func(map[string]any) map[string]any
}

// Factory builds a Checker per request and model.
type Factory interface {
	Create(ability Ability, model string) (Checker, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ability Ability, model string) (Checker, error)

// Create calls f(ability, model).
func (f FactoryFunc) Create(ability Ability, model string) (Checker, error) {
	return f(ability, model)
}
