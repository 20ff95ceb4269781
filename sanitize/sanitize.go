/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sanitize

import (
	"github.com/samber/lo"

	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/registry"
	"github.com/suparena/contentgate/storagemodels"
)

// Fn transforms an input payload. Implementations must not mutate their argument.
type Fn func(map[string]any) map[string]any

// Pipe composes fns left to right.
func Pipe(fns ...Fn) Fn {
	return func(data map[string]any) map[string]any {
		out := data
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			out = fn(out)
		}
		if out == nil {
			out = map[string]any{}
		}
		return out
	}
}

// Writable keeps only the fields the model declares writable.
func Writable(model registry.Model) Fn {
	fields := model.WritableFields()
	return func(data map[string]any) map[string]any {
		return lo.PickByKeys(data, fields)
	}
}

// CreatorFields strips any caller-supplied attribution and sets it from userID.
// On creation both created_by and updated_by are set; on edition only updated_by.
func CreatorFields(userID string, isEdition bool) Fn {
	return func(data map[string]any) map[string]any {
		out := lo.OmitByKeys(data, []string{storagemodels.FieldCreatedBy, storagemodels.FieldUpdatedBy})
		out[storagemodels.FieldUpdatedBy] = userID
		if !isEdition {
			out[storagemodels.FieldCreatedBy] = userID
		}
		return out
	}
}

// CreateInput is the create pipeline: writable fields, then the checker's
// create filter, then creator attribution.
func CreateInput(model registry.Model, checker permission.Checker, user permission.User) Fn {
	return Pipe(
		Writable(model),
		checker.SanitizeCreateInput,
		CreatorFields(user.ID, false),
	)
}

// UpdateInput is the update pipeline. The checker filter sees the existing
// entity so it can allow or deny fields based on current values.
func UpdateInput(model registry.Model, checker permission.Checker, user permission.User, existing *storagemodels.Entity) Fn {
	return Pipe(
		Writable(model),
		checker.SanitizeUpdateInput(existing),
		CreatorFields(user.ID, true),
	)
}
