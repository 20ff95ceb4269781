/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rules

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/registry"
	"github.com/suparena/contentgate/storagemodels"
)

// Factory creates rule-based checkers. It accepts *Ability values only.
type Factory struct {
	models *registry.Registry
}

// NewFactory builds a Factory resolving model descriptors from models.
func NewFactory(models *registry.Registry) *Factory {
	return &Factory{models: models}
}

// Create implements permission.Factory.
func (f *Factory) Create(ability permission.Ability, model string) (permission.Checker, error) {
	a, ok := ability.(*Ability)
	if !ok || a == nil {
		return nil, fmt.Errorf("rules: unsupported ability type %T", ability)
	}
	desc, err := f.models.Get(model)
	if err != nil {
		return nil, err
	}

	c := &checker{model: desc, user: a.Subject}
	for _, r := range a.Rules {
		if r.Subject != model && r.Subject != SubjectAll {
			continue
		}
		c.rules = append(c.rules, r.resolve(a.Subject))
	}
	return c, nil
}

type checker struct {
	model registry.Model
	user  permission.User
	rules []Rule
}

func (c *checker) grants(action permission.Action) []Rule {
	return lo.Filter(c.rules, func(r Rule, _ int) bool {
		return !r.Inverted && r.appliesTo(action, c.model.UID)
	})
}

func (c *checker) denials(action permission.Action) []Rule {
	return lo.Filter(c.rules, func(r Rule, _ int) bool {
		return r.Inverted && r.appliesTo(action, c.model.UID)
	})
}

// Cannot implements permission.Checker. Conditions are ignored for the
// coarse check; an unconditional whole-subject denial always wins.
func (c *checker) Cannot(action permission.Action, entity *storagemodels.Entity) bool {
	for _, d := range c.denials(action) {
		if d.Fields != nil {
			continue
		}
		if len(d.Conditions) == 0 || (entity != nil && d.matches(entity)) {
			return true
		}
	}

	grants := c.grants(action)
	if entity == nil {
		return len(grants) == 0
	}
	return !lo.ContainsBy(grants, func(r Rule) bool { return r.matches(entity) })
}

// BuildPermissionQuery implements permission.Checker.
func (c *checker) BuildPermissionQuery(action permission.Action, query storagemodels.Query) storagemodels.Query {
	q := query.Clone()

	grants := c.grants(action)
	var scopes [][]storagemodels.Condition
	switch {
	case len(grants) == 0:
		scopes = [][]storagemodels.Condition{}
	case lo.ContainsBy(grants, func(r Rule) bool { return len(r.Conditions) == 0 }):
		scopes = nil
	default:
		scopes = lo.Map(grants, func(r Rule, _ int) []storagemodels.Condition {
			return append([]storagemodels.Condition(nil), r.Conditions...)
		})
	}
	q.Scopes = intersectScopes(q.Scopes, scopes)

	for _, d := range c.denials(action) {
		if d.Fields != nil {
			continue
		}
		if len(d.Conditions) == 0 {
			q.Scopes = [][]storagemodels.Condition{}
			continue
		}
		cond := d.Conditions[0]
		cond.Op = storagemodels.OpNe
		q.Where = append(q.Where, cond)
	}
	return q
}

// intersectScopes ANDs two scope sets. nil is unrestricted.
func intersectScopes(a, b [][]storagemodels.Condition) [][]storagemodels.Condition {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := make([][]storagemodels.Condition, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			scope := make([]storagemodels.Condition, 0, len(x)+len(y))
			scope = append(scope, x...)
			scope = append(scope, y...)
			out = append(out, scope)
		}
	}
	return out
}

// permittedFields returns the fields action may touch on entity (nil entity: any
// entity), and whether every field is permitted.
func (c *checker) permittedFields(action permission.Action, entity *storagemodels.Entity) ([]string, bool) {
	var fields []string
	all := false
	for _, g := range c.grants(action) {
		if entity != nil && !g.matches(entity) {
			continue
		}
		if g.Fields == nil {
			all = true
			continue
		}
		fields = append(fields, g.Fields...)
	}

	var denied []string
	for _, d := range c.denials(action) {
		if d.Fields == nil {
			continue
		}
		if len(d.Conditions) == 0 || (entity != nil && d.matches(entity)) {
			denied = append(denied, d.Fields...)
		}
	}

	if all {
		fields = lo.Without(c.allFields(), denied...)
		return fields, len(denied) == 0
	}
	return lo.Without(lo.Uniq(fields), denied...), false
}

func (c *checker) allFields() []string {
	names := lo.Map(c.model.Attributes, func(a registry.Attribute, _ int) string { return a.Name })
	return lo.Uniq(append(names, storagemodels.ServerOwnedFields...))
}

func (c *checker) pick(action permission.Action, entity *storagemodels.Entity, data map[string]any) map[string]any {
	fields, all := c.permittedFields(action, entity)
	if all {
		return lo.Assign(data)
	}
	return lo.PickByKeys(data, fields)
}

// SanitizeOutput implements permission.Checker.
func (c *checker) SanitizeOutput(entity *storagemodels.Entity) map[string]any {
	if entity == nil {
		return nil
	}
	out := c.pick(permission.ActionRead, entity, entity.Fields())
	out = lo.OmitByKeys(out, c.model.PrivateFields())
	out[storagemodels.FieldID] = entity.ID
	return out
}

// SanitizeCreateInput implements permission.Checker.
func (c *checker) SanitizeCreateInput(data map[string]any) map[string]any {
	return c.pick(permission.ActionCreate, nil, data)
}

// SanitizeUpdateInput implements permission.Checker.
func (c *checker) SanitizeUpdateInput(existing *storagemodels.Entity) func(map[string]any) map[string]any {
	return func(data map[string]any) map[string]any {
		return c.pick(permission.ActionUpdate, existing, data)
	}
}
