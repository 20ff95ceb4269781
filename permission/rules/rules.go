/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rules

import (
	"fmt"

	"github.com/suparena/contentgate/errors"
	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/storagemodels"
)

// SubjectAll matches every model.
const SubjectAll = "all"

// UserIDPlaceholder in a condition value resolves to the caller's id.
const UserIDPlaceholder = "$user.id"

// Rule grants (or, when Inverted, denies) an action on a subject.
//
// Fields restricts the rule to the named fields; nil means every field.
// Conditions restrict it to entities matching all of them.
type Rule struct {
	Action     permission.Action         `yaml:"action"`
	Subject    string                    `yaml:"subject"`
	Fields     []string                  `yaml:"fields,omitempty"`
	Conditions []storagemodels.Condition `yaml:"conditions,omitempty"`
	Inverted   bool                      `yaml:"inverted,omitempty"`
}

// Validate rejects rules the checker cannot evaluate or cannot turn into a query scope.
func (r Rule) Validate() error {
	if r.Action == "" {
		return errors.NewValidationError("action", "rule action is required")
	}
	if r.Subject == "" {
		return errors.NewValidationError("subject", "rule subject is required")
	}
	for _, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return errors.NewValidationError("conditions", err.Error())
		}
	}
	if r.Inverted && len(r.Conditions) > 0 {
		if len(r.Conditions) > 1 || r.Conditions[0].Op != storagemodels.OpEq {
			return errors.NewValidationError("conditions",
				fmt.Sprintf("inverted %s rule on %s supports a single eq condition", r.Action, r.Subject))
		}
	}
	return nil
}

func (r Rule) appliesTo(action permission.Action, model string) bool {
	return r.Action == action && (r.Subject == model || r.Subject == SubjectAll)
}

func (r Rule) matches(entity *storagemodels.Entity) bool {
	for _, c := range r.Conditions {
		if !c.Matches(entity) {
			return false
		}
	}
	return true
}

// resolve substitutes user placeholders in condition values.
func (r Rule) resolve(user permission.User) Rule {
	if len(r.Conditions) == 0 {
		return r
	}
	out := r
	out.Conditions = make([]storagemodels.Condition, len(r.Conditions))
	for i, c := range r.Conditions {
		out.Conditions[i] = c
		switch v := c.Value.(type) {
		case string:
			if v == UserIDPlaceholder {
				out.Conditions[i].Value = user.ID
			}
		case []any:
			vals := make([]any, len(v))
			for j, item := range v {
				if s, ok := item.(string); ok && s == UserIDPlaceholder {
					vals[j] = user.ID
					continue
				}
				vals[j] = item
			}
			out.Conditions[i].Value = vals
		}
	}
	return out
}

// Ability is a user together with the rules granted to them.
type Ability struct {
	Subject permission.User `yaml:"user"`
	Rules   []Rule          `yaml:"rules"`
}

// User implements permission.Ability.
func (a *Ability) User() permission.User {
	return a.Subject
}

// Validate checks every rule of the ability.
func (a *Ability) Validate() error {
	for i, r := range a.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d of user %q: %w", i, a.Subject.ID, err)
		}
	}
	return nil
}
