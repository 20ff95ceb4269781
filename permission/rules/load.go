/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rules

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/suparena/contentgate/errors"
)

type abilitiesFile struct {
	Abilities []*Ability `yaml:"abilities"`
}

// LoadYAML reads abilities keyed by user id from a document of the form
//
//	abilities:
//	  - user: {id: "7", name: author}
//	    rules:
//	      - {action: read, subject: all}
//	      - action: update
//	        subject: api::article.article
//	        conditions: [{field: created_by, op: eq, value: $user.id}]
func LoadYAML(r io.Reader) (map[string]*Ability, error) {
	var doc abilitiesFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode abilities: %w", err)
	}

	out := make(map[string]*Ability, len(doc.Abilities))
	for _, a := range doc.Abilities {
		if a == nil || a.Subject.ID == "" {
			return nil, errors.NewValidationError("user.id", "ability user id is required")
		}
		if _, dup := out[a.Subject.ID]; dup {
			return nil, errors.NewAlreadyExistsError("ability", a.Subject.ID)
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		out[a.Subject.ID] = a
	}
	return out, nil
}
