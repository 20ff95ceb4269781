/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sanitize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/permission/rules"
	"github.com/suparena/contentgate/registry"
	"github.com/suparena/contentgate/sanitize"
	"github.com/suparena/contentgate/storagemodels"
)

const article = "api::article.article"

var articleModel = registry.Model{
	UID: article,
	Attributes: []registry.Attribute{
		{Name: "title", Type: "string"},
		{Name: "body", Type: "richtext"},
		{Name: "views", Type: "integer", Writable: new(bool)},
	},
}

func checker(t *testing.T, rs ...rules.Rule) permission.Checker {
	t.Helper()
	models, err := registry.New(articleModel)
	require.NoError(t, err)
	c, err := rules.NewFactory(models).Create(&rules.Ability{Subject: permission.User{ID: "7"}, Rules: rs}, article)
	require.NoError(t, err)
	return c
}

func TestPipeOrder(t *testing.T) {
	var calls []string
	step := func(name string) sanitize.Fn {
		return func(in map[string]any) map[string]any {
			calls = append(calls, name)
			out := map[string]any{}
			for k, v := range in {
				out[k] = v
			}
			out[name] = true
			return out
		}
	}

	out := sanitize.Pipe(step("a"), nil, step("b"))(nil)

	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, map[string]any{"a": true, "b": true}, out)
	assert.Equal(t, map[string]any{}, sanitize.Pipe()(nil))
}

func TestWritable(t *testing.T) {
	in := map[string]any{"title": "t", "views": 10, "id": "99", "unknown": 1}
	out := sanitize.Writable(articleModel)(in)

	assert.Equal(t, map[string]any{"title": "t"}, out)
	assert.Len(t, in, 4, "input must not be mutated")
}

func TestCreatorFields(t *testing.T) {
	in := map[string]any{"title": "t", "created_by": "evil", "updated_by": "evil"}

	created := sanitize.CreatorFields("7", false)(in)
	assert.Equal(t, map[string]any{"title": "t", "created_by": "7", "updated_by": "7"}, created)

	edited := sanitize.CreatorFields("7", true)(in)
	assert.Equal(t, map[string]any{"title": "t", "updated_by": "7"}, edited)

	assert.Equal(t, "evil", in["created_by"])
}

func TestCreateInput(t *testing.T) {
	c := checker(t, rules.Rule{Action: permission.ActionCreate, Subject: article, Fields: []string{"title", "views"}})
	fn := sanitize.CreateInput(articleModel, c, permission.User{ID: "7"})

	in := map[string]any{"title": "t", "body": "b", "views": 3, "created_by": "1"}
	out := fn(in)

	assert.Equal(t, map[string]any{"title": "t", "created_by": "7", "updated_by": "7"}, out)

	t.Run("idempotent", func(t *testing.T) {
		assert.Equal(t, out, fn(out))
	})

	t.Run("unrelated fields do not affect the result", func(t *testing.T) {
		noisy := map[string]any{"title": "t", "zzz": 1, "aaa": []int{1}}
		assert.Equal(t, out, fn(noisy))
	})
}

func TestUpdateInput(t *testing.T) {
	c := checker(t,
		rules.Rule{Action: permission.ActionUpdate, Subject: article, Fields: []string{"title"}},
		rules.Rule{Action: permission.ActionUpdate, Subject: article, Fields: []string{"body"},
			Conditions: []storagemodels.Condition{storagemodels.Eq(storagemodels.FieldCreatedBy, rules.UserIDPlaceholder)}},
	)
	user := permission.User{ID: "7"}
	in := map[string]any{"title": "t", "body": "b", "created_by": "7", "updated_by": "1"}

	own := &storagemodels.Entity{ID: "1", CreatedBy: &storagemodels.Creator{ID: "7"}}
	other := &storagemodels.Entity{ID: "2", CreatedBy: &storagemodels.Creator{ID: "8"}}

	assert.Equal(t,
		map[string]any{"title": "t", "body": "b", "updated_by": "7"},
		sanitize.UpdateInput(articleModel, c, user, own)(in))
	assert.Equal(t,
		map[string]any{"title": "t", "updated_by": "7"},
		sanitize.UpdateInput(articleModel, c, user, other)(in))
}

func TestServerOwnedFieldNeverWritable(t *testing.T) {
	model := articleModel
	model.Attributes = append(model.Attributes, registry.Attribute{Name: storagemodels.FieldCreatedBy, Type: "relation"})
	c := checker(t, rules.Rule{Action: permission.ActionUpdate, Subject: rules.SubjectAll})

	out := sanitize.UpdateInput(model, c, permission.User{ID: "7"}, &storagemodels.Entity{ID: "1"})(
		map[string]any{"created_by": "1", "title": "t"})

	assert.NotContains(t, out, storagemodels.FieldCreatedBy)
	assert.Equal(t, "t", out["title"])
}
