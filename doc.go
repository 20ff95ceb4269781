/*
Package contentgate is the mutation-and-read gateway of a content store.

A Gateway performs find, findOne, create, update, delete, publish, unpublish
and bulk delete on any registered model. Around each storage call it enforces
the caller's permissions, sanitizes input, and holds a cooperative edit lock
on the entity being changed.

Single-entity writes follow the same sequence:

	authorize  -> can the caller perform the action at all
	fetch      -> load the entity with its creator, NotFound if absent
	authorize  -> can the caller perform the action on this entity
	lock       -> validate+extend the caller's lock, or take a forced one
	sanitize   -> writable fields, permitted fields, creator fields
	mutate     -> storage call
	release    -> only a lock the gateway took itself
	respond    -> output sanitized for the caller

Basic Usage:

	models, _ := registry.LoadYAML(modelsFile)
	gw, err := contentgate.New(
	    contentgate.WithModels(models),
	    contentgate.WithStore(memory.New()),
	    contentgate.WithPermissions(rules.NewFactory(models)),
	    contentgate.WithLockManager(editlock.NewManager(editlock.NewMemoryStore())),
	)

	caller := contentgate.Caller{Ability: ability}
	lock, _ := gw.SetLock(ctx, caller, "api::article.article", "42", false)
	out, err := gw.Update(ctx, caller, "api::article.article", "42", lock.UID, body)

Errors are classified by the errors package: Forbidden, NotFound, lock
conflicts, invalid input and wrapped backend failures.
*/
package contentgate
