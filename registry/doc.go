/*
Package registry resolves model identifiers to typed descriptors.

The gateway receives the model as a runtime parameter. Instead of branching on
strings, every request resolves it once through a Registry:

	models, _ := registry.LoadYAML(f)
	model, err := models.Get("api::article.article")
	if errors.IsNotFound(err) {
	    // unknown model
	}
	model.WritableFields() // attributes a caller may set

Server-owned fields (id, created_by, updated_by, timestamps, published_at) are
never writable regardless of what the descriptor declares.

The package also keeps the index-map registry used by single-table lock
stores to derive partition and sort keys from record fields:

	registry.RegisterIndexMap[lockItem](map[string]string{
	    "PK": "LOCK#{Model}",
	    "SK": "ENTITY#{EntityID}",
	})

Both registries are thread-safe and should be populated during initialization.
*/
package registry
