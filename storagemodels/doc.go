/*
Package storagemodels defines the data exchanged between the gateway and its
storage collaborator.

Entity is the opaque record of a model. The gateway only inspects its id, its
creator (for ownership rules), its publication state and its attributes by
name through Field:

	v, ok := entity.Field("created_by") // the creator's id

Query carries caller filters (Where), permission scopes (Scopes), the
full-text marker (Search) and pagination:

	q := storagemodels.Query{Search: "draft", Page: 2, PageSize: 25}
	q = q.And(storagemodels.In(storagemodels.FieldID, []string{"1", "2", "3"}))
	q.Matches(entity)

Scopes are OR-ed groups of AND-ed conditions produced by the permission
checker; nil means unrestricted and an empty, non-nil slice matches nothing.
*/
package storagemodels
