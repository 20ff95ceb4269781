/*
Package api serves a contentgate.Gateway over HTTP with chi.

Routes, relative to the /content mount:

	GET    /{model}                       list, see ParseQuery
	POST   /{model}                       create
	POST   /{model}/actions/bulkDelete    bulk delete {"ids": [...]}
	GET    /{model}/{id}                  find one
	PUT    /{model}/{id}                  update
	DELETE /{model}/{id}                  delete
	POST   /{model}/{id}/actions/publish
	POST   /{model}/{id}/actions/unpublish
	POST   /{model}/{id}/lock             take the edit lock (?force=true)
	PUT    /{model}/{id}/lock             extend the caller's lock
	DELETE /{model}/{id}/lock             release (?force=true, or the lock uid)
	GET    /{model}/{id}/lock             lock status

Writes accept the caller's lock uid as ?lockUid= or the X-Lock-UID header.
Errors map to 403 (forbidden), 404 (not found), 409 (lock conflict,
mismatch or missing lock) and 400 (invalid input or backend failure).
*/
package api
