/*
Package sanitize filters request payloads before they reach storage.

A pipeline is an ordered list of pure functions applied by explicit
iteration:

	fn := sanitize.Pipe(
	    sanitize.Writable(model),          // drop fields not writable for the model
	    checker.SanitizeCreateInput,       // drop fields the ability may not set
	    sanitize.CreatorFields(uid, false), // inject server-owned attribution
	)
	data := fn(body)

The pipelines hold no state: the same input, model and ability always give
the same output, and applying a pipeline twice equals applying it once.
*/
package sanitize
