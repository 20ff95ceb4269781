/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/http"

	"github.com/suparena/contentgate"
	"github.com/suparena/contentgate/permission"
)

// UserIDHeader carries the caller id for StaticAbilities.
const UserIDHeader = "X-User-ID"

// CallerResolver resolves the authenticated caller of a request. An error
// fails the request with the status its class maps to.
type CallerResolver interface {
	Resolve(r *http.Request) (contentgate.Caller, error)
}

// CallerResolverFunc adapts a function to the CallerResolver interface.
type CallerResolverFunc func(r *http.Request) (contentgate.Caller, error)

// Resolve calls f(r).
func (f CallerResolverFunc) Resolve(r *http.Request) (contentgate.Caller, error) {
	return f(r)
}

// StaticAbilities resolves callers from the X-User-ID header against a fixed
// set of abilities keyed by user id. Unknown users get a Caller with no
// ability, which every operation rejects as forbidden.
func StaticAbilities(abilities map[string]permission.Ability) CallerResolver {
	return CallerResolverFunc(func(r *http.Request) (contentgate.Caller, error) {
		return contentgate.Caller{Ability: abilities[r.Header.Get(UserIDHeader)]}, nil
	})
}
