/*
Package errors provides the semantic error taxonomy of the content gateway.

Every failure a caller can observe maps onto one sentinel, checked with the
standard errors.Is() function or the provided helpers:

	var (
	    ErrForbidden    = errors.New("forbidden")
	    ErrNotFound     = errors.New("entity not found")
	    ErrInvalidInput = errors.New("invalid input")
	    ErrLockConflict = errors.New("entity is locked by another editor")
	    ErrLockMismatch = errors.New("lock token mismatch")
	    ErrLockNotFound = errors.New("lock not found")
	    ErrBackend      = errors.New("backend failure")
	)

Usage:

	entity, err := gw.Update(ctx, caller, "api::article.article", "42", lockUID, body)
	if err != nil {
	    var conflict *errors.LockConflictError
	    switch {
	    case stderrors.As(err, &conflict):
	        // tell the user who is editing and since when
	    case errors.IsLockError(err):
	        // ask the client to refresh its lock
	    case errors.IsForbidden(err):
	    }
	}

Lock protocol errors are terminal for the request and expected to be retried
by the client once the conflict is resolved. Backend errors are wrapped in
BackendError and reported without internal detail by the api package.
*/
package errors
