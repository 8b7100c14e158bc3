// Package errs provides the typed errors shared by the dispatch service.
//
// Each error type pairs a sentinel (ErrObjectNotFound, ErrValueIsRequired,
// ErrConflict, ErrInvalidTransition, ...) with a struct carrying details and an
// Unwrap method returning the sentinel, so callers classify with errors.Is and
// inspect details with errors.As.
//
// The dispatch error taxonomy maps onto these types:
//   - NotFound: ObjectNotFoundError
//   - ValidationError: ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError (see IsValidation)
//   - Conflict: ConflictError, raised by optimistic version checks
//   - InvalidTransition: InvalidTransitionError, naming the command and the current state
package errs
