package locus

import "fmt"

// Request-level errors. All of these are unrecoverable for the current
// request: they propagate to the transport boundary untouched and are never
// retried internally. In particular, a malformed resume token must fail
// loudly rather than be "best-effort resumed" — silent recovery would break
// the exactly-once delivery guarantee pagination exists to provide.

// BadPageTokenError indicates a page token with the wrong arity, non-integer
// segments, or one that is inconsistent with the backing scan at resume time.
type BadPageTokenError struct {
	Token  string
	Reason string
}

func (e *BadPageTokenError) Error() string {
	return fmt.Sprintf("bad page token %q: %s", e.Token, e.Reason)
}

// BadPageSizeError indicates a page size that is present but not positive.
type BadPageSizeError struct {
	PageSize int32
}

func (e *BadPageSizeError) Error() string {
	return fmt.Sprintf("bad page size %d: must be a positive integer", e.PageSize)
}

// BadRequestIntegerError indicates a request argument that was expected to
// be an integer but failed to parse.
type BadRequestIntegerError struct {
	Key   string
	Value string
}

func (e *BadRequestIntegerError) Error() string {
	return fmt.Sprintf("argument %q must be an integer, got %q", e.Key, e.Value)
}

// BadIdentifierError indicates an identifier argument that is not a usable
// string (for example, absent or blank).
type BadIdentifierError struct {
	Value string
}

func (e *BadIdentifierError) Error() string {
	return fmt.Sprintf("identifier %q is not valid", e.Value)
}

// NotFoundError indicates an identifier that failed schema validation or
// that parsed successfully but names no backing object. Kind carries the
// object kind the identifier was parsed against.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %q not found", e.Kind, e.ID)
}

// InvalidJSONError indicates a request body that could not be decoded.
type InvalidJSONError struct {
	Cause error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("invalid request JSON: %v", e.Cause)
}

func (e *InvalidJSONError) Unwrap() error { return e.Cause }

// BadRequestError indicates a structurally valid request whose field values
// are unusable (for example, a reads search naming no read groups).
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string { return e.Reason }
