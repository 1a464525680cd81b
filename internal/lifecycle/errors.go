package lifecycle

import "errors"

// Error taxonomy for lifecycle operations. Handlers map these to HTTP
// status codes; everything else surfacing from an operation is internal.
var (
	// ErrValidation marks malformed or missing input, detected before any mutation.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized marks a caller who is not the owner/renter/buyer the operation requires.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStateConflict marks an entity not in the state the transition requires,
	// including a lost race on the bike availability flag.
	ErrStateConflict = errors.New("state conflict")
	// ErrNotFound marks an unknown entity id.
	ErrNotFound = errors.New("not found")
)
