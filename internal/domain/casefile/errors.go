package casefile

import "errors"

var (
	// ErrAuthenticationRequired is returned when an operation that needs a
	// signed-in user is invoked without one.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrCaseNotFound is returned when a requested case does not exist or
	// does not belong to the current user.
	ErrCaseNotFound = errors.New("case not found")

	// ErrInvalidSubmission wraps every submission validation failure so
	// callers can distinguish bad input from persistence errors.
	ErrInvalidSubmission = errors.New("invalid submission")
)
