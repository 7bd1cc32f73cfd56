package outcome

import "errors"

// Domain errors for outcome space construction and sampling.
var (
	// ErrNoIssues indicates a space was constructed without any issues.
	ErrNoIssues = errors.New("outcome space requires at least one issue")

	// ErrEmptyDomain indicates an issue has no values in its domain.
	ErrEmptyDomain = errors.New("issue has an empty domain")

	// ErrDuplicateIssue indicates two issues share the same name.
	ErrDuplicateIssue = errors.New("duplicate issue name")

	// ErrIndexOutOfRange indicates an outcome index outside the space.
	ErrIndexOutOfRange = errors.New("outcome index out of range")
)
