package chat

import "errors"

// Stable error kinds surfaced to the HTTP boundary. Handlers match them with
// errors.Is and map each to a distinct status code; shape failures of the
// oracle's reply never appear here, they degrade to fallback payloads inside
// the adapter.
var (
	// ErrValidation marks a rejected request (empty message and the like).
	ErrValidation = errors.New("validation error")

	// ErrConfiguration marks an unusable oracle collaborator, e.g. missing
	// credentials. Raised before any prompt work.
	ErrConfiguration = errors.New("configuration error")

	// ErrExternalService marks a transport-level failure talking to the
	// generative model: network, auth, quota, timeout. Retryable.
	ErrExternalService = errors.New("external service error")

	// ErrStorage wraps conversation store failures.
	ErrStorage = errors.New("storage error")
)
