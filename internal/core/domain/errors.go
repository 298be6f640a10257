package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// Duplicate idempotency keys surface as this error and callers treat it as a no-op.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown connector or chamber.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrRunInProgress indicates an ingestion run for the connector is already running.
	ErrRunInProgress = errors.New("ingestion run in progress")

	// Ingestion Errors.

	// ErrMalformedRecord indicates a single source record could not be normalised.
	// It is counted against the run and never aborts it.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrMissingCredential indicates a connector was built without a required credential.
	ErrMissingCredential = errors.New("missing required credential")

	// ErrTransient indicates a retryable source failure (timeout, 5xx, rate limit).
	ErrTransient = errors.New("transient source error")

	// ErrRateLimited indicates the upstream rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrRunTimeout indicates a run exceeded its maximum duration and was force-failed.
	ErrRunTimeout = errors.New("ingestion run exceeded maximum duration")
)
