// Package memory provides an in-memory implementation of the canonical
// store ports. It mirrors the SQLite store's semantics (uniqueness,
// idempotency, latest-vote ranking) and backs service tests.
package memory
