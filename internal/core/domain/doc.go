// Package domain defines the core business entities for villagevote.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Measure: A tracked legislative item (bill, resolution, agenda item)
//   - VoteEvent / OfficialVote: A roll call and the votes cast in it
//   - Official: An elected representative
//   - UserVote / MatchResult: A citizen's position and how it compares
//   - IngestionRun: Audit record of one connector run
//
// It also owns the closed vocabularies (status, vote value, vote result)
// and the total mapping functions from raw source text onto them, the
// bill citation parser and the canonical and idempotency key formats.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
