// Package sqlite provides a unified SQLite-based implementation of the
// canonical store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - MeasureStore: Measures, source links and status timeline
//   - RunStore: Ingestion run audit trail
//   - OfficialStore: Officials keyed by ID and bioguide ID
//   - VoteStore: Vote events, official votes and identifier backfills
//   - UserStore: User positions and user/official links
//   - MatchStore: Match results and alignment tallies
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.villagevote/data/villagevote.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Multi-row writes (measure with primary link, vote event
// with its votes and backfills) each run in a single transaction.
package sqlite
