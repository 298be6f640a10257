// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SourceAdapter: Fetches and normalises measures from an external source
//   - RollCallSource: Fetches roll-call documents for one chamber
//   - MemberSource: Lists current members of Congress
//   - MeasureStore: Measure, link and status timeline persistence
//   - RunStore: Ingestion run audit trail
//   - OfficialStore: Official persistence
//   - VoteStore: Vote event and official vote persistence
//   - UserStore: User positions and user/official links
//   - MatchStore: Match results and alignment tallies
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Cache: Aggregate cache. Without it every alignment read hits the store.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
