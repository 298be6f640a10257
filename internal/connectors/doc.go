// Package connectors holds the upstream source adapters. Each subpackage
// knows how to fetch and normalise records from one system:
//
//   - congress: Congress.gov bills and members
//   - openstates: Open States state legislation
//   - legistar: Legistar municipal agenda items, with an HTML fallback
//   - house, senate: Clerk and Senate roll-call vote documents
//
// apiclient is the shared paced HTTP client with typed errors.
// Connectors are registered with the ingestion orchestrator at startup.
package connectors
