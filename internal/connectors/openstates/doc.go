// Package openstates ingests state legislation from the Open States API v3.
//
// Bills are paged with page/per_page for one jurisdiction and normalised
// to state-level measures keyed us:{state}:{session}:{type}:{number}.
package openstates
