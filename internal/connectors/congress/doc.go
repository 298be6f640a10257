// Package congress ingests federal bills and the sitting membership of a
// Congress from the Congress.gov API v3.
//
// Bills are paged with offset/limit and normalised to measures keyed
// us:congress:{congress}:{type}:{number}, the same key roll-call citations
// resolve to. Members feed the official catalogue.
package congress
