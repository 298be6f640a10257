// Package house fetches U.S. House roll-call votes from the Clerk's XML
// feed. Members are identified by bioguide ID.
package house
