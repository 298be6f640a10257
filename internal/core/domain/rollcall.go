package domain

import (
	"fmt"
	"time"
)

// RollCallChamber identifies the chamber a roll-call document came from.
type RollCallChamber string

const (
	RollCallHouse  RollCallChamber = "house"
	RollCallSenate RollCallChamber = "senate"
)

// Body is the vote event body label for the chamber.
func (c RollCallChamber) Body() string {
	switch c {
	case RollCallHouse:
		return "U.S. House"
	case RollCallSenate:
		return "U.S. Senate"
	}
	return string(c)
}

// Chamber is the official chamber whose members vote in these roll calls.
func (c RollCallChamber) Chamber() Chamber {
	if c == RollCallSenate {
		return ChamberUSSenate
	}
	return ChamberUSHouse
}

// MemberIDKind is the identifier the chamber's documents carry for members.
func (c RollCallChamber) MemberIDKind() MemberIDKind {
	if c == RollCallSenate {
		return MemberIDLIS
	}
	return MemberIDBioguide
}

// RollCall is a parsed, source-neutral roll-call document.
type RollCall struct {
	Chamber  RollCallChamber
	Congress int
	Session  int
	Sequence int

	// Citation is the free-text bill reference ("H R 1228", "S. 5").
	Citation string

	HeldAt     *time.Time
	ResultText string
	Members    []RollCallMember

	// SourceURL is where the document was fetched from.
	SourceURL string
}

// IdempotencyKey returns {chamber}:{congress}:{session}:{sequence}, unique per
// external roll-call record.
func (r *RollCall) IdempotencyKey() string {
	return RollCallKey(r.Chamber, r.Congress, r.Session, r.Sequence)
}

// RollCallKey formats a roll-call idempotency key.
func RollCallKey(chamber RollCallChamber, congress, session, sequence int) string {
	return fmt.Sprintf("%s:%d:%d:%d", chamber, congress, session, sequence)
}

// RollCallMember is one legislator's entry in a roll-call document.
type RollCallMember struct {
	// MemberID is the chamber-specific identifier (bioguide or LIS ID).
	MemberID string
	LastName string
	State    string
	VoteText string
}

// RollCallOutcome is what happened to one roll-call document.
type RollCallOutcome string

const (
	OutcomeCreated           RollCallOutcome = "created"
	OutcomeDuplicate         RollCallOutcome = "duplicate"
	OutcomeUnmatchedCitation RollCallOutcome = "unmatched_citation"
	OutcomeUnmatchedMeasure  RollCallOutcome = "unmatched_measure"
)

// RollCallResult reports the outcome of ingesting one document.
type RollCallResult struct {
	Outcome               RollCallOutcome
	VoteEventID           string
	MeasureID             string
	OfficialVotes         int
	UnresolvedLegislators int
	Backfilled            int
}

// RollCallStats accumulates results over a chamber/session sweep.
type RollCallStats struct {
	Fetched               int `json:"fetched"`
	Created               int `json:"created"`
	Duplicates            int `json:"duplicates"`
	Unmatched             int `json:"unmatched"`
	OfficialVotes         int `json:"official_votes"`
	UnresolvedLegislators int `json:"unresolved_legislators"`
	Backfilled            int `json:"backfilled"`
	Errors                int `json:"errors"`
	LastSequence          int `json:"last_sequence"`

	// AffectedMeasures lists measures that gained a vote event, in order.
	AffectedMeasures []string `json:"affected_measures,omitempty"`
}

// Add folds one document result into the stats.
func (s *RollCallStats) Add(r RollCallResult) {
	switch r.Outcome {
	case OutcomeCreated:
		s.Created++
		s.AffectedMeasures = appendUnique(s.AffectedMeasures, r.MeasureID)
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeUnmatchedCitation, OutcomeUnmatchedMeasure:
		s.Unmatched++
	}
	s.OfficialVotes += r.OfficialVotes
	s.UnresolvedLegislators += r.UnresolvedLegislators
	s.Backfilled += r.Backfilled
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// SessionYear returns the calendar year of a congressional session
// (the 119th Congress, session 1 sat in 2025).
func SessionYear(congress, session int) int {
	return 1789 + 2*(congress-1) + (session - 1)
}
