package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollCall_IdempotencyKey(t *testing.T) {
	rc := RollCall{Chamber: RollCallHouse, Congress: 118, Session: 1, Sequence: 42}
	assert.Equal(t, "house:118:1:42", rc.IdempotencyKey())

	rc.Chamber = RollCallSenate
	assert.Equal(t, "senate:118:1:42", rc.IdempotencyKey())
}

func TestRollCallChamber(t *testing.T) {
	assert.Equal(t, "U.S. House", RollCallHouse.Body())
	assert.Equal(t, "U.S. Senate", RollCallSenate.Body())
	assert.Equal(t, ChamberUSHouse, RollCallHouse.Chamber())
	assert.Equal(t, ChamberUSSenate, RollCallSenate.Chamber())
	assert.Equal(t, MemberIDBioguide, RollCallHouse.MemberIDKind())
	assert.Equal(t, MemberIDLIS, RollCallSenate.MemberIDKind())
}

func TestSessionYear(t *testing.T) {
	assert.Equal(t, 2023, SessionYear(118, 1))
	assert.Equal(t, 2024, SessionYear(118, 2))
	assert.Equal(t, 2025, SessionYear(119, 1))
}

func TestRollCallStats_Add(t *testing.T) {
	var s RollCallStats
	s.Add(RollCallResult{Outcome: OutcomeCreated, MeasureID: "m1", OfficialVotes: 430, UnresolvedLegislators: 2})
	s.Add(RollCallResult{Outcome: OutcomeCreated, MeasureID: "m1", OfficialVotes: 428})
	s.Add(RollCallResult{Outcome: OutcomeCreated, MeasureID: "m2", OfficialVotes: 100, Backfilled: 3})
	s.Add(RollCallResult{Outcome: OutcomeDuplicate})
	s.Add(RollCallResult{Outcome: OutcomeUnmatchedCitation})
	s.Add(RollCallResult{Outcome: OutcomeUnmatchedMeasure})

	assert.Equal(t, 3, s.Created)
	assert.Equal(t, 1, s.Duplicates)
	assert.Equal(t, 2, s.Unmatched)
	assert.Equal(t, 958, s.OfficialVotes)
	assert.Equal(t, 2, s.UnresolvedLegislators)
	assert.Equal(t, 3, s.Backfilled)
	assert.Equal(t, []string{"m1", "m2"}, s.AffectedMeasures)
}
