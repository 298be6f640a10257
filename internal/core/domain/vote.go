package domain

import (
	"strings"
	"time"
)

// VoteValue is how an official voted on one vote event.
type VoteValue string

const (
	VoteYea       VoteValue = "yea"
	VoteNay       VoteValue = "nay"
	VoteAbstain   VoteValue = "abstain"
	VoteAbsent    VoteValue = "absent"
	VotePresent   VoteValue = "present"
	VoteNotVoting VoteValue = "not_voting"
	VoteUnknown   VoteValue = "unknown"
)

// ParseVoteValue maps raw roll-call vote text onto a VoteValue.
// The mapping is total: anything unrecognised is VoteUnknown.
func ParseVoteValue(text string) VoteValue {
	switch strings.Join(strings.Fields(strings.ToLower(text)), " ") {
	case "yea", "aye", "yes":
		return VoteYea
	case "nay", "no":
		return VoteNay
	case "present":
		return VotePresent
	case "not voting", "not_voting":
		return VoteNotVoting
	case "absent":
		return VoteAbsent
	case "abstain", "abstained":
		return VoteAbstain
	}
	return VoteUnknown
}

// Comparable reports whether the vote expresses a recorded position that can
// be scored against a user's position. Absences and unknown values are not.
func (v VoteValue) Comparable() bool {
	switch v {
	case VoteYea, VoteNay, VotePresent, VoteAbstain:
		return true
	}
	return false
}

// VoteResult is the outcome of a vote event.
type VoteResult string

const (
	ResultPassed  VoteResult = "passed"
	ResultFailed  VoteResult = "failed"
	ResultUnknown VoteResult = "unknown"
)

// ParseVoteResult maps roll-call result text ("Passed", "Bill Passed",
// "Amendment Rejected", "Nomination Confirmed") onto a VoteResult.
func ParseVoteResult(text string) VoteResult {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "agreed"), strings.Contains(t, "passed"), strings.Contains(t, "confirmed"):
		return ResultPassed
	case strings.Contains(t, "rejected"), strings.Contains(t, "failed"):
		return ResultFailed
	}
	return ResultUnknown
}

// VoteEvent is one roll-call or floor vote on a measure. Immutable once created.
type VoteEvent struct {
	ID             string
	MeasureID      string
	Body           string
	IdempotencyKey string
	ScheduledFor   *time.Time
	HeldAt         *time.Time
	Result         VoteResult
	CreatedAt      time.Time
}

// OfficialVote is how one official voted on one vote event.
type OfficialVote struct {
	VoteEventID string
	OfficialID  string
	Value       VoteValue
}

// RecordedVote is an official's vote on a measure together with the event it
// was cast in.
type RecordedVote struct {
	OfficialID  string
	VoteEventID string
	Value       VoteValue
	HeldAt      *time.Time
}

// UserPosition is a citizen's position on a measure.
type UserPosition string

const (
	PositionYes  UserPosition = "yes"
	PositionNo   UserPosition = "no"
	PositionSkip UserPosition = "skip"
)

// ParseUserPosition validates a raw position.
func ParseUserPosition(s string) (UserPosition, error) {
	switch p := UserPosition(strings.ToLower(strings.TrimSpace(s))); p {
	case PositionYes, PositionNo, PositionSkip:
		return p, nil
	}
	return "", ErrInvalidInput
}

// Matches reports whether an official's vote agrees with the position:
// yes matches yea and no matches nay. Nothing else matches.
func (p UserPosition) Matches(v VoteValue) bool {
	return (p == PositionYes && v == VoteYea) || (p == PositionNo && v == VoteNay)
}

// UserVote is a citizen's position on a measure, unique per (user, measure).
type UserVote struct {
	UserID    string
	MeasureID string
	Position  UserPosition
	CreatedAt time.Time
}
