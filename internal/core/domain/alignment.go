package domain

import (
	"fmt"
	"math"
	"time"
)

// MatchResult is the cached comparison of one user's vote on a measure with
// the votes of the officials representing them.
type MatchResult struct {
	UserID    string
	MeasureID string

	// Score is matches/comparable rounded to three places, nil when no
	// official cast a comparable vote.
	Score *float64

	Matches         int
	ComparableTotal int
	Breakdown       []OfficialBreakdown
	Notes           string
	ComputedAt      time.Time
}

// OfficialBreakdown is one official's line in a match result.
type OfficialBreakdown struct {
	OfficialID   string    `json:"official_id"`
	Name         string    `json:"name"`
	Office       string    `json:"office"`
	OfficialVote VoteValue `json:"official_vote"`
	MatchesUser  bool      `json:"matches_user"`
	Comparable   bool      `json:"comparable"`
	Note         string    `json:"note,omitempty"`
}

// ScoreMatch compares a user's position with each official's recorded vote.
// votes maps official ID to that official's vote on the measure; officials
// without an entry did not vote.
func ScoreMatch(userID, measureID string, position UserPosition, officials []Official, votes map[string]VoteValue) MatchResult {
	res := MatchResult{
		UserID:    userID,
		MeasureID: measureID,
		Breakdown: make([]OfficialBreakdown, 0, len(officials)),
	}
	if len(officials) == 0 {
		res.Notes = "No officials found for user"
		return res
	}

	for i := range officials {
		o := &officials[i]
		v, ok := votes[o.ID]
		if !ok {
			v = VoteUnknown
		}
		line := OfficialBreakdown{
			OfficialID:   o.ID,
			Name:         o.Name,
			Office:       o.Office,
			OfficialVote: v,
		}
		if !v.Comparable() {
			line.Note = "Vote not recorded"
			res.Breakdown = append(res.Breakdown, line)
			continue
		}
		line.Comparable = true
		line.MatchesUser = position.Matches(v)
		res.ComparableTotal++
		if line.MatchesUser {
			res.Matches++
		}
		res.Breakdown = append(res.Breakdown, line)
	}

	res.Score = Ratio(res.Matches, res.ComparableTotal)
	res.Notes = fmt.Sprintf("Matched %d of %d officials", res.Matches, res.ComparableTotal)
	return res
}

// Ratio returns matches/total rounded to three decimal places, or nil when
// total is zero.
func Ratio(matches, total int) *float64 {
	if total == 0 {
		return nil
	}
	r := math.Round(float64(matches)/float64(total)*1000) / 1000
	return &r
}

// AlignmentTally is the comparable-vote count between one user and one of
// their active officials.
type AlignmentTally struct {
	Official Official
	Matches  int
	Total    int
}

// AlignmentScope is an aggregate over a subset of (user, official) pairs.
type AlignmentScope struct {
	Matches int      `json:"matches"`
	Total   int      `json:"total"`
	Score   *float64 `json:"score"`
}

func (s *AlignmentScope) add(t AlignmentTally) {
	s.Matches += t.Matches
	s.Total += t.Total
}

func (s *AlignmentScope) finish() {
	s.Score = Ratio(s.Matches, s.Total)
}

// OfficialAlignment is a user's alignment with one official.
type OfficialAlignment struct {
	OfficialID    string   `json:"official_id"`
	Name          string   `json:"name"`
	Office        string   `json:"office"`
	Party         string   `json:"party"`
	Chamber       Chamber  `json:"chamber"`
	DistrictLabel string   `json:"district_label"`
	PhotoURL      string   `json:"photo_url"`
	VotesCompared int      `json:"votes_compared"`
	Matches       int      `json:"matches"`
	Score         *float64 `json:"score"`
}

// AlignmentSummary aggregates a user's alignment overall and by chamber.
type AlignmentSummary struct {
	UserID    string              `json:"user_id"`
	Overall   AlignmentScope      `json:"overall"`
	House     AlignmentScope      `json:"house"`
	Senate    AlignmentScope      `json:"senate"`
	Federal   AlignmentScope      `json:"federal"`
	Officials []OfficialAlignment `json:"officials"`
}

// SummarizeAlignment folds per-official tallies into every scope in a
// single pass.
func SummarizeAlignment(userID string, tallies []AlignmentTally) AlignmentSummary {
	sum := AlignmentSummary{
		UserID:    userID,
		Officials: make([]OfficialAlignment, 0, len(tallies)),
	}
	for _, t := range tallies {
		sum.Overall.add(t)
		switch t.Official.Chamber {
		case ChamberUSHouse:
			sum.House.add(t)
		case ChamberUSSenate:
			sum.Senate.add(t)
		}
		if t.Official.Chamber.Federal() {
			sum.Federal.add(t)
		}
		sum.Officials = append(sum.Officials, OfficialAlignment{
			OfficialID:    t.Official.ID,
			Name:          t.Official.Name,
			Office:        t.Official.Office,
			Party:         t.Official.Party,
			Chamber:       t.Official.Chamber,
			DistrictLabel: t.Official.DistrictLabel,
			PhotoURL:      t.Official.PhotoURL,
			VotesCompared: t.Total,
			Matches:       t.Matches,
			Score:         Ratio(t.Matches, t.Total),
		})
	}
	sum.Overall.finish()
	sum.House.finish()
	sum.Senate.finish()
	sum.Federal.finish()
	return sum
}
