package domain

import "strings"

// MeasureStatus is the lifecycle status of a measure.
type MeasureStatus string

const (
	StatusIntroduced  MeasureStatus = "introduced"
	StatusScheduled   MeasureStatus = "scheduled"
	StatusInCommittee MeasureStatus = "in_committee"
	StatusPassed      MeasureStatus = "passed"
	StatusFailed      MeasureStatus = "failed"
	StatusTabled      MeasureStatus = "tabled"
	StatusWithdrawn   MeasureStatus = "withdrawn"
	StatusUnknown     MeasureStatus = "unknown"
)

// ParseMeasureStatus maps a stored status string back onto the enum.
// Anything unrecognised is StatusUnknown.
func ParseMeasureStatus(s string) MeasureStatus {
	switch st := MeasureStatus(s); st {
	case StatusIntroduced, StatusScheduled, StatusInCommittee, StatusPassed,
		StatusFailed, StatusTabled, StatusWithdrawn:
		return st
	}
	return StatusUnknown
}

// StatusRule maps any of its keywords to a status.
type StatusRule struct {
	Keywords []string
	Status   MeasureStatus
}

// StatusTable is an ordered keyword-priority table. Rules are evaluated in
// declaration order against the lowercased action text and the first rule
// with a matching keyword wins; Default applies when nothing matches.
// Empty applies to blank action text.
type StatusTable struct {
	Rules   []StatusRule
	Default MeasureStatus
	Empty   MeasureStatus
}

// Classify maps raw action text onto a status.
func (t StatusTable) Classify(action string) MeasureStatus {
	text := strings.ToLower(strings.TrimSpace(action))
	if text == "" {
		if t.Empty != "" {
			return t.Empty
		}
		return t.Default
	}
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Status
			}
		}
	}
	return t.Default
}

// FederalStatusTable classifies Congress.gov latest-action text.
var FederalStatusTable = StatusTable{
	Rules: []StatusRule{
		{Keywords: []string{"became law", "signed"}, Status: StatusPassed},
		{Keywords: []string{"passed", "agreed to"}, Status: StatusPassed},
		{Keywords: []string{"failed", "rejected", "vetoed"}, Status: StatusFailed},
		{Keywords: []string{"referred to", "committee"}, Status: StatusInCommittee},
		{Keywords: []string{"introduced", "sponsor"}, Status: StatusIntroduced},
		{Keywords: []string{"scheduled", "calendar"}, Status: StatusScheduled},
		{Keywords: []string{"tabled", "held", "continued"}, Status: StatusTabled},
		{Keywords: []string{"withdrawn"}, Status: StatusWithdrawn},
	},
	Default: StatusUnknown,
}

// StateStatusTable classifies Open States latest-action descriptions.
var StateStatusTable = StatusTable{
	Rules: []StatusRule{
		{Keywords: []string{"became law", "signed"}, Status: StatusPassed},
		{Keywords: []string{"passed"}, Status: StatusPassed},
		{Keywords: []string{"failed", "rejected", "vetoed"}, Status: StatusFailed},
		{Keywords: []string{"committee"}, Status: StatusInCommittee},
		{Keywords: []string{"introduced", "read"}, Status: StatusIntroduced},
		{Keywords: []string{"calendar", "scheduled"}, Status: StatusScheduled},
		{Keywords: []string{"tabled", "held", "continued"}, Status: StatusTabled},
		{Keywords: []string{"withdrawn"}, Status: StatusWithdrawn},
	},
	Default: StatusUnknown,
}

// MunicipalStatusTable classifies agenda item action names. An agenda item
// without a recognised action is still on the agenda, hence scheduled.
var MunicipalStatusTable = StatusTable{
	Rules: []StatusRule{
		{Keywords: []string{"approved", "passed", "adopted"}, Status: StatusPassed},
		{Keywords: []string{"denied", "rejected", "failed"}, Status: StatusFailed},
		{Keywords: []string{"tabled", "continued", "postponed"}, Status: StatusTabled},
		{Keywords: []string{"withdrawn"}, Status: StatusWithdrawn},
	},
	Default: StatusScheduled,
	Empty:   StatusScheduled,
}
