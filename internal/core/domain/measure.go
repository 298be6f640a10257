package domain

import (
	"slices"
	"time"
)

// SourceSystem identifies the external system a measure was ingested from.
type SourceSystem string

const (
	SourceCongress   SourceSystem = "congress"
	SourceOpenStates SourceSystem = "openstates"
	SourceLegistar   SourceSystem = "legistar"
	SourceCustom     SourceSystem = "custom"
)

// Valid reports whether s is a known source system.
func (s SourceSystem) Valid() bool {
	switch s {
	case SourceCongress, SourceOpenStates, SourceLegistar, SourceCustom:
		return true
	}
	return false
}

// JurisdictionLevel is the level of government a measure belongs to.
type JurisdictionLevel string

const (
	LevelFederal JurisdictionLevel = "federal"
	LevelState   JurisdictionLevel = "state"
	LevelCounty  JurisdictionLevel = "county"
	LevelCity    JurisdictionLevel = "city"
)

// ContentType is the kind of document a MeasureSource link points at.
type ContentType string

const (
	ContentHTML ContentType = "html"
	ContentPDF  ContentType = "pdf"
	ContentAPI  ContentType = "api"
	ContentText ContentType = "text"
)

// MaxTopicTags is the maximum number of topic tags kept on a measure.
const MaxTopicTags = 10

// Measure is a tracked legislative item: a bill, resolution, ordinance or
// agenda item. (Source, ExternalID) is unique.
type Measure struct {
	// ID is the store-assigned identifier.
	ID string

	// Source is the system the measure was first ingested from.
	Source SourceSystem

	// ExternalID is the identifier within Source.
	ExternalID string

	// Title is the official or agenda title.
	Title string

	// Level is the jurisdiction level.
	Level JurisdictionLevel

	// Status is the current lifecycle status.
	Status MeasureStatus

	// IntroducedAt is when the measure was introduced, if known.
	IntroducedAt *time.Time

	// ScheduledFor is when the measure is scheduled to be heard, if known.
	ScheduledFor *time.Time

	// TopicTags is an ordered list of at most MaxTopicTags subjects.
	TopicTags []string

	// SummaryShort and SummaryLong are free-text summaries.
	SummaryShort string
	SummaryLong  string

	// CanonicalKey is the cross-source dedup and citation join key.
	CanonicalKey string

	// UpdatedAt is when any field last changed.
	UpdatedAt time.Time
}

// MeasureSource is an attributed link to a measure. Never mutated.
type MeasureSource struct {
	ID          string
	MeasureID   string
	Label       string
	URL         string
	ContentType ContentType
	Primary     bool
}

// MeasureStatusEvent records a status transition of a measure.
type MeasureStatusEvent struct {
	MeasureID   string
	Status      MeasureStatus
	EffectiveAt time.Time
	SourceURL   string
}

// NormalizedMeasure is the output of a source adapter's normalisation step.
// Zero values mean "not provided" and never overwrite stored data:
// empty strings, nil times, a nil TopicTags slice and StatusUnknown.
type NormalizedMeasure struct {
	Source       SourceSystem
	ExternalID   string
	Title        string
	Level        JurisdictionLevel
	Status       MeasureStatus
	IntroducedAt *time.Time
	ScheduledFor *time.Time
	TopicTags    []string
	SummaryShort string
	SummaryLong  string
	CanonicalKey string
}

// Validate checks the fields every normalised record must carry.
func (n NormalizedMeasure) Validate() error {
	if !n.Source.Valid() || n.ExternalID == "" || n.Title == "" {
		return ErrMalformedRecord
	}
	return nil
}

// NewMeasure builds a measure from normalised fields.
func NewMeasure(n NormalizedMeasure) Measure {
	m := Measure{
		Source:     n.Source,
		ExternalID: n.ExternalID,
		Status:     StatusUnknown,
	}
	m.Merge(n)
	return m
}

// Merge overwrites the measure's fields with the non-null fields of n.
// It returns true when any stored value changed. Source and ExternalID are
// identity and are never overwritten.
func (m *Measure) Merge(n NormalizedMeasure) bool {
	changed := false
	setString := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	setTime := func(dst **time.Time, v *time.Time) {
		if v == nil {
			return
		}
		if *dst == nil || !(*dst).Equal(*v) {
			t := v.UTC()
			*dst = &t
			changed = true
		}
	}

	setString(&m.Title, n.Title)
	if n.Level != "" && m.Level != n.Level {
		m.Level = n.Level
		changed = true
	}
	if n.Status != "" && n.Status != StatusUnknown && m.Status != n.Status {
		m.Status = n.Status
		changed = true
	}
	setTime(&m.IntroducedAt, n.IntroducedAt)
	setTime(&m.ScheduledFor, n.ScheduledFor)
	if n.TopicTags != nil {
		tags := LimitTags(n.TopicTags)
		if !slices.Equal(m.TopicTags, tags) {
			m.TopicTags = tags
			changed = true
		}
	}
	setString(&m.SummaryShort, n.SummaryShort)
	setString(&m.SummaryLong, n.SummaryLong)
	setString(&m.CanonicalKey, n.CanonicalKey)
	if m.Status == "" {
		m.Status = StatusUnknown
	}
	return changed
}

// LimitTags drops empty and duplicate tags and keeps at most MaxTopicTags,
// preserving order.
func LimitTags(tags []string) []string {
	out := make([]string, 0, min(len(tags), MaxTopicTags))
	for _, t := range tags {
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
		if len(out) == MaxTopicTags {
			break
		}
	}
	return out
}
