package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNormalized() NormalizedMeasure {
	introduced := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	return NormalizedMeasure{
		Source:       SourceCongress,
		ExternalID:   "119-hr-1",
		Title:        "Lower Energy Costs Act",
		Level:        LevelFederal,
		Status:       StatusIntroduced,
		IntroducedAt: &introduced,
		TopicTags:    []string{"energy"},
		CanonicalKey: "us:congress:119:hr:1",
	}
}

func TestNormalizedMeasure_Validate(t *testing.T) {
	n := sampleNormalized()
	require.NoError(t, n.Validate())

	missingTitle := n
	missingTitle.Title = ""
	assert.ErrorIs(t, missingTitle.Validate(), ErrMalformedRecord)

	missingID := n
	missingID.ExternalID = ""
	assert.ErrorIs(t, missingID.Validate(), ErrMalformedRecord)

	badSource := n
	badSource.Source = "ballotpedia"
	assert.ErrorIs(t, badSource.Validate(), ErrMalformedRecord)
}

func TestNewMeasure(t *testing.T) {
	m := NewMeasure(sampleNormalized())

	assert.Equal(t, SourceCongress, m.Source)
	assert.Equal(t, "119-hr-1", m.ExternalID)
	assert.Equal(t, StatusIntroduced, m.Status)
	assert.Equal(t, []string{"energy"}, m.TopicTags)
	assert.Equal(t, "us:congress:119:hr:1", m.CanonicalKey)
}

func TestNewMeasure_DefaultsToUnknownStatus(t *testing.T) {
	n := sampleNormalized()
	n.Status = ""

	m := NewMeasure(n)

	assert.Equal(t, StatusUnknown, m.Status)
}

func TestMeasure_Merge_Idempotent(t *testing.T) {
	n := sampleNormalized()
	m := NewMeasure(n)

	assert.False(t, m.Merge(n))
	assert.False(t, m.Merge(n))
}

func TestMeasure_Merge_NullsNeverOverwrite(t *testing.T) {
	m := NewMeasure(sampleNormalized())
	m.SummaryShort = "stored summary"

	changed := m.Merge(NormalizedMeasure{
		Source:     SourceCongress,
		ExternalID: "119-hr-1",
		Status:     StatusUnknown,
	})

	assert.False(t, changed)
	assert.Equal(t, "Lower Energy Costs Act", m.Title)
	assert.Equal(t, StatusIntroduced, m.Status)
	assert.Equal(t, "stored summary", m.SummaryShort)
	assert.NotNil(t, m.IntroducedAt)
	assert.Equal(t, []string{"energy"}, m.TopicTags)
}

func TestMeasure_Merge_Changes(t *testing.T) {
	m := NewMeasure(sampleNormalized())
	n := sampleNormalized()
	n.Status = StatusPassed
	n.Title = "Lower Energy Costs Act of 2025"

	assert.True(t, m.Merge(n))
	assert.Equal(t, StatusPassed, m.Status)
	assert.Equal(t, "Lower Energy Costs Act of 2025", m.Title)
}

func TestMeasure_Merge_TimesStoredInUTC(t *testing.T) {
	phoenix := time.FixedZone("MST", -7*3600)
	scheduled := time.Date(2025, 3, 4, 14, 0, 0, 0, phoenix)
	n := sampleNormalized()
	n.ScheduledFor = &scheduled

	m := NewMeasure(n)

	require.NotNil(t, m.ScheduledFor)
	assert.Equal(t, time.UTC, m.ScheduledFor.Location())
	assert.True(t, m.ScheduledFor.Equal(scheduled))
	assert.False(t, m.Merge(n))
}

func TestLimitTags(t *testing.T) {
	var tags []string
	for i := range 15 {
		tags = append(tags, fmt.Sprintf("tag-%d", i))
	}
	tags = append([]string{"", "tag-0"}, tags...)

	got := LimitTags(tags)

	assert.Len(t, got, MaxTopicTags)
	assert.Equal(t, "tag-0", got[0])
	assert.Equal(t, "tag-9", got[9])
}
