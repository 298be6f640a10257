package domain

import (
	"strings"
	"time"
	"unicode"
)

// Chamber identifies the legislative body an official sits in.
type Chamber string

const (
	ChamberUSHouse     Chamber = "us_house"
	ChamberUSSenate    Chamber = "us_senate"
	ChamberStateHouse  Chamber = "state_house"
	ChamberStateSenate Chamber = "state_senate"
	ChamberCityCouncil Chamber = "city_council"
)

// Federal reports whether the chamber is a chamber of Congress.
func (c Chamber) Federal() bool {
	return c == ChamberUSHouse || c == ChamberUSSenate
}

// Official is an elected representative. Refreshed in place, never duplicated.
type Official struct {
	ID string

	// BioguideID is the Congress biographical directory ID, the primary
	// identifier for House roll calls.
	BioguideID string

	// LISMemberID is the Senate LIS ID (e.g. "S354"). Often unknown until a
	// Senate roll call backfills it through the name/state fallback.
	LISMemberID string

	Name string

	// FamilyName is the surname as the source publishes it ("Van Hollen"),
	// kept because it cannot be recovered from a display name.
	FamilyName string

	Office        string
	Party         string
	Chamber       Chamber
	State         string
	DistrictLabel string
	PhotoURL      string
	UpdatedAt     time.Time
}

// MemberID returns the official's identifier for the given ID kind.
func (o *Official) MemberID(kind MemberIDKind) string {
	switch kind {
	case MemberIDBioguide:
		return o.BioguideID
	case MemberIDLIS:
		return o.LISMemberID
	}
	return ""
}

// LastName extracts the normalised last name used by fallback matching,
// preferring the stored family name.
func (o *Official) LastName() string {
	if last := NormalizeLastName(o.FamilyName); last != "" {
		return last
	}
	name := strings.TrimSpace(o.Name)
	if i := strings.Index(name, ","); i >= 0 {
		return NormalizeLastName(name[:i])
	}
	fields := strings.Fields(name)
	for len(fields) > 1 && isSuffix(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return ""
	}
	return NormalizeLastName(fields[len(fields)-1])
}

// NormalizedName returns the normalised full name in "first last" order with
// any generational suffix dropped ("Casey, Robert P. Jr." -> "robert p casey").
func (o *Official) NormalizedName() string {
	name := strings.TrimSpace(o.Name)
	if last, first, ok := strings.Cut(name, ","); ok {
		name = first + " " + last
	}
	var kept []string
	for _, f := range strings.Fields(NormalizeLastName(name)) {
		if !isSuffix(f) {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// MemberIDKind names a chamber-specific legislator identifier.
type MemberIDKind string

const (
	MemberIDBioguide MemberIDKind = "bioguide"
	MemberIDLIS      MemberIDKind = "lis"
)

// IDBackfill records an identifier learned for an official through fallback
// matching, persisted alongside the vote event it was learned from.
type IDBackfill struct {
	OfficialID string
	Kind       MemberIDKind
	Value      string
}

// UserOfficial links a user to an official that represents them.
type UserOfficial struct {
	UserID     string
	OfficialID string
	Active     bool
	DerivedAt  time.Time
}

// NormalizeLastName lowercases and strips punctuation and any parenthesised
// qualifier ("Smith (NJ)" -> "smith", "McMorris Rodgers" -> "mcmorris rodgers").
func NormalizeLastName(s string) string {
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeState uppercases a state or region code.
func NormalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func isSuffix(s string) bool {
	switch strings.ToLower(strings.TrimRight(s, ".")) {
	case "jr", "sr", "ii", "iii", "iv":
		return true
	}
	return false
}
