package house

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/tisaac13/villagevote/internal/connectors/apiclient"
	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// DefaultBaseURL is the Clerk of the House.
const DefaultBaseURL = "https://clerk.house.gov"

var _ driven.RollCallSource = (*Source)(nil)

// Source fetches House roll calls.
type Source struct {
	client *apiclient.Client
}

// New creates a House roll-call source.
func New(opts apiclient.Config) (*Source, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	client, err := apiclient.New(opts)
	if err != nil {
		return nil, fmt.Errorf("house: %w", err)
	}
	return &Source{client: client}, nil
}

// Chamber returns the House.
func (s *Source) Chamber() domain.RollCallChamber { return domain.RollCallHouse }

// Path is the document path of a roll call relative to the base URL.
// The Clerk files roll calls by calendar year, not by session.
func Path(congress, session, sequence int) string {
	return fmt.Sprintf("evs/%d/roll%03d.xml", domain.SessionYear(congress, session), sequence)
}

// Fetch retrieves one roll call.
func (s *Source) Fetch(ctx context.Context, congress, session, sequence int) (*domain.RollCall, error) {
	ref := Path(congress, session, sequence)
	body, err := s.client.Get(ctx, ref, nil)
	if err != nil {
		if apiclient.IsNotFound(err) {
			return nil, fmt.Errorf("house roll %d: %w", sequence, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("house roll %d: %w", sequence, err)
	}

	rc, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("house roll %d: %w", sequence, err)
	}
	rc.Congress = congress
	rc.Session = session
	rc.Sequence = sequence
	rc.SourceURL, _ = s.client.Resolve(ref, nil)
	return rc, nil
}

type rollcallVote struct {
	XMLName  xml.Name `xml:"rollcall-vote"`
	Metadata struct {
		LegisNum   string `xml:"legis-num"`
		VoteResult string `xml:"vote-result"`
		ActionDate struct {
			Date string `xml:"date,attr"`
			Text string `xml:",chardata"`
		} `xml:"action-date"`
		ActionTime struct {
			ETZ string `xml:"time-etz,attr"`
		} `xml:"action-time"`
	} `xml:"vote-metadata"`
	Votes []struct {
		Legislator struct {
			NameID         string `xml:"name-id,attr"`
			UnaccentedName string `xml:"unaccented-name,attr"`
			State          string `xml:"state,attr"`
			Name           string `xml:",chardata"`
		} `xml:"legislator"`
		Vote string `xml:"vote"`
	} `xml:"vote-data>recorded-vote"`
}

// Parse decodes a Clerk roll-call document. Congress, session and
// sequence are left for the caller.
func Parse(data []byte) (*domain.RollCall, error) {
	var doc rollcallVote
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}

	md := doc.Metadata
	rc := &domain.RollCall{
		Chamber:    domain.RollCallHouse,
		Citation:   strings.TrimSpace(md.LegisNum),
		ResultText: strings.TrimSpace(md.VoteResult),
		Members:    make([]domain.RollCallMember, 0, len(doc.Votes)),
	}

	date := strings.TrimSpace(md.ActionDate.Text)
	if date == "" {
		date = strings.TrimSpace(md.ActionDate.Date)
	}
	rc.HeldAt = parseActionDate(date, md.ActionTime.ETZ)

	for _, v := range doc.Votes {
		name := v.Legislator.UnaccentedName
		if name == "" {
			name = v.Legislator.Name
		}
		rc.Members = append(rc.Members, domain.RollCallMember{
			MemberID: strings.TrimSpace(v.Legislator.NameID),
			LastName: strings.TrimSpace(name),
			State:    strings.TrimSpace(v.Legislator.State),
			VoteText: strings.TrimSpace(v.Vote),
		})
	}
	return rc, nil
}

// parseActionDate parses "4-Feb-2025" with an optional 24-hour "14:03".
func parseActionDate(date, clock string) *time.Time {
	if date == "" {
		return nil
	}
	d, err := time.Parse("2-Jan-2006", date)
	if err != nil {
		return nil
	}
	if t, err := time.Parse("15:04", strings.TrimSpace(clock)); err == nil {
		d = d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
	}
	return &d
}
