package senate

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

// DefaultBaseURL is senate.gov.
const DefaultBaseURL = "https://www.senate.gov"

var _ driven.RollCallSource = (*Source)(nil)

// Source fetches Senate roll calls.
type Source struct {
	client *apiclient.Client
}

// New creates a Senate roll-call source.
func New(opts apiclient.Config) (*Source, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	client, err := apiclient.New(opts)
	if err != nil {
		return nil, fmt.Errorf("senate: %w", err)
	}
	return &Source{client: client}, nil
}

// Chamber returns the Senate.
func (s *Source) Chamber() domain.RollCallChamber { return domain.RollCallSenate }

// Path is the document path of a vote relative to the base URL.
func Path(congress, session, sequence int) string {
	return fmt.Sprintf("legislative/LIS/roll_call_votes/vote%d%d/vote_%d_%d_%05d.xml",
		congress, session, congress, session, sequence)
}

// Fetch retrieves one roll-call vote.
func (s *Source) Fetch(ctx context.Context, congress, session, sequence int) (*domain.RollCall, error) {
	ref := Path(congress, session, sequence)
	body, err := s.client.Get(ctx, ref, nil)
	if err != nil {
		if apiclient.IsNotFound(err) {
			return nil, fmt.Errorf("senate vote %d: %w", sequence, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("senate vote %d: %w", sequence, err)
	}

	rc, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("senate vote %d: %w", sequence, err)
	}
	rc.Congress = congress
	rc.Session = session
	rc.Sequence = sequence
	rc.SourceURL, _ = s.client.Resolve(ref, nil)
	return rc, nil
}

type rollCallVote struct {
	XMLName    xml.Name `xml:"roll_call_vote"`
	VoteDate   string   `xml:"vote_date"`
	VoteResult string   `xml:"vote_result"`
	Document   struct {
		Type   string `xml:"document_type"`
		Number string `xml:"document_number"`
		Name   string `xml:"document_name"`
	} `xml:"document"`
	Members []struct {
		LISMemberID string `xml:"lis_member_id"`
		LastName    string `xml:"last_name"`
		State       string `xml:"state"`
		VoteCast    string `xml:"vote_cast"`
	} `xml:"members>member"`
}

// Parse decodes an LIS roll-call document. Congress, session and sequence
// are left for the caller.
func Parse(data []byte) (*domain.RollCall, error) {
	var doc rollCallVote
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}

	rc := &domain.RollCall{
		Chamber:    domain.RollCallSenate,
		Citation:   citation(doc.Document.Name, doc.Document.Type, doc.Document.Number),
		HeldAt:     parseVoteDate(doc.VoteDate),
		ResultText: strings.TrimSpace(doc.VoteResult),
		Members:    make([]domain.RollCallMember, 0, len(doc.Members)),
	}
	for _, m := range doc.Members {
		rc.Members = append(rc.Members, domain.RollCallMember{
			MemberID: strings.TrimSpace(m.LISMemberID),
			LastName: strings.TrimSpace(m.LastName),
			State:    strings.TrimSpace(m.State),
			VoteText: strings.TrimSpace(m.VoteCast),
		})
	}
	return rc, nil
}

// citation prefers document_name and falls back to type and number.
func citation(name, kind, number string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	kind, number = strings.TrimSpace(kind), strings.TrimSpace(number)
	if kind == "" || number == "" {
		return ""
	}
	return kind + " " + number
}

var voteDateLayouts = []string{"January 2, 2006, 03:04 PM", "January 2, 2006"}

// parseVoteDate parses "February 4, 2025, 05:36 PM" or a bare date.
func parseVoteDate(s string) *time.Time {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	for _, layout := range voteDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
