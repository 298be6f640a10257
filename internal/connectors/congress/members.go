package congress

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

type memberList struct {
	Members    []member `json:"members"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

type member struct {
	BioguideID string `json:"bioguideId"`
	Name       string `json:"name"`
	PartyName  string `json:"partyName"`
	State      string `json:"state"`
	District   *int   `json:"district"`
	Depiction  struct {
		ImageURL string `json:"imageUrl"`
	} `json:"depiction"`
	Terms struct {
		Item []struct {
			Chamber   string `json:"chamber"`
			StartYear int    `json:"startYear"`
			EndYear   int    `json:"endYear"`
		} `json:"item"`
	} `json:"terms"`
}

// Members lists the current members of a Congress.
func (c *Connector) Members(ctx context.Context, congress int) ([]domain.Official, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}

	var out []domain.Official
	for offset := 0; ; {
		var list memberList
		query := url.Values{
			"currentMember": {"true"},
			"offset":        {strconv.Itoa(offset)},
			"limit":         {strconv.Itoa(MaxPageSize)},
		}
		if err := c.client.GetJSON(ctx, fmt.Sprintf("member/congress/%d", congress), query, &list); err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		for _, m := range list.Members {
			out = append(out, m.official())
		}
		offset += len(list.Members)
		if len(list.Members) < MaxPageSize || list.Pagination.Next == "" {
			return out, nil
		}
	}
}

// official maps a member record onto an official. Senators carry no
// district; their district label is the state code.
func (m member) official() domain.Official {
	state := StateCode(m.State)
	o := domain.Official{
		BioguideID: m.BioguideID,
		Name:       displayName(m.Name),
		FamilyName: familyName(m.Name),
		Party:      m.PartyName,
		State:      state,
		PhotoURL:   m.Depiction.ImageURL,
	}

	senate := m.District == nil
	if n := len(m.Terms.Item); n > 0 {
		senate = strings.EqualFold(m.Terms.Item[n-1].Chamber, "Senate")
	}
	if senate {
		o.Chamber = domain.ChamberUSSenate
		o.Office = "U.S. Senator"
		o.DistrictLabel = state
	} else {
		o.Chamber = domain.ChamberUSHouse
		o.Office = "U.S. Representative"
		if m.District != nil {
			o.DistrictLabel = fmt.Sprintf("CD-%02d", *m.District)
		}
	}
	return o
}

// displayName turns "Kelly, Mark" into "Mark Kelly".
func displayName(name string) string {
	last, first, ok := strings.Cut(name, ",")
	if !ok {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// familyName keeps the part before the comma, so "Van Hollen, Chris" stays
// "Van Hollen". Names without a comma carry no reliable surname.
func familyName(name string) string {
	last, _, ok := strings.Cut(name, ",")
	if !ok {
		return ""
	}
	return strings.TrimSpace(last)
}
