package openstates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tisaac13/villagevote/internal/connectors/apiclient"
	"github.com/tisaac13/villagevote/internal/core/domain"
)

const billsPage = `{
  "results": [
    {
      "id": "ocd-bill/1",
      "session": "57th-1st-regular",
      "identifier": "HB 2001",
      "title": "Appropriations; school safety",
      "classification": ["bill"],
      "subject": ["Education", "Public Safety"],
      "openstates_url": "https://openstates.org/az/bills/57th-1st-regular/HB2001/",
      "first_action_date": "2025-01-13",
      "latest_action_description": "Referred to House Appropriations Committee"
    },
    {
      "id": "ocd-bill/2",
      "session": "57th-1st-regular",
      "identifier": "SCR 1003",
      "title": "",
      "latest_action_description": "Transmitted to Secretary of State; signed",
      "sources": [{"url": ""}, {"url": "https://www.azleg.gov/legtext/57leg/1R/bills/SCR1003P.htm"}]
    },
    {
      "id": "ocd-bill/3",
      "session": "57th-1st-regular",
      "identifier": "SB 1100",
      "title": "Water rights"
    }
  ],
  "pagination": {"per_page": 3, "page": 1, "max_page": 4, "total_items": 12}
}`

func newTestConnector(t *testing.T, handler http.HandlerFunc, settings domain.OpenStatesSettings) *Connector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	if settings.APIKey == "" {
		settings.APIKey = "os-key"
	}
	if settings.Jurisdiction == "" {
		settings.Jurisdiction = "az"
	}
	c, err := New(settings, apiclient.Config{BaseURL: srv.URL, Rate: -1})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(domain.OpenStatesSettings{Jurisdiction: "az"}, apiclient.Config{})
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	_, err = New(domain.OpenStatesSettings{APIKey: "k", Jurisdiction: "arizona"}, apiclient.Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStateFromJurisdiction(t *testing.T) {
	assert.Equal(t, "az", stateFromJurisdiction("AZ"))
	assert.Equal(t, "az", stateFromJurisdiction("ocd-jurisdiction/country:us/state:az/government"))
	assert.Equal(t, "", stateFromJurisdiction(""))
}

func TestConnector_Fetch(t *testing.T) {
	var key, jurisdiction, page, session string
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bills", r.URL.Path)
		key = r.Header.Get(HeaderAPIKey)
		jurisdiction = r.URL.Query().Get("jurisdiction")
		page = r.URL.Query().Get("page")
		session = r.URL.Query().Get("session")
		_, _ = w.Write([]byte(billsPage))
	}, domain.OpenStatesSettings{Session: "57th-1st-regular", PageSize: 3})

	got, err := c.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "os-key", key)
	assert.Equal(t, "az", jurisdiction)
	assert.Equal(t, "1", page)
	assert.Equal(t, "57th-1st-regular", session)
	assert.Len(t, got.Records, 3)
	assert.Equal(t, "2", got.NextCursor)

	got, err = c.Fetch(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, "4", page)
	assert.Empty(t, got.NextCursor, "last page")

	_, err = c.Fetch(context.Background(), "0")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConnector_FetchPageCap(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(billsPage))
	}, domain.OpenStatesSettings{Pages: 1})

	got, err := c.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got.NextCursor)
}

func TestConnector_Normalize(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(billsPage))
	}, domain.OpenStatesSettings{})
	page, err := c.Fetch(context.Background(), "")
	require.NoError(t, err)

	hb, err := c.Normalize(page.Records[0])
	require.NoError(t, err)
	assert.Equal(t, domain.SourceOpenStates, hb.Source)
	assert.Equal(t, "az-57th-1st-regular-hb-2001", hb.ExternalID)
	assert.Equal(t, "us:az:57th-1st-regular:hb:2001", hb.CanonicalKey)
	assert.Equal(t, domain.LevelState, hb.Level)
	assert.Equal(t, domain.StatusInCommittee, hb.Status)
	assert.Equal(t, []string{"bill", "Education", "Public Safety"}, hb.TopicTags)
	require.NotNil(t, hb.IntroducedAt)
	assert.Equal(t, 2025, hb.IntroducedAt.Year())

	scr, err := c.Normalize(page.Records[1])
	require.NoError(t, err)
	assert.Equal(t, "SCR 1003", scr.Title)
	assert.Equal(t, "us:az:57th-1st-regular:scr:1003", scr.CanonicalKey)
	assert.Equal(t, domain.StatusPassed, scr.Status)
	assert.Nil(t, scr.TopicTags)
	assert.Nil(t, scr.IntroducedAt)

	sb, err := c.Normalize(page.Records[2])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnknown, sb.Status)
}

func TestConnector_NormalizeMalformed(t *testing.T) {
	c := newTestConnector(t, func(http.ResponseWriter, *http.Request) {}, domain.OpenStatesSettings{})

	for _, payload := range []string{`{"session":"57th"}`, `{"identifier":"HB 1"}`, `[`} {
		_, err := c.Normalize(domain.RawRecord{Ref: "x", Payload: []byte(payload)})
		assert.ErrorIs(t, err, domain.ErrMalformedRecord, payload)
	}
}

func TestConnector_SourceLinks(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(billsPage))
	}, domain.OpenStatesSettings{})
	page, err := c.Fetch(context.Background(), "")
	require.NoError(t, err)

	tests := []struct {
		name string
		rec  int
		want string
	}{
		{"openstates url", 0, "https://openstates.org/az/bills/57th-1st-regular/HB2001/"},
		{"first non-empty source", 1, "https://www.azleg.gov/legtext/57leg/1R/bills/SCR1003P.htm"},
		{"constructed", 2, "https://www.azleg.gov/legtext/57th-1st-regular/SB1100.htm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := c.SourceLinks(page.Records[tt.rec])
			require.Len(t, links, 1)
			assert.Equal(t, tt.want, links[0].URL)
			assert.True(t, links[0].Primary)
		})
	}
}

func TestConnector_Unauthorized(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, domain.OpenStatesSettings{})

	_, err := c.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestConnector_Closed(t *testing.T) {
	c := newTestConnector(t, func(http.ResponseWriter, *http.Request) {}, domain.OpenStatesSettings{})
	require.NoError(t, c.Close())
	_, err := c.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrConnectorClosed)
}
