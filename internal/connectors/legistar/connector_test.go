package legistar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tisaac13/villagevote/internal/connectors/apiclient"
	"github.com/tisaac13/villagevote/internal/core/domain"
)

const eventsJSON = `[
  {"EventId": 1701, "EventBodyName": "City Council Formal Meeting", "EventDate": "2025-03-05T00:00:00", "EventTime": "2:30 PM", "EventInSiteURL": "https://phoenix.legistar.com/MeetingDetail.aspx?LEGID=1701"},
  {"EventId": 1702, "EventBodyName": "Planning and Zoning Commission", "EventDate": "2025-03-06T00:00:00"}
]`

const itemsJSON = `[
  {"EventItemId": 9001, "EventItemAgendaNumber": "1", "EventItemTitle": "Approve minutes", "EventItemActionName": "approved", "EventItemMatterId": 55},
  {"EventItemId": 9002, "EventItemAgendaNumber": "2", "EventItemTitle": "Rezoning Z-12-24", "EventItemActionName": null}
]`

const calendarHTML = `<html><body><table>
<tr class="rgHeader"><th>Date</th><th>Name</th><th>Location</th></tr>
<tr class="rgRow"><td>3/5/2025</td><td><a href="MeetingDetail.aspx?ID=1701&amp;GUID=ABC">City Council Formal Meeting</a></td><td>Council Chambers</td></tr>
<tr class="rgAltRow"><td>3/6/2025</td><td>No link</td><td>Room 1</td></tr>
</table></body></html>`

const meetingHTML = `<html><body><table>
<tr class="rgRow"><td>1</td><td><a href="LegislationDetail.aspx?ID=55&amp;GUID=F00">Approve   minutes</a></td><td>Consent</td><td>adopted</td></tr>
<tr class="rgAltRow"><td>2</td><td>Rezoning Z-12-24</td></tr>
<tr class="rgRow"><td></td><td>Section header</td></tr>
</table></body></html>`

type fakeLegistar struct {
	apiDown   bool
	filter    atomic.Value
	webCalls  atomic.Int32
	itemCalls atomic.Int32
}

func (f *fakeLegistar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/v1/phoenix/"):
		if f.apiDown {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.URL.Path == "/v1/phoenix/Events" {
			f.filter.Store(r.URL.Query().Get("$filter"))
			_, _ = w.Write([]byte(eventsJSON))
			return
		}
		f.itemCalls.Add(1)
		if r.URL.Path == "/v1/phoenix/Events/1701/EventItems" {
			_, _ = w.Write([]byte(itemsJSON))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	case r.URL.Path == "/Calendar.aspx":
		f.webCalls.Add(1)
		_, _ = w.Write([]byte(calendarHTML))
	case r.URL.Path == "/MeetingDetail.aspx":
		f.webCalls.Add(1)
		if r.URL.Query().Get("ID") != "1701" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(meetingHTML))
	default:
		http.NotFound(w, r)
	}
}

func newTestConnector(t *testing.T, fake *fakeLegistar) *Connector {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := New(domain.LegistarSettings{
		Client:     "Phoenix",
		APIBaseURL: srv.URL + "/v1",
		WebBaseURL: srv.URL,
		Days:       14,
		MaxEvents:  5,
	}, apiclient.Config{Rate: -1})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(domain.LegistarSettings{}, apiclient.Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConnector_FetchFromAPI(t *testing.T) {
	fake := &fakeLegistar{}
	c := newTestConnector(t, fake)
	ctx := context.Background()

	page, err := c.Fetch(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "EventDate ge datetime'2025-03-01' and EventDate le datetime'2025-03-15'", fake.filter.Load())
	require.Len(t, page.Records, 2)
	assert.Equal(t, "1", page.NextCursor)
	assert.Equal(t, "1701", page.Records[0].Metadata["event_id"])

	approve, err := c.Normalize(page.Records[0])
	require.NoError(t, err)
	assert.Equal(t, domain.SourceLegistar, approve.Source)
	assert.Equal(t, "phoenix-1701-9001", approve.ExternalID)
	assert.Equal(t, "us:phoenix:1701:item:9001", approve.CanonicalKey)
	assert.Equal(t, domain.LevelCity, approve.Level)
	assert.Equal(t, domain.StatusPassed, approve.Status)
	assert.Equal(t, []string{"city council"}, approve.TopicTags)
	require.NotNil(t, approve.ScheduledFor)
	assert.Equal(t, time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC), *approve.ScheduledFor)

	rezoning, err := c.Normalize(page.Records[1])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, rezoning.Status, "no action yet")

	links := c.SourceLinks(page.Records[0])
	require.Len(t, links, 1)
	assert.Equal(t, "https://phoenix.legistar.com/MeetingDetail.aspx?LEGID=1701", links[0].URL)

	// Second meeting has no API items and no scraped page either.
	_, err = c.Fetch(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page, err = c.Fetch(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.Empty(t, page.NextCursor)
	assert.Equal(t, int32(1), fake.webCalls.Load(), "only the meeting-detail fallback hits the web")
	assert.Equal(t, int32(2), fake.itemCalls.Load())
}

func TestConnector_FallsBackToScraping(t *testing.T) {
	fake := &fakeLegistar{apiDown: true}
	c := newTestConnector(t, fake)

	page, err := c.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, page.NextCursor, "only one calendar row has a meeting link")
	require.Len(t, page.Records, 2)

	first, err := c.Normalize(page.Records[0])
	require.NoError(t, err)
	assert.Equal(t, "phoenix-1701-1701-1", first.ExternalID)
	assert.Equal(t, "Approve minutes", first.Title)
	assert.Equal(t, domain.StatusPassed, first.Status)
	require.NotNil(t, first.ScheduledFor)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), *first.ScheduledFor)

	links := c.SourceLinks(page.Records[0])
	require.Len(t, links, 1)
	assert.True(t, strings.HasSuffix(links[0].URL, "/LegislationDetail.aspx?ID=55&GUID=F00"))

	second, err := c.Normalize(page.Records[1])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, second.Status)
	assert.True(t, strings.HasSuffix(c.SourceLinks(page.Records[1])[0].URL, "/MeetingDetail.aspx?ID=1701&GUID=ABC"))
}

func TestConnector_NormalizeMalformed(t *testing.T) {
	c := newTestConnector(t, &fakeLegistar{})

	for _, payload := range []string{`{"client":"phoenix","event":{"id":"1"},"item":{}}`, `nope`} {
		_, err := c.Normalize(domain.RawRecord{Ref: "x", Payload: []byte(payload)})
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	}
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, untitled, truncateTitle("  "))
	assert.Equal(t, "short", truncateTitle("short"))

	long := truncateTitle(strings.Repeat("é", 600))
	assert.Equal(t, MaxTitleLength, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestBodyTags(t *testing.T) {
	assert.Equal(t, []string{"planning", "zoning"}, bodyTags("Planning and Zoning Commission"))
	assert.Nil(t, bodyTags("Parks Board"))
}

func TestParseEventTime(t *testing.T) {
	tests := []struct {
		date, clock string
		want        *time.Time
	}{
		{"2025-03-05T00:00:00", "", ptr(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))},
		{"3/5/2025 2:30 PM", "", ptr(time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC))},
		{"2025-03-05", "9:00 am", ptr(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))},
		{"soon", "", nil},
		{"", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, parseEventTime(tt.date, tt.clock))
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }
