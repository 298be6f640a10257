package legistar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tisaac13/villagevote/internal/connectors/apiclient"
	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
	"github.com/tisaac13/villagevote/internal/logger"
)

var log = logger.With("legistar")

const (
	// Name is the connector name used for run tracking.
	Name = "legistar"

	// MaxTitleLength bounds agenda item titles.
	MaxTitleLength = 500

	untitled = "Untitled agenda item"
)

// Ensure Connector implements the interface.
var _ driven.SourceAdapter = (*Connector)(nil)

// Connector fetches agenda items for one Legistar client. Each page holds
// the items of one meeting; the cursor is the meeting's index in the
// window listed by the first Fetch.
type Connector struct {
	cfg     domain.LegistarSettings
	webBase string
	api     *apiclient.Client
	web     *apiclient.Client
	now     func() time.Time

	mu     sync.Mutex
	events []event
	closed bool
}

// New creates a Legistar connector.
func New(cfg domain.LegistarSettings, opts apiclient.Config) (*Connector, error) {
	cfg.Client = strings.ToLower(strings.TrimSpace(cfg.Client))
	if cfg.Client == "" {
		return nil, fmt.Errorf("legistar client: %w", domain.ErrInvalidInput)
	}
	if cfg.Days <= 0 {
		cfg.Days = 30
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 10
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://webapi.legistar.com/v1"
	}
	webBase := strings.TrimRight(cfg.WebBaseURL, "/")
	if webBase == "" {
		webBase = fmt.Sprintf("https://%s.legistar.com", cfg.Client)
	}

	apiOpts := opts
	apiOpts.BaseURL = strings.TrimRight(cfg.APIBaseURL, "/") + "/" + cfg.Client
	api, err := apiclient.New(apiOpts)
	if err != nil {
		return nil, fmt.Errorf("legistar api: %w", err)
	}
	webOpts := opts
	webOpts.BaseURL = webBase
	web, err := apiclient.New(webOpts)
	if err != nil {
		return nil, fmt.Errorf("legistar web: %w", err)
	}

	return &Connector{
		cfg:     cfg,
		webBase: webBase,
		api:     api,
		web:     web,
		now:     time.Now,
	}, nil
}

// Name returns the connector name.
func (c *Connector) Name() string { return Name }

// Source returns the source system.
func (c *Connector) Source() domain.SourceSystem { return domain.SourceLegistar }

// event is a meeting, from the API or the calendar page.
type event struct {
	ID       string `json:"id"`
	BodyName string `json:"body_name"`
	Date     string `json:"date"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url,omitempty"`
}

// agendaItem is one item on a meeting agenda.
type agendaItem struct {
	ID           string `json:"id"`
	AgendaNumber string `json:"agenda_number,omitempty"`
	Title        string `json:"title"`
	Action       string `json:"action,omitempty"`
	MatterID     string `json:"matter_id,omitempty"`
	MatterURL    string `json:"matter_url,omitempty"`
}

// record is the payload of one raw record.
type record struct {
	Client string     `json:"client"`
	Event  event      `json:"event"`
	Item   agendaItem `json:"item"`
}

type apiEvent struct {
	EventID        int    `json:"EventId"`
	EventBodyName  string `json:"EventBodyName"`
	EventDate      string `json:"EventDate"`
	EventTime      string `json:"EventTime"`
	EventLocation  string `json:"EventLocation"`
	EventInSiteURL string `json:"EventInSiteURL"`
}

type apiEventItem struct {
	EventItemID           int    `json:"EventItemId"`
	EventItemAgendaNumber string `json:"EventItemAgendaNumber"`
	EventItemTitle        string `json:"EventItemTitle"`
	EventItemActionName   string `json:"EventItemActionName"`
	EventItemMatterID     *int   `json:"EventItemMatterId"`
}

// Fetch returns the agenda items of one meeting.
func (c *Connector) Fetch(ctx context.Context, cursor string) (domain.RawPage, error) {
	if c.isClosed() {
		return domain.RawPage{}, domain.ErrConnectorClosed
	}

	index := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return domain.RawPage{}, fmt.Errorf("legistar cursor %q: %w", cursor, domain.ErrInvalidInput)
		}
		index = n
	}

	events, err := c.window(ctx, cursor == "")
	if err != nil {
		return domain.RawPage{}, err
	}
	if index >= len(events) {
		return domain.RawPage{}, nil
	}

	ev := events[index]
	items, err := c.eventItems(ctx, ev.ID)
	if err != nil {
		return domain.RawPage{}, fmt.Errorf("event %s: %w", ev.ID, err)
	}

	page := domain.RawPage{Records: make([]domain.RawRecord, 0, len(items))}
	for _, it := range items {
		payload, err := json.Marshal(record{Client: c.cfg.Client, Event: ev, Item: it})
		if err != nil {
			return domain.RawPage{}, fmt.Errorf("encode item %s: %w", it.ID, err)
		}
		page.Records = append(page.Records, domain.RawRecord{
			Ref:      ev.ID + "/" + it.ID,
			Payload:  payload,
			Metadata: map[string]string{"event_id": ev.ID, "body": ev.BodyName},
		})
	}
	if index+1 < len(events) {
		page.NextCursor = strconv.Itoa(index + 1)
	}
	return page, nil
}

// window returns the meetings of the current run, listing them when
// refresh is set or nothing has been listed yet.
func (c *Connector) window(ctx context.Context, refresh bool) ([]event, error) {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()
	if events != nil && !refresh {
		return events, nil
	}

	events, err := c.upcomingEvents(ctx)
	if err != nil {
		return nil, err
	}
	if len(events) > c.cfg.MaxEvents {
		events = events[:c.cfg.MaxEvents]
	}
	c.mu.Lock()
	c.events = events
	c.mu.Unlock()
	log.Debug("%s: %d meetings in window", c.cfg.Client, len(events))
	return events, nil
}

func (c *Connector) upcomingEvents(ctx context.Context) ([]event, error) {
	start := c.now()
	end := start.AddDate(0, 0, c.cfg.Days)
	query := url.Values{
		"$filter": {fmt.Sprintf("EventDate ge datetime'%s' and EventDate le datetime'%s'",
			start.Format("2006-01-02"), end.Format("2006-01-02"))},
		"$orderby": {"EventDate"},
	}

	var list []apiEvent
	err := c.api.GetJSON(ctx, "Events", query, &list)
	if err == nil && len(list) > 0 {
		out := make([]event, 0, len(list))
		for _, e := range list {
			out = append(out, event{
				ID:       strconv.Itoa(e.EventID),
				BodyName: e.EventBodyName,
				Date:     e.EventDate,
				Time:     e.EventTime,
				Location: e.EventLocation,
				URL:      e.EventInSiteURL,
			})
		}
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		log.Warn("%s: events API failed, scraping calendar: %v", c.cfg.Client, err)
	}

	events, scrapeErr := c.scrapeCalendar(ctx)
	if scrapeErr != nil {
		return nil, errors.Join(err, scrapeErr)
	}
	return events, nil
}

func (c *Connector) eventItems(ctx context.Context, eventID string) ([]agendaItem, error) {
	var list []apiEventItem
	err := c.api.GetJSON(ctx, "Events/"+url.PathEscape(eventID)+"/EventItems", nil, &list)
	if err == nil && len(list) > 0 {
		out := make([]agendaItem, 0, len(list))
		for _, it := range list {
			item := agendaItem{
				ID:           strconv.Itoa(it.EventItemID),
				AgendaNumber: it.EventItemAgendaNumber,
				Title:        it.EventItemTitle,
				Action:       it.EventItemActionName,
			}
			if it.EventItemMatterID != nil {
				item.MatterID = strconv.Itoa(*it.EventItemMatterID)
			}
			out = append(out, item)
		}
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		log.Warn("%s: event items API failed for %s, scraping: %v", c.cfg.Client, eventID, err)
	}

	items, scrapeErr := c.scrapeEventItems(ctx, eventID)
	if scrapeErr != nil {
		return nil, errors.Join(err, scrapeErr)
	}
	return items, nil
}

// Normalize maps an agenda item onto measure fields.
func (c *Connector) Normalize(raw domain.RawRecord) (domain.NormalizedMeasure, error) {
	r, err := decodeRecord(raw)
	if err != nil {
		return domain.NormalizedMeasure{}, err
	}

	n := domain.NormalizedMeasure{
		Source:       domain.SourceLegistar,
		ExternalID:   ExternalID(r.Client, r.Event.ID, r.Item.ID),
		Title:        truncateTitle(r.Item.Title),
		Level:        domain.LevelCity,
		Status:       domain.MunicipalStatusTable.Classify(r.Item.Action),
		ScheduledFor: parseEventTime(r.Event.Date, r.Event.Time),
		CanonicalKey: domain.CanonicalKey("us", r.Client, r.Event.ID, "item", r.Item.ID),
	}
	if tags := bodyTags(r.Event.BodyName); len(tags) > 0 {
		n.TopicTags = tags
	}
	return n, nil
}

// SourceLinks returns the matter page, else the meeting page.
func (c *Connector) SourceLinks(raw domain.RawRecord) []domain.MeasureSource {
	r, err := decodeRecord(raw)
	if err != nil {
		return nil
	}
	link := r.Item.MatterURL
	if link == "" {
		link = r.Event.URL
	}
	if link == "" {
		link = c.webBase + "/MeetingDetail.aspx?ID=" + url.QueryEscape(r.Event.ID)
	}
	return []domain.MeasureSource{{
		Label:       "Legistar",
		URL:         link,
		ContentType: domain.ContentHTML,
		Primary:     true,
	}}
}

// Close marks the connector closed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.events = nil
	return nil
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ExternalID builds {client}-{eventID}-{itemID}.
func ExternalID(client, eventID, itemID string) string {
	return fmt.Sprintf("%s-%s-%s", client, eventID, itemID)
}

func decodeRecord(raw domain.RawRecord) (record, error) {
	var r record
	if err := json.Unmarshal(raw.Payload, &r); err != nil {
		return r, fmt.Errorf("item %s: %w: %w", raw.Ref, domain.ErrMalformedRecord, err)
	}
	if r.Client == "" || r.Event.ID == "" || r.Item.ID == "" {
		return r, fmt.Errorf("item %s: missing event or item id: %w", raw.Ref, domain.ErrMalformedRecord)
	}
	return r, nil
}

func truncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return untitled
	}
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	runes := []rune(title)
	return string(runes[:MaxTitleLength-3]) + "..."
}

func bodyTags(body string) []string {
	b := strings.ToLower(body)
	var tags []string
	if strings.Contains(b, "council") {
		tags = append(tags, "city council")
	}
	if strings.Contains(b, "planning") {
		tags = append(tags, "planning")
	}
	if strings.Contains(b, "zoning") {
		tags = append(tags, "zoning")
	}
	return tags
}

var dateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02", "1/2/2006", "01/02/2006"}

// parseEventTime parses a meeting date ("2025-03-04T00:00:00" or
// "3/4/2025 2:30 PM") and, when present, its separate time ("2:30 PM").
func parseEventTime(date, clock string) *time.Time {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return nil
	}
	if clock == "" && len(fields) > 1 {
		clock = strings.Join(fields[1:], " ")
	}

	for _, layout := range dateLayouts {
		d, err := time.Parse(layout, fields[0])
		if err != nil {
			continue
		}
		if tod, err := time.Parse("3:04 PM", strings.ToUpper(strings.TrimSpace(clock))); err == nil {
			d = time.Date(d.Year(), d.Month(), d.Day(), tod.Hour(), tod.Minute(), 0, 0, time.UTC)
		}
		d = d.UTC()
		return &d
	}
	return nil
}
