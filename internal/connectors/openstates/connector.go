package openstates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tisaac13/villagevote/internal/connectors/apiclient"
	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

const (
	// Name is the connector name used for run tracking.
	Name = "openstates"

	// MaxPageSize is the largest page the API serves.
	MaxPageSize = 20

	// HeaderAPIKey carries the API key.
	HeaderAPIKey = "X-API-KEY"
)

// Ensure Connector implements the interface.
var _ driven.SourceAdapter = (*Connector)(nil)

// Connector fetches bills for one jurisdiction from Open States.
type Connector struct {
	cfg    domain.OpenStatesSettings
	state  string
	client *apiclient.Client

	mu     sync.Mutex
	closed bool
}

// New creates an Open States connector. A missing API key is fatal.
func New(cfg domain.OpenStatesSettings, opts apiclient.Config) (*Connector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openstates: %w", domain.ErrMissingCredential)
	}
	state := stateFromJurisdiction(cfg.Jurisdiction)
	if state == "" {
		return nil, fmt.Errorf("openstates jurisdiction %q: %w", cfg.Jurisdiction, domain.ErrInvalidInput)
	}
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}

	if opts.BaseURL == "" {
		opts.BaseURL = cfg.BaseURL
	}
	opts.Header = http.Header{}
	opts.Header.Set(HeaderAPIKey, cfg.APIKey)
	opts.Header.Set("Accept", "application/json")
	client, err := apiclient.New(opts)
	if err != nil {
		return nil, fmt.Errorf("openstates: %w", err)
	}
	return &Connector{cfg: cfg, state: state, client: client}, nil
}

// Name returns the connector name.
func (c *Connector) Name() string { return Name }

// Source returns the source system.
func (c *Connector) Source() domain.SourceSystem { return domain.SourceOpenStates }

type billList struct {
	Results    []json.RawMessage `json:"results"`
	Pagination struct {
		PerPage    int `json:"per_page"`
		Page       int `json:"page"`
		MaxPage    int `json:"max_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

type bill struct {
	ID                      string   `json:"id"`
	Session                 string   `json:"session"`
	Identifier              string   `json:"identifier"`
	Title                   string   `json:"title"`
	Classification          []string `json:"classification"`
	Subject                 []string `json:"subject"`
	OpenStatesURL           string   `json:"openstates_url"`
	FirstActionDate         string   `json:"first_action_date"`
	LatestActionDate        string   `json:"latest_action_date"`
	LatestActionDescription string   `json:"latest_action_description"`
	Sources                 []struct {
		URL  string `json:"url"`
		Note string `json:"note"`
	} `json:"sources"`
}

// Fetch returns one page of bills. The cursor is the 1-based page number.
func (c *Connector) Fetch(ctx context.Context, cursor string) (domain.RawPage, error) {
	if c.isClosed() {
		return domain.RawPage{}, domain.ErrConnectorClosed
	}

	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 1 {
			return domain.RawPage{}, fmt.Errorf("openstates cursor %q: %w", cursor, domain.ErrInvalidInput)
		}
		page = n
	}

	query := url.Values{
		"jurisdiction": {c.state},
		"page":         {strconv.Itoa(page)},
		"per_page":     {strconv.Itoa(c.cfg.PageSize)},
		"sort":         {"updated_desc"},
		"include":      {"sources"},
	}
	if c.cfg.Session != "" {
		query.Set("session", c.cfg.Session)
	}

	var list billList
	if err := c.client.GetJSON(ctx, "bills", query, &list); err != nil {
		return domain.RawPage{}, fmt.Errorf("list bills: %w", err)
	}

	out := domain.RawPage{Records: make([]domain.RawRecord, 0, len(list.Results))}
	for i, raw := range list.Results {
		out.Records = append(out.Records, domain.RawRecord{
			Ref:      fmt.Sprintf("page-%d-%d", page, i),
			Payload:  raw,
			Metadata: map[string]string{"page": strconv.Itoa(page)},
		})
	}
	if len(list.Results) > 0 && page < list.Pagination.MaxPage &&
		(c.cfg.Pages <= 0 || page < c.cfg.Pages) {
		out.NextCursor = strconv.Itoa(page + 1)
	}
	return out, nil
}

// Normalize maps a bill onto measure fields.
func (c *Connector) Normalize(raw domain.RawRecord) (domain.NormalizedMeasure, error) {
	b, err := decodeBill(raw)
	if err != nil {
		return domain.NormalizedMeasure{}, err
	}

	n := domain.NormalizedMeasure{
		Source:       domain.SourceOpenStates,
		ExternalID:   ExternalID(c.state, b.Session, b.Identifier),
		Title:        strings.TrimSpace(b.Title),
		Level:        domain.LevelState,
		Status:       domain.StateStatusTable.Classify(b.LatestActionDescription),
		IntroducedAt: parseDate(b.FirstActionDate),
	}
	if n.Title == "" {
		n.Title = b.Identifier
	}
	if kind, number, ok := domain.SplitIdentifier(b.Identifier); ok {
		n.CanonicalKey = domain.CanonicalKey("us", c.state, b.Session, kind, number)
	}

	tags := make([]string, 0, len(b.Classification)+len(b.Subject))
	tags = append(tags, b.Classification...)
	tags = append(tags, b.Subject...)
	if len(tags) > 0 {
		n.TopicTags = domain.LimitTags(tags)
	}
	return n, nil
}

// SourceLinks returns the bill page: openstates_url, else the first
// source URL, else the legislature's own page.
func (c *Connector) SourceLinks(raw domain.RawRecord) []domain.MeasureSource {
	b, err := decodeBill(raw)
	if err != nil {
		return nil
	}

	link := domain.MeasureSource{
		Label:       "Open States",
		ContentType: domain.ContentHTML,
		Primary:     true,
	}
	switch {
	case b.OpenStatesURL != "":
		link.URL = b.OpenStatesURL
	case firstSource(b) != "":
		link.Label = "State Legislature"
		link.URL = firstSource(b)
	default:
		link.Label = "State Legislature"
		link.URL = legislatureURL(c.state, b.Session, b.Identifier)
	}
	return []domain.MeasureSource{link}
}

// Close marks the connector closed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ExternalID builds {state}-{session}-{identifier}, lowercased with spaces
// replaced by "-".
func ExternalID(state, session, identifier string) string {
	id := strings.ToLower(fmt.Sprintf("%s-%s-%s", state, session, identifier))
	return strings.ReplaceAll(id, " ", "-")
}

func firstSource(b bill) string {
	for _, s := range b.Sources {
		if s.URL != "" {
			return s.URL
		}
	}
	return ""
}

func legislatureURL(state, session, identifier string) string {
	id := strings.ReplaceAll(identifier, " ", "")
	if state == "az" {
		return fmt.Sprintf("https://www.azleg.gov/legtext/%s/%s.htm", session, id)
	}
	return fmt.Sprintf("https://openstates.org/%s/bills/%s/%s/", state, url.PathEscape(session), id)
}

// stateFromJurisdiction accepts "az", "AZ" or an OCD jurisdiction ID
// ("ocd-jurisdiction/country:us/state:az/government").
func stateFromJurisdiction(j string) string {
	j = strings.ToLower(strings.TrimSpace(j))
	if _, rest, ok := strings.Cut(j, "state:"); ok {
		j, _, _ = strings.Cut(rest, "/")
	}
	if len(j) != 2 {
		return ""
	}
	return j
}

func decodeBill(raw domain.RawRecord) (bill, error) {
	var b bill
	if err := json.Unmarshal(raw.Payload, &b); err != nil {
		return b, fmt.Errorf("bill %s: %w: %w", raw.Ref, domain.ErrMalformedRecord, err)
	}
	if strings.TrimSpace(b.Identifier) == "" || strings.TrimSpace(b.Session) == "" {
		return b, fmt.Errorf("bill %s: missing identifier or session: %w", raw.Ref, domain.ErrMalformedRecord)
	}
	return b, nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
