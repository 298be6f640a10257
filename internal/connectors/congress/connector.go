package congress

import (
	"context"
	"encoding/json"
	"fmt"
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
	Name = "congress"

	// MaxPageSize is the largest page the API serves.
	MaxPageSize = 250

	webBase = "https://www.congress.gov"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.SourceAdapter = (*Connector)(nil)
	_ driven.MemberSource  = (*Connector)(nil)
)

// Connector fetches bills and members from Congress.gov.
type Connector struct {
	cfg    domain.CongressSettings
	client *apiclient.Client

	mu     sync.Mutex
	closed bool
}

// New creates a Congress.gov connector. A missing API key is a
// configuration error.
func New(cfg domain.CongressSettings, opts apiclient.Config) (*Connector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("congress: %w", domain.ErrMissingCredential)
	}
	if cfg.Congress <= 0 {
		cfg.Congress = domain.DefaultCongress
	}
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = 50
	}

	if opts.BaseURL == "" {
		opts.BaseURL = cfg.BaseURL
	}
	opts.Query = url.Values{"api_key": {cfg.APIKey}, "format": {"json"}}
	client, err := apiclient.New(opts)
	if err != nil {
		return nil, fmt.Errorf("congress: %w", err)
	}
	return &Connector{cfg: cfg, client: client}, nil
}

// Name returns the connector name.
func (c *Connector) Name() string { return Name }

// Source returns the source system.
func (c *Connector) Source() domain.SourceSystem { return domain.SourceCongress }

type billList struct {
	Bills      []json.RawMessage `json:"bills"`
	Pagination struct {
		Count int    `json:"count"`
		Next  string `json:"next"`
	} `json:"pagination"`
}

// bill is the subset of a Congress.gov bill record we normalise.
type bill struct {
	Congress       int    `json:"congress"`
	Type           string `json:"type"`
	Number         string `json:"number"`
	Title          string `json:"title"`
	OriginChamber  string `json:"originChamber"`
	IntroducedDate string `json:"introducedDate"`
	UpdateDate     string `json:"updateDate"`
	URL            string `json:"url"`
	LatestAction   struct {
		ActionDate string `json:"actionDate"`
		Text       string `json:"text"`
	} `json:"latestAction"`
	PolicyArea *struct {
		Name string `json:"name"`
	} `json:"policyArea"`
}

// Fetch returns one page of bills. The cursor is the API offset.
func (c *Connector) Fetch(ctx context.Context, cursor string) (domain.RawPage, error) {
	if c.isClosed() {
		return domain.RawPage{}, domain.ErrConnectorClosed
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return domain.RawPage{}, fmt.Errorf("congress cursor %q: %w", cursor, domain.ErrInvalidInput)
		}
		offset = n
	}

	var list billList
	query := url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(c.cfg.PageSize)},
		"sort":   {"updateDate desc"},
	}
	if err := c.client.GetJSON(ctx, fmt.Sprintf("bill/%d", c.cfg.Congress), query, &list); err != nil {
		return domain.RawPage{}, fmt.Errorf("list bills: %w", err)
	}

	page := domain.RawPage{Records: make([]domain.RawRecord, 0, len(list.Bills))}
	for i, raw := range list.Bills {
		page.Records = append(page.Records, domain.RawRecord{
			Ref:     "offset-" + strconv.Itoa(offset+i),
			Payload: raw,
		})
	}

	next := offset + len(list.Bills)
	pageNo := offset/c.cfg.PageSize + 1
	if len(list.Bills) == c.cfg.PageSize && list.Pagination.Next != "" &&
		(c.cfg.Pages <= 0 || pageNo < c.cfg.Pages) {
		page.NextCursor = strconv.Itoa(next)
	}
	return page, nil
}

// Normalize maps a bill record onto measure fields.
func (c *Connector) Normalize(raw domain.RawRecord) (domain.NormalizedMeasure, error) {
	b, err := decodeBill(raw)
	if err != nil {
		return domain.NormalizedMeasure{}, err
	}
	kind := strings.ToLower(b.Type)

	n := domain.NormalizedMeasure{
		Source:       domain.SourceCongress,
		ExternalID:   fmt.Sprintf("%d-%s-%s", b.Congress, kind, b.Number),
		Title:        strings.TrimSpace(b.Title),
		Level:        domain.LevelFederal,
		Status:       domain.FederalStatusTable.Classify(b.LatestAction.Text),
		IntroducedAt: parseDate(b.IntroducedDate),
		CanonicalKey: domain.FederalCanonicalKey(b.Congress, kind, b.Number),
	}
	if n.Title == "" {
		n.Title = fmt.Sprintf("%s %s", strings.ToUpper(b.Type), b.Number)
	}
	if b.PolicyArea != nil && b.PolicyArea.Name != "" {
		n.TopicTags = []string{b.PolicyArea.Name}
	}
	return n, nil
}

// SourceLinks returns the Congress.gov page, then the API record.
func (c *Connector) SourceLinks(raw domain.RawRecord) []domain.MeasureSource {
	b, err := decodeBill(raw)
	if err != nil {
		return nil
	}
	links := []domain.MeasureSource{{
		Label:       "Congress.gov",
		URL:         BillURL(b.Congress, strings.ToLower(b.Type), b.Number),
		ContentType: domain.ContentHTML,
		Primary:     true,
	}}
	if b.URL != "" {
		links = append(links, domain.MeasureSource{
			Label:       "Congress.gov API",
			URL:         stripQuery(b.URL),
			ContentType: domain.ContentAPI,
		})
	}
	return links
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

// billPathSegments maps API bill types to their Congress.gov path segment.
var billPathSegments = map[string]string{
	"hr":      "house-bill",
	"s":       "senate-bill",
	"hres":    "house-resolution",
	"sres":    "senate-resolution",
	"hjres":   "house-joint-resolution",
	"sjres":   "senate-joint-resolution",
	"hconres": "house-concurrent-resolution",
	"sconres": "senate-concurrent-resolution",
}

// BillURL is the public Congress.gov page of a bill.
func BillURL(congress int, billType, number string) string {
	billType = strings.ToLower(strings.TrimSpace(billType))
	segment, ok := billPathSegments[billType]
	if !ok {
		segment = "house-bill"
		if strings.HasPrefix(billType, "s") {
			segment = "senate-bill"
		}
	}
	return fmt.Sprintf("%s/bill/%s-congress/%s/%s", webBase, ordinal(congress), segment, number)
}

// ordinal renders 1 as "1st", 112 as "112th" and 122 as "122nd".
func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

func decodeBill(raw domain.RawRecord) (bill, error) {
	var b bill
	if err := json.Unmarshal(raw.Payload, &b); err != nil {
		return b, fmt.Errorf("bill %s: %w: %w", raw.Ref, domain.ErrMalformedRecord, err)
	}
	if b.Congress <= 0 || b.Type == "" || b.Number == "" {
		return b, fmt.Errorf("bill %s: missing congress, type or number: %w", raw.Ref, domain.ErrMalformedRecord)
	}
	return b, nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func stripQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
