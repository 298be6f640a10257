package legistar

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var idParam = regexp.MustCompile(`[?&]ID=(\d+)`)

// scrapeCalendar reads meetings from Calendar.aspx. Rows whose link
// carries no meeting ID are skipped.
func (c *Connector) scrapeCalendar(ctx context.Context) ([]event, error) {
	doc, err := c.page(ctx, "Calendar.aspx", nil)
	if err != nil {
		return nil, fmt.Errorf("scrape calendar: %w", err)
	}

	var events []event
	for _, row := range gridRows(doc) {
		cells := children(row, atom.Td)
		if len(cells) < 3 {
			continue
		}
		href := linkHref(cells[1])
		id := matchID(href)
		if id == "" {
			continue
		}
		events = append(events, event{
			ID:       id,
			Date:     text(cells[0]),
			BodyName: text(cells[1]),
			Location: text(cells[2]),
			URL:      c.absolute(href),
		})
		if len(events) == c.cfg.MaxEvents {
			break
		}
	}
	return events, nil
}

// scrapeEventItems reads agenda items from MeetingDetail.aspx. Items are
// identified by {eventID}-{agenda number}; the last cell is the action.
func (c *Connector) scrapeEventItems(ctx context.Context, eventID string) ([]agendaItem, error) {
	doc, err := c.page(ctx, "MeetingDetail.aspx", url.Values{"ID": {eventID}})
	if err != nil {
		return nil, fmt.Errorf("scrape meeting %s: %w", eventID, err)
	}

	var items []agendaItem
	for _, row := range gridRows(doc) {
		cells := children(row, atom.Td)
		if len(cells) < 2 {
			continue
		}
		number := text(cells[0])
		if number == "" {
			continue
		}
		item := agendaItem{
			ID:           eventID + "-" + strings.ReplaceAll(number, " ", ""),
			AgendaNumber: number,
			Title:        text(cells[1]),
		}
		if len(cells) > 2 {
			item.Action = text(cells[len(cells)-1])
		}
		if href := linkHref(cells[1]); href != "" {
			item.MatterID = matchID(href)
			item.MatterURL = c.absolute(href)
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Connector) page(ctx context.Context, ref string, query url.Values) (*html.Node, error) {
	body, err := c.web.Get(ctx, ref, query)
	if err != nil {
		return nil, err
	}
	return html.Parse(bytes.NewReader(body))
}

func (c *Connector) absolute(href string) string {
	if href == "" {
		return ""
	}
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return href
	}
	return c.webBase + "/" + strings.TrimLeft(href, "/")
}

// gridRows returns the data rows of every Telerik grid on the page.
func gridRows(doc *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr &&
			(hasClass(n, "rgRow") || hasClass(n, "rgAltRow")) {
			rows = append(rows, n)
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return rows
}

func children(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && ch.DataAtom == a {
			out = append(out, ch)
		}
	}
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// linkHref returns the href of the first anchor under n.
func linkHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		return attr(n, "href")
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if href := linkHref(ch); href != "" {
			return href
		}
	}
	return ""
}

// text collects the whitespace-collapsed text under n.
func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func matchID(href string) string {
	if m := idParam.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}
