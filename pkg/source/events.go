package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Events scrapes event-platform listing pages and extracts schema.org
// Event objects from their embedded JSON-LD blocks. Listings whose name
// does not mention a configured keyword are dropped.
type Events struct {
	client    *http.Client
	pages     []string
	keywords  []string
	userAgent string
}

// NewEvents creates an event scraper over the given listing page URLs.
func NewEvents(pages, keywords []string, userAgent string) *Events {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; forge/1.0)"
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &Events{
		client:    &http.Client{Timeout: 30 * time.Second},
		pages:     pages,
		keywords:  lowered,
		userAgent: userAgent,
	}
}

func (e *Events) Name() string { return "events" }

// Scrape fetches every listing page and returns the extracted events,
// deduplicated by URL.
func (e *Events) Scrape(ctx context.Context) ([]Event, error) {
	seen := make(map[string]bool)
	var events []Event
	for _, page := range e.pages {
		found, err := e.scrapePage(ctx, page)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  events page %s error: %v\n", page, err)
			continue
		}
		for _, ev := range found {
			if ev.URL == "" || seen[ev.URL] {
				continue
			}
			seen[ev.URL] = true
			events = append(events, ev)
		}
	}
	return events, nil
}

func (e *Events) scrapePage(ctx context.Context, pageURL string) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create events request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch events page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("events page status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse events page: %w", err)
	}

	var events []Event
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		for _, node := range decodeJSONLD(sel.Text()) {
			ev, ok := e.eventFromLD(node)
			if ok {
				events = append(events, ev)
			}
		}
	})
	return events, nil
}

// decodeJSONLD unwraps a JSON-LD payload into its object nodes. A block
// can hold a single object, a list, or a @graph container.
func decodeJSONLD(raw string) []map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var nodes []map[string]any
	var single map[string]any
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		if graph, ok := single["@graph"].([]any); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]any); ok {
					nodes = append(nodes, m)
				}
			}
			return nodes
		}
		return []map[string]any{single}
	}

	var list []map[string]any
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}
	return nil
}

func (e *Events) eventFromLD(node map[string]any) (Event, bool) {
	if !isEventType(node["@type"]) {
		return Event{}, false
	}

	name := ldString(node["name"])
	if name == "" || !e.matchesKeyword(strings.ToLower(name)) {
		return Event{}, false
	}

	ev := Event{
		URL:         ldString(node["url"]),
		Title:       name,
		Type:        classifyEvent(name),
		StartDate:   dateOnly(ldString(node["startDate"])),
		EndDate:     dateOnly(ldString(node["endDate"])),
		Description: trimTo(ldString(node["description"]), 500),
	}

	if org, ok := node["organizer"].(map[string]any); ok {
		ev.Organizer = ldString(org["name"])
	}
	if loc, ok := node["location"].(map[string]any); ok {
		if addr, ok := loc["address"].(map[string]any); ok {
			ev.City = ldString(addr["addressLocality"])
			ev.State = ldString(addr["addressRegion"])
			ev.Country = ldString(addr["addressCountry"])
		}
		if ev.City == "" {
			ev.City = ldString(loc["name"])
		}
	}
	return ev, true
}

func (e *Events) matchesKeyword(lowerName string) bool {
	if len(e.keywords) == 0 {
		return true
	}
	for _, k := range e.keywords {
		if strings.Contains(lowerName, k) {
			return true
		}
	}
	return false
}

func isEventType(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.Contains(v, "Event")
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok && strings.Contains(s, "Event") {
				return true
			}
		}
	}
	return false
}

// classifyEvent buckets an event by format keywords in its title.
func classifyEvent(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "hackathon"):
		return "hackathon"
	case strings.Contains(lower, "conference") || strings.Contains(lower, "summit"):
		return "conference"
	case strings.Contains(lower, "workshop"):
		return "workshop"
	case strings.Contains(lower, "webinar") || strings.Contains(lower, "online"):
		return "webinar"
	case strings.Contains(lower, "meetup") || strings.Contains(lower, "meet-up"):
		return "meetup"
	default:
		return "unknown"
	}
}

func ldString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// dateOnly reduces an ISO timestamp to its date part.
func dateOnly(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

func trimTo(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
