package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Feed is a whitelisted RSS/Atom feed.
type Feed struct {
	Name string
	URL  string
}

// RSS collects candidate documents from a whitelist of feeds. It applies
// no keyword filtering itself; relevance is decided downstream.
type RSS struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []Feed
	maxAge time.Duration
}

// NewRSS creates an RSS fetcher. maxAge bounds how far back entries are
// taken; the relevance filter applies the real recency gate later.
func NewRSS(feeds []Feed, maxAge time.Duration) *RSS {
	if maxAge <= 0 {
		maxAge = 72 * time.Hour
	}
	return &RSS{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
		maxAge: maxAge,
	}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) Fetch(ctx context.Context) ([]Document, error) {
	var all []Document

	for _, feed := range r.feeds {
		docs, err := r.fetchFeed(ctx, feed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  rss feed %s error: %v\n", feed.Name, err)
			continue
		}
		all = append(all, docs...)
	}

	return all, nil
}

func (r *RSS) fetchFeed(ctx context.Context, feed Feed) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "clawbeat-forge/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feed.Name, err)
	}

	var docs []Document
	cutoff := time.Now().Add(-r.maxAge)

	for _, entry := range parsed.Items {
		var published time.Time
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}
		if !published.IsZero() && published.Before(cutoff) {
			continue
		}

		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}
		if link == "" {
			continue
		}

		sourceName, title := realSource(feed.Name, link, entry.Title)

		docs = append(docs, Document{
			URL:         link,
			Title:       title,
			Summary:     stripHTML(entry.Description),
			PublishedAt: published,
			SourceName:  sourceName,
			SourceURL:   feed.URL,
			Kind:        KindArticle,
		})
	}

	return docs, nil
}

// domainNames maps well-known outlet domains to display names, used when
// unmasking aggregator feeds that republish other outlets' stories.
var domainNames = map[string]string{
	"theverge.com":    "The Verge",
	"techcrunch.com":  "TechCrunch",
	"venturebeat.com": "VentureBeat",
	"wired.com":       "Wired",
	"nytimes.com":     "NY Times",
	"arstechnica.com": "Ars Technica",
	"bloomberg.com":   "Bloomberg",
	"wsj.com":         "WSJ",
	"reuters.com":     "Reuters",
}

// realSource resolves the actual outlet behind aggregator feeds (Flipboard
// style), where the whitelist name is the aggregator and the entry points
// at the original publisher. For non-aggregator feeds the whitelist name
// is trusted as-is.
func realSource(feedName, link, rawTitle string) (sourceName, title string) {
	if !strings.Contains(strings.ToLower(feedName), "flipboard") {
		return feedName, rawTitle
	}

	title = rawTitle
	// Aggregators prefix titles as "Source: Headline".
	if i := strings.Index(rawTitle, ":"); i > 0 {
		title = strings.TrimSpace(rawTitle[i+1:])
	}

	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return feedName, title
	}
	domain := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if name, ok := domainNames[domain]; ok {
		return name, title
	}
	// Fallback: "engadget.com" -> "Engadget".
	base := domain
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" {
		return feedName, title
	}
	return strings.ToUpper(base[:1]) + base[1:], title
}

// stripHTML flattens feed summaries that ship embedded markup.
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
