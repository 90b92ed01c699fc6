package brief

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxContextChars = 4000

// ContextFetcher pulls page text used as grounding for brief generation.
type ContextFetcher struct {
	client    *http.Client
	userAgent string
}

// NewContextFetcher creates a page-context fetcher.
func NewContextFetcher(userAgent string) *ContextFetcher {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; clawbeat-forge/1.0)"
	}
	return &ContextFetcher{
		client:    &http.Client{Timeout: 20 * time.Second},
		userAgent: userAgent,
	}
}

// Fetch returns Open Graph description plus leading article paragraphs for
// the given URL. Any failure returns an empty string; briefs fall back to
// the feed summary.
func (f *ContextFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create meta request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page %s status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page %s: %w", url, err)
	}

	var parts []string
	if desc := metaContent(doc, "og:description"); desc != "" {
		parts = append(parts, desc)
	} else if desc := metaContent(doc, "description"); desc != "" {
		parts = append(parts, desc)
	}

	doc.Find("article p, main p, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) >= 60 {
			parts = append(parts, text)
		}
		return len(strings.Join(parts, " ")) < maxContextChars
	})

	joined := strings.Join(parts, "\n")
	if len(joined) > maxContextChars {
		joined = joined[:maxContextChars]
	}
	return joined, nil
}

func metaContent(doc *goquery.Document, prop string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, prop))
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, prop))
	}
	content, _ := sel.First().Attr("content")
	return strings.TrimSpace(content)
}
