package score

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const hnSearchBaseURL = "https://hn.algolia.com/api/v1"

// EngagementProvider looks up discussion-platform signals for a story URL.
// A nil result means no discussion was found; that is not an error.
type EngagementProvider interface {
	Lookup(ctx context.Context, storyURL string) (*Engagement, error)
}

// HackerNews looks up points and comment counts on Hacker News via the
// Algolia search API.
type HackerNews struct {
	client  *http.Client
	baseURL string
}

// NewHackerNews creates an HN engagement lookup client.
func NewHackerNews(baseURL string) *HackerNews {
	if baseURL == "" {
		baseURL = hnSearchBaseURL
	}
	return &HackerNews{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
	}
}

// Lookup searches HN for submissions of the exact story URL and returns
// the highest-scoring one's signals, or nil if nothing was submitted.
func (h *HackerNews) Lookup(ctx context.Context, storyURL string) (*Engagement, error) {
	params := url.Values{}
	params.Set("query", storyURL)
	params.Set("restrictSearchableAttributes", "url")
	params.Set("hitsPerPage", "5")

	reqURL := h.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create hn search request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search hn: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hn search status %d", resp.StatusCode)
	}

	var result struct {
		Hits []struct {
			URL         string `json:"url"`
			Points      int    `json:"points"`
			NumComments int    `json:"num_comments"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode hn search: %w", err)
	}

	var best *Engagement
	for _, hit := range result.Hits {
		if hit.URL != storyURL {
			continue
		}
		if best == nil || hit.Points > best.Points {
			best = &Engagement{Points: hit.Points, Comments: hit.NumComments}
		}
	}
	return best, nil
}
