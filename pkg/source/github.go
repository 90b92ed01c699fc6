package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// GitHub searches for ecosystem repositories matching the configured
// queries. Results feed the repo rubric rather than the story pipeline.
type GitHub struct {
	client  *http.Client
	token   string
	queries []string
	perPage int
}

// NewGitHub creates a GitHub repository searcher. Each query is run as a
// separate search and the results are merged, deduplicated by URL.
func NewGitHub(token string, queries []string) *GitHub {
	return &GitHub{
		client:  &http.Client{Timeout: 30 * time.Second},
		token:   token,
		queries: queries,
		perPage: 50,
	}
}

func (g *GitHub) Name() string { return "github" }

// Search runs every configured query and returns the deduplicated repos.
func (g *GitHub) Search(ctx context.Context) ([]Repo, error) {
	seen := make(map[string]bool)
	var repos []Repo
	for _, q := range g.queries {
		found, err := g.search(ctx, q)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  github query %q error: %v\n", q, err)
			continue
		}
		for _, r := range found {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			repos = append(repos, r)
		}
	}
	return repos, nil
}

func (g *GitHub) search(ctx context.Context, query string) ([]Repo, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", fmt.Sprintf("%d", g.perPage))

	reqURL := "https://api.github.com/search/repositories?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create github request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch github search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github API status %d", resp.StatusCode)
	}

	var result ghSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode github response: %w", err)
	}

	repos := make([]Repo, 0, len(result.Items))
	for _, gr := range result.Items {
		name := gr.FullName
		owner := gr.Owner.Login
		if i := strings.IndexByte(name, '/'); i >= 0 {
			name = gr.FullName[i+1:]
		}

		topicsJSON, _ := json.Marshal(gr.Topics)
		repos = append(repos, Repo{
			URL:         gr.HTMLURL,
			Name:        name,
			Owner:       owner,
			Description: gr.Description,
			Stars:       gr.Stars,
			Forks:       gr.Forks,
			License:     gr.License.SPDXID,
			Topics:      gr.Topics,
			CreatedAt:   gr.CreatedAt,
			PushedAt:    gr.PushedAt,
			OpenIssues:  gr.OpenIssues,
			Archived:    gr.Archived,
			TopicsJSON:  string(topicsJSON),
		})
	}
	return repos, nil
}

type ghSearchResult struct {
	TotalCount int      `json:"total_count"`
	Items      []ghRepo `json:"items"`
}

type ghRepo struct {
	FullName    string    `json:"full_name"`
	HTMLURL     string    `json:"html_url"`
	Description string    `json:"description"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	OpenIssues  int       `json:"open_issues_count"`
	Topics      []string  `json:"topics"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	PushedAt    time.Time `json:"pushed_at"`
	Owner       ghOwner   `json:"owner"`
	License     ghLicense `json:"license"`
}

type ghOwner struct {
	Login string `json:"login"`
}

type ghLicense struct {
	SPDXID string `json:"spdx_id"`
}
