package source

import (
	"context"
	"time"
)

// Kind identifies what a fetched document is.
type Kind string

const (
	KindArticle Kind = "article"
	KindVideo   Kind = "video"
)

// Document is the standardized candidate record produced by all fetchers.
// URL is the unique key across the whole corpus. The annotation fields
// (Density, Authority, Excerpt, Vector) are zero at fetch time and filled
// by the pipeline; a document is never mutated after it has been persisted.
type Document struct {
	URL         string    `json:"url" db:"url"`
	Title       string    `json:"title" db:"title"`
	Summary     string    `json:"summary" db:"summary"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	SourceName  string    `json:"source_name" db:"source_name"`
	SourceURL   string    `json:"source_url" db:"source_url"`
	Kind        Kind      `json:"kind" db:"kind"`

	Density   int       `json:"density" db:"density"`
	Authority int       `json:"authority" db:"authority"`
	Excerpt   string    `json:"-" db:"-"`
	Vector    []float64 `json:"-" db:"-"`
}

// Repo is a code-repository candidate from the code-hosting search API.
// It bypasses clustering entirely and goes straight to the rubric scorer.
type Repo struct {
	URL         string    `json:"url" db:"url"`
	Name        string    `json:"name" db:"name"`
	Owner       string    `json:"owner" db:"owner"`
	Description string    `json:"description" db:"description"`
	Stars       int       `json:"stars" db:"stars"`
	Forks       int       `json:"forks" db:"forks"`
	License     string    `json:"license" db:"license"`
	Topics      []string  `json:"topics" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	PushedAt    time.Time `json:"pushed_at" db:"pushed_at"`
	OpenIssues  int       `json:"open_issues" db:"open_issues"`
	Archived    bool      `json:"archived" db:"archived"`

	TopicsJSON string `json:"-" db:"topics"`
}

// Event is a topic-related event listing extracted from event platforms.
type Event struct {
	URL         string `json:"url" db:"url"`
	Title       string `json:"title" db:"title"`
	Organizer   string `json:"organizer" db:"organizer"`
	Type        string `json:"event_type" db:"event_type"`
	City        string `json:"location_city" db:"location_city"`
	State       string `json:"location_state" db:"location_state"`
	Country     string `json:"location_country" db:"location_country"`
	StartDate   string `json:"start_date" db:"start_date"`
	EndDate     string `json:"end_date" db:"end_date"`
	Description string `json:"description" db:"description"`
}

// Fetcher is the interface every document collector must implement.
// A failed fetch yields zero candidates for that source this run; the
// pipeline never retries fetches itself.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]Document, error)
}
