package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/clawbeat/forge/pkg/score"
	"github.com/clawbeat/forge/pkg/source"
)

// Coverage is a lightweight reference to a non-anchor cluster member.
type Coverage struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// Story is a persisted anchor document with its coverage list and score.
type Story struct {
	source.Document

	Day          string        `db:"day" json:"day"`
	Brief        string        `db:"brief" json:"brief,omitempty"`
	Coverage     []Coverage    `db:"-" json:"more_coverage"`
	CoverageJSON string        `db:"more_coverage" json:"-"`
	Score        *score.Record `db:"-" json:"score,omitempty"`
	ScoreJSON    string        `db:"score" json:"-"`
	Total        int           `db:"total" json:"total"`
	Scored       bool          `db:"scored" json:"scored"`
	FirstSeen    time.Time     `db:"first_seen" json:"first_seen"`
}

// ListOpts controls story listing.
type ListOpts struct {
	Day      string
	MinTotal int
	Limit    int
}

// RepoListOpts controls repository listing.
type RepoListOpts struct {
	Tier  string
	Limit int
}

// ScoredRepo is a repository candidate with its rubric result.
type ScoredRepo struct {
	source.Repo

	RubricScore int       `db:"rubric_score" json:"rubric_score"`
	RubricTier  string    `db:"rubric_tier" json:"rubric_tier"`
	ScannedAt   time.Time `db:"scanned_at" json:"scanned_at"`
}

// Store is the persistence interface. It is the source of truth for
// already-seen state at the start of a run and the sink for final records
// at the end.
type Store interface {
	UpsertStory(ctx context.Context, s *Story) error
	UpsertStories(ctx context.Context, stories []Story) error
	GetStory(ctx context.Context, url string) (*Story, error)
	ListStories(ctx context.Context, opts ListOpts) ([]Story, error)

	UpsertRepo(ctx context.Context, r *ScoredRepo) error
	ListRepos(ctx context.Context, opts RepoListOpts) ([]ScoredRepo, error)

	UpsertEvents(ctx context.Context, events []source.Event) error
	ListEvents(ctx context.Context, limit int) ([]source.Event, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertStory(ctx context.Context, st *Story) error {
	coverageJSON, _ := json.Marshal(st.Coverage)
	scoreJSON := "{}"
	if st.Score != nil {
		b, _ := json.Marshal(st.Score)
		scoreJSON = string(b)
		st.Total = st.Score.Total
	}
	if st.FirstSeen.IsZero() {
		st.FirstSeen = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stories (url, title, summary, published_at, source_name, source_url, kind,
			density, authority, day, brief, more_coverage, score, total, scored, first_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			brief = excluded.brief,
			more_coverage = excluded.more_coverage,
			score = excluded.score,
			total = excluded.total,
			scored = excluded.scored
	`, st.URL, st.Title, st.Summary, st.PublishedAt, st.SourceName, st.SourceURL, st.Kind,
		st.Density, st.Authority, st.Day, st.Brief, string(coverageJSON), scoreJSON,
		st.Total, st.Scored, st.FirstSeen)
	if err != nil {
		return fmt.Errorf("upsert story %s: %w", st.URL, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertStories(ctx context.Context, stories []Story) error {
	for i := range stories {
		if err := s.UpsertStory(ctx, &stories[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetStory(ctx context.Context, url string) (*Story, error) {
	var st Story
	err := s.db.GetContext(ctx, &st, "SELECT * FROM stories WHERE url = ?", url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get story %s: %w", url, err)
	}
	decodeStory(&st)
	return &st, nil
}

func (s *SQLiteStore) ListStories(ctx context.Context, opts ListOpts) ([]Story, error) {
	query := "SELECT * FROM stories WHERE 1=1"
	var args []any

	if opts.Day != "" {
		query += " AND day = ?"
		args = append(args, opts.Day)
	}
	if opts.MinTotal > 0 {
		query += " AND total >= ?"
		args = append(args, opts.MinTotal)
	}

	query += " ORDER BY total DESC, published_at DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var stories []Story
	if err := s.db.SelectContext(ctx, &stories, query, args...); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}

	for i := range stories {
		decodeStory(&stories[i])
	}
	return stories, nil
}

func decodeStory(st *Story) {
	json.Unmarshal([]byte(st.CoverageJSON), &st.Coverage)
	if st.ScoreJSON != "" && st.ScoreJSON != "{}" {
		var rec score.Record
		if json.Unmarshal([]byte(st.ScoreJSON), &rec) == nil {
			st.Score = &rec
		}
	}
}

func (s *SQLiteStore) UpsertRepo(ctx context.Context, r *ScoredRepo) error {
	topicsJSON, _ := json.Marshal(r.Topics)
	if r.ScannedAt.IsZero() {
		r.ScannedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repos (url, name, owner, description, stars, forks, license, topics,
			created_at, pushed_at, open_issues, archived, rubric_score, rubric_tier, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			stars = excluded.stars,
			forks = excluded.forks,
			license = excluded.license,
			topics = excluded.topics,
			pushed_at = excluded.pushed_at,
			open_issues = excluded.open_issues,
			archived = excluded.archived,
			rubric_score = excluded.rubric_score,
			rubric_tier = excluded.rubric_tier,
			scanned_at = excluded.scanned_at
	`, r.URL, r.Name, r.Owner, r.Description, r.Stars, r.Forks, r.License, string(topicsJSON),
		r.CreatedAt, r.PushedAt, r.OpenIssues, r.Archived, r.RubricScore, r.RubricTier, r.ScannedAt)
	if err != nil {
		return fmt.Errorf("upsert repo %s: %w", r.URL, err)
	}
	return nil
}

func (s *SQLiteStore) ListRepos(ctx context.Context, opts RepoListOpts) ([]ScoredRepo, error) {
	query := "SELECT * FROM repos WHERE 1=1"
	var args []any

	if opts.Tier != "" {
		query += " AND rubric_tier = ?"
		args = append(args, opts.Tier)
	}

	query += " ORDER BY rubric_score DESC, stars DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var repos []ScoredRepo
	if err := s.db.SelectContext(ctx, &repos, query, args...); err != nil {
		return nil, fmt.Errorf("list repos: %w", err)
	}

	for i := range repos {
		json.Unmarshal([]byte(repos[i].TopicsJSON), &repos[i].Topics)
	}
	return repos, nil
}

func (s *SQLiteStore) UpsertEvents(ctx context.Context, events []source.Event) error {
	for i := range events {
		e := &events[i]
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO events (url, title, organizer, event_type, location_city,
				location_state, location_country, start_date, end_date, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(url) DO UPDATE SET
				title = excluded.title,
				start_date = excluded.start_date,
				end_date = excluded.end_date,
				description = excluded.description
		`, e.URL, e.Title, e.Organizer, e.Type, e.City, e.State, e.Country,
			e.StartDate, e.EndDate, e.Description)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e.URL, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]source.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []source.Event
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM events ORDER BY start_date DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
