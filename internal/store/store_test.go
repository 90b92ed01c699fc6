package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/forge/pkg/score"
	"github.com/clawbeat/forge/pkg/source"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "forge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleStory(url string, total int) Story {
	return Story{
		Document: source.Document{
			URL:         url,
			Title:       "OpenClaw lands funding",
			Summary:     "a summary",
			PublishedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			SourceName:  "The Verge",
			Kind:        source.KindArticle,
			Density:     12,
			Authority:   3,
		},
		Day:      "2026-03-10",
		Coverage: []Coverage{{Source: "TechCrunch", URL: url + "/tc"}},
		Score:    &score.Record{Total: total, BrandTier: 1},
		Scored:   true,
	}
}

func TestStoryRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	st := sampleStory("https://theverge.com/openclaw", 82)
	require.NoError(t, s.UpsertStory(ctx, &st))

	got, err := s.GetStory(ctx, st.URL)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, st.Title, got.Title)
	assert.Equal(t, st.Day, got.Day)
	assert.Equal(t, 82, got.Total)
	require.NotNil(t, got.Score)
	assert.Equal(t, 1, got.Score.BrandTier)
	require.Len(t, got.Coverage, 1)
	assert.Equal(t, "TechCrunch", got.Coverage[0].Source)
}

func TestGetStoryMissing(t *testing.T) {
	s := testStore(t)

	got, err := s.GetStory(context.Background(), "https://nowhere.example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertStoryUpdates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	st := sampleStory("https://theverge.com/openclaw", 60)
	require.NoError(t, s.UpsertStory(ctx, &st))

	st.Brief = "One sentence summary."
	st.Coverage = append(st.Coverage, Coverage{Source: "Wired", URL: "https://wired.com/x"})
	st.Score = &score.Record{Total: 85, BrandTier: 1}
	require.NoError(t, s.UpsertStory(ctx, &st))

	got, err := s.GetStory(ctx, st.URL)
	require.NoError(t, err)
	assert.Equal(t, "One sentence summary.", got.Brief)
	assert.Equal(t, 85, got.Total)
	assert.Len(t, got.Coverage, 2)
}

func TestListStoriesFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := sampleStory("https://a.example.com/1", 90)
	b := sampleStory("https://b.example.com/2", 40)
	c := sampleStory("https://c.example.com/3", 70)
	c.Day = "2026-03-09"
	require.NoError(t, s.UpsertStories(ctx, []Story{a, b, c}))

	t.Run("min total", func(t *testing.T) {
		got, err := s.ListStories(ctx, ListOpts{MinTotal: 50})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, a.URL, got[0].URL)
	})

	t.Run("day filter", func(t *testing.T) {
		got, err := s.ListStories(ctx, ListOpts{Day: "2026-03-09"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c.URL, got[0].URL)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := s.ListStories(ctx, ListOpts{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestRepoRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := &ScoredRepo{
		Repo: source.Repo{
			URL: "https://github.com/openclaw/openclaw", Name: "openclaw", Owner: "openclaw",
			Stars: 25000, Forks: 3000, License: "MIT",
			Topics:    []string{"agents", "openclaw"},
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			PushedAt:  time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		},
		RubricScore: 80,
		RubricTier:  "featured",
	}
	require.NoError(t, s.UpsertRepo(ctx, r))

	got, err := s.ListRepos(ctx, RepoListOpts{Tier: "featured"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 80, got[0].RubricScore)
	assert.Equal(t, []string{"agents", "openclaw"}, got[0].Topics)

	none, err := s.ListRepos(ctx, RepoListOpts{Tier: "skip"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEventRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	events := []source.Event{{
		URL:       "https://events.example.com/openclaw-hackathon",
		Title:     "OpenClaw Hackathon",
		Type:      "hackathon",
		City:      "Austin",
		Country:   "US",
		StartDate: "2026-04-01",
	}}
	require.NoError(t, s.UpsertEvents(ctx, events))

	got, err := s.ListEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hackathon", got[0].Type)
	assert.Equal(t, "Austin", got[0].City)
}
