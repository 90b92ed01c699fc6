package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/forge/internal/store"
	"github.com/clawbeat/forge/pkg/authority"
	"github.com/clawbeat/forge/pkg/brief"
	"github.com/clawbeat/forge/pkg/relevance"
	"github.com/clawbeat/forge/pkg/score"
	"github.com/clawbeat/forge/pkg/source"
)

type fakeFetcher struct {
	docs []source.Document
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context) ([]source.Document, error) {
	return f.docs, nil
}

type fakeEmbedder struct {
	vectors map[string][]float64
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) [][]float64 {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		for key, vec := range f.vectors {
			if strings.Contains(text, key) {
				out[i] = vec
				break
			}
		}
	}
	return out
}

type memStore struct {
	stories map[string]store.Story
	order   []string
}

func newMemStore() *memStore {
	return &memStore{stories: make(map[string]store.Story)}
}

func (m *memStore) UpsertStory(ctx context.Context, s *store.Story) error {
	if _, ok := m.stories[s.URL]; !ok {
		m.order = append(m.order, s.URL)
	}
	m.stories[s.URL] = *s
	return nil
}

func (m *memStore) UpsertStories(ctx context.Context, stories []store.Story) error {
	for i := range stories {
		if err := m.UpsertStory(ctx, &stories[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) GetStory(ctx context.Context, url string) (*store.Story, error) {
	if s, ok := m.stories[url]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *memStore) ListStories(ctx context.Context, opts store.ListOpts) ([]store.Story, error) {
	var out []store.Story
	for _, url := range m.order {
		out = append(out, m.stories[url])
	}
	return out, nil
}

func (m *memStore) UpsertRepo(ctx context.Context, r *store.ScoredRepo) error { return nil }

func (m *memStore) ListRepos(ctx context.Context, opts store.RepoListOpts) ([]store.ScoredRepo, error) {
	return nil, nil
}

func (m *memStore) UpsertEvents(ctx context.Context, events []source.Event) error { return nil }

func (m *memStore) ListEvents(ctx context.Context, limit int) ([]source.Event, error) {
	return nil, nil
}

func (m *memStore) Close() error { return nil }

func testDeps(db store.Store, fetchers ...source.Fetcher) Deps {
	return Deps{
		Fetchers: fetchers,
		Filter: relevance.New(relevance.Keywords{
			Core:      []string{"openclaw"},
			Secondary: []string{"skills"},
		}, relevance.Options{}),
		Classifier: authority.New(authority.Lists{
			Blocked:    []string{"spamwire.example.com"},
			Publishers: []string{"theverge.com"},
			Creators:   []string{"blog.example.com"},
		}),
		Scorer: score.New(score.Terms{
			Core:      []string{"openclaw"},
			Canonical: "openclaw",
		}),
		Store: db,
	}
}

func recentDoc(url, title string) source.Document {
	return source.Document{
		URL:         url,
		Title:       title,
		Summary:     "notes about the release",
		PublishedAt: time.Now().UTC().Add(-2 * time.Hour),
		SourceName:  "Example",
		Kind:        source.KindArticle,
	}
}

func TestRunPersistsScoredStories(t *testing.T) {
	db := newMemStore()
	fetcher := &fakeFetcher{docs: []source.Document{
		recentDoc("https://theverge.com/openclaw", "OpenClaw lands major funding"),
		recentDoc("https://offtopic.example.com/x", "Completely unrelated story about gardening"),
	}}

	pipe := New(testDeps(db, fetcher))
	report, err := pipe.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 1, report.NewStories)

	stories, _ := db.ListStories(context.Background(), store.ListOpts{})
	require.Len(t, stories, 1)
	st := stories[0]
	assert.True(t, st.Scored)
	require.NotNil(t, st.Score)
	assert.Greater(t, st.Total, 0)
	assert.NotEmpty(t, st.Day)
}

func TestRunIsIdempotent(t *testing.T) {
	db := newMemStore()
	fetcher := &fakeFetcher{docs: []source.Document{
		recentDoc("https://theverge.com/openclaw", "OpenClaw lands major funding"),
	}}

	pipe := New(testDeps(db, fetcher))

	_, err := pipe.Run(context.Background())
	require.NoError(t, err)

	report, err := pipe.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.AlreadySeen)
	assert.Zero(t, report.NewStories)

	stories, _ := db.ListStories(context.Background(), store.ListOpts{})
	assert.Len(t, stories, 1)
}

func TestRunClustersSimilarArticles(t *testing.T) {
	db := newMemStore()
	fetcher := &fakeFetcher{docs: []source.Document{
		recentDoc("https://theverge.com/openclaw", "OpenClaw lands major funding"),
		recentDoc("https://blog.example.com/openclaw", "OpenClaw raises a new round"),
	}}

	deps := testDeps(db, fetcher)
	deps.Embedder = &fakeEmbedder{vectors: map[string][]float64{
		"lands major funding": {1, 0},
		"raises a new round":  {0.95, 0.3122},
	}}

	pipe := New(deps)
	report, err := pipe.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Embedded)
	assert.Equal(t, 1, report.Clusters)
	require.Equal(t, 1, report.NewStories)

	stories, _ := db.ListStories(context.Background(), store.ListOpts{})
	require.Len(t, stories, 1)
	st := stories[0]

	// The publisher-tier document anchors; the creator post is coverage.
	assert.Equal(t, "https://theverge.com/openclaw", st.URL)
	require.Len(t, st.Coverage, 1)
	assert.Equal(t, "https://blog.example.com/openclaw", st.Coverage[0].URL)
}

func TestRunCoverageURLNeverReenters(t *testing.T) {
	db := newMemStore()

	first := &fakeFetcher{docs: []source.Document{
		recentDoc("https://theverge.com/openclaw", "OpenClaw lands major funding"),
		recentDoc("https://blog.example.com/openclaw", "OpenClaw raises a new round"),
	}}

	deps := testDeps(db, first)
	deps.Embedder = &fakeEmbedder{vectors: map[string][]float64{
		"lands major funding": {1, 0},
		"raises a new round":  {0.95, 0.3122},
	}}

	pipe := New(deps)
	_, err := pipe.Run(context.Background())
	require.NoError(t, err)

	// The coverage URL re-appearing in a later fetch is already seen.
	second := &fakeFetcher{docs: []source.Document{
		recentDoc("https://blog.example.com/openclaw", "OpenClaw raises a new round"),
	}}
	deps.Fetchers = []source.Fetcher{second}

	report, err := New(deps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.AlreadySeen)
	assert.Zero(t, report.NewStories)
}

func TestRunVideosAreSingletonStories(t *testing.T) {
	db := newMemStore()

	video := recentDoc("https://www.youtube.com/watch?v=abc", "OpenClaw walkthrough video")
	video.Kind = source.KindVideo

	article := recentDoc("https://theverge.com/openclaw", "OpenClaw lands major funding")

	deps := testDeps(db, &fakeFetcher{docs: []source.Document{video, article}})
	deps.Embedder = &fakeEmbedder{vectors: map[string][]float64{
		"lands major funding": {1, 0},
	}}

	report, err := New(deps).Run(context.Background())
	require.NoError(t, err)

	// The video skips embedding entirely and becomes its own story.
	assert.Equal(t, 1, report.Embedded)
	assert.Equal(t, 2, report.NewStories)
}

func TestRunDropsBlockedSources(t *testing.T) {
	db := newMemStore()
	fetcher := &fakeFetcher{docs: []source.Document{
		recentDoc("https://spamwire.example.com/openclaw-release", "OpenClaw announces record growth"),
		recentDoc("https://theverge.com/openclaw", "OpenClaw lands major funding"),
	}}

	report, err := New(testDeps(db, fetcher)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Rejected)
	require.Len(t, report.Rejections, 1)
	assert.Equal(t, "blocked source", report.Rejections[0].Reason)

	// The deny-listed document is gone before clustering, so it can never
	// anchor a story or carry a positive total.
	stories, _ := db.ListStories(context.Background(), store.ListOpts{})
	require.Len(t, stories, 1)
	assert.Equal(t, "https://theverge.com/openclaw", stories[0].URL)
}

func TestRunBucketsInferredDatesByDay(t *testing.T) {
	db := newMemStore()
	today := time.Now().UTC()
	yesterday := today.AddDate(0, 0, -1)

	a := recentDoc(fmt.Sprintf("https://news.example.com/%s/openclaw-funding", today.Format("2006/01/02")), "OpenClaw lands major funding")
	a.PublishedAt = time.Time{}
	b := recentDoc(fmt.Sprintf("https://news.example.com/%s/openclaw-round", yesterday.Format("2006/01/02")), "OpenClaw raises a new round")
	b.PublishedAt = time.Time{}

	deps := testDeps(db, &fakeFetcher{docs: []source.Document{a, b}})
	deps.Embedder = &fakeEmbedder{vectors: map[string][]float64{
		"lands major funding": {1, 0},
		"raises a new round":  {1, 0},
	}}

	report, err := New(deps).Run(context.Background())
	require.NoError(t, err)

	// Identical vectors, but the URL-inferred dates fall on different
	// calendar days, so the documents never share a cluster bucket.
	assert.Equal(t, 2, report.NewStories)

	stories, _ := db.ListStories(context.Background(), store.ListOpts{})
	require.Len(t, stories, 2)
	days := map[string]bool{}
	for _, st := range stories {
		days[st.Day] = true
	}
	assert.True(t, days[today.Format("2006-01-02")])
	assert.True(t, days[yesterday.Format("2006-01-02")])
}

func TestRunRetriesBudgetSkippedBriefs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"One sentence brief."}]}}]}`)
	}))
	defer srv.Close()

	db := newMemStore()
	fetcher := &fakeFetcher{docs: []source.Document{
		recentDoc("https://theverge.com/openclaw-a", "OpenClaw lands major funding"),
		recentDoc("https://theverge.com/openclaw-b", "OpenClaw ships a new release"),
	}}

	deps := testDeps(db, fetcher)
	deps.Briefs = brief.NewGenerator("key", "", srv.URL)
	deps.BriefBudget = 1

	_, err := New(deps).Run(context.Background())
	require.NoError(t, err)

	stories, _ := db.ListStories(context.Background(), store.ListOpts{})
	require.Len(t, stories, 2)
	var skipped int
	for _, st := range stories {
		if st.Brief == "" {
			skipped++
		}
	}
	assert.Equal(t, 1, skipped)

	// A later run with nothing new to fetch spends its budget on the
	// story the first run never attempted.
	deps.Fetchers = []source.Fetcher{&fakeFetcher{}}
	_, err = New(deps).Run(context.Background())
	require.NoError(t, err)

	stories, _ = db.ListStories(context.Background(), store.ListOpts{})
	require.Len(t, stories, 2)
	for _, st := range stories {
		assert.Equal(t, "One sentence brief.", st.Brief)
	}
}
