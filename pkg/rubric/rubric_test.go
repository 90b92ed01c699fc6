package rubric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clawbeat/forge/pkg/source"
)

var now = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func testScorer() *Scorer {
	return New(Keywords{
		Primary: []string{"openclaw"},
		Related: []string{"clawdbot", "agent"},
		Novelty: []string{"memory", "router", "security"},
		Owner:   "openclaw",
	}, now)
}

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func TestScoreDisqualifiers(t *testing.T) {
	s := testScorer()

	t.Run("throwaway name skips despite stars", func(t *testing.T) {
		pts, tier := s.Score(source.Repo{
			Name: "test-openclaw-demo", Owner: "someone",
			Stars: 10000, Forks: 900, License: "MIT",
			CreatedAt: daysAgo(400), PushedAt: daysAgo(3),
		})
		assert.Equal(t, 0, pts)
		assert.Equal(t, TierSkip, tier)
	})

	t.Run("blocked license", func(t *testing.T) {
		pts, tier := s.Score(source.Repo{
			Name: "openclaw-fork", Owner: "someone",
			Stars: 3000, License: "NOASSERTION",
			CreatedAt: daysAgo(400), PushedAt: daysAgo(3),
		})
		assert.Equal(t, 0, pts)
		assert.Equal(t, TierSkip, tier)
	})

	t.Run("stale with dragging issues", func(t *testing.T) {
		pts, tier := s.Score(source.Repo{
			Name: "openclaw-tool", Owner: "someone",
			Stars: 1000, Forks: 80, License: "MIT", OpenIssues: 12,
			CreatedAt: daysAgo(900), PushedAt: daysAgo(600),
		})
		assert.Equal(t, 0, pts)
		assert.Equal(t, TierSkip, tier)
	})

	t.Run("stale without issues is scored", func(t *testing.T) {
		pts, tier := s.Score(source.Repo{
			Name: "openclaw-tool", Owner: "someone",
			Stars: 1000, Forks: 80, License: "MIT", OpenIssues: 2,
			CreatedAt: daysAgo(900), PushedAt: daysAgo(600),
		})
		assert.Greater(t, pts, 0)
		assert.NotEqual(t, TierSkip, tier)
	})
}

func TestScoreFlagship(t *testing.T) {
	s := testScorer()

	pts, tier := s.Score(source.Repo{
		Name: "openclaw", Owner: "openclaw",
		Stars: 25000, Forks: 3000, License: "MIT",
		CreatedAt: daysAgo(400), PushedAt: daysAgo(2),
	})

	// activity 24 + quality 16 + relevance 23 + traction 13 + novelty 4
	assert.Equal(t, 80, pts)
	assert.Equal(t, TierFeatured, tier)
}

func TestScoreArchivedNeverFeatured(t *testing.T) {
	s := testScorer()

	pts, tier := s.Score(source.Repo{
		Name: "openclaw", Owner: "openclaw", Archived: true,
		Stars: 25000, Forks: 3000, License: "MIT",
		CreatedAt: daysAgo(400), PushedAt: daysAgo(2),
	})
	assert.Equal(t, featuredMin-1, pts)
	assert.Equal(t, TierListed, tier)
}

func TestScoreUnrelatedRepo(t *testing.T) {
	s := testScorer()

	pts, tier := s.Score(source.Repo{
		Name: "random-tool", Owner: "someone",
		Stars: 10, Forks: 0, License: "",
		CreatedAt: daysAgo(700), PushedAt: daysAgo(400),
	})

	// activity 2 + quality 7 + relevance 6 + traction 2 + novelty 2
	assert.Equal(t, 19, pts)
	assert.Equal(t, TierSkip, tier)
}

func TestActivityYoungRepoCap(t *testing.T) {
	s := testScorer()

	assert.Equal(t, 15, s.activity(1, 10))
	assert.Equal(t, 24, s.activity(1, 200))
	assert.Equal(t, 17, s.activity(100, 200))
	assert.Equal(t, 9, s.activity(300, 700))
	assert.Equal(t, 2, s.activity(400, 700))
}

func TestRelevanceTiers(t *testing.T) {
	s := testScorer()

	assert.Equal(t, 23, s.relevance("anything", "openclaw", "", nil, 0))
	assert.Equal(t, 20, s.relevance("awesome-openclaw", "someone", "", nil, 0))
	assert.Equal(t, 18, s.relevance("openclaw-memory", "someone", "", nil, 0))
	assert.Equal(t, 16, s.relevance("agent-helper", "someone", "", nil, 0))
	assert.Equal(t, 10, s.relevance("helper", "someone", "a tool for openclaw users", nil, 0))
	assert.Equal(t, 6, s.relevance("helper", "someone", "nothing related", nil, 0))

	t.Run("fork ratio bonus", func(t *testing.T) {
		assert.Equal(t, 25, s.relevance("anything", "openclaw", "", nil, 0.3))
	})
}

func TestTractionZeroForkPenalty(t *testing.T) {
	s := testScorer()

	// 800 stars with zero forks is a bought-stars signature.
	penalized := s.traction(800, 0, 400, 0)
	normal := s.traction(800, 60, 400, 0.075)
	assert.Less(t, penalized, normal)
}
