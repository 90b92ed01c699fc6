package relevance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clawbeat/forge/pkg/source"
)

var testKeywords = Keywords{
	Core:      []string{"openclaw", "openclaw foundation"},
	Secondary: []string{"moltbook", "skills"},
}

func testFilter() *Filter {
	return New(testKeywords, Options{})
}

func doc(title, summary string, published time.Time) source.Document {
	return source.Document{
		URL:         "https://news.example.com/post",
		Title:       title,
		Summary:     summary,
		PublishedAt: published,
	}
}

func TestCheckPasses(t *testing.T) {
	f := testFilter()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-3 * time.Hour)

	t.Run("core term in title", func(t *testing.T) {
		res := f.Check(doc("OpenClaw ships a new release", "short note", recent), now)
		assert.True(t, res.Passed)
		assert.Greater(t, res.Density, 0)
	})

	t.Run("core term in body meets density", func(t *testing.T) {
		res := f.Check(doc(
			"An agent framework worth watching",
			"The openclaw project added skills support and a moltbook integration this week.",
			recent), now)
		assert.True(t, res.Passed)
	})
}

func TestCheckRejects(t *testing.T) {
	f := testFilter()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-3 * time.Hour)

	t.Run("no keywords at all", func(t *testing.T) {
		res := f.Check(doc(
			"Quarterly smartphone shipments decline again",
			"Analysts report another weak quarter for handset vendors across all regions.",
			recent), now)
		assert.False(t, res.Passed)
		assert.Equal(t, "below density threshold", res.Reason)
		assert.Equal(t, 0, res.Density)
	})

	t.Run("secondary terms without a core term", func(t *testing.T) {
		res := f.Check(doc(
			"New skills marketplace launches",
			"The marketplace lists skills from many vendors and a moltbook comparison.",
			recent), now)
		assert.False(t, res.Passed)
		assert.Equal(t, 0, res.Density)
	})

	t.Run("stale document", func(t *testing.T) {
		res := f.Check(doc("OpenClaw retrospective", "a look back", now.Add(-80*time.Hour)), now)
		assert.False(t, res.Passed)
		assert.Equal(t, "stale", res.Reason)
	})

	t.Run("no determinable date", func(t *testing.T) {
		res := f.Check(doc("OpenClaw update", "notes", time.Time{}), now)
		assert.False(t, res.Passed)
		assert.Equal(t, "no publish date", res.Reason)
	})

	t.Run("non-english text", func(t *testing.T) {
		res := f.Check(doc(
			"Los analistas predicen un crecimiento continuo del mercado",
			"Los expertos de la industria señalaron que las empresas tecnológicas continúan invirtiendo fuertemente en nuevas plataformas durante este año.",
			recent), now)
		assert.False(t, res.Passed)
		assert.Equal(t, "non-english", res.Reason)
	})
}

func TestCheckDateFromURL(t *testing.T) {
	f := testFilter()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	d := doc("OpenClaw lands a big integration", "details inside", time.Time{})
	d.URL = "https://news.example.com/2026/03/10/openclaw-integration"

	res := f.Check(d, now)
	assert.True(t, res.Passed)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), res.PublishedAt)
}

func TestCheckReturnsFeedDate(t *testing.T) {
	f := testFilter()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	published := now.Add(-5 * time.Hour)

	res := f.Check(doc("OpenClaw ships a new release", "short note", published), now)
	assert.True(t, res.Passed)
	assert.Equal(t, published, res.PublishedAt)
}

func TestDensity(t *testing.T) {
	f := testFilter()

	t.Run("each term counts once", func(t *testing.T) {
		// openclaw (1) + openclaw foundation (1) + bonus (10) + two gated
		// secondary terms (2)
		got := f.Density("the openclaw foundation shipped skills and a moltbook guide about openclaw")
		assert.Equal(t, 14, got)
	})

	t.Run("secondary gated on core presence", func(t *testing.T) {
		assert.Equal(t, 0, f.Density("a moltbook guide to skills"))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Equal(t, 0, f.Density(""))
	})
}

func TestShortTextSkipsLanguageGate(t *testing.T) {
	f := testFilter()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Three words give the detector nothing reliable; the gate lets the
	// document through to the other checks.
	res := f.Check(doc("OpenClaw 2.0", "", now.Add(-time.Hour)), now)
	assert.True(t, res.Passed)
}
