package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/forge/internal/store"
	"github.com/clawbeat/forge/pkg/source"
)

func TestBuildStoriesAnchorSelection(t *testing.T) {
	creator := source.Document{URL: "https://blog.example.com/1", SourceName: "Blog", Authority: 2, Density: 30}
	publisher := source.Document{URL: "https://theverge.com/1", SourceName: "The Verge", Authority: 3, Density: 12}
	unknown := source.Document{URL: "https://random.example.net/1", SourceName: "Random", Authority: 1, Density: 40}

	stories := BuildStories([]*Cluster{{
		Day:  "2026-03-10",
		Docs: []source.Document{creator, publisher, unknown},
	}})

	require.Len(t, stories, 1)
	st := stories[0]

	// Authority beats density for anchor selection.
	assert.Equal(t, publisher.URL, st.URL)
	assert.Equal(t, "2026-03-10", st.Day)

	require.Len(t, st.Coverage, 2)
	assert.Equal(t, creator.URL, st.Coverage[0].URL)
	assert.Equal(t, unknown.URL, st.Coverage[1].URL)
}

func TestBuildStoriesDedupsCoverage(t *testing.T) {
	anchor := source.Document{URL: "https://a.example.com/1", Authority: 3}
	dup := source.Document{URL: "https://b.example.com/2", Authority: 1}

	stories := BuildStories([]*Cluster{{
		Day:  "2026-03-10",
		Docs: []source.Document{anchor, dup, dup},
	}})

	require.Len(t, stories, 1)
	assert.Len(t, stories[0].Coverage, 1)
}

func TestMergeStripsPromotedAnchors(t *testing.T) {
	promoted := "https://promoted.example.com/story"

	existing := []store.Story{{
		Document: source.Document{URL: "https://old.example.com/story"},
		Coverage: []store.Coverage{
			{Source: "Promoted", URL: promoted},
			{Source: "Other", URL: "https://other.example.com/story"},
		},
	}}
	fresh := []store.Story{{
		Document: source.Document{URL: promoted},
	}}

	changed := Merge(existing, fresh)

	require.Len(t, changed, 1)
	require.Len(t, changed[0].Coverage, 1)
	assert.Equal(t, "https://other.example.com/story", changed[0].Coverage[0].URL)
}

func TestMergeCleansFreshCoverage(t *testing.T) {
	anchorA := "https://a.example.com/1"
	anchorB := "https://b.example.com/2"

	fresh := []store.Story{
		{
			Document: source.Document{URL: anchorA},
			Coverage: []store.Coverage{
				{Source: "B", URL: anchorB},
				{Source: "C", URL: "https://c.example.com/3"},
			},
		},
		{Document: source.Document{URL: anchorB}},
	}

	changed := Merge(nil, fresh)
	assert.Empty(t, changed)

	require.Len(t, fresh[0].Coverage, 1)
	assert.Equal(t, "https://c.example.com/3", fresh[0].Coverage[0].URL)
}

func TestMergeUnchangedStoriesNotReturned(t *testing.T) {
	existing := []store.Story{{
		Document: source.Document{URL: "https://old.example.com/story"},
		Coverage: []store.Coverage{{Source: "Other", URL: "https://other.example.com/x"}},
	}}
	fresh := []store.Story{{
		Document: source.Document{URL: "https://new.example.com/story"},
	}}

	changed := Merge(existing, fresh)
	assert.Empty(t, changed)
}
