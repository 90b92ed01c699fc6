package authority

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testClassifier() *Classifier {
	return New(Lists{
		Blocked:    []string{"prnewswire.com"},
		Publishers: []string{"theverge.com", "https://www.techcrunch.com"},
		Creators:   []string{"youtube.com", "substack.com"},
		Platforms:  []string{"github.com"},
	})
}

func TestTier(t *testing.T) {
	c := testClassifier()

	tests := []struct {
		name       string
		url        string
		sourceName string
		want       int
	}{
		{"publisher domain", "https://www.theverge.com/2026/1/2/some-story", "The Verge", TierPublisher},
		{"publisher configured with scheme", "https://techcrunch.com/post", "TechCrunch", TierPublisher},
		{"platform counts as publisher", "https://github.com/acme/tool", "GitHub", TierPublisher},
		{"creator domain", "https://www.youtube.com/watch?v=abc", "Some Channel", TierCreator},
		{"unknown domain", "https://random-blog.example.net/post", "Random Blog", TierUnclassified},
		{"blocked domain", "https://prnewswire.com/release/123", "PR Newswire", TierBlocked},
		{"blocked by source name on foreign domain", "https://news.example.com/wire", "via prnewswire.com", TierBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Tier(tt.url, tt.sourceName))
		})
	}
}

func TestTierDeterministic(t *testing.T) {
	c := testClassifier()
	url := "https://www.theverge.com/post"

	first := c.Tier(url, "The Verge")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Tier(url, "The Verge"))
	}
}

func TestBlocked(t *testing.T) {
	c := testClassifier()

	assert.True(t, c.Blocked("https://prnewswire.com/x", ""))
	assert.False(t, c.Blocked("https://theverge.com/x", "The Verge"))
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "theverge.com", Domain("https://www.theverge.com/2026/1/2/story"))
	assert.Equal(t, "github.com", Domain("github.com/acme/tool"))
	assert.Equal(t, "example.com", Domain("http://example.com"))
}
