// Package authority classifies document sources into trust tiers.
package authority

import (
	"net/url"
	"strings"
)

// Trust tiers. Higher is more trusted.
const (
	TierBlocked      = 0 // press-release wires, spam aggregators; never anchors
	TierUnclassified = 1
	TierCreator      = 2 // known secondary / creator source
	TierPublisher    = 3 // known primary / publisher source
)

// Lists holds the static domain allow/deny sets the classifier is built
// from. Domains are matched without scheme or "www." prefix; source names
// are matched case-insensitively as substrings.
type Lists struct {
	Blocked    []string
	Publishers []string
	Creators   []string
	Platforms  []string // generic high-trust publishing platforms
}

// Classifier maps a document's URL and source name to a trust tier.
// It is a pure function of its configured lists: two calls with identical
// inputs always return identical output.
type Classifier struct {
	blocked    map[string]bool
	publishers map[string]bool
	creators   map[string]bool
	platforms  map[string]bool
	blockNames []string
}

// New builds a classifier from the configured lists.
func New(lists Lists) *Classifier {
	c := &Classifier{
		blocked:    make(map[string]bool),
		publishers: make(map[string]bool),
		creators:   make(map[string]bool),
		platforms:  make(map[string]bool),
	}
	for _, d := range lists.Blocked {
		d = normalizeDomain(d)
		c.blocked[d] = true
		c.blockNames = append(c.blockNames, strings.ToLower(d))
	}
	for _, d := range lists.Publishers {
		c.publishers[normalizeDomain(d)] = true
	}
	for _, d := range lists.Creators {
		c.creators[normalizeDomain(d)] = true
	}
	for _, d := range lists.Platforms {
		c.platforms[normalizeDomain(d)] = true
	}
	return c
}

// Tier returns the trust tier for a document. First match wins:
// deny list, then publisher/platform, then creator, then unclassified.
func (c *Classifier) Tier(rawURL, sourceName string) int {
	domain := Domain(rawURL)
	name := strings.ToLower(sourceName)

	if c.blocked[domain] {
		return TierBlocked
	}
	for _, b := range c.blockNames {
		if b != "" && name != "" && strings.Contains(name, b) {
			return TierBlocked
		}
	}
	if c.publishers[domain] || c.platforms[domain] {
		return TierPublisher
	}
	if c.creators[domain] {
		return TierCreator
	}
	return TierUnclassified
}

// Blocked reports whether the document matches the deny list.
func (c *Classifier) Blocked(rawURL, sourceName string) bool {
	return c.Tier(rawURL, sourceName) == TierBlocked
}

// Domain extracts the bare host from a URL, without "www.".
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return normalizeDomain(rawURL)
	}
	return normalizeDomain(u.Host)
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "https://")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return strings.TrimPrefix(d, "www.")
}
