// Package rubric scores code-repository candidates on a five-part rubric
// and maps the total to a publication tier.
package rubric

import (
	"strings"
	"time"

	"github.com/clawbeat/forge/pkg/source"
)

// Tier classifies a scored repository.
type Tier string

const (
	TierFeatured  Tier = "featured"
	TierListed    Tier = "listed"
	TierWatchlist Tier = "watchlist"
	TierSkip      Tier = "skip"
)

// Tier thresholds on the raw total.
const (
	featuredMin  = 75
	listedMin    = 50
	watchlistMin = 25
)

const staleDays = 548 // ~1.5 years since last push

var blockedLicenses = map[string]bool{
	"NOASSERTION": true,
	"SSPL-1.0":    true,
}

var throwawayWords = []string{"test", "demo", "temp", "wip", "todo", "untitled"}

var permissiveLicenses = map[string]bool{
	"MIT":          true,
	"Apache-2.0":   true,
	"BSD-2-Clause": true,
	"BSD-3-Clause": true,
}

// Keywords configures relevance matching. Primary terms identify the topic
// itself; related terms are weaker topic-adjacent signals; novelty terms
// mark repos that add a new capability category to the ecosystem.
type Keywords struct {
	Primary []string
	Related []string
	Novelty []string
	Owner   string // the canonical project owner/org name
}

// Scorer computes rubric scores. Pure given a fixed clock; now is injected
// at construction so staleness buckets are testable.
type Scorer struct {
	kw  Keywords
	now time.Time
}

// New builds a scorer evaluating staleness relative to now.
func New(kw Keywords, now time.Time) *Scorer {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Scorer{kw: kw, now: now}
}

// Score computes the rubric total and tier for one repository.
// Disqualifiers short-circuit to (0, skip): blocked license, throwaway
// name, or a stale repo dragging open issues.
func (s *Scorer) Score(r source.Repo) (int, Tier) {
	name := strings.ToLower(r.Name)
	owner := strings.ToLower(r.Owner)
	desc := strings.ToLower(r.Description)

	forkRatio := float64(r.Forks) / float64(max(r.Stars, 1))
	daysCreated := s.daysSince(r.CreatedAt)
	lastPushDays := s.daysSince(r.PushedAt)

	if blockedLicenses[r.License] {
		return 0, TierSkip
	}
	for _, w := range throwawayWords {
		if strings.Contains(name, w) {
			return 0, TierSkip
		}
	}
	if lastPushDays >= staleDays && r.OpenIssues > 5 {
		return 0, TierSkip
	}

	total := s.activity(lastPushDays, daysCreated) +
		s.quality(r.Stars, r.License) +
		s.relevance(name, owner, desc, r.Topics, forkRatio) +
		s.traction(r.Stars, r.Forks, daysCreated, forkRatio) +
		s.novelty(name, owner, r.Stars)

	// Archived repos never reach featured regardless of raw total.
	if r.Archived && total >= featuredMin {
		total = featuredMin - 1
	}

	switch {
	case total >= featuredMin:
		return total, TierFeatured
	case total >= listedMin:
		return total, TierListed
	case total >= watchlistMin:
		return total, TierWatchlist
	}
	return total, TierSkip
}

// activity: 0-30, staleness-bucketed, capped lower for very young repos.
func (s *Scorer) activity(lastPushDays, daysCreated int) int {
	act := 2
	switch {
	case lastPushDays <= 60:
		act = 24
	case lastPushDays <= 180:
		act = 17
	case lastPushDays <= 365:
		act = 9
	}
	if daysCreated <= 30 && act > 15 {
		act = 15
	}
	return act
}

// quality: 0-25, base credit plus license-family adjustment plus a
// stars-and-permissive-license bonus.
func (s *Scorer) quality(stars int, license string) int {
	qual := 12
	switch {
	case permissiveLicenses[license]:
		qual += 2
	case license == "":
		qual -= 5
	case license == "GPL-3.0" || license == "AGPL-3.0":
		qual -= 2
	}
	if stars > 5000 && (license == "MIT" || license == "Apache-2.0") {
		qual += 2
	}
	if qual < 0 {
		qual = 0
	}
	if qual > 25 {
		qual = 25
	}
	return qual
}

// relevance: 0-25, tiered by owner/name keyword matches and topic hits.
func (s *Scorer) relevance(name, owner, desc string, topics []string, forkRatio float64) int {
	topicStr := strings.ToLower(strings.Join(topics, " "))
	kwHits := 0
	for _, k := range append(append([]string{}, s.kw.Primary...), s.kw.Related...) {
		if strings.Contains(topicStr, strings.ToLower(k)) {
			kwHits++
		}
	}

	primary := lowerAll(s.kw.Primary)
	related := lowerAll(s.kw.Related)
	canonical := strings.ToLower(s.kw.Owner)

	rel := 6
	switch {
	case owner == canonical || name == canonical:
		rel = 23
	case nameHasCompound(name, canonical, "awesome", "skills", "usecases"):
		rel = 20
	case containsAny(name, primary):
		rel = 18
	case containsAny(name, []string{"skill", "awesome", "usecases"}):
		rel = 16
	case containsAny(name, related):
		rel = 16
	case kwHits >= 3:
		rel = 15
	case kwHits >= 1:
		rel = 12
	case containsAny(desc, primary):
		rel = 10
	}
	if forkRatio > 0.20 {
		rel = min(25, rel+2)
	}
	return rel
}

// traction: 0-15, star/fork bucket thresholds, fork-ratio bonus, and a
// penalty for suspicious zero-fork star counts.
func (s *Scorer) traction(stars, forks, daysCreated int, forkRatio float64) int {
	trac := 2
	switch {
	case stars >= 20000 && forks >= 2000:
		trac = 13
	case stars >= 5000 && forks >= 300:
		trac = 10
	case stars >= 1000 && forks >= 50:
		trac = 7
	case daysCreated <= 90 && stars >= 200:
		trac = 4
	}
	if forkRatio > 0.20 {
		trac = min(15, trac+2)
	}
	if forks == 0 && stars > 500 {
		trac = max(0, trac-3)
	}
	return trac
}

// novelty: 0-5, owner/name/star-count heuristics.
func (s *Scorer) novelty(name, owner string, stars int) int {
	canonical := strings.ToLower(s.kw.Owner)
	switch {
	case owner == canonical || name == canonical || stars > 20000:
		return 4
	case containsAny(name, lowerAll(s.kw.Novelty)):
		return 4
	case stars > 5000 || strings.Contains(name, "awesome"):
		return 3
	}
	return 2
}

func (s *Scorer) daysSince(t time.Time) int {
	if t.IsZero() {
		return 9999
	}
	return int(s.now.Sub(t).Hours() / 24)
}

func nameHasCompound(name, canonical string, suffixes ...string) bool {
	if canonical == "" {
		return false
	}
	for _, suf := range suffixes {
		if strings.Contains(name, canonical+"-"+suf) || strings.Contains(name, suf+"-"+canonical) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
