// Package score computes the five-dimension relevance/credibility score
// and stage tags for anchor stories.
package score

import (
	"math"
	"strings"

	"github.com/clawbeat/forge/pkg/authority"
)

// Sub-score caps. Each dimension is capped independently, then re-weighted
// into the 0-100 total.
const (
	CapD1 = 40 // product relevance
	CapD2 = 25 // content depth & actionability
	CapD3 = 20 // engagement & social signal
	CapD4 = 15 // source credibility
	CapD5 = 20 // reader value
)

// Stage tags attached to scored stories.
const (
	TagOfficialSource = "official-source"
	TagWhitelisted    = "whitelisted"
	TagHighEngagement = "high-engagement"
	TagLegacyName     = "legacy-name"
	TagClusterAnchor  = "cluster-anchor"
	TagPromotional    = "promotional"
)

// Engagement carries optional discussion-platform signals.
type Engagement struct {
	Points   int `json:"points"`
	Comments int `json:"comments"`
}

// Input is everything the scorer reads for one anchor. Missing fields
// (empty summary, nil engagement) degrade to the lowest sub-score bucket;
// scoring never fails.
type Input struct {
	Title         string
	Summary       string
	Density       int
	Authority     int
	Blocked       bool
	CoverageCount int
	Engagement    *Engagement
}

// Record holds the typed sub-scores so the caps are enforced by
// construction rather than by convention.
type Record struct {
	D1        int      `json:"d1"`
	D2        int      `json:"d2"`
	D3        int      `json:"d3"`
	D4        int      `json:"d4"`
	D5        int      `json:"d5"`
	Total     int      `json:"total"`
	BrandTier int      `json:"brand_tier"`
	StageTags []string `json:"stage_tags"`
}

// Terms configures brand-term matching for the scorer. Canonical is the
// current brand name; Legacy holds old/alias names that trigger the
// legacy-name tag when the canonical term is absent.
type Terms struct {
	Core      []string
	Secondary []string
	Legacy    []string
	Canonical string
}

// Scorer computes Records. Pure and stateless once constructed.
type Scorer struct {
	core      []string
	secondary []string
	legacy    []string
	canonical string
}

// New builds a scorer from the configured brand terms.
func New(terms Terms) *Scorer {
	canonical := strings.ToLower(terms.Canonical)
	if canonical == "" && len(terms.Core) > 0 {
		canonical = strings.ToLower(terms.Core[0])
	}
	return &Scorer{
		core:      lowerAll(terms.Core),
		secondary: lowerAll(terms.Secondary),
		legacy:    lowerAll(terms.Legacy),
		canonical: canonical,
	}
}

// Score computes the full record for one anchor.
func (s *Scorer) Score(in Input) Record {
	title := strings.ToLower(in.Title)
	text := title + " " + strings.ToLower(in.Summary)

	tier := s.brandTier(text)

	rec := Record{BrandTier: tier}
	rec.D1 = s.productRelevance(title, tier, in.Density)
	rec.D2 = s.depthActionability(title, in)
	rec.D3 = s.engagementSignal(in)
	rec.D4 = sourceCredibility(in)
	rec.D5 = s.readerValue(title, text, tier, in)
	rec.Total = total(rec)
	rec.StageTags = s.stageTags(text, rec, in)
	return rec
}

// brandTier: 1 = core term present, 2 = secondary term present, 3 = neither
// (document passed the filter on contextual density alone).
func (s *Scorer) brandTier(text string) int {
	if containsAny(text, s.core) {
		return 1
	}
	if containsAny(text, s.secondary) {
		return 2
	}
	return 3
}

var comparators = []string{" vs ", " vs. ", " versus ", "alternative to", "compared to"}

func (s *Scorer) productRelevance(title string, tier int, density int) int {
	centrality := 2
	if containsAny(title, s.core) {
		centrality = 7
	} else if tier == 1 {
		centrality = 4
	}
	switch {
	case density >= 15:
		centrality += 3
	case density >= 8:
		centrality += 2
	case density >= 3:
		centrality++
	}
	if centrality > 10 {
		centrality = 10
	}

	mult := 0.30
	switch tier {
	case 1:
		mult = 1.0
	case 2:
		mult = 0.65
	}

	d1 := int(math.Round(float64(centrality) * mult * 4))
	if d1 > CapD1 {
		d1 = CapD1
	}

	// Comparison-framing penalty: the brand appearing only after "vs" /
	// "alternative to" means the story is about a competitor.
	for _, cmp := range comparators {
		idx := strings.Index(title, cmp)
		if idx < 0 {
			continue
		}
		if !coreBefore(title, s.core, idx) {
			d1 -= 10
			if d1 < 0 {
				d1 = 0
			}
		}
		break
	}
	return d1
}

var actionTerms = []struct {
	term   string
	weight int
}{
	{"release", 3}, {"launch", 3}, {"announce", 3}, {"ships", 3}, {"now available", 3},
	{"update", 2}, {"how to", 2}, {"guide", 2}, {"tutorial", 2},
	{"docs", 1}, {"documentation", 1}, {"example", 1}, {"demo", 1},
}

func (s *Scorer) depthActionability(title string, in Input) int {
	depth := 0
	switch in.Authority {
	case authority.TierPublisher:
		depth = 8
	case authority.TierCreator:
		depth = 6
	case authority.TierUnclassified:
		depth = 4
	}
	switch {
	case len(in.Summary) >= 120:
		depth += 7
	case len(in.Summary) >= 60:
		depth += 4
	}
	if depth > 15 {
		depth = 15
	}

	action := 0
	for _, at := range actionTerms {
		if strings.Contains(title, at.term) {
			action += at.weight
		}
	}
	if action > 10 {
		action = 10
	}

	d2 := depth + action
	if d2 > CapD2 {
		d2 = CapD2
	}
	return d2
}

func (s *Scorer) engagementSignal(in Input) int {
	d3 := 0
	switch {
	case in.CoverageCount >= 4:
		d3 += 10
	case in.CoverageCount >= 2:
		d3 += 7
	case in.CoverageCount >= 1:
		d3 += 5
	}
	if in.Authority == authority.TierPublisher {
		d3 += 8
	}
	switch {
	case in.Density >= 12:
		d3 += 4
	case in.Density >= 6:
		d3 += 2
	}
	if in.Engagement != nil {
		switch {
		case in.Engagement.Points >= 100:
			d3 += 5
		case in.Engagement.Points >= 50:
			d3 += 3
		case in.Engagement.Points >= 10:
			d3++
		}
		switch {
		case in.Engagement.Comments >= 50:
			d3 += 3
		case in.Engagement.Comments >= 10:
			d3 += 2
		}
	}
	if d3 > CapD3 {
		d3 = CapD3
	}
	return d3
}

// sourceCredibility is a direct mapping from authority tier. Deny-listed
// sources are forced to zero regardless of any other signal.
func sourceCredibility(in Input) int {
	if in.Blocked {
		return 0
	}
	switch in.Authority {
	case authority.TierPublisher:
		return 14
	case authority.TierCreator:
		return 11
	case authority.TierUnclassified:
		return 6
	}
	return 0
}

var practicalTerms = []string{
	"build", "tutorial", "how to", "guide", "code", "sample", "sdk", "api", "integrate",
}

func (s *Scorer) readerValue(title, text string, tier int, in Input) int {
	// Practical utility (0-8), gated by brand tier: generic how-to content
	// with no brand connection earns almost nothing.
	hits := 0
	for _, t := range practicalTerms {
		if strings.Contains(text, t) {
			hits++
		}
	}
	practical := hits * 2
	if practical > 8 {
		practical = 8
	}
	switch tier {
	case 2:
		if practical > 5 {
			practical = 5
		}
	case 3:
		if practical > 2 {
			practical = 2
		}
	}

	// Community relevance (0-6).
	community := 0
	if in.Authority >= authority.TierCreator {
		community += 3
	}
	if in.CoverageCount >= 1 {
		community += 2
	}
	if in.Engagement != nil && in.Engagement.Points > 0 {
		community++
	}

	// Technology directness (0-4).
	directness := 1
	switch tier {
	case 1:
		directness = 4
	case 2:
		directness = 2
	}
	if tier == 3 && !containsAny(title, s.core) && !containsAny(title, s.secondary) {
		directness -= 2
	}
	if directness < 0 {
		directness = 0
	}

	// Timeliness (0-4): flat credit for passing the recency gate, plus
	// corroboration from multi-source coverage or live discussion.
	timeliness := 2
	if in.CoverageCount >= 1 || in.Engagement != nil {
		timeliness += 2
	}

	d5 := practical + community + directness + timeliness
	if d5 < 0 {
		d5 = 0
	}
	if d5 > CapD5 {
		d5 = CapD5
	}
	return d5
}

func total(rec Record) int {
	t := float64(rec.D1)/float64(CapD1)*35 +
		float64(rec.D2)/float64(CapD2)*20 +
		float64(rec.D3)/float64(CapD3)*15 +
		float64(rec.D4)/float64(CapD4)*10 +
		float64(rec.D5)/float64(CapD5)*20
	n := int(math.Round(t))
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return n
}

func (s *Scorer) stageTags(text string, rec Record, in Input) []string {
	var tags []string
	if in.Authority >= authority.TierPublisher {
		tags = append(tags, TagOfficialSource)
	}
	if in.Authority >= authority.TierCreator {
		tags = append(tags, TagWhitelisted)
	}
	if rec.D3 >= 15 {
		tags = append(tags, TagHighEngagement)
	}
	if containsAny(text, s.legacy) && s.canonical != "" && !strings.Contains(text, s.canonical) {
		tags = append(tags, TagLegacyName)
	}
	if in.CoverageCount >= 1 {
		tags = append(tags, TagClusterAnchor)
	}
	if in.Blocked {
		tags = append(tags, TagPromotional)
	}
	return tags
}

// coreBefore reports whether any core term appears in title before idx,
// i.e. the brand is the title's primary subject.
func coreBefore(title string, core []string, idx int) bool {
	for _, c := range core {
		if i := strings.Index(title, c); i >= 0 && i < idx {
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
