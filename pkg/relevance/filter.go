// Package relevance decides whether a candidate document is in-scope and
// computes its keyword density score.
package relevance

import (
	"regexp"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/clawbeat/forge/pkg/source"
)

// Keywords partitions the configured keyword set. Core terms qualify a
// document on their own; secondary terms only count when a core term is
// present somewhere in the text.
type Keywords struct {
	Core      []string
	Secondary []string
}

// Options tunes the filter gates.
type Options struct {
	MinDensity    int           // minimum density for non-title matches
	RecencyWindow time.Duration // documents older than this are rejected
	CoreBonus     int           // added to density when any core term matches
	ExcerptLen    int           // max excerpt length for downstream briefs
}

// Result is the filter verdict for one document. PublishedAt is the
// resolved date, URL-inferred when the feed carried none, so callers can
// backfill documents that passed on an inferred date.
type Result struct {
	Passed      bool
	Density     int
	Excerpt     string
	PublishedAt time.Time
	Reason      string // set when rejected
}

// Filter applies the language, recency, and density gates.
type Filter struct {
	core      []string
	secondary []string
	opts      Options
}

// New builds a filter. Keywords are matched case-insensitively.
func New(kw Keywords, opts Options) *Filter {
	if opts.MinDensity <= 0 {
		opts.MinDensity = 2
	}
	if opts.RecencyWindow <= 0 {
		opts.RecencyWindow = 48 * time.Hour
	}
	if opts.CoreBonus <= 0 {
		opts.CoreBonus = 10
	}
	if opts.ExcerptLen <= 0 {
		opts.ExcerptLen = 500
	}
	return &Filter{
		core:      lowerAll(kw.Core),
		secondary: lowerAll(kw.Secondary),
		opts:      opts,
	}
}

// Check evaluates one document against all gates. now is injected so
// recency is testable.
func (f *Filter) Check(doc source.Document, now time.Time) Result {
	title := strings.ToLower(doc.Title)
	body := strings.ToLower(doc.Summary)
	full := title + " " + body

	if !isEnglish(doc.Title + " " + doc.Summary) {
		return Result{Reason: "non-english"}
	}

	published := doc.PublishedAt
	if published.IsZero() {
		published = dateFromURL(doc.URL)
	}
	// No determinable date means not recent.
	if published.IsZero() {
		return Result{Reason: "no publish date"}
	}
	if now.Sub(published) > f.opts.RecencyWindow {
		return Result{Reason: "stale"}
	}

	density := f.Density(full)
	excerpt := trimExcerpt(doc.Summary, f.opts.ExcerptLen)

	if containsAny(title, f.core) {
		return Result{Passed: true, Density: density, Excerpt: excerpt, PublishedAt: published}
	}
	if density >= f.opts.MinDensity {
		return Result{Passed: true, Density: density, Excerpt: excerpt, PublishedAt: published}
	}
	return Result{Density: density, Reason: "below density threshold"}
}

// Density counts keyword presence in the lowercased text: one point per
// matching keyword, plus the core bonus when any core term appears.
// Secondary terms alone never contribute — they are gated on a core
// co-occurrence.
func (f *Filter) Density(lowerText string) int {
	density := 0
	hasCore := false
	for _, kw := range f.core {
		if strings.Contains(lowerText, kw) {
			density++
			hasCore = true
		}
	}
	if hasCore {
		density += f.opts.CoreBonus
		for _, kw := range f.secondary {
			if strings.Contains(lowerText, kw) {
				density++
			}
		}
	}
	return density
}

// HasCore reports whether any core brand term appears in the text.
func (f *Filter) HasCore(text string) bool {
	return containsAny(strings.ToLower(text), f.core)
}

// HasSecondary reports whether any secondary term appears in the text.
func (f *Filter) HasSecondary(text string) bool {
	return containsAny(strings.ToLower(text), f.secondary)
}

// isEnglish is best-effort: only a confident non-English detection rejects.
// Short or ambiguous text passes through.
func isEnglish(text string) bool {
	if len(strings.Fields(text)) < 4 {
		return true
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return true
	}
	return info.Lang == whatlanggo.Eng
}

var urlDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/(\d{4})/(\d{1,2})/(\d{1,2})(?:/|$)`),
	regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
}

// dateFromURL infers a publish date from common URL path conventions.
// Returns the zero time when nothing matches.
func dateFromURL(rawURL string) time.Time {
	for _, re := range urlDatePatterns {
		m := re.FindStringSubmatch(rawURL)
		if m == nil {
			continue
		}
		t, err := time.Parse("2006-1-2", m[1]+"-"+m[2]+"-"+m[3])
		if err == nil && t.Year() >= 2000 {
			return t
		}
	}
	return time.Time{}
}

func trimExcerpt(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
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
