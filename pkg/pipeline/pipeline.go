package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/clawbeat/forge/internal/store"
	"github.com/clawbeat/forge/pkg/alert"
	"github.com/clawbeat/forge/pkg/authority"
	"github.com/clawbeat/forge/pkg/brief"
	"github.com/clawbeat/forge/pkg/cluster"
	"github.com/clawbeat/forge/pkg/embed"
	"github.com/clawbeat/forge/pkg/relevance"
	"github.com/clawbeat/forge/pkg/rubric"
	"github.com/clawbeat/forge/pkg/score"
	"github.com/clawbeat/forge/pkg/source"
)

// Deps wires the pipeline stages together. Fetchers, Filter, Classifier,
// Scorer, and Store are required; the rest are optional and their stages
// are skipped when nil.
type Deps struct {
	Fetchers   []source.Fetcher
	Filter     *relevance.Filter
	Classifier *authority.Classifier
	Scorer     *score.Scorer
	Store      store.Store

	Embedder     embed.Provider
	Threshold    float64
	Engagement   score.EngagementProvider
	Briefs       *brief.Generator
	BriefContext *brief.ContextFetcher
	BriefBudget  int
	Alerts       *alert.Manager
	AlertMin     int

	Repos  *source.GitHub
	Rubric *rubric.Scorer
	Events *source.Events
}

// Pipeline runs the full candidate-to-story flow: fetch, dedup against
// the corpus, filter, embed, cluster, score, brief, persist, alert.
type Pipeline struct {
	deps Deps
}

// New creates a pipeline from its wired dependencies.
func New(deps Deps) *Pipeline {
	if deps.Threshold <= 0 || deps.Threshold >= 1 {
		deps.Threshold = cluster.DefaultThreshold
	}
	if deps.BriefBudget <= 0 {
		deps.BriefBudget = 25
	}
	return &Pipeline{deps: deps}
}

// Run executes one full pipeline pass. Partial failures (a dead feed, an
// embedding outage, a failed brief) degrade the run rather than abort it;
// only storage errors are fatal.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now().UTC()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	existing, err := p.deps.Store.ListStories(ctx, store.ListOpts{})
	if err != nil {
		return report, fmt.Errorf("load corpus: %w", err)
	}
	seen := seenURLs(existing)

	candidates := p.fetch(ctx, report)
	fresh := p.screen(candidates, seen, report)

	p.embed(ctx, fresh, report)

	stories := p.group(fresh, report)
	changed := cluster.Merge(existing, stories)
	report.NewStories = len(stories)
	report.Rescored = len(changed)

	p.scoreStories(ctx, stories, true)
	p.scoreStories(ctx, changed, false)

	p.generateBriefs(ctx, stories, existing, report)

	if err := p.deps.Store.UpsertStories(ctx, stories); err != nil {
		return report, fmt.Errorf("persist stories: %w", err)
	}
	if err := p.deps.Store.UpsertStories(ctx, changed); err != nil {
		return report, fmt.Errorf("persist rescored stories: %w", err)
	}

	p.sendAlerts(ctx, stories, report)
	return report, nil
}

// fetch collects candidates from every source. A failing source
// contributes nothing this run.
func (p *Pipeline) fetch(ctx context.Context, report *Report) []source.Document {
	var all []source.Document
	for _, f := range p.deps.Fetchers {
		docs, err := f.Fetch(ctx)
		if err != nil {
			report.errorf("fetch %s: %v", f.Name(), err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s: %d candidates\n", f.Name(), len(docs))
		all = append(all, docs...)
	}
	report.Fetched = len(all)
	return all
}

// screen dedups against the corpus and this batch, applies the relevance
// filter, drops deny-listed sources, and annotates survivors with
// density, authority tier, and the resolved publish date.
func (p *Pipeline) screen(candidates []source.Document, seen map[string]bool, report *Report) []source.Document {
	now := time.Now().UTC()
	batch := make(map[string]bool)

	var fresh []source.Document
	for _, doc := range candidates {
		if seen[doc.URL] || batch[doc.URL] {
			report.AlreadySeen++
			continue
		}
		batch[doc.URL] = true

		res := p.deps.Filter.Check(doc, now)
		if !res.Passed {
			report.reject(doc.URL, res.Reason)
			continue
		}

		doc.Authority = p.deps.Classifier.Tier(doc.URL, doc.SourceName)
		if doc.Authority == authority.TierBlocked {
			report.reject(doc.URL, "blocked source")
			continue
		}

		doc.Density = res.Density
		doc.Excerpt = res.Excerpt
		doc.PublishedAt = res.PublishedAt
		fresh = append(fresh, doc)
	}
	return fresh
}

// embed attaches vectors to the surviving articles. Videos are singleton
// stories and skip embedding. With no provider the run degrades to
// singleton stories for everything.
func (p *Pipeline) embed(ctx context.Context, docs []source.Document, report *Report) {
	if p.deps.Embedder == nil {
		return
	}

	var idx []int
	var texts []string
	for i, doc := range docs {
		if doc.Kind != source.KindArticle {
			continue
		}
		idx = append(idx, i)
		texts = append(texts, doc.Title+"\n"+doc.Excerpt)
	}
	if len(texts) == 0 {
		return
	}

	vectors := p.deps.Embedder.EmbedBatch(ctx, texts)
	for n, i := range idx {
		if n < len(vectors) && len(vectors[n]) > 0 {
			docs[i].Vector = vectors[n]
			report.Embedded++
		}
	}
}

// group clusters the articles and folds videos and unembeddable
// documents in as singleton stories.
func (p *Pipeline) group(docs []source.Document, report *Report) []store.Story {
	ix := cluster.NewIndex(p.deps.Threshold)
	unclustered := ix.Group(docs)
	clusters := ix.Clusters()

	for _, doc := range unclustered {
		clusters = append(clusters, &cluster.Cluster{
			Day:  cluster.DayKey(doc.PublishedAt),
			Docs: []source.Document{doc},
		})
	}

	report.Clusters = len(clusters)
	return cluster.BuildStories(clusters)
}

// scoreStories computes the score record for each story. Engagement
// lookup is an external call and only runs for newly discovered stories.
func (p *Pipeline) scoreStories(ctx context.Context, stories []store.Story, lookupEngagement bool) {
	for i := range stories {
		st := &stories[i]

		var eng *score.Engagement
		if lookupEngagement && p.deps.Engagement != nil {
			found, err := p.deps.Engagement.Lookup(ctx, st.URL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  engagement lookup %s: %v\n", st.URL, err)
			} else {
				eng = found
			}
		}

		rec := p.deps.Scorer.Score(score.Input{
			Title:         st.Title,
			Summary:       st.Summary,
			Density:       st.Density,
			Authority:     st.Authority,
			Blocked:       st.Authority == authority.TierBlocked,
			CoverageCount: len(st.Coverage),
			Engagement:    eng,
		})
		st.Score = &rec
		st.Total = rec.Total
		st.Scored = true
	}
}

// generateBriefs fills in one-sentence briefs under the per-run call
// budget. New stories go first; leftover budget retries stored stories
// whose last attempt failed or that were skipped by an earlier budget.
func (p *Pipeline) generateBriefs(ctx context.Context, fresh, existing []store.Story, report *Report) {
	if p.deps.Briefs == nil {
		return
	}

	budget := p.deps.BriefBudget
	for i := range fresh {
		if budget <= 0 {
			break
		}
		budget--
		p.briefOne(ctx, &fresh[i], report)
	}

	for i := range existing {
		if budget <= 0 {
			break
		}
		st := &existing[i]
		if st.Brief != "" && st.Brief != brief.Unavailable {
			continue
		}
		budget--
		p.briefOne(ctx, st, report)
		if st.Brief != brief.Unavailable {
			if err := p.deps.Store.UpsertStory(ctx, st); err != nil {
				report.errorf("persist retried brief %s: %v", st.URL, err)
			}
		}
	}
}

func (p *Pipeline) briefOne(ctx context.Context, st *store.Story, report *Report) {
	report.BriefsTried++

	pageContext := ""
	if p.deps.BriefContext != nil {
		fetched, err := p.deps.BriefContext.Fetch(ctx, st.URL)
		if err == nil {
			pageContext = fetched
		}
	}
	if pageContext == "" {
		pageContext = st.Summary
	}

	text, err := p.deps.Briefs.Generate(ctx, st.Title, pageContext)
	if err != nil {
		report.BriefsFailed++
	}
	st.Brief = text
}

// sendAlerts broadcasts newly scored stories that cross the alert
// threshold.
func (p *Pipeline) sendAlerts(ctx context.Context, stories []store.Story, report *Report) {
	if p.deps.Alerts == nil || !p.deps.Alerts.HasNotifiers() || p.deps.AlertMin <= 0 {
		return
	}
	for i := range stories {
		st := &stories[i]
		if st.Total < p.deps.AlertMin {
			continue
		}
		if err := p.deps.Alerts.Broadcast(ctx, alert.FromStory(st)); err != nil {
			report.errorf("alert %s: %v", st.URL, err)
			continue
		}
		report.Alerted++
	}
}

// ScanRepos searches the code host and rubric-scores every candidate.
func (p *Pipeline) ScanRepos(ctx context.Context) (int, error) {
	if p.deps.Repos == nil || p.deps.Rubric == nil {
		return 0, nil
	}

	repos, err := p.deps.Repos.Search(ctx)
	if err != nil {
		return 0, fmt.Errorf("search repos: %w", err)
	}

	for _, r := range repos {
		pts, tier := p.deps.Rubric.Score(r)
		scored := &store.ScoredRepo{
			Repo:        r,
			RubricScore: pts,
			RubricTier:  string(tier),
			ScannedAt:   time.Now().UTC(),
		}
		if err := p.deps.Store.UpsertRepo(ctx, scored); err != nil {
			return 0, err
		}
	}
	return len(repos), nil
}

// ScanEvents scrapes the configured event pages and persists the results.
func (p *Pipeline) ScanEvents(ctx context.Context) (int, error) {
	if p.deps.Events == nil {
		return 0, nil
	}

	events, err := p.deps.Events.Scrape(ctx)
	if err != nil {
		return 0, fmt.Errorf("scrape events: %w", err)
	}
	if err := p.deps.Store.UpsertEvents(ctx, events); err != nil {
		return 0, err
	}
	return len(events), nil
}

// seenURLs collects every URL already present in the corpus, anchors and
// coverage links alike. A URL appearing anywhere in a stored story never
// re-enters the pipeline.
func seenURLs(stories []store.Story) map[string]bool {
	seen := make(map[string]bool, len(stories))
	for i := range stories {
		seen[stories[i].URL] = true
		for _, c := range stories[i].Coverage {
			seen[c.URL] = true
		}
	}
	return seen
}
