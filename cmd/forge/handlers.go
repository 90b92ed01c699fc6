package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/clawbeat/forge/internal/config"
	"github.com/clawbeat/forge/internal/scheduler"
	"github.com/clawbeat/forge/internal/store"
	"github.com/clawbeat/forge/pkg/alert"
	"github.com/clawbeat/forge/pkg/authority"
	"github.com/clawbeat/forge/pkg/brief"
	"github.com/clawbeat/forge/pkg/embed"
	"github.com/clawbeat/forge/pkg/pipeline"
	"github.com/clawbeat/forge/pkg/relevance"
	"github.com/clawbeat/forge/pkg/rubric"
	"github.com/clawbeat/forge/pkg/score"
	"github.com/clawbeat/forge/pkg/server"
	"github.com/clawbeat/forge/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildFetchers(cfg *config.Config) []source.Fetcher {
	var fetchers []source.Fetcher

	if cfg.Sources.RSS.Enabled {
		feeds := make([]source.Feed, len(cfg.Sources.RSS.Feeds))
		for i, f := range cfg.Sources.RSS.Feeds {
			feeds[i] = source.Feed{Name: f.Name, URL: f.URL}
		}
		fetchers = append(fetchers, source.NewRSS(feeds, cfg.Sources.RSS.ParseMaxAge()))
	}
	if cfg.Sources.YouTube.Enabled {
		fetchers = append(fetchers, source.NewYouTube(
			cfg.Sources.YouTube.APIKey,
			cfg.Sources.YouTube.Channels,
			cfg.Sources.YouTube.Keywords,
			cfg.Sources.YouTube.PerChannel,
		))
	}

	return fetchers
}

func buildPipeline(cfg *config.Config, db store.Store) *pipeline.Pipeline {
	filter := relevance.New(
		relevance.Keywords{
			Core:      cfg.Keywords.Core,
			Secondary: cfg.Keywords.Secondary,
		},
		relevance.Options{
			MinDensity:    cfg.Relevance.MinDensity,
			RecencyWindow: cfg.Relevance.ParseRecencyWindow(),
		},
	)

	classifier := authority.New(authority.Lists{
		Blocked:    cfg.Authority.Blocked,
		Publishers: cfg.Authority.Publishers,
		Creators:   cfg.Authority.Creators,
		Platforms:  cfg.Authority.Platforms,
	})

	scorer := score.New(score.Terms{
		Core:      cfg.Keywords.Core,
		Secondary: cfg.Keywords.Secondary,
		Legacy:    cfg.Keywords.Legacy,
		Canonical: cfg.Keywords.Canonical,
	})

	deps := pipeline.Deps{
		Fetchers:   buildFetchers(cfg),
		Filter:     filter,
		Classifier: classifier,
		Scorer:     scorer,
		Store:      db,
		Threshold:  cfg.Cluster.Threshold,
		Engagement: score.NewHackerNews(""),
		Alerts:     buildAlertManager(cfg),
		AlertMin:   cfg.Alerts.MinTotal,
	}

	if cfg.Embed.APIKey != "" {
		deps.Embedder = embed.NewGemini(
			cfg.Embed.APIKey, cfg.Embed.Model, "",
			cfg.Embed.BatchSize, cfg.Embed.ParseBatchDelay(),
		)
	}
	if cfg.Brief.Enabled && cfg.Embed.APIKey != "" {
		deps.Briefs = brief.NewGenerator(cfg.Embed.APIKey, cfg.Brief.Model, "")
		deps.BriefContext = brief.NewContextFetcher("")
		deps.BriefBudget = cfg.Brief.MaxCalls
	}
	if cfg.Sources.GitHub.Enabled {
		deps.Repos = source.NewGitHub(cfg.Sources.GitHub.Token, cfg.Sources.GitHub.Queries)
		deps.Rubric = rubric.New(rubric.Keywords{
			Primary: cfg.Rubric.Primary,
			Related: cfg.Rubric.Related,
			Novelty: cfg.Rubric.Novelty,
			Owner:   cfg.Rubric.Owner,
		}, time.Now().UTC())
	}
	if cfg.Sources.Events.Enabled {
		deps.Events = source.NewEvents(cfg.Sources.Events.Pages, cfg.Sources.Events.Keywords, "")
	}

	return pipeline.New(deps)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runOnce(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pipe := buildPipeline(cfg, db)
	report, err := pipe.Run(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println(report)
	return nil
}

func runFeed(jsonOutput bool, day string, minTotal, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	stories, err := db.ListStories(context.Background(), store.ListOpts{
		Day:      day,
		MinTotal: minTotal,
		Limit:    limit,
	})
	if err != nil {
		return fmt.Errorf("list stories: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stories)
	}

	if len(stories) == 0 {
		fmt.Println("no stories found (try running the pipeline first: forge run)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tCOVERAGE\tSOURCE\tTITLE")
	for _, st := range stories {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n",
			st.Total, len(st.Coverage), st.SourceName, st.Title)
	}
	return w.Flush()
}

func runRepos(jsonOutput bool, tier string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	repos, err := db.ListRepos(context.Background(), store.RepoListOpts{
		Tier:  tier,
		Limit: limit,
	})
	if err != nil {
		return fmt.Errorf("list repos: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(repos)
	}

	if len(repos) == 0 {
		fmt.Println("no repos found (try scanning first: forge scan)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTIER\tSTARS\tREPO")
	for _, r := range repos {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s/%s\n",
			r.RubricScore, r.RubricTier, r.Stars, r.Owner, r.Name)
	}
	return w.Flush()
}

func runEvents(jsonOutput bool, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	events, err := db.ListEvents(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Println("no events found (try scanning first: forge scan)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tTYPE\tLOCATION\tTITLE")
	for _, e := range events {
		loc := e.City
		if e.Country != "" {
			loc = strings.TrimPrefix(loc+", "+e.Country, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.StartDate, e.Type, loc, e.Title)
	}
	return w.Flush()
}

func runScan() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pipe := buildPipeline(cfg, db)
	ctx := context.Background()

	repos, err := pipe.ScanRepos(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "repo scan error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "repo scan: %d repos\n", repos)
	}

	events, err := pipe.ScanEvents(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "event scan error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "event scan: %d events\n", events)
	}

	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pipe := buildPipeline(cfg, db)
	srv := server.New(db, pipe, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pipe := buildPipeline(cfg, db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(pipe,
		cfg.Schedule.ParsePipelineInterval(),
		cfg.Schedule.ParseRepoScanInterval(),
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	srv := server.New(db, pipe, port)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}
