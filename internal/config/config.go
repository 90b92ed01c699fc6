package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Sources   SourcesConfig   `yaml:"sources"`
	Keywords  KeywordsConfig  `yaml:"keywords"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Authority AuthorityConfig `yaml:"authority"`
	Cluster   ClusterConfig   `yaml:"cluster"`
	Embed     EmbedConfig     `yaml:"embed"`
	Brief     BriefConfig     `yaml:"brief"`
	Rubric    RubricConfig    `yaml:"rubric"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Server    ServerConfig    `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures pipeline and repo scan intervals.
type ScheduleConfig struct {
	PipelineInterval string `yaml:"pipeline_interval"`
	RepoScanInterval string `yaml:"repo_scan_interval"`
}

// ParsePipelineInterval returns the pipeline interval as time.Duration.
func (s ScheduleConfig) ParsePipelineInterval() time.Duration {
	d, err := time.ParseDuration(s.PipelineInterval)
	if err != nil {
		return 1 * time.Hour
	}
	return d
}

// ParseRepoScanInterval returns the repo scan interval as time.Duration.
func (s ScheduleConfig) ParseRepoScanInterval() time.Duration {
	d, err := time.ParseDuration(s.RepoScanInterval)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// SourcesConfig holds configuration for all data sources.
type SourcesConfig struct {
	RSS     RSSConfig     `yaml:"rss"`
	YouTube YouTubeConfig `yaml:"youtube"`
	GitHub  GitHubConfig  `yaml:"github"`
	Events  EventsConfig  `yaml:"events"`
}

// RSSConfig for the RSS feed scanner.
type RSSConfig struct {
	Enabled bool       `yaml:"enabled"`
	MaxAge  string     `yaml:"max_age"`
	Feeds   []FeedItem `yaml:"feeds"`
}

// ParseMaxAge returns the feed entry age cutoff as time.Duration.
func (r RSSConfig) ParseMaxAge() time.Duration {
	d, err := time.ParseDuration(r.MaxAge)
	if err != nil {
		return 72 * time.Hour
	}
	return d
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// YouTubeConfig for the channel-uploads collector.
type YouTubeConfig struct {
	Enabled    bool     `yaml:"enabled"`
	APIKey     string   `yaml:"api_key"`
	Channels   []string `yaml:"channels"`
	Keywords   []string `yaml:"keywords"`
	PerChannel int      `yaml:"per_channel"`
}

// GitHubConfig for the repository search scanner.
type GitHubConfig struct {
	Enabled bool     `yaml:"enabled"`
	Token   string   `yaml:"token"`
	Queries []string `yaml:"queries"`
}

// EventsConfig for the event-platform scraper.
type EventsConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Pages    []string `yaml:"pages"`
	Keywords []string `yaml:"keywords"`
}

// KeywordsConfig is the topic vocabulary shared by the relevance filter
// and the scorer.
type KeywordsConfig struct {
	Core      []string `yaml:"core"`
	Secondary []string `yaml:"secondary"`
	Legacy    []string `yaml:"legacy"`
	Canonical string   `yaml:"canonical"`
}

// RelevanceConfig configures the pre-clustering relevance gate.
type RelevanceConfig struct {
	MinDensity    int    `yaml:"min_density"`
	RecencyWindow string `yaml:"recency_window"`
}

// ParseRecencyWindow returns the freshness window as time.Duration.
func (r RelevanceConfig) ParseRecencyWindow() time.Duration {
	d, err := time.ParseDuration(r.RecencyWindow)
	if err != nil {
		return 48 * time.Hour
	}
	return d
}

// AuthorityConfig holds the source classification lists.
type AuthorityConfig struct {
	Blocked    []string `yaml:"blocked"`
	Publishers []string `yaml:"publishers"`
	Creators   []string `yaml:"creators"`
	Platforms  []string `yaml:"platforms"`
}

// ClusterConfig configures story grouping.
type ClusterConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// EmbedConfig configures the embedding provider.
type EmbedConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BatchSize  int    `yaml:"batch_size"`
	BatchDelay string `yaml:"batch_delay"`
}

// ParseBatchDelay returns the inter-batch pause as time.Duration.
func (e EmbedConfig) ParseBatchDelay() time.Duration {
	d, err := time.ParseDuration(e.BatchDelay)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// BriefConfig configures summary generation.
type BriefConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Model    string `yaml:"model"`
	MaxCalls int    `yaml:"max_calls"`
}

// RubricConfig holds the repo scoring vocabulary.
type RubricConfig struct {
	Primary []string `yaml:"primary"`
	Related []string `yaml:"related"`
	Novelty []string `yaml:"novelty"`
	Owner   string   `yaml:"owner"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	MinTotal int           `yaml:"min_total"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
	Webhook  WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults. The defaults track
// the OpenClaw ecosystem; point the keyword lists elsewhere to watch a
// different topic.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./forge.db"},
		Schedule: ScheduleConfig{
			PipelineInterval: "1h",
			RepoScanInterval: "24h",
		},
		Sources: SourcesConfig{
			RSS: RSSConfig{
				Enabled: true,
				MaxAge:  "72h",
				Feeds: []FeedItem{
					{Name: "TechCrunch", URL: "https://techcrunch.com/feed/"},
					{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml"},
					{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index"},
					{Name: "VentureBeat", URL: "https://venturebeat.com/feed/"},
					{Name: "Flipboard Tech", URL: "https://flipboard.com/topic/technology.rss"},
				},
			},
			YouTube: YouTubeConfig{
				Enabled:    false,
				Keywords:   []string{"openclaw", "clawdbot", "moltbot"},
				PerChannel: 3,
			},
			GitHub: GitHubConfig{
				Enabled: true,
				Queries: []string{
					"openclaw in:name,description,readme",
					"topic:openclaw",
				},
			},
			Events: EventsConfig{
				Enabled:  false,
				Keywords: []string{"openclaw", "clawdbot"},
			},
		},
		Keywords: KeywordsConfig{
			Core:      []string{"openclaw", "openclaw foundation"},
			Secondary: []string{"moltbook", "steinberger", "moltis", "skills"},
			Legacy:    []string{"clawdbot", "moltbot", "claudbot"},
			Canonical: "openclaw",
		},
		Relevance: RelevanceConfig{
			MinDensity:    2,
			RecencyWindow: "48h",
		},
		Authority: AuthorityConfig{
			Publishers: []string{
				"techcrunch.com", "theverge.com", "arstechnica.com",
				"venturebeat.com", "wired.com", "theregister.com",
			},
			Platforms: []string{
				"github.com", "openclaw.ai",
			},
			Creators: []string{
				"youtube.com", "substack.com", "medium.com", "dev.to",
			},
		},
		Cluster: ClusterConfig{Threshold: 0.85},
		Embed: EmbedConfig{
			Model:      "gemini-embedding-001",
			BatchSize:  50,
			BatchDelay: "2s",
		},
		Brief: BriefConfig{
			Enabled:  true,
			Model:    "gemini-2.5-flash",
			MaxCalls: 25,
		},
		Rubric: RubricConfig{
			Primary: []string{"openclaw"},
			Related: []string{"clawdbot", "moltbot", "agent", "assistant"},
			Novelty: []string{
				"memory", "router", "proxy", "studio", "lancedb",
				"security", "translation", "guide", "usecases", "free",
			},
			Owner: "openclaw",
		},
		Alerts: AlertsConfig{MinTotal: 75},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORGE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Embed.APIKey = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Sources.GitHub.Token = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		cfg.Sources.YouTube.APIKey = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}
