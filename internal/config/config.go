package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/elonfeng/lens/pkg/alert"
	"github.com/elonfeng/lens/pkg/analysis"
)

// Config is the root configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Watch   WatchConfig   `yaml:"watch"`
	Filter  FilterConfig  `yaml:"filter"`
	Alerts  AlertsConfig  `yaml:"alerts"`
}

// ServiceConfig configures the remote analysis service client.
type ServiceConfig struct {
	BaseURL        string `yaml:"base_url"`
	Timeout        string `yaml:"timeout"`
	RequestsPerMin int    `yaml:"requests_per_minute"`
	Clamp          bool   `yaml:"clamp"`           // clamp out-of-range scores instead of rejecting
	UniqueEntities bool   `yaml:"unique_entities"` // reject duplicate entity names
}

// ParseTimeout returns the request timeout as time.Duration.
func (s ServiceConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 90 * time.Second
	}
	return d
}

// AdaptOptions returns the adapter policy.
func (s ServiceConfig) AdaptOptions() analysis.Options {
	return analysis.Options{Clamp: s.Clamp, UniqueEntities: s.UniqueEntities}
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// WatchConfig configures feed watching.
type WatchConfig struct {
	Interval string     `yaml:"interval"`
	MaxAge   string     `yaml:"max_age"`
	Feeds    []FeedItem `yaml:"feeds"`
}

// ParseInterval returns the poll interval as time.Duration.
func (w WatchConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(w.Interval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// ParseMaxAge returns how old a feed entry may be to still be analyzed.
func (w WatchConfig) ParseMaxAge() time.Duration {
	d, err := time.ParseDuration(w.MaxAge)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FilterConfig configures feed keyword filtering.
type FilterConfig struct {
	Enabled         bool     `yaml:"enabled"`
	ExtraKeywords   []string `yaml:"extra_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// AlertsConfig configures alert thresholds and destinations.
type AlertsConfig struct {
	Thresholds alert.Thresholds `yaml:"thresholds"`
	Slack      SlackConfig      `yaml:"slack"`
	Discord    DiscordConfig    `yaml:"discord"`
	Webhook    WebhookConfig    `yaml:"webhook"`
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

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:        "https://project-lens-api.onrender.com",
			Timeout:        "90s",
			RequestsPerMin: 10,
		},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Watch: WatchConfig{
			Interval: "15m",
			MaxAge:   "24h",
			Feeds: []FeedItem{
				{Name: "中央社政治", URL: "https://feeds.feedburner.com/rsscna/politics"},
				{Name: "自由時報政治", URL: "https://news.ltn.com.tw/rss/politics.xml"},
			},
		},
		Filter: FilterConfig{Enabled: true},
		Alerts: AlertsConfig{
			Thresholds: alert.Thresholds{Clickbait: 8, Spectrum: 8},
		},
	}
}

// Load reads configuration from a YAML file and applies overrides from the
// environment and from envFile (a dotenv file, skipped when absent). Process
// environment wins over envFile.
func Load(path, envFile string) (*Config, error) {
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

	dotenv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = m
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	applyEnvOverrides(cfg, func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	})
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if v := getenv("LENS_SERVICE_URL"); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := getenv("LENS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("LENS_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := getenv("LENS_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Webhook.URL = v
		cfg.Alerts.Webhook.Enabled = true
	}
	if v := getenv("LENS_WEBHOOK_SECRET"); v != "" {
		cfg.Alerts.Webhook.Secret = v
	}
}
