package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for meterwatch
type Config struct {
	// Utility account to query. Required; there is nothing to do without it.
	AccountNo string `json:"account_no" yaml:"account_no"`

	// Base URL of the prepaid utility API.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// Timeout applied to every outbound HTTP call (fetches and delivery).
	HTTPTimeout time.Duration `json:"http_timeout" yaml:"http_timeout"`
	// The utility endpoint serves a chronically broken certificate chain,
	// so verification is skippable.
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`

	// How many days of recharge history to request, ending today.
	RechargeLookbackDays int `json:"recharge_lookback_days" yaml:"recharge_lookback_days"`
	// Balances strictly below this value get a recharge reminder appended.
	LowBalanceThreshold float64 `json:"low_balance_threshold" yaml:"low_balance_threshold"`

	// Notification configuration. Telegram needs both token and chat id.
	TelegramToken     string `json:"telegram_token" yaml:"telegram_token"`
	TelegramChatID    string `json:"telegram_chat_id" yaml:"telegram_chat_id"`
	SlackWebhook      string `json:"slack_webhook" yaml:"slack_webhook"`
	DiscordWebhook    string `json:"discord_webhook" yaml:"discord_webhook"`
	GenericWebhookURL string `json:"generic_webhook_url" yaml:"generic_webhook_url"`

	// Dry-run: compose and log the statement without delivering it.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Watch mode poll interval. Ignored in single-shot runs.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// Metrics (watch mode only)
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsPort    int  `json:"metrics_port" yaml:"metrics_port"`

	// InfluxDB (push)
	InfluxURL      string        `json:"influx_url" yaml:"influx_url"`
	InfluxToken    string        `json:"influx_token" yaml:"influx_token"`
	InfluxOrg      string        `json:"influx_org" yaml:"influx_org"`
	InfluxBucket   string        `json:"influx_bucket" yaml:"influx_bucket"`
	InfluxInterval time.Duration `json:"influx_interval" yaml:"influx_interval"`

	// When set, the balance snapshot of each run is persisted here so the
	// next run can log the delta. Empty disables persistence entirely.
	StateDir string `json:"state_dir" yaml:"state_dir"`
}

// DefaultConfig returns a sane default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://prepaid.desco.org.bd/api/unified",
		HTTPTimeout: 20 * time.Second,
		// match the reference behavior against the utility's broken chain
		InsecureSkipVerify: true,

		RechargeLookbackDays: 180,
		LowBalanceThreshold:  250,

		PollInterval: 6 * time.Hour,

		// Metrics defaults (opt-in)
		MetricsEnabled: false,
		MetricsPort:    9090,

		InfluxInterval: 1 * time.Minute,

		DryRun: false,
	}
}

// Validate returns a list of non-fatal configuration warnings, such as
// incomplete notifier credential combinations.
func (c *Config) Validate() []string {
	var warnings []string
	checks := []struct {
		cond bool
		msg  string
	}{
		{c.TelegramToken != "" && c.TelegramChatID == "", "telegram token provided but chat id is missing"},
		{c.TelegramChatID != "" && c.TelegramToken == "", "telegram chat id provided but token is missing"},
		{c.InfluxURL != "" && c.InfluxBucket == "", "influx URL provided but bucket is missing"},
		{c.RechargeLookbackDays <= 0, "recharge lookback must be positive; history fetch will be skipped"},
		{c.HTTPTimeout <= 0, "http timeout must be positive; requests may block indefinitely"},
	}
	for _, ch := range checks {
		if ch.cond {
			warnings = append(warnings, ch.msg)
		}
	}
	return warnings
}

// NotifierConfigured reports whether at least one delivery channel has a
// complete credential set.
func (c *Config) NotifierConfigured() bool {
	if c.TelegramToken != "" && c.TelegramChatID != "" {
		return true
	}
	return c.SlackWebhook != "" || c.DiscordWebhook != "" || c.GenericWebhookURL != ""
}

// LoadConfigFromFile loads config from a YAML/JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
