package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ApplyEnvOverrides reads configuration values from environment variables and
// overrides fields in the provided Config. Returns an error if parsing fails.
//
// Environment variables supported:
// - METERWATCH_ACCOUNT_NO (string; bare ACCOUNT_NO is accepted as a fallback)
// - METERWATCH_BASE_URL (string)
// - METERWATCH_HTTP_TIMEOUT (duration, e.g. "20s")
// - METERWATCH_INSECURE_SKIP_VERIFY (bool)
// - METERWATCH_RECHARGE_LOOKBACK_DAYS (int, e.g. 180)
// - METERWATCH_LOW_BALANCE_THRESHOLD (float, e.g. 250)
// - METERWATCH_TELEGRAM_TOKEN / METERWATCH_TELEGRAM_CHAT_ID
//   (bare TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID accepted as fallbacks)
// - METERWATCH_SLACK_WEBHOOK / METERWATCH_DISCORD_WEBHOOK / METERWATCH_GENERIC_WEBHOOK_URL
// - METERWATCH_DRY_RUN (bool)
// - METERWATCH_POLL_INTERVAL (duration, e.g. "6h")
// - METERWATCH_METRICS_ENABLED (bool) / METERWATCH_METRICS_PORT (int)
// - METERWATCH_INFLUX_URL / _TOKEN / _ORG / _BUCKET / _INTERVAL
// - METERWATCH_STATE_DIR (string)
func ApplyEnvOverrides(cfg *Config) error {
	if err := applyAccountEnv(cfg); err != nil {
		return err
	}
	if err := applyNotificationEnv(cfg); err != nil {
		return err
	}
	if err := applyMetricsEnv(cfg); err != nil {
		return err
	}
	if err := applyInfluxEnv(cfg); err != nil {
		return err
	}
	return applyRuntimeEnv(cfg)
}

// applyAccountEnv covers the fetch side: account, endpoint and thresholds.
// The bare ACCOUNT_NO name is what the original cron job used, so it is
// honoured when the prefixed variable is absent.
func applyAccountEnv(cfg *Config) error {
	if v := firstEnv("METERWATCH_ACCOUNT_NO", "ACCOUNT_NO"); v != "" {
		cfg.AccountNo = v
	}
	if v := os.Getenv("METERWATCH_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("METERWATCH_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid METERWATCH_HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if err := setBoolEnv("METERWATCH_INSECURE_SKIP_VERIFY", func(b bool) { cfg.InsecureSkipVerify = b }); err != nil {
		return err
	}
	if v := os.Getenv("METERWATCH_RECHARGE_LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid METERWATCH_RECHARGE_LOOKBACK_DAYS: %w", err)
		}
		cfg.RechargeLookbackDays = n
	}
	if v := os.Getenv("METERWATCH_LOW_BALANCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid METERWATCH_LOW_BALANCE_THRESHOLD: %w", err)
		}
		cfg.LowBalanceThreshold = f
	}
	return nil
}

// applyNotificationEnv consolidates delivery-channel env parsing
func applyNotificationEnv(cfg *Config) error {
	if v := firstEnv("METERWATCH_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := firstEnv("METERWATCH_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID"); v != "" {
		cfg.TelegramChatID = v
	}
	if v := os.Getenv("METERWATCH_SLACK_WEBHOOK"); v != "" {
		cfg.SlackWebhook = v
	}
	if v := os.Getenv("METERWATCH_DISCORD_WEBHOOK"); v != "" {
		cfg.DiscordWebhook = v
	}
	if v := os.Getenv("METERWATCH_GENERIC_WEBHOOK_URL"); v != "" {
		cfg.GenericWebhookURL = v
	}
	return nil
}

// applyRuntimeEnv handles dry-run, poll interval and state dir
func applyRuntimeEnv(cfg *Config) error {
	if err := setBoolEnv("METERWATCH_DRY_RUN", func(b bool) { cfg.DryRun = b }); err != nil {
		return err
	}
	if v := os.Getenv("METERWATCH_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid METERWATCH_POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	if v := os.Getenv("METERWATCH_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	return nil
}

// applyMetricsEnv consolidates metrics-related env parsing
func applyMetricsEnv(cfg *Config) error {
	if err := setBoolEnv("METERWATCH_METRICS_ENABLED", func(b bool) { cfg.MetricsEnabled = b }); err != nil {
		return err
	}
	if v := os.Getenv("METERWATCH_METRICS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid METERWATCH_METRICS_PORT: %w", err)
		}
		cfg.MetricsPort = p
	}
	return nil
}

// applyInfluxEnv consolidates Influx-related env parsing
func applyInfluxEnv(cfg *Config) error {
	if v := os.Getenv("METERWATCH_INFLUX_URL"); v != "" {
		cfg.InfluxURL = v
	}
	if v := os.Getenv("METERWATCH_INFLUX_TOKEN"); v != "" {
		cfg.InfluxToken = v
	}
	if v := os.Getenv("METERWATCH_INFLUX_ORG"); v != "" {
		cfg.InfluxOrg = v
	}
	if v := os.Getenv("METERWATCH_INFLUX_BUCKET"); v != "" {
		cfg.InfluxBucket = v
	}
	if v := os.Getenv("METERWATCH_INFLUX_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid METERWATCH_INFLUX_INTERVAL: %w", err)
		}
		cfg.InfluxInterval = d
	}
	return nil
}

// setBoolEnv is a small helper to parse boolean environment variables
func setBoolEnv(env string, setter func(bool)) error {
	if v := os.Getenv(env); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		setter(b)
	}
	return nil
}

// firstEnv returns the first non-empty value among the named variables
func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
