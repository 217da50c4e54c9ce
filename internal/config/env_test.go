package config

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvOverrides(t *testing.T) {
	cleanup := applyEnvSetup(t)
	defer cleanup()

	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("ApplyEnvOverrides failed: %v", err)
	}
	validateAppliedEnvOverrides(t, cfg)
}

func applyEnvSetup(t *testing.T) func() {
	t.Helper()
	os.Setenv("METERWATCH_ACCOUNT_NO", "7700112")
	os.Setenv("METERWATCH_BASE_URL", "https://api.test/unified")
	os.Setenv("METERWATCH_HTTP_TIMEOUT", "8s")
	os.Setenv("METERWATCH_INSECURE_SKIP_VERIFY", "false")
	os.Setenv("METERWATCH_RECHARGE_LOOKBACK_DAYS", "90")
	os.Setenv("METERWATCH_LOW_BALANCE_THRESHOLD", "500")
	os.Setenv("METERWATCH_TELEGRAM_TOKEN", "tok")
	os.Setenv("METERWATCH_TELEGRAM_CHAT_ID", "123")
	os.Setenv("METERWATCH_POLL_INTERVAL", "2h")
	os.Setenv("METERWATCH_METRICS_ENABLED", "true")
	os.Setenv("METERWATCH_METRICS_PORT", "9100")
	os.Setenv("METERWATCH_INFLUX_URL", "http://influx:8086")
	os.Setenv("METERWATCH_INFLUX_BUCKET", "b")
	os.Setenv("METERWATCH_INFLUX_ORG", "o")
	os.Setenv("METERWATCH_INFLUX_TOKEN", "t")
	os.Setenv("METERWATCH_INFLUX_INTERVAL", "30s")
	os.Setenv("METERWATCH_STATE_DIR", "/tmp/mw-state")
	return func() {
		for _, k := range []string{
			"METERWATCH_ACCOUNT_NO", "METERWATCH_BASE_URL", "METERWATCH_HTTP_TIMEOUT",
			"METERWATCH_INSECURE_SKIP_VERIFY", "METERWATCH_RECHARGE_LOOKBACK_DAYS",
			"METERWATCH_LOW_BALANCE_THRESHOLD", "METERWATCH_TELEGRAM_TOKEN",
			"METERWATCH_TELEGRAM_CHAT_ID", "METERWATCH_POLL_INTERVAL",
			"METERWATCH_METRICS_ENABLED", "METERWATCH_METRICS_PORT",
			"METERWATCH_INFLUX_URL", "METERWATCH_INFLUX_BUCKET", "METERWATCH_INFLUX_ORG",
			"METERWATCH_INFLUX_TOKEN", "METERWATCH_INFLUX_INTERVAL", "METERWATCH_STATE_DIR",
		} {
			os.Unsetenv(k)
		}
	}
}

func validateAppliedEnvOverrides(t *testing.T, cfg *Config) {
	t.Helper()
	if cfg.AccountNo != "7700112" {
		t.Fatalf("unexpected account no: %q", cfg.AccountNo)
	}
	if cfg.BaseURL != "https://api.test/unified" {
		t.Fatalf("unexpected base url: %s", cfg.BaseURL)
	}
	if cfg.HTTPTimeout != 8*time.Second {
		t.Fatalf("expected timeout 8s, got %v", cfg.HTTPTimeout)
	}
	if cfg.InsecureSkipVerify {
		t.Fatalf("expected InsecureSkipVerify to be overridden to false")
	}
	if cfg.RechargeLookbackDays != 90 {
		t.Fatalf("expected lookback 90, got %d", cfg.RechargeLookbackDays)
	}
	if cfg.LowBalanceThreshold != 500 {
		t.Fatalf("expected threshold 500, got %v", cfg.LowBalanceThreshold)
	}
	if cfg.TelegramToken != "tok" || cfg.TelegramChatID != "123" {
		t.Fatalf("unexpected telegram config: %q %q", cfg.TelegramToken, cfg.TelegramChatID)
	}
	if cfg.PollInterval != 2*time.Hour {
		t.Fatalf("expected poll 2h, got %v", cfg.PollInterval)
	}
	if !cfg.MetricsEnabled || cfg.MetricsPort != 9100 {
		t.Fatalf("unexpected metrics config: %v %d", cfg.MetricsEnabled, cfg.MetricsPort)
	}
	if cfg.InfluxURL != "http://influx:8086" || cfg.InfluxBucket != "b" || cfg.InfluxOrg != "o" || cfg.InfluxToken != "t" {
		t.Fatalf("unexpected influx config: %+v", cfg)
	}
	if cfg.InfluxInterval != 30*time.Second {
		t.Fatalf("unexpected influx interval: %v", cfg.InfluxInterval)
	}
	if cfg.StateDir != "/tmp/mw-state" {
		t.Fatalf("unexpected state dir: %s", cfg.StateDir)
	}
}

func TestApplyEnvOverridesLegacyNames(t *testing.T) {
	os.Setenv("ACCOUNT_NO", "5550001")
	os.Setenv("TELEGRAM_BOT_TOKEN", "legacy-tok")
	os.Setenv("TELEGRAM_CHAT_ID", "legacy-chat")
	defer func() {
		os.Unsetenv("ACCOUNT_NO")
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
		os.Unsetenv("TELEGRAM_CHAT_ID")
	}()

	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("ApplyEnvOverrides failed: %v", err)
	}
	if cfg.AccountNo != "5550001" {
		t.Fatalf("expected legacy ACCOUNT_NO to apply, got %q", cfg.AccountNo)
	}
	if cfg.TelegramToken != "legacy-tok" || cfg.TelegramChatID != "legacy-chat" {
		t.Fatalf("expected legacy telegram vars to apply, got %q %q", cfg.TelegramToken, cfg.TelegramChatID)
	}
}

func TestApplyEnvOverridesPrefixedWins(t *testing.T) {
	os.Setenv("ACCOUNT_NO", "legacy")
	os.Setenv("METERWATCH_ACCOUNT_NO", "prefixed")
	defer func() {
		os.Unsetenv("ACCOUNT_NO")
		os.Unsetenv("METERWATCH_ACCOUNT_NO")
	}()

	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("ApplyEnvOverrides failed: %v", err)
	}
	if cfg.AccountNo != "prefixed" {
		t.Fatalf("expected prefixed variable to win, got %q", cfg.AccountNo)
	}
}

func TestApplyEnvOverridesInvalid(t *testing.T) {
	os.Setenv("METERWATCH_HTTP_TIMEOUT", "soon")
	defer os.Unsetenv("METERWATCH_HTTP_TIMEOUT")

	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
