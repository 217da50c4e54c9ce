package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/meterwatch/meterwatch/internal/config"
	"github.com/meterwatch/meterwatch/internal/desco"
	"github.com/meterwatch/meterwatch/internal/logging"
	"github.com/meterwatch/meterwatch/internal/metrics"
	"github.com/meterwatch/meterwatch/internal/monitor"
)

func main() {
	cfgFile := flag.String("config", "", "Path to config file")
	watch := flag.Bool("watch", false, "keep running and poll on an interval instead of a single pass")
	poll := flag.Duration("poll-interval", 0, "watch-mode poll interval (overrides config when set)")
	dryRun := flag.Bool("dry-run", false, "compose the statement but do not deliver it")
	flag.Parse()

	// scheduled deployments keep credentials in a .env next to the binary;
	// a missing file is fine
	_ = godotenv.Load()

	cfg := config.DefaultConfig()
	// load from file if provided (overrides defaults)
	if *cfgFile != "" {
		c, err := config.LoadConfigFromFile(*cfgFile)
		if err != nil {
			log.Fatalf("failed loading config: %v", err)
		}
		cfg = c
	}

	// apply env var overrides (overrides file/defaults)
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		log.Fatalf("invalid environment configuration: %v", err)
	}

	// CLI flags have highest precedence (override env/file/defaults)
	if *poll > 0 {
		cfg.PollInterval = *poll
	}
	if *dryRun {
		cfg.DryRun = true
	}

	cleanup := initLogging()
	defer cleanup()

	// without an account there is nothing to fetch; fail before any network call
	if cfg.AccountNo == "" {
		logging.Get().Fatal().Msg("no account number configured; set METERWATCH_ACCOUNT_NO (or ACCOUNT_NO)")
	}

	if !cfg.NotifierConfigured() && !cfg.DryRun {
		logging.Get().Info().Msg("no delivery channel configured; the statement will only be logged")
	}

	m := monitor.New(cfg, desco.NewClient(cfg))

	if !*watch {
		if err := m.RunOnce(context.Background()); err != nil {
			logging.Get().Error().Err(err).Msg("failed to fetch balance information")
			os.Exit(1)
		}
		return
	}

	startMetricsAndInflux(cfg)
	go m.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logging.Get().Info().Msg("shutdown signal received, waiting for active pass to complete")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.Stop(shutdownCtx)
}

// initLogging initializes log subsystem from env and returns a cleanup func
func initLogging() func() {
	logLevel := os.Getenv("METERWATCH_LOG_LEVEL")
	logFile := os.Getenv("METERWATCH_LOG_FILE")
	cleanup, err := logging.Init(logFile, logLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return cleanup
}

// startMetricsAndInflux starts the optional metrics server and Influx pusher.
// Both only make sense in watch mode; a single-shot run is gone before any
// scraper could reach it.
func startMetricsAndInflux(cfg *config.Config) {
	if cfg.MetricsEnabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.PromHandler())
			mux.Handle("/status", metrics.JSONHandler())
			addr := fmt.Sprintf(":%d", cfg.MetricsPort)
			logging.Get().Info().Str("addr", addr).Msg("starting metrics server")
			_ = http.ListenAndServe(addr, mux)
		}()
	}
	if cfg.InfluxURL != "" {
		go metrics.StartInfluxPusher(context.Background(), cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, cfg.InfluxInterval)
	}
}
