// Package monitor sequences one statement pass: fetch account data, compose
// the statement, deliver it, and report the outcome.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meterwatch/meterwatch/internal/config"
	"github.com/meterwatch/meterwatch/internal/desco"
	"github.com/meterwatch/meterwatch/internal/logging"
	"github.com/meterwatch/meterwatch/internal/metrics"
	"github.com/meterwatch/meterwatch/internal/notify"
	"github.com/meterwatch/meterwatch/internal/report"
	"github.com/meterwatch/meterwatch/internal/state"
)

// Monitor drives the fetch-compose-deliver pipeline.
type Monitor struct {
	cfg      *config.Config
	client   *desco.Client
	notifier *notify.Manager
	quit     chan struct{}
	wg       sync.WaitGroup   // tracks active passes
	Now      func() time.Time // injectable clock for testing
	cancel   func()           // cancel function for active context (set at Start)
}

// New creates a monitor with an injected utility client
func New(cfg *config.Config, client *desco.Client) *Monitor {
	m := &Monitor{cfg: cfg, client: client, quit: make(chan struct{}), Now: time.Now}
	m.initNotifiers()

	for _, w := range cfg.Validate() {
		logging.Get().Warn().Str("warning", w).Msg("config validation")
	}
	return m
}

// initNotifiers registers every delivery backend with a complete credential set
func (m *Monitor) initNotifiers() {
	m.notifier = notify.NewManager()
	cfg := m.cfg
	entries := []struct {
		enabled bool
		add     func()
	}{
		{cfg.TelegramToken != "" && cfg.TelegramChatID != "", func() {
			m.notifier.Add(&notify.Telegram{BotToken: cfg.TelegramToken, ChatID: cfg.TelegramChatID})
		}},
		{cfg.SlackWebhook != "", func() { m.notifier.Add(&notify.Slack{WebhookURL: cfg.SlackWebhook}) }},
		{cfg.DiscordWebhook != "", func() { m.notifier.Add(&notify.Discord{WebhookURL: cfg.DiscordWebhook}) }},
		{cfg.GenericWebhookURL != "", func() { m.notifier.Add(&notify.Generic{WebhookURL: cfg.GenericWebhookURL}) }},
	}
	for _, e := range entries {
		if e.enabled {
			e.add()
		}
	}
}

// RunOnce performs a single statement pass. It returns an error only for the
// fatal case: a failed or empty balance fetch, which aborts the pass before
// anything is composed or delivered. Every other failure degrades the
// statement and is logged.
func (m *Monitor) RunOnce(ctx context.Context) error {
	metrics.IncRun()
	now := m.Now()
	metrics.SetLastRun(now)

	var name string
	if info, err := m.client.CustomerInfo(ctx); err != nil {
		logging.Get().Warn().Err(err).Msg("could not fetch customer info; greeting will be generic")
		metrics.IncFetchFailure("getCustomerInfo")
	} else {
		name = info.Name
	}

	bal, err := m.client.Balance(ctx)
	if err != nil {
		metrics.IncFetchFailure("getBalance")
		metrics.IncRunFailed()
		return fmt.Errorf("fetch balance: %w", err)
	}
	metrics.SetBalance(bal.Amount.InexactFloat64())

	var rechargeAmount *decimal.Decimal
	var rechargeDate string
	if r, err := m.client.LastRecharge(ctx, now); err != nil {
		logging.Get().Warn().Err(err).Msg("could not fetch recharge history; statement omits recharge block")
		metrics.IncFetchFailure("getRechargeHistory")
	} else if r != nil {
		rechargeAmount = r.Amount
		rechargeDate = r.PaidAt
	}

	m.recordSnapshot(bal, now)

	msg := report.Compose(report.Statement{
		CustomerName:    name,
		Balance:         bal.Amount,
		ReadingTime:     bal.ReadingTime,
		RechargeAmount:  rechargeAmount,
		RechargeDate:    rechargeDate,
		LowBalanceBelow: decimal.NewFromFloat(m.cfg.LowBalanceThreshold),
	})

	if m.cfg.DryRun {
		logging.Get().Info().Str("message", msg).Msg("dry-run: composed statement, skipping delivery")
		return nil
	}

	for _, res := range m.notifier.Deliver(ctx, msg) {
		switch {
		case res.Skipped:
			logging.Get().Info().Msg(res.Status())
		case res.Err != nil:
			metrics.IncNotificationFailed()
			logging.Get().Error().Err(res.Err).Str("service", res.Service).Msg("delivery failed")
		default:
			metrics.IncNotificationOK()
			logging.Get().Info().Str("service", res.Service).Msg("delivery succeeded")
		}
	}
	return nil
}

// recordSnapshot logs the balance delta against the previous run and persists
// the current one. No-op without a configured state dir, which keeps the
// default single-shot run stateless.
func (m *Monitor) recordSnapshot(bal *desco.Balance, now time.Time) {
	if m.cfg.StateDir == "" {
		return
	}
	prev, ok, err := state.Load(m.cfg.StateDir, m.cfg.AccountNo)
	if err != nil {
		logging.Get().Warn().Err(err).Msg("could not read previous balance snapshot")
	} else if ok {
		delta := bal.Amount.Sub(prev.Balance)
		logging.Get().Info().
			Str("previous", prev.Balance.String()).
			Str("current", bal.Amount.String()).
			Str("delta", delta.String()).
			Msg("balance change since last run")
	}
	snap := state.Snapshot{AccountNo: m.cfg.AccountNo, Balance: bal.Amount, ReadingTime: bal.ReadingTime, TakenAt: now}
	if err := state.Save(m.cfg.StateDir, snap); err != nil {
		logging.Get().Warn().Err(err).Msg("could not persist balance snapshot")
	}
}

// Start runs the watch-mode polling loop
func (m *Monitor) Start() {
	logging.Get().Info().Dur("interval", m.cfg.PollInterval).Msg("starting meterwatch in watch mode")
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	// Run an immediate pass so users don't wait for the first tick
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.pass(ctx)
	}()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.wg.Add(1)
			m.pass(ctx)
			m.wg.Done()
		case <-m.quit:
			logging.Get().Info().Msg("stopping watch loop")
			return
		}
	}
}

func (m *Monitor) pass(ctx context.Context) {
	if err := m.RunOnce(ctx); err != nil {
		logging.Get().Error().Err(err).Msg("statement pass failed")
	}
}

// Stop shuts the watch loop down and waits for the active pass to finish or
// the provided context to expire.
func (m *Monitor) Stop(ctx context.Context) {
	close(m.quit)
	if m.cancel != nil {
		m.cancel()
	}
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logging.Get().Warn().Msg("shutdown timeout reached with an active pass still running")
	}
}
