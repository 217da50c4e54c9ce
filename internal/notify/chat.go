package notify

import (
	"context"
	"fmt"
	"time"
)

// --- Telegram ---
var telegramAPIBase = "https://api.telegram.org"

type Telegram struct{ BotToken, ChatID string }

func (t *Telegram) Name() string { return "Telegram" }
func (t *Telegram) Send(ctx context.Context, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, t.BotToken)
	// the composed statement is Markdown already
	payload := map[string]string{"chat_id": t.ChatID, "text": text, "parse_mode": "Markdown"}
	return postJSON(ctx, apiURL, payload)
}

// --- Slack ---
type Slack struct {
	WebhookURL string
}

func (s *Slack) Name() string { return "Slack" }
func (s *Slack) Send(ctx context.Context, text string) error {
	payload := map[string]string{"text": text}
	return postJSON(ctx, s.WebhookURL, payload)
}

// --- Discord ---
type Discord struct {
	WebhookURL string
}

func (d *Discord) Name() string { return "Discord" }
func (d *Discord) Send(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"username": "meterwatch",
		"embeds":   []map[string]interface{}{{"description": text, "color": 3447003, "timestamp": time.Now().Format(time.RFC3339)}},
	}
	return postJSON(ctx, d.WebhookURL, payload)
}

// --- Generic Webhook ---
type Generic struct{ WebhookURL string }

func (g *Generic) Name() string { return "GenericWebhook" }
func (g *Generic) Send(ctx context.Context, text string) error {
	payload := map[string]string{"message": text, "agent": "meterwatch"}
	return postJSON(ctx, g.WebhookURL, payload)
}
