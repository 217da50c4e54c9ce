package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// sendTimeout bounds every delivery POST.
const sendTimeout = 20 * time.Second

// Service is the interface all delivery backends must implement
type Service interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// Result records the delivery outcome for one backend.
type Result struct {
	Service string
	// Skipped marks the "no backend configured" outcome, which is a normal
	// nothing-to-do result rather than a failure.
	Skipped bool
	Err     error
}

// OK reports whether this result represents a successful or skipped delivery.
func (r Result) OK() bool { return r.Err == nil }

// Status renders the outcome as a human-readable line. Failures keep the
// full error detail, including HTTP status and response body when present.
func (r Result) Status() string {
	switch {
	case r.Skipped:
		return "notifications not configured; nothing sent"
	case r.Err != nil:
		return fmt.Sprintf("%s delivery failed: %v", r.Service, r.Err)
	default:
		return fmt.Sprintf("%s delivery succeeded", r.Service)
	}
}

// Manager fans a message out to every configured backend.
type Manager struct {
	services []Service
}

func NewManager() *Manager {
	return &Manager{services: make([]Service, 0)}
}

func (m *Manager) Add(s Service) {
	if s != nil {
		m.services = append(m.services, s)
	}
}

func (m *Manager) Len() int {
	return len(m.services)
}

// Deliver sends text to each backend exactly once, sequentially, and returns
// one Result per backend. There are no retries; a failed delivery is reported
// and left at that. Without any configured backend it returns a single
// skipped Result and performs no network call.
func (m *Manager) Deliver(ctx context.Context, text string) []Result {
	if len(m.services) == 0 {
		return []Result{{Skipped: true}}
	}
	results := make([]Result, 0, len(m.services))
	for _, s := range m.services {
		results = append(results, Result{Service: s.Name(), Err: s.Send(ctx, text)})
	}
	return results
}

// postJSON is a shared helper used by backends. Non-2xx responses produce an
// error carrying the status code and the (truncated) response body.
func postJSON(ctx context.Context, url string, data interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: sendTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
