// Package desco is a client for the DESCO prepaid unified customer API.
//
// Every endpoint answers with a JSON object whose top-level "data" field
// carries the payload. The API uses an absent or null "data" for unknown
// accounts and upstream errors alike, so that condition is surfaced as
// ErrNoData rather than a decode failure.
package desco

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meterwatch/meterwatch/internal/config"
)

// ErrNoData indicates a well-formed response without a data payload.
var ErrNoData = errors.New("response carried no data")

const (
	queryDateLayout    = "2006-01-02"
	rechargeTimeLayout = "2006-01-02 15:04:05.999999"
	displayTimeLayout  = "02 January 2006, 03:04 PM"
)

// Client issues account-scoped requests against the utility API.
type Client struct {
	baseURL      string
	accountNo    string
	lookbackDays int
	httpc        *http.Client
}

// NewClient builds a client from the runtime configuration. All requests
// share the configured bounded timeout.
func NewClient(cfg *config.Config) *Client {
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		// the utility serves an incomplete certificate chain
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		accountNo:    cfg.AccountNo,
		lookbackDays: cfg.RechargeLookbackDays,
		httpc:        &http.Client{Timeout: cfg.HTTPTimeout, Transport: transport},
	}
}

// CustomerInfo is the identity record behind an account number.
type CustomerInfo struct {
	// Name may be empty; the API omits it for some account types.
	Name string
}

// Balance is the current prepaid balance and the matching meter reading time.
type Balance struct {
	Amount decimal.Decimal
	// ReadingTime is passed through exactly as the API returned it.
	ReadingTime string
}

// Recharge is the most recent top-up inside the query window.
type Recharge struct {
	// Amount is nil when the history entry carried no totalAmount.
	Amount *decimal.Decimal
	// PaidAt is the recharge timestamp reformatted for display, or the raw
	// upstream string when it did not match the expected pattern.
	PaidAt string
}

// CustomerInfo fetches the customer identity for the configured account.
func (c *Client) CustomerInfo(ctx context.Context) (*CustomerInfo, error) {
	var data struct {
		CustomerName string `json:"customerName"`
	}
	if err := c.get(ctx, "customer/getCustomerInfo", nil, &data); err != nil {
		return nil, err
	}
	return &CustomerInfo{Name: data.CustomerName}, nil
}

// Balance fetches the current balance and last reading time. A response
// without a numeric balance field is an error; zero is a valid balance.
func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	var data struct {
		Balance     *decimal.Decimal `json:"balance"`
		ReadingTime string           `json:"readingTime"`
	}
	if err := c.get(ctx, "customer/getBalance", nil, &data); err != nil {
		return nil, err
	}
	if data.Balance == nil {
		return nil, errors.New("balance field missing from response")
	}
	return &Balance{Amount: *data.Balance, ReadingTime: data.ReadingTime}, nil
}

// LastRecharge fetches the recharge history for the trailing lookback window
// ending at now and returns the most recent entry. The API returns history
// most-recent-first; its ordering is trusted. An empty history returns
// (nil, nil), which is a normal outcome, not a failure.
func (c *Client) LastRecharge(ctx context.Context, now time.Time) (*Recharge, error) {
	q := url.Values{}
	q.Set("dateFrom", now.AddDate(0, 0, -c.lookbackDays).Format(queryDateLayout))
	q.Set("dateTo", now.Format(queryDateLayout))

	var list []struct {
		TotalAmount  *decimal.Decimal `json:"totalAmount"`
		RechargeDate string           `json:"rechargeDate"`
	}
	err := c.get(ctx, "customer/getRechargeHistory", q, &list)
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	first := list[0]
	return &Recharge{Amount: first.TotalAmount, PaidAt: FormatRechargeTime(first.RechargeDate)}, nil
}

// FormatRechargeTime reformats an upstream recharge timestamp
// ("2025-10-08 13:53:33.0") into a 12-hour display form
// ("08 October 2025, 01:53 PM"). Input that does not match the upstream
// pattern is returned unchanged.
func FormatRechargeTime(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse(rechargeTimeLayout, raw)
	if err != nil {
		return raw
	}
	return t.Format(displayTimeLayout)
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// get performs an account-scoped GET against path, unwraps the data
// envelope and decodes it into out.
func (c *Client) get(ctx context.Context, path string, extra url.Values, out interface{}) error {
	q := url.Values{}
	q.Set("accountNo", c.accountNo)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return ErrNoData
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}
