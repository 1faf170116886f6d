package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// Client is a thin HTTP client for the upstream bookkeeping service's
// paginated delta/backfill/categories endpoints, authenticating with a
// static bearer token via oauth2.StaticTokenSource rather than a login flow
// (there is no user to log in).
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &Client{
		baseURL: baseURL,
		http:    oauth2.NewClient(context.Background(), ts),
	}
}

type wireTransaction struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	Account    string `json:"account_name"`
	Type       string `json:"account_type"`
	Currency   string `json:"currency"`
	Date       string `json:"date"`
	AmountMinor int64  `json:"amount_cents"`
	Payee      string `json:"payee_name"`
	Memo       string `json:"memo"`
	CategoryID string `json:"category_id"`
	Cleared    string `json:"cleared"`
}

func (t wireTransaction) toRaw() RawTransaction {
	meta, _ := json.Marshal(t)
	return RawTransaction{
		ExternalID:         t.ID,
		AccountExternalID:  t.AccountID,
		AccountName:        t.Account,
		AccountType:        t.Type,
		Currency:           t.Currency,
		PostedAt:           t.Date,
		AmountCents:        t.AmountMinor,
		Payee:              t.Payee,
		Memo:               t.Memo,
		CategoryExternalID: t.CategoryID,
		Cleared:            t.Cleared == "cleared" || t.Cleared == "reconciled",
		ImportMeta:         string(meta),
	}
}

// Delta fetches transactions posted on or after since (ISO YYYY-MM-DD).
// Callers pass since = cursor - 1 day for clock-skew safety per spec.
func (c *Client) Delta(ctx context.Context, since string) ([]RawTransaction, error) {
	return c.fetchTransactions(ctx, url.Values{"since_date": {since}})
}

// Backfill fetches every transaction from the last N months.
func (c *Client) Backfill(ctx context.Context, months int) ([]RawTransaction, error) {
	since := time.Now().UTC().AddDate(0, -months, 0).Format("2006-01-02")
	return c.fetchTransactions(ctx, url.Values{"since_date": {since}})
}

func (c *Client) fetchTransactions(ctx context.Context, query url.Values) ([]RawTransaction, error) {
	var wire []wireTransaction
	err := withRetry(ctx, func() error {
		return c.getJSON(ctx, "/transactions", query, &wire)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	out := make([]RawTransaction, 0, len(wire))
	for _, t := range wire {
		out = append(out, t.toRaw())
	}
	return out, nil
}

// Categories fetches the current upstream category list.
func (c *Client) Categories(ctx context.Context) ([]RawCategory, error) {
	var wire []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ParentID string `json:"parent_id"`
	}
	err := withRetry(ctx, func() error {
		return c.getJSON(ctx, "/categories", nil, &wire)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	out := make([]RawCategory, 0, len(wire))
	for _, c := range wire {
		out = append(out, RawCategory{ExternalID: c.ID, Name: c.Name, ParentID: c.ParentID})
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upstream %d: %s", resp.StatusCode, body)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upstream permanent error %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
