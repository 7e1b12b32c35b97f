// Package simplefin implements a client for the SimpleFIN bridge protocol,
// the external aggregation source that supplies bank transactions.
//
// The flow follows the SimpleFIN spec: a one-time setup token is a base64
// encoded claim URL; POSTing to the claim URL yields a long-lived access URL
// (with embedded basic-auth credentials) against which /accounts is queried.
package simplefin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// fetchConcurrency caps parallel per-account requests against the bridge.
const fetchConcurrency = 4

// RawTransaction is one transaction as delivered by the bridge. Amount is in
// signed cents, negative for outflows.
type RawTransaction struct {
	ExternalID   string     `json:"external_id"`
	Amount       int64      `json:"amount"`
	Description  string     `json:"description"`
	Payee        string     `json:"payee,omitempty"`
	Memo         string     `json:"memo,omitempty"`
	Posted       time.Time  `json:"posted"`
	TransactedAt *time.Time `json:"transacted_at,omitempty"`
	Pending      bool       `json:"pending"`
}

// BridgeAccount is one account as delivered by the bridge, with its
// transactions for the requested window.
type BridgeAccount struct {
	ExternalID   string           `json:"external_id"`
	Name         string           `json:"name"`
	Organization string           `json:"organization"`
	Currency     string           `json:"currency"`
	Balance      int64            `json:"balance"`
	Transactions []RawTransaction `json:"transactions"`
}

// Client is the contract the import layer consumes. Implementations must
// return complete batches: a failed fetch yields an error and no partial data.
type Client interface {
	ClaimSetupToken(ctx context.Context, setupToken string) (string, error)
	FetchAccounts(ctx context.Context, accessURL string, since time.Time) ([]BridgeAccount, error)
}

// HTTPClient talks to a SimpleFIN bridge over HTTP.
type HTTPClient struct {
	http *http.Client
}

// NewClient creates a bridge client with the given request timeout.
func NewClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{http: &http.Client{Timeout: timeout}}
}

// DecodeSetupToken decodes a base64 setup token into its claim URL.
func DecodeSetupToken(setupToken string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(setupToken))
	if err != nil {
		return "", fmt.Errorf("setup token is not valid base64: %w", err)
	}
	claimURL := strings.TrimSpace(string(raw))
	if _, err := url.ParseRequestURI(claimURL); err != nil {
		return "", fmt.Errorf("setup token does not contain a valid claim URL: %w", err)
	}
	return claimURL, nil
}

// ClaimSetupToken exchanges a setup token for an access URL by POSTing to the
// embedded claim URL. Each setup token can be claimed exactly once.
func (c *HTTPClient) ClaimSetupToken(ctx context.Context, setupToken string) (string, error) {
	claimURL, err := DecodeSetupToken(setupToken)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build claim request: %w", err)
	}
	req.Header.Set("Content-Length", "0")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("claim request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("failed to read claim response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claim rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	accessURL := strings.TrimSpace(string(body))
	if _, err := url.ParseRequestURI(accessURL); err != nil {
		return "", fmt.Errorf("bridge returned an invalid access URL: %w", err)
	}
	return accessURL, nil
}

// wire types for the bridge's /accounts response

type accountSet struct {
	Errors   []string      `json:"errors"`
	Accounts []wireAccount `json:"accounts"`
}

type wireAccount struct {
	Org          wireOrg           `json:"org"`
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Currency     string            `json:"currency"`
	Balance      string            `json:"balance"`
	Transactions []wireTransaction `json:"transactions"`
}

type wireOrg struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type wireTransaction struct {
	ID           string `json:"id"`
	Posted       int64  `json:"posted"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
	Payee        string `json:"payee"`
	Memo         string `json:"memo"`
	Pending      bool   `json:"pending"`
	TransactedAt int64  `json:"transacted_at"`
}

// FetchAccounts lists the user's bridge accounts, then fetches each account's
// transactions since the given time in parallel. Either every account's batch
// is returned or an error is, never a partial result.
func (c *HTTPClient) FetchAccounts(ctx context.Context, accessURL string, since time.Time) ([]BridgeAccount, error) {
	listing, err := c.getAccountSet(ctx, accessURL, url.Values{"balances-only": {"1"}})
	if err != nil {
		return nil, err
	}

	accounts := make([]BridgeAccount, len(listing.Accounts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, acct := range listing.Accounts {
		g.Go(func() error {
			params := url.Values{"account": {acct.ID}}
			if !since.IsZero() {
				params.Set("start-date", fmt.Sprintf("%d", since.Unix()))
			}
			set, err := c.getAccountSet(gctx, accessURL, params)
			if err != nil {
				return err
			}
			if len(set.Accounts) == 0 {
				return fmt.Errorf("bridge returned no data for account %s", acct.ID)
			}
			parsed, err := parseAccount(set.Accounts[0])
			if err != nil {
				return err
			}
			mu.Lock()
			accounts[i] = parsed
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *HTTPClient) getAccountSet(ctx context.Context, accessURL string, params url.Values) (*accountSet, error) {
	u, err := url.Parse(accessURL)
	if err != nil {
		return nil, fmt.Errorf("invalid access URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/accounts"
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build accounts request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("accounts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		return nil, fmt.Errorf("bridge responded with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var set accountSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode accounts response: %w", err)
	}
	if len(set.Errors) > 0 {
		return nil, fmt.Errorf("bridge reported errors: %s", strings.Join(set.Errors, "; "))
	}
	return &set, nil
}

func parseAccount(w wireAccount) (BridgeAccount, error) {
	balance, err := ParseCents(w.Balance)
	if err != nil {
		return BridgeAccount{}, fmt.Errorf("account %s: invalid balance %q: %w", w.ID, w.Balance, err)
	}

	org := w.Org.Name
	if org == "" {
		org = w.Org.Domain
	}

	account := BridgeAccount{
		ExternalID:   w.ID,
		Name:         w.Name,
		Organization: org,
		Currency:     w.Currency,
		Balance:      balance,
		Transactions: make([]RawTransaction, 0, len(w.Transactions)),
	}

	for _, t := range w.Transactions {
		amount, err := ParseCents(t.Amount)
		if err != nil {
			return BridgeAccount{}, fmt.Errorf("transaction %s: invalid amount %q: %w", t.ID, t.Amount, err)
		}
		raw := RawTransaction{
			ExternalID:  t.ID,
			Amount:      amount,
			Description: t.Description,
			Payee:       t.Payee,
			Memo:        t.Memo,
			Posted:      time.Unix(t.Posted, 0).UTC(),
			Pending:     t.Pending,
		}
		if t.TransactedAt != 0 {
			ts := time.Unix(t.TransactedAt, 0).UTC()
			raw.TransactedAt = &ts
		}
		account.Transactions = append(account.Transactions, raw)
	}
	return account, nil
}

// ParseCents converts a SimpleFIN decimal string ("-12.30") into signed
// cents without going through floating point.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
	default:
		return 0, fmt.Errorf("more than two decimal places")
	}

	var cents int64
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("unexpected character %q", r)
		}
		cents = cents*10 + int64(r-'0')
	}
	if negative {
		cents = -cents
	}
	return cents, nil
}
