// Package avito provides the HTTP client for the external advertising metrics
// API. The core treats it as an opaque provider of balance and statistics
// snapshots; authentication uses OAuth client credentials per account.
package avito

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avito-insight/internal/circuitbreaker"
	"github.com/avito-insight/internal/retry"
)

const (
	tokenPath       = "/token"
	balancePath     = "/core/v1/accounts/self/balance"
	dailyStatsPath  = "/stats/v1/accounts/self/daily"
	weeklyStatsPath = "/stats/v1/accounts/self/weekly"

	// tokens are refreshed this long before their reported expiry
	tokenExpiryMargin = 60 * time.Second
)

// Client talks to the metrics API
type Client struct {
	baseURL string
	client  *http.Client
	retry   *retry.Config
	breaker *circuitbreaker.CircuitBreaker

	mu     sync.Mutex
	tokens map[string]cachedToken // keyed by client_id
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// NewClient creates a metrics API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		retry:   retry.DefaultConfig(),
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("avito-api"), nil),
		tokens:  make(map[string]cachedToken),
	}
}

// SetBreaker replaces the default circuit breaker, letting callers attach a
// logging one.
func (c *Client) SetBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.breaker = cb
}

// GetBalance fetches the current wallet balance for the account
func (c *Client) GetBalance(ctx context.Context, clientID, clientSecret string) (*BalanceInfo, error) {
	var balance BalanceInfo
	if err := c.getJSON(ctx, clientID, clientSecret, balancePath, &balance); err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}
	return &balance, nil
}

// GetDailyStats fetches the daily metrics snapshot for the account
func (c *Client) GetDailyStats(ctx context.Context, clientID, clientSecret string) (*StatsSnapshot, error) {
	var snapshot StatsSnapshot
	if err := c.getJSON(ctx, clientID, clientSecret, dailyStatsPath, &snapshot); err != nil {
		return nil, fmt.Errorf("fetch daily stats: %w", err)
	}
	return &snapshot, nil
}

// GetWeeklyStats fetches the weekly metrics snapshot for the account
func (c *Client) GetWeeklyStats(ctx context.Context, clientID, clientSecret string) (*StatsSnapshot, error) {
	var snapshot StatsSnapshot
	if err := c.getJSON(ctx, clientID, clientSecret, weeklyStatsPath, &snapshot); err != nil {
		return nil, fmt.Errorf("fetch weekly stats: %w", err)
	}
	return &snapshot, nil
}

// getJSON performs an authenticated GET and decodes the response body.
// Transient failures (429, 5xx, network errors) are retried with backoff;
// anything else fails immediately.
func (c *Client) getJSON(ctx context.Context, clientID, clientSecret, path string, dest interface{}) error {
	if err := c.breaker.Allow(); err != nil {
		return err
	}

	err := retry.WithBackoff(ctx, c.retry, func(ctx context.Context, attempt int) (bool, error) {
		token, err := c.getToken(ctx, clientID, clientSecret)
		if err != nil {
			return false, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
				return false, fmt.Errorf("decode response: %w", err)
			}
			return false, nil
		case resp.StatusCode == http.StatusUnauthorized:
			// Token may have been revoked server-side; drop it so the next
			// attempt authenticates from scratch.
			c.invalidateToken(clientID)
			return true, fmt.Errorf("unauthorized (status %d)", resp.StatusCode)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return true, fmt.Errorf("provider unavailable (status %d)", resp.StatusCode)
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
	})
	if err != nil {
		c.breaker.RecordFailure()
		return err
	}
	c.breaker.RecordSuccess()
	return nil
}

// getToken returns a valid access token for the credential pair, fetching a
// new one when the cached token is missing or near expiry.
func (c *Client) getToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	c.mu.Lock()
	cached, ok := c.tokens[clientID]
	c.mu.Unlock()

	if ok && time.Now().Before(cached.expiresAt) {
		return cached.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpiryMargin)

	c.mu.Lock()
	c.tokens[clientID] = cachedToken{accessToken: tokenResp.AccessToken, expiresAt: expiresAt}
	c.mu.Unlock()

	return tokenResp.AccessToken, nil
}

func (c *Client) invalidateToken(clientID string) {
	c.mu.Lock()
	delete(c.tokens, clientID)
	c.mu.Unlock()
}
