// Package reddit is a minimal client for reddit's OAuth2 listing API,
// exposing the post and comment feeds as unbounded pull streams.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultAuthURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIURL  = "https://oauth.reddit.com"

	defaultPollInterval = 5 * time.Second

	// tokenSlack refreshes the app token slightly before upstream expires it.
	tokenSlack = time.Minute
)

// Config holds the client's credentials and endpoints. AuthURL and APIURL
// default to reddit's production endpoints and exist for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string

	AuthURL string
	APIURL  string

	// PollInterval is the delay between listing polls on an idle stream.
	PollInterval time.Duration
}

// Client speaks reddit's application-only OAuth2 flow and listing endpoints.
// It implements domain.StreamSource.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient creates a Client. Credentials are not validated here; the first
// subscription performs the token exchange and surfaces credential errors.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "reddit-monitor"
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// accessToken returns a cached application token, fetching a fresh one when
// missing or near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp.Add(-tokenSlack)) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty token")
	}

	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

// invalidateToken drops the cached token so the next call re-authenticates.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// getListing fetches one listing page. A 401 retries once with a fresh
// token; any other non-200 status is a stream-fatal error for the caller.
func (c *Client) getListing(ctx context.Context, path string, query url.Values) (*listingData, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}

		u := c.cfg.APIURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("build listing request: %w", err)
		}
		req.Header.Set("Authorization", "bearer "+token)
		req.Header.Set("User-Agent", c.cfg.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request listing %s: %w", path, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			c.invalidateToken()
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("listing %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var envelope listingEnvelope
		err = json.NewDecoder(resp.Body).Decode(&envelope)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode listing %s: %w", path, err)
		}

		return &envelope.Data, nil
	}
}

// scope joins subreddit names into a multireddit path segment, falling back
// to the site-wide "all" feed when none are configured.
func scope(subreddits []string) string {
	if len(subreddits) == 0 {
		return "all"
	}
	return strings.Join(subreddits, "+")
}
