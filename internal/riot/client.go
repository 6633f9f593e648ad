package riot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	// Rate limits for dev key (using conservative values to be safe)
	RequestsPerSecond = 15 // Actual: 20, using 15 for safety
	RequestsPer2Min   = 90 // Actual: 100, using 90 for safety

	// DefaultRetryAfter is used when a 429 carries no usable Retry-After header
	DefaultRetryAfter = 10 * time.Second

	DefaultRegion  = "euw1"
	DefaultRouting = "europe"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riot_requests_total",
		Help: "Requests issued to the Riot API by response status",
	}, []string{"status"})

	throttledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riot_throttled_total",
		Help: "429 responses absorbed by retry",
	})
)

// Client is a rate-limited Riot API client. One Client, and therefore one
// limiter, is shared by every endpoint.
type Client struct {
	apiKey     string
	httpClient *http.Client

	regionalURL string // account-v1, match-v5
	platformURL string // league-v4, status-v4

	limiter    Limiter
	retryAfter time.Duration
	sleep      SleepFunc
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRegionalURL overrides the regional routing host (e.g. https://europe.api.riotgames.com)
func WithRegionalURL(u string) ClientOption {
	return func(c *Client) {
		c.regionalURL = strings.TrimRight(u, "/")
	}
}

// WithPlatformURL overrides the platform host (e.g. https://euw1.api.riotgames.com)
func WithPlatformURL(u string) ClientOption {
	return func(c *Client) {
		c.platformURL = strings.TrimRight(u, "/")
	}
}

// WithLimiter replaces the default local rate windows
func WithLimiter(l Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithRetryAfter sets the backoff used when a 429 has no Retry-After header
func WithRetryAfter(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryAfter = d
	}
}

// WithSleep replaces the throttling sleeper (tests)
func WithSleep(s SleepFunc) ClientOption {
	return func(c *Client) {
		c.sleep = s
	}
}

// PlatformURL returns the platform host for a region such as euw1 or na1.
func PlatformURL(region string) string {
	return fmt.Sprintf("https://%s.api.riotgames.com", region)
}

// RegionalURL returns the regional routing host such as europe or americas.
func RegionalURL(routing string) string {
	return fmt.Sprintf("https://%s.api.riotgames.com", routing)
}

// DefaultLimiter returns the short and long windows sized for a dev key.
func DefaultLimiter() Limiter {
	return Limiters{
		NewWindow(RequestsPerSecond, time.Second, WithWindowName("sec")),
		NewWindow(RequestsPer2Min, 2*time.Minute, WithWindowName("2min")),
	}
}

// NewClient creates a new Riot API client
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY not set")
	}

	// Show key prefix for debugging (don't show full key)
	if len(apiKey) > 12 {
		log.Printf("Using API key: %s...%s", apiKey[:8], apiKey[len(apiKey)-4:])
	}

	c := &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		regionalURL: RegionalURL(DefaultRouting),
		platformURL: PlatformURL(DefaultRegion),
		retryAfter:  DefaultRetryAfter,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = DefaultLimiter()
	}

	return c, nil
}

// Fetch issues a GET for rawURL and decodes the JSON body into result.
//
// Every attempt passes the limiter first. A 429 is absorbed: the client sleeps for
// the server's Retry-After (or the default) and issues the same request again, for
// as many throttling signals as the server sends. Any other non-2xx response is
// returned as an *APIError.
func (c *Client) Fetch(ctx context.Context, rawURL string, result interface{}) error {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.attempt(ctx, rawURL, result)
		if err != nil {
			return err
		}
		if retry <= 0 {
			return nil
		}

		throttledTotal.Inc()
		log.Printf("      [429 Rate Limited] Waiting %.0f seconds...", retry.Seconds())
		if err := c.sleep(ctx, retry); err != nil {
			return err
		}
	}
}

// attempt performs one request. A positive duration means the server throttled
// us and the request should be retried after that long.
func (c *Client) attempt(ctx context.Context, rawURL string, result interface{}) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return c.parseRetryAfter(resp.Header.Get("Retry-After")), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, &APIError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			Body:       string(body),
		}
	}

	if result == nil {
		return 0, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return 0, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return 0, nil
}

// parseRetryAfter reads a Retry-After value in whole seconds.
func (c *Client) parseRetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return c.retryAfter
	}
	return time.Duration(secs) * time.Second
}

// GetAccountByRiotID fetches account info by Riot ID (gameName#tagLine)
func (c *Client) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*AccountResponse, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionalURL, url.PathEscape(gameName), url.PathEscape(tagLine))

	var account AccountResponse
	if err := c.Fetch(ctx, u, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetMatchHistory fetches match IDs for a player in the given queue
func (c *Client) GetMatchHistory(ctx context.Context, puuid string, queueID, count int) ([]string, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?queue=%d&count=%d",
		c.regionalURL, url.PathEscape(puuid), queueID, count)

	var matchIDs []string
	if err := c.Fetch(ctx, u, &matchIDs); err != nil {
		return nil, err
	}
	return matchIDs, nil
}

// GetMatch fetches match details
func (c *Client) GetMatch(ctx context.Context, matchID string) (*MatchResponse, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionalURL, url.PathEscape(matchID))

	var match MatchResponse
	if err := c.Fetch(ctx, u, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// GetTimeline fetches match timeline
func (c *Client) GetTimeline(ctx context.Context, matchID string) (*TimelineResponse, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s/timeline", c.regionalURL, url.PathEscape(matchID))

	var timeline TimelineResponse
	if err := c.Fetch(ctx, u, &timeline); err != nil {
		return nil, err
	}
	return &timeline, nil
}

// GetRankedEntriesByPUUID fetches all ranked queue entries for a player
func (c *Client) GetRankedEntriesByPUUID(ctx context.Context, puuid string) ([]LeagueEntryResponse, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-puuid/%s", c.platformURL, url.PathEscape(puuid))

	var entries []LeagueEntryResponse
	if err := c.Fetch(ctx, u, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetSoloQueueRank returns the player's solo queue tier and division.
// hasRank is false when the player has no solo queue entry.
func (c *Client) GetSoloQueueRank(ctx context.Context, puuid string) (tier, division string, hasRank bool, err error) {
	entries, err := c.GetRankedEntriesByPUUID(ctx, puuid)
	if err != nil {
		return "", "", false, err
	}
	for _, e := range entries {
		if e.QueueType == QueueRankedSolo {
			return e.Tier, e.Rank, true, nil
		}
	}
	return "", "", false, nil
}
