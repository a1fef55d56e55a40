package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/deathrjj/age-github-search-tui/metrics"
	"github.com/deathrjj/age-github-search-tui/models"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"

	acceptHeader = "application/vnd.github.v3+json"

	headerRemaining = "X-Ratelimit-Remaining"
	headerLimit     = "X-Ratelimit-Limit"
	headerReset     = "X-Ratelimit-Reset"

	maxErrorBody = 64 << 10
)

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds GitHub client settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables client-side throttling
	Burst             int
	UserAgent         string
}

// Client handles GitHub API interactions. Requests are anonymous.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient HTTPClient
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a new GitHub API client. A nil httpClient gets a default
// *http.Client with cfg.Timeout.
func NewClient(cfg Config, httpClient HTTPClient, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

// SearchUsers runs one page of the user search.
func (c *Client) SearchUsers(ctx context.Context, query string, page, perPage int) (*models.SearchPage, error) {
	u := fmt.Sprintf("%s/search/users?q=%s&per_page=%d&page=%d",
		c.baseURL, url.QueryEscape(query), perPage, page)

	var body searchUsersResponse
	header, err := c.doRequest(ctx, "search_users", u, &body)
	if err != nil {
		return nil, err
	}

	limits := ParseRateLimits(header)
	if limits.Remaining != nil {
		metrics.RateLimitRemaining.Set(float64(*limits.Remaining))
	}

	items := body.Items
	if items == nil {
		items = []models.UserProfile{}
	}

	return &models.SearchPage{
		Items:      items,
		TotalCount: body.TotalCount,
		Limits:     limits,
	}, nil
}

// FetchUserKeys retrieves the public SSH keys GitHub publishes for login.
func (c *Client) FetchUserKeys(ctx context.Context, login string) ([]string, error) {
	u := fmt.Sprintf("%s/users/%s/keys", c.baseURL, url.PathEscape(login))

	var keysResp []struct {
		Key string `json:"key"`
	}
	if _, err := c.doRequest(ctx, "user_keys", u, &keysResp); err != nil {
		return nil, fmt.Errorf("failed to get keys for %s: %w", login, err)
	}

	keys := make([]string, 0, len(keysResp))
	for _, k := range keysResp {
		if k.Key != "" {
			keys = append(keys, k.Key)
		}
	}
	return keys, nil
}

// doRequest performs a GET and decodes the JSON body into result. The response
// headers are returned even when the status is not successful.
func (c *Client) doRequest(ctx context.Context, endpoint, rawURL string, result any) (http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for request slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GitHubRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GitHubRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.GitHubRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newAPIError(resp.StatusCode, rawURL, body)
		c.logger.Warn("GitHub API returned an error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return resp.Header, apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return resp.Header, fmt.Errorf("failed to decode response: %w", err)
	}

	return resp.Header, nil
}

// ParseRateLimits reads the rate-limit headers. Absent or malformed headers
// stay nil.
func ParseRateLimits(h http.Header) models.APILimitations {
	var limits models.APILimitations
	if h == nil {
		return limits
	}
	limits.Remaining = parseIntHeader(h, headerRemaining)
	limits.RateLimit = parseIntHeader(h, headerLimit)
	if reset := parseIntHeader(h, headerReset); reset != nil {
		t := time.Unix(int64(*reset), 0)
		limits.Reset = &t
	}
	return limits
}

func parseIntHeader(h http.Header, key string) *int {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// GitHub API response types
type searchUsersResponse struct {
	TotalCount        int                  `json:"total_count"`
	IncompleteResults bool                 `json:"incomplete_results"`
	Items             []models.UserProfile `json:"items"`
}
