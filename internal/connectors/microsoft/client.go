package microsoft

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/outlookcal/internal/logger"
)

// DefaultTimeout bounds every request made with the default HTTP client.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent with every API call.
const DefaultUserAgent = "outlookcal/1.0"

// Client exchanges tokens with the identity platform and issues
// authenticated API calls. It holds no mutable state of its own and is safe
// for concurrent use once created.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	timeout     time.Duration
	userAgent   string
	rateLimiter *RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. WithTimeout is ignored
// when a client is supplied; configure its Timeout directly.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimiter paces API calls through rl.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = rl
	}
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:       cfg,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// Profile returns the API surface the client targets.
func (c *Client) Profile() Profile {
	return c.cfg.profile
}

// URL joins a resource path onto the configured API base URL.
func (c *Client) URL(path string) string {
	return c.cfg.apiBaseURL + path
}

// errorSnippet trims an error body for debug output.
func errorSnippet(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}

// send executes req and returns the status, headers and body. The response
// body is always drained and closed before send returns.
func (c *Client) send(req *http.Request) (int, http.Header, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, resp.Header, nil, err
	}
	return resp.StatusCode, resp.Header, body, nil
}

func (c *Client) pace(ctx context.Context) error {
	if c.rateLimiter == nil || c.rateLimiter.Allow() {
		return nil
	}
	logger.Debug("microsoft: rate limiter: waiting for a slot")
	if err := c.rateLimiter.Wait(ctx); err != nil {
		logger.Debug("microsoft: rate limiter wait aborted: %v", err)
		return err
	}
	return nil
}
