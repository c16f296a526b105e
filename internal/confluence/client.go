package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/wikinews-agent/internal/config"
	"github.com/wikinews-agent/pkg/logger"
	"github.com/wikinews-agent/pkg/ratelimit"
)

const contentPath = "/wiki/rest/api/content"

// Client handles Confluence REST API requests
type Client struct {
	baseURL     string
	httpClient  *http.Client
	email       string
	apiToken    string
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewClient creates a new Confluence API client. A configured access token
// selects OAuth bearer auth, otherwise email and API token are sent as basic auth.
func NewClient(cfg config.ConfluenceConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.AccessToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  httpClient,
		email:       cfg.Email,
		apiToken:    cfg.APIToken,
		rateLimiter: limiter,
		log:         log.WithComponent("confluence"),
	}
}

// BaseURL returns the configured site URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs an HTTP request with authentication and headers
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterConfluence); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.email != "" && c.apiToken != "" {
		req.SetBasicAuth(c.email, c.apiToken)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Making Confluence API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Msg("Confluence API response")

	return resp, nil
}

// FindContent returns the first content in the space with exactly the given
// title, or nil when there is none.
func (c *Client) FindContent(ctx context.Context, spaceKey, title string) (*Content, error) {
	query := url.Values{}
	query.Set("spaceKey", spaceKey)
	query.Set("title", title)
	query.Set("expand", "version")

	resp, err := c.do(ctx, http.MethodGet, contentPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to search content: %s - %s", resp.Status, string(body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

// CreateContent creates a page and returns its metadata
func (c *Client) CreateContent(ctx context.Context, req CreateContentRequest) (*Content, error) {
	resp, err := c.do(ctx, http.MethodPost, contentPath, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("confluence API error: %d - %s", resp.StatusCode, string(body))
	}

	var content Content
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("failed to decode created content: %w", err)
	}
	if content.ID == "" {
		return nil, fmt.Errorf("created content has no id")
	}

	c.log.Info().
		Str("content_id", content.ID).
		Str("space", req.Space.Key).
		Str("title", req.Title).
		Msg("Created page")

	return &content, nil
}
