package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/wikinews-agent/internal/config"
	"github.com/wikinews-agent/internal/source"
	"github.com/wikinews-agent/pkg/logger"
	"github.com/wikinews-agent/pkg/ratelimit"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxRedirects = 5
)

// Fetcher downloads and parses RSS/Atom feeds with gofeed
type Fetcher struct {
	parser  *gofeed.Parser
	limiter *ratelimit.MultiLimiter
	log     *logger.Logger
}

// New creates a feed fetcher with a bounded timeout and redirect budget
func New(cfg config.FeedsConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	if cfg.UserAgent != "" {
		parser.UserAgent = cfg.UserAgent
	}

	return &Fetcher{
		parser:  parser,
		limiter: limiter,
		log:     log.WithComponent("rss"),
	}
}

// Fetch retrieves and parses the feed at url
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, ratelimit.LimiterRSS); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, fmt.Errorf("status code %d", httpErr.StatusCode)
		}
		return nil, err
	}

	f.log.Debug().
		Str("url", url).
		Str("title", feed.Title).
		Int("items", len(feed.Items)).
		Msg("Fetched feed")

	return feed, nil
}

// Ensure Fetcher implements source.Fetcher
var _ source.Fetcher = (*Fetcher)(nil)
