package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/pkg/logger"
)

// FeedResult is the outcome of ingesting one feed. Err is empty on success.
type FeedResult struct {
	Feed  models.FeedSource
	Items []models.NewsItem
	Err   string
}

// Failed reports whether the feed could not be ingested
func (r *FeedResult) Failed() bool {
	return r.Err != ""
}

// Ingester turns configured feeds into normalized news items
type Ingester struct {
	fetcher Fetcher
	log     *logger.Logger
	now     func() time.Time
}

// NewIngester creates an ingester over a fetcher
func NewIngester(fetcher Fetcher, log *logger.Logger) *Ingester {
	return &Ingester{
		fetcher: fetcher,
		log:     log.WithComponent("ingester"),
		now:     time.Now,
	}
}

// Ingest fetches one feed. Every failure, including a parser panic, is
// returned in FeedResult.Err.
func (i *Ingester) Ingest(ctx context.Context, feed models.FeedSource) (result FeedResult) {
	log := i.log.WithFeed(feed.ID, feed.Name)
	result.Feed = feed

	defer func() {
		if r := recover(); r != nil {
			result.Items = nil
			result.Err = fmt.Sprintf("%v", r)
			log.Error().Interface("panic", r).Msg("Feed parser panicked")
		}
	}()

	log.Debug().Str("url", feed.URL).Msg("Fetching feed")

	parsed, err := i.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		log.Error().Err(err).Str("url", feed.URL).Msg("Failed to parse feed")
		result.Err = err.Error()
		return result
	}

	items := make([]models.NewsItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		items = append(items, i.normalize(item, feed))
	}
	result.Items = items

	log.Info().
		Int("count", len(items)).
		Msg("Parsed feed")

	return result
}

// IngestAll fetches every enabled feed concurrently and returns one result per
// enabled feed, in input order.
func (i *Ingester) IngestAll(ctx context.Context, feeds []models.FeedSource) []FeedResult {
	enabled := make([]models.FeedSource, 0, len(feeds))
	for _, f := range feeds {
		if f.Enabled {
			enabled = append(enabled, f)
		}
	}

	results := make([]FeedResult, len(enabled))

	var wg sync.WaitGroup
	for idx, feed := range enabled {
		wg.Add(1)
		go func(idx int, feed models.FeedSource) {
			defer wg.Done()
			results[idx] = i.Ingest(ctx, feed)
		}(idx, feed)
	}
	wg.Wait()

	return results
}

func (i *Ingester) normalize(item *gofeed.Item, feed models.FeedSource) models.NewsItem {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	return models.NewsItem{
		ID:              GenerateItemID(feed.Name, item.Link, item.Title),
		Title:           title,
		Description:     description(item),
		Content:         content(item),
		Link:            item.Link,
		PubDate:         i.pubDate(item),
		Source:          feed.Name,
		SourceURL:       feed.URL,
		MatchedKeywords: []string{},
		Topics:          []string{},
	}
}

// description prefers a plain-text snippet, then the raw description, then a
// snippet of the full content.
func description(item *gofeed.Item) string {
	if s := cleanText(item.Description); s != "" {
		return s
	}
	if item.Description != "" {
		return item.Description
	}
	return cleanText(item.Content)
}

func content(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	if encoded := extensionValue(item, "content", "encoded"); encoded != "" {
		return encoded
	}
	return item.Description
}

func extensionValue(item *gofeed.Item, namespace, name string) string {
	if item.Extensions == nil {
		return ""
	}
	for _, ext := range item.Extensions[namespace][name] {
		if ext.Value != "" {
			return ext.Value
		}
	}
	return ""
}

func (i *Ingester) pubDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.Published != "" {
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			return t
		}
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	if item.Updated != "" {
		if t, err := dateparse.ParseAny(item.Updated); err == nil {
			return t
		}
	}
	return i.now()
}
