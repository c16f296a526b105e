package source_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/require"

	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/internal/source"
	"github.com/wikinews-agent/pkg/logger"
)

type stubFetcher struct {
	feeds  map[string]*gofeed.Feed
	errs   map[string]error
	panics map[string]bool
	delay  map[string]time.Duration

	// When set, every fetch waits until all expected fetches are in flight
	barrier *sync.WaitGroup
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	if s.barrier != nil {
		s.barrier.Done()
		released := make(chan struct{})
		go func() {
			s.barrier.Wait()
			close(released)
		}()
		select {
		case <-released:
		case <-time.After(2 * time.Second):
			return nil, errors.New("other feeds were not fetched concurrently")
		}
	}
	if d := s.delay[url]; d > 0 {
		time.Sleep(d)
	}
	if s.panics[url] {
		panic("malformed document")
	}
	if err := s.errs[url]; err != nil {
		return nil, err
	}
	return s.feeds[url], nil
}

func feedSource(id, url string, enabled bool) models.FeedSource {
	return models.FeedSource{ID: id, Name: "Feed " + id, URL: url, Keywords: []string{"AI"}, Enabled: enabled}
}

func TestIngestNormalizesItems(t *testing.T) {
	published := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{feeds: map[string]*gofeed.Feed{
		"u": {Items: []*gofeed.Item{
			{
				Title:           "AI updates",
				Description:     "<p>Short <b>summary</b></p>",
				Content:         "<div>Full body</div>",
				Link:            "https://blog/ai",
				PublishedParsed: &published,
			},
		}},
	}}

	ing := source.NewIngester(fetcher, logger.Nop())
	feed := feedSource("a", "u", true)
	res := ing.Ingest(context.Background(), feed)

	require.False(t, res.Failed())
	require.Equal(t, feed, res.Feed)
	require.Len(t, res.Items, 1)

	item := res.Items[0]
	require.Equal(t, source.GenerateItemID("Feed a", "https://blog/ai", "AI updates"), item.ID)
	require.Equal(t, "AI updates", item.Title)
	require.Equal(t, "Short summary", item.Description)
	require.Equal(t, "<div>Full body</div>", item.Content)
	require.Equal(t, published, item.PubDate)
	require.Equal(t, "Feed a", item.Source)
	require.Equal(t, "u", item.SourceURL)
	require.Empty(t, item.MatchedKeywords)
	require.Empty(t, item.Topics)
}

func TestIngestFallbacks(t *testing.T) {
	fetcher := &stubFetcher{feeds: map[string]*gofeed.Feed{
		"u": {Items: []*gofeed.Item{
			{
				Link:      "https://blog/untitled",
				Published: "Mon, 02 Jun 2025 15:04:05 +0000",
				Extensions: ext.Extensions{
					"content": {"encoded": {{Value: "<p>Encoded body</p>"}}},
				},
			},
			{
				Title:         "Only content",
				Content:       "<p>Body <em>text</em></p>",
				UpdatedParsed: timePtr(time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)),
			},
			{Title: "Bare"},
		}},
	}}

	ing := source.NewIngester(fetcher, logger.Nop())
	before := time.Now()
	res := ing.Ingest(context.Background(), feedSource("a", "u", true))
	require.False(t, res.Failed())
	require.Len(t, res.Items, 3)

	untitled := res.Items[0]
	require.Equal(t, "Untitled", untitled.Title)
	require.Equal(t, source.GenerateItemID("Feed a", "https://blog/untitled", ""), untitled.ID)
	require.Equal(t, "<p>Encoded body</p>", untitled.Content)
	require.Equal(t, "", untitled.Description)
	require.Equal(t, 2025, untitled.PubDate.Year())
	require.Equal(t, time.June, untitled.PubDate.Month())

	onlyContent := res.Items[1]
	require.Equal(t, "Body text", onlyContent.Description)
	require.Equal(t, "<p>Body <em>text</em></p>", onlyContent.Content)
	require.Equal(t, time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC), onlyContent.PubDate)

	bare := res.Items[2]
	require.Equal(t, "", bare.Description)
	require.Equal(t, "", bare.Content)
	require.False(t, bare.PubDate.Before(before))
}

func TestIngestDescriptionUsedAsContent(t *testing.T) {
	fetcher := &stubFetcher{feeds: map[string]*gofeed.Feed{
		"u": {Items: []*gofeed.Item{{Title: "T", Description: "plain text"}}},
	}}
	res := source.NewIngester(fetcher, logger.Nop()).Ingest(context.Background(), feedSource("a", "u", true))
	require.Equal(t, "plain text", res.Items[0].Content)
	require.Equal(t, "plain text", res.Items[0].Description)
}

func TestIngestErrorIsCaptured(t *testing.T) {
	fetcher := &stubFetcher{errs: map[string]error{"u": errors.New("connection refused")}}
	res := source.NewIngester(fetcher, logger.Nop()).Ingest(context.Background(), feedSource("a", "u", true))
	require.True(t, res.Failed())
	require.Equal(t, "connection refused", res.Err)
	require.Empty(t, res.Items)
}

func TestIngestPanicIsCaptured(t *testing.T) {
	fetcher := &stubFetcher{panics: map[string]bool{"u": true}}
	res := source.NewIngester(fetcher, logger.Nop()).Ingest(context.Background(), feedSource("a", "u", true))
	require.True(t, res.Failed())
	require.Equal(t, "malformed document", res.Err)
}

func TestIngestAllSkipsDisabledAndKeepsOrder(t *testing.T) {
	fetcher := &stubFetcher{
		feeds: map[string]*gofeed.Feed{
			"slow": {Items: []*gofeed.Item{{Title: "slow item"}}},
			"fast": {Items: []*gofeed.Item{{Title: "fast item"}}},
		},
		errs:  map[string]error{"broken": errors.New("timeout")},
		delay: map[string]time.Duration{"slow": 50 * time.Millisecond},
	}

	feeds := []models.FeedSource{
		feedSource("1", "slow", true),
		feedSource("2", "off", false),
		feedSource("3", "broken", true),
		feedSource("4", "fast", true),
	}

	results := source.NewIngester(fetcher, logger.Nop()).IngestAll(context.Background(), feeds)
	require.Len(t, results, 3)

	require.Equal(t, "1", results[0].Feed.ID)
	require.Equal(t, "slow item", results[0].Items[0].Title)

	require.Equal(t, "3", results[1].Feed.ID)
	require.Equal(t, "timeout", results[1].Err)

	require.Equal(t, "4", results[2].Feed.ID)
	require.Equal(t, "fast item", results[2].Items[0].Title)
}

func TestIngestAllFetchesConcurrently(t *testing.T) {
	const n = 5

	fetcher := &stubFetcher{feeds: map[string]*gofeed.Feed{}, barrier: &sync.WaitGroup{}}
	fetcher.barrier.Add(n)

	var feeds []models.FeedSource
	for i := 0; i < n; i++ {
		url := fmt.Sprintf("feed-%d", i)
		fetcher.feeds[url] = &gofeed.Feed{Items: []*gofeed.Item{{Title: "item " + url}}}
		feeds = append(feeds, feedSource(fmt.Sprint(i), url, true))
	}

	results := source.NewIngester(fetcher, logger.Nop()).IngestAll(context.Background(), feeds)
	require.Len(t, results, n)
	for i, res := range results {
		require.False(t, res.Failed(), res.Err)
		require.Equal(t, fmt.Sprint(i), res.Feed.ID)
		require.Equal(t, fmt.Sprintf("item feed-%d", i), res.Items[0].Title)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
