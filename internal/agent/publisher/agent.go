package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wikinews-agent/internal/classifier"
	"github.com/wikinews-agent/internal/confluence"
	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/internal/source"
	"github.com/wikinews-agent/internal/tracker"
	"github.com/wikinews-agent/pkg/logger"
)

// ConfigSource provides the operator configuration
type ConfigSource interface {
	Load(ctx context.Context) *models.AppConfig
	MarkFeedsProcessed(ctx context.Context, ids []string, at time.Time)
}

// FeedIngester fetches the configured feeds
type FeedIngester interface {
	IngestAll(ctx context.Context, feeds []models.FeedSource) []source.FeedResult
}

// Ledger tracks which items were already handled
type Ledger interface {
	IsProcessed(ctx context.Context, itemID string) (bool, error)
	MarkProcessed(ctx context.Context, itemID, contentID, contentURL string) error
}

// ContentPublisher is the wiki backend
type ContentPublisher interface {
	FindContent(ctx context.Context, spaceKey, title string) (*confluence.Content, error)
	CreateContent(ctx context.Context, req confluence.CreateContentRequest) (*confluence.Content, error)
	BaseURL() string
}

// Summarizer produces page summaries
type Summarizer interface {
	Summarize(ctx context.Context, item models.NewsItem) (string, error)
}

// Tracker records publications outside the wiki
type Tracker interface {
	TrackPublication(ctx context.Context, p tracker.Publication) error
}

// Agent runs the feed-to-wiki publication pipeline
type Agent struct {
	config     ConfigSource
	ingester   FeedIngester
	classifier *classifier.Classifier
	ledger     Ledger
	wiki       ContentPublisher
	summarizer Summarizer
	tracker    Tracker
	log        *logger.Logger
	now        func() time.Time
}

// Option configures optional collaborators
type Option func(*Agent)

// WithSummarizer enables page summaries when the configuration allows them
func WithSummarizer(s Summarizer) Option {
	return func(a *Agent) {
		a.summarizer = s
	}
}

// WithTracker records every created page
func WithTracker(t Tracker) Option {
	return func(a *Agent) {
		a.tracker = t
	}
}

// WithClock overrides the wall clock
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

// NewAgent creates a new publisher agent
func NewAgent(
	config ConfigSource,
	ingester FeedIngester,
	classifier *classifier.Classifier,
	ledger Ledger,
	wiki ContentPublisher,
	log *logger.Logger,
	opts ...Option,
) *Agent {
	a := &Agent{
		config:     config,
		ingester:   ingester,
		classifier: classifier,
		ledger:     ledger,
		wiki:       wiki,
		log:        log.WithComponent("publisher"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ProcessAllFeeds fetches every enabled feed, classifies the items and
// publishes new ones. It always returns a result; recoverable failures are
// reported in result.Errors.
func (a *Agent) ProcessAllFeeds(ctx context.Context) *models.ProcessingResult {
	start := a.now()
	runID := uuid.NewString()
	log := a.log.WithRun(runID)

	cfg := a.config.Load(ctx)
	result := &models.ProcessingResult{
		RunID:      runID,
		TotalFeeds: len(cfg.Feeds),
		Errors:     []string{},
	}

	log.Info().Int("feeds", len(cfg.Feeds)).Msg("Starting feed processing")

	feedResults := a.ingester.IngestAll(ctx, cfg.Feeds)

	var fetched []string
	for _, fr := range feedResults {
		if !fr.Failed() {
			result.SuccessfulFeeds++
			fetched = append(fetched, fr.Feed.ID)
		}
	}

	for _, fr := range feedResults {
		if fr.Failed() {
			result.AddError("Feed %s: %s", fr.Feed.Name, fr.Err)
			continue
		}

		result.TotalItems += len(fr.Items)

		filtered := a.classifier.Classify(fr.Items, fr.Feed, cfg.TopicRoutes)
		result.FilteredItems += len(filtered)

		groups := classifier.GroupByTopic(filtered)
		for _, topic := range groups.Topics() {
			route, ok := cfg.FindRoute(topic)
			if !ok {
				log.Warn().Str("topic", topic).Msg("No mapping found for topic")
				result.AddError("No mapping for topic: %s", topic)
				continue
			}

			for _, item := range groups.Items(topic) {
				a.processItem(ctx, log, cfg, route, item, result)
			}
		}
	}

	a.config.MarkFeedsProcessed(ctx, fetched, a.now())

	result.Duration = a.now().Sub(start)

	log.Info().
		Int("published", result.PublishedItems).
		Int("skipped", result.SkippedItems).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("Processing complete")

	return result
}

// processItem handles one routed item. Panics and unexpected errors are
// recorded against the item and never escape.
func (a *Agent) processItem(
	ctx context.Context,
	log *logger.Logger,
	cfg *models.AppConfig,
	route models.TopicRoute,
	item models.NewsItem,
	result *models.ProcessingResult,
) {
	itemLog := log.WithItem(item.ID)

	defer func() {
		if r := recover(); r != nil {
			itemLog.Error().Interface("panic", r).Str("title", item.Title).Msg("Error processing item")
			result.AddError("Error processing \"%s\": %v", item.Title, r)
		}
	}()

	outcome, err := a.handleItem(ctx, itemLog, cfg, route, item)
	switch {
	case errors.Is(err, errPublishFailed):
		result.AddError("Failed to publish: %s", item.Title)
	case err != nil:
		itemLog.Error().Err(err).Str("title", item.Title).Msg("Error processing item")
		result.AddError("Error processing \"%s\": %s", item.Title, err.Error())
	case outcome == outcomeSkipped:
		result.SkippedItems++
	case outcome == outcomePublished:
		result.PublishedItems++
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota + 1
	outcomePublished
)

var errPublishFailed = errors.New("publish failed")

func (a *Agent) handleItem(
	ctx context.Context,
	log *logger.Logger,
	cfg *models.AppConfig,
	route models.TopicRoute,
	item models.NewsItem,
) (outcome, error) {
	processed, err := a.ledger.IsProcessed(ctx, item.ID)
	if err != nil {
		return 0, err
	}
	if processed {
		log.Debug().Str("title", item.Title).Msg("Skipping already processed item")
		return outcomeSkipped, nil
	}

	existing, err := a.wiki.FindContent(ctx, route.TargetSpace, item.Title)
	if err != nil {
		// Treated as not existing
		log.Error().Err(err).Str("title", item.Title).Msg("Error checking if page exists")
	}
	if existing != nil {
		log.Debug().Str("title", item.Title).Str("content_id", existing.ID).Msg("Page already exists")
		if err := a.ledger.MarkProcessed(ctx, item.ID, existing.ID, ""); err != nil {
			return 0, err
		}
		return outcomeSkipped, nil
	}

	content, err := a.publish(ctx, log, cfg, route, item)
	if err != nil {
		log.Error().Err(err).Str("title", item.Title).Msg("Error publishing item")
		return 0, errPublishFailed
	}

	contentURL := content.WebURL(a.wiki.BaseURL())
	if err := a.ledger.MarkProcessed(ctx, item.ID, content.ID, contentURL); err != nil {
		return 0, err
	}

	log.Info().
		Str("title", item.Title).
		Str("content_id", content.ID).
		Msg("Published")

	a.track(ctx, log, route, item, content.ID, contentURL)
	return outcomePublished, nil
}

// publish creates the page for an item under the route's destination
func (a *Agent) publish(
	ctx context.Context,
	log *logger.Logger,
	cfg *models.AppConfig,
	route models.TopicRoute,
	item models.NewsItem,
) (*confluence.Content, error) {
	log.Info().
		Str("title", item.Title).
		Str("space", route.TargetSpace).
		Str("topic", route.Topic).
		Msg("Publishing item")

	parentID := a.resolveParent(ctx, log, route)

	body, err := confluence.RenderPage(item, a.summarize(ctx, log, cfg, item))
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	req := confluence.NewPageRequest(route.TargetSpace, item.Title, body, parentID)
	return a.wiki.CreateContent(ctx, req)
}

// resolveParent returns the parent page ID for a route. A failed or empty
// title lookup yields no parent.
func (a *Agent) resolveParent(ctx context.Context, log *logger.Logger, route models.TopicRoute) string {
	if route.ParentContainerID != "" {
		return route.ParentContainerID
	}
	if route.ParentContainerTitle == "" {
		return ""
	}

	parent, err := a.wiki.FindContent(ctx, route.TargetSpace, route.ParentContainerTitle)
	if err != nil {
		log.Error().Err(err).Str("parent_title", route.ParentContainerTitle).Msg("Error finding parent page")
		return ""
	}
	if parent == nil {
		log.Warn().
			Str("parent_title", route.ParentContainerTitle).
			Str("space", route.TargetSpace).
			Msg("Parent page not found")
		return ""
	}
	return parent.ID
}

func (a *Agent) summarize(ctx context.Context, log *logger.Logger, cfg *models.AppConfig, item models.NewsItem) string {
	if !cfg.EnableSummarization || a.summarizer == nil {
		return ""
	}

	summary, err := a.summarizer.Summarize(ctx, item)
	if err != nil {
		log.Warn().Err(err).Msg("Summarization failed, using description")
		return ""
	}
	return summary
}

func (a *Agent) track(ctx context.Context, log *logger.Logger, route models.TopicRoute, item models.NewsItem, contentID, contentURL string) {
	if a.tracker == nil {
		return
	}

	err := a.tracker.TrackPublication(ctx, tracker.Publication{
		ItemID:      item.ID,
		Title:       item.Title,
		Source:      item.Source,
		Topic:       route.Topic,
		Space:       route.TargetSpace,
		ContentID:   contentID,
		URL:         contentURL,
		PublishedAt: item.PubDate,
		TrackedAt:   a.now(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to track publication")
	}
}

// RunScheduled is the timer entry point. It logs the run result and returns
// an error only when the run itself failed.
func (a *Agent) RunScheduled(ctx context.Context) (err error) {
	a.log.Info().Msg("Scheduled trigger fired")

	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("Error in scheduled trigger")
			err = fmt.Errorf("scheduled run failed: %v", r)
		}
	}()

	result := a.ProcessAllFeeds(ctx)

	a.log.Info().
		Str("run_id", result.RunID).
		Int("total_feeds", result.TotalFeeds).
		Int("successful_feeds", result.SuccessfulFeeds).
		Int("total_items", result.TotalItems).
		Int("filtered_items", result.FilteredItems).
		Int("published", result.PublishedItems).
		Int("skipped", result.SkippedItems).
		Strs("errors", result.Errors).
		Msg("Scheduled processing completed")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scheduled run interrupted: %w", err)
	}
	return nil
}
