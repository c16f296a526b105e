// Package settings manages the operator configuration aggregate (feeds,
// topic routes, schedule) persisted in the key-value store.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/internal/storage"
	"github.com/wikinews-agent/pkg/logger"
)

// ConfigKey is the store key holding the AppConfig aggregate
const ConfigKey = "app_config"

// Service loads and saves the AppConfig aggregate
type Service struct {
	store storage.Store
	log   *logger.Logger
}

// NewService creates a configuration service over a store
func NewService(store storage.Store, log *logger.Logger) *Service {
	return &Service{
		store: store,
		log:   log.WithComponent("settings"),
	}
}

// DefaultAppConfig returns the configuration used when nothing is stored
func DefaultAppConfig() *models.AppConfig {
	return &models.AppConfig{
		Feeds: []models.FeedSource{
			{
				ID:       "atlassian-blog",
				Name:     "Atlassian Blog",
				URL:      "https://www.atlassian.com/blog/feed",
				Keywords: []string{"Rovo Agent", "Rovo Dev CLI", "Atlassian Intelligence", "AI", "Artificial Intelligence"},
				Enabled:  true,
			},
			{
				ID:       "atlassian-developer-blog",
				Name:     "Atlassian Developer Blog",
				URL:      "https://developer.atlassian.com/blog/feed",
				Keywords: []string{"Rovo", "AI", "Forge", "Intelligence"},
				Enabled:  true,
			},
		},
		TopicRoutes: []models.TopicRoute{
			{Topic: "Rovo Agent", TargetSpace: "AI", ParentContainerTitle: "Rovo Agent Updates"},
			{Topic: "Rovo Dev CLI", TargetSpace: "AI", ParentContainerTitle: "Rovo Dev CLI Updates"},
			{Topic: "Atlassian Intelligence", TargetSpace: "AI", ParentContainerTitle: "Atlassian Intelligence Updates"},
		},
		ScheduleIntervalMinutes: 360,
		EnableSummarization:     false,
		DeduplicationWindowDays: 30,
	}
}

// Load returns the stored configuration. It never fails: a missing record or
// a store error yields the defaults.
func (s *Service) Load(ctx context.Context) *models.AppConfig {
	var cfg models.AppConfig
	found, err := s.store.Get(ctx, ConfigKey, &cfg)
	if err != nil {
		s.log.Warn().Err(err).Msg("Error loading config from storage, using defaults")
		return DefaultAppConfig()
	}
	if !found {
		s.log.Info().Msg("Using default configuration")
		return DefaultAppConfig()
	}

	s.log.Debug().
		Int("feeds", len(cfg.Feeds)).
		Int("routes", len(cfg.TopicRoutes)).
		Msg("Loaded configuration from storage")
	return &cfg
}

// Save validates and persists the configuration
func (s *Service) Save(ctx context.Context, cfg *models.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := s.store.Set(ctx, ConfigKey, cfg); err != nil {
		s.log.Error().Err(err).Msg("Failed to save configuration")
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	s.log.Info().Msg("Configuration saved")
	return nil
}

// UpsertFeed replaces the feed with the same ID or appends it
func (s *Service) UpsertFeed(ctx context.Context, feed models.FeedSource) error {
	cfg := s.Load(ctx).Clone()

	replaced := false
	for i := range cfg.Feeds {
		if cfg.Feeds[i].ID == feed.ID {
			cfg.Feeds[i] = feed
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.Feeds = append(cfg.Feeds, feed)
	}

	if err := s.Save(ctx, cfg); err != nil {
		return err
	}
	s.log.Info().Str("feed_id", feed.ID).Bool("replaced", replaced).Msg("Feed upserted")
	return nil
}

// RemoveFeed deletes the feed with the given ID. Removing an unknown ID is not an error.
func (s *Service) RemoveFeed(ctx context.Context, id string) error {
	cfg := s.Load(ctx).Clone()

	feeds := cfg.Feeds[:0]
	for _, f := range cfg.Feeds {
		if f.ID != id {
			feeds = append(feeds, f)
		}
	}
	cfg.Feeds = feeds

	if err := s.Save(ctx, cfg); err != nil {
		return err
	}
	s.log.Info().Str("feed_id", id).Msg("Feed removed")
	return nil
}

// UpsertTopicRoute replaces the route for the same topic or appends it
func (s *Service) UpsertTopicRoute(ctx context.Context, route models.TopicRoute) error {
	cfg := s.Load(ctx).Clone()

	replaced := false
	for i := range cfg.TopicRoutes {
		if cfg.TopicRoutes[i].Topic == route.Topic {
			cfg.TopicRoutes[i] = route
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.TopicRoutes = append(cfg.TopicRoutes, route)
	}

	if err := s.Save(ctx, cfg); err != nil {
		return err
	}
	s.log.Info().Str("topic", route.Topic).Bool("replaced", replaced).Msg("Topic mapping upserted")
	return nil
}

// RemoveTopicRoute deletes the route for a topic
func (s *Service) RemoveTopicRoute(ctx context.Context, topic string) error {
	cfg := s.Load(ctx).Clone()

	routes := cfg.TopicRoutes[:0]
	for _, r := range cfg.TopicRoutes {
		if r.Topic != topic {
			routes = append(routes, r)
		}
	}
	cfg.TopicRoutes = routes

	if err := s.Save(ctx, cfg); err != nil {
		return err
	}
	s.log.Info().Str("topic", topic).Msg("Topic mapping removed")
	return nil
}

// MarkFeedsProcessed stamps LastProcessed on the given feeds. Failures are
// logged only; a run's result does not depend on it.
func (s *Service) MarkFeedsProcessed(ctx context.Context, ids []string, at time.Time) {
	if len(ids) == 0 {
		return
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	cfg := s.Load(ctx).Clone()
	for i := range cfg.Feeds {
		if want[cfg.Feeds[i].ID] {
			t := at
			cfg.Feeds[i].LastProcessed = &t
		}
	}

	if err := s.Save(ctx, cfg); err != nil {
		s.log.Warn().Err(err).Msg("Failed to record feed processing time")
	}
}
