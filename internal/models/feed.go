package models

import (
	"fmt"
	"time"
)

// FeedSource is an operator-configured RSS/Atom feed
type FeedSource struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	Keywords      []string   `json:"keywords"`
	Enabled       bool       `json:"enabled"`
	LastProcessed *time.Time `json:"lastProcessed,omitempty"`
}

// TopicRoute maps a topic to a destination space and optional parent page
type TopicRoute struct {
	Topic                string `json:"topic"`
	TargetSpace          string `json:"spaceKey"`
	ParentContainerID    string `json:"parentPageId,omitempty"`
	ParentContainerTitle string `json:"parentPageTitle,omitempty"`
}

// HasParent reports whether the route nests pages under a parent
func (r TopicRoute) HasParent() bool {
	return r.ParentContainerID != "" || r.ParentContainerTitle != ""
}

// AppConfig is the persisted operator configuration aggregate
type AppConfig struct {
	Feeds                   []FeedSource `json:"feeds"`
	TopicRoutes             []TopicRoute `json:"topicMappings"`
	ScheduleIntervalMinutes int          `json:"scheduleInterval"`
	EnableSummarization     bool         `json:"enableAISummarization"`
	DeduplicationWindowDays int          `json:"deduplicationWindow"`
}

// FindRoute returns the first route whose topic equals the given topic
func (c *AppConfig) FindRoute(topic string) (TopicRoute, bool) {
	for _, r := range c.TopicRoutes {
		if r.Topic == topic {
			return r, true
		}
	}
	return TopicRoute{}, false
}

// FindFeed returns the feed with the given ID
func (c *AppConfig) FindFeed(id string) (FeedSource, bool) {
	for _, f := range c.Feeds {
		if f.ID == id {
			return f, true
		}
	}
	return FeedSource{}, false
}

// DeduplicationWindow returns the ledger retention window as a duration
func (c *AppConfig) DeduplicationWindow() time.Duration {
	return time.Duration(c.DeduplicationWindowDays) * 24 * time.Hour
}

// Validate checks the aggregate before it is persisted
func (c *AppConfig) Validate() error {
	seen := make(map[string]bool, len(c.Feeds))
	for _, f := range c.Feeds {
		if f.ID == "" {
			return fmt.Errorf("feed %q has no id", f.Name)
		}
		if f.URL == "" {
			return fmt.Errorf("feed %s has no url", f.ID)
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate feed id: %s", f.ID)
		}
		seen[f.ID] = true
	}

	topics := make(map[string]bool, len(c.TopicRoutes))
	for _, r := range c.TopicRoutes {
		if r.Topic == "" {
			return fmt.Errorf("topic mapping has no topic")
		}
		if r.TargetSpace == "" {
			return fmt.Errorf("topic mapping %s has no space key", r.Topic)
		}
		if topics[r.Topic] {
			return fmt.Errorf("duplicate topic mapping: %s", r.Topic)
		}
		topics[r.Topic] = true
	}

	if c.ScheduleIntervalMinutes <= 0 {
		return fmt.Errorf("scheduleInterval must be positive")
	}
	if c.DeduplicationWindowDays <= 0 {
		return fmt.Errorf("deduplicationWindow must be positive")
	}
	return nil
}

// Clone returns a deep copy so callers can modify the aggregate freely
func (c *AppConfig) Clone() *AppConfig {
	out := *c
	out.Feeds = make([]FeedSource, len(c.Feeds))
	for i, f := range c.Feeds {
		f.Keywords = append([]string(nil), f.Keywords...)
		if f.LastProcessed != nil {
			t := *f.LastProcessed
			f.LastProcessed = &t
		}
		out.Feeds[i] = f
	}
	out.TopicRoutes = append([]TopicRoute(nil), c.TopicRoutes...)
	return &out
}
