// Package classifier filters news items by feed keywords and groups them by topic.
package classifier

import (
	"strings"

	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/pkg/logger"
)

// Classifier matches items against feed keywords and derives topics
type Classifier struct {
	log *logger.Logger
}

// New creates a classifier
func New(log *logger.Logger) *Classifier {
	return &Classifier{log: log.WithComponent("classifier")}
}

// Classify returns copies of the items that match at least one feed keyword,
// with MatchedKeywords and Topics filled in. The inputs are not modified.
func (c *Classifier) Classify(items []models.NewsItem, feed models.FeedSource, routes []models.TopicRoute) []models.NewsItem {
	if len(feed.Keywords) == 0 {
		c.log.Warn().Str("feed_id", feed.ID).Msg("No keywords configured for feed")
		return []models.NewsItem{}
	}

	filtered := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		corpus := item.Title + " " + item.Description + " " + item.Content
		matched := matchKeywords(corpus, feed.Keywords)
		if len(matched) == 0 {
			continue
		}

		out := item
		out.MatchedKeywords = matched
		out.Topics = deriveTopics(matched, routes)
		filtered = append(filtered, out)
	}

	c.log.Info().
		Str("feed_id", feed.ID).
		Int("total", len(items)).
		Int("matched", len(filtered)).
		Msg("Filtered items by keywords")

	return filtered
}

// matchKeywords returns the keywords contained in text, case-insensitively,
// in keyword order.
func matchKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	matched := make([]string, 0)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// deriveTopics returns the route topics named exactly by a matched keyword,
// in route order. Without any such route all matches are used as topics.
func deriveTopics(matched []string, routes []models.TopicRoute) []string {
	hit := make(map[string]bool, len(matched))
	for _, kw := range matched {
		hit[kw] = true
	}

	topics := make([]string, 0, len(matched))
	for _, r := range routes {
		if hit[r.Topic] {
			topics = append(topics, r.Topic)
		}
	}
	if len(topics) == 0 {
		return append([]string(nil), matched...)
	}
	return topics
}
