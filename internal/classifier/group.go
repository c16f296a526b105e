package classifier

import "github.com/wikinews-agent/internal/models"

// UncategorizedTopic is the group for items without topics
const UncategorizedTopic = "uncategorized"

// Groups holds items keyed by primary topic, in first-seen topic order
type Groups struct {
	order []string
	items map[string][]models.NewsItem
}

// GroupByTopic places each item under its first topic, or UncategorizedTopic
func GroupByTopic(items []models.NewsItem) *Groups {
	g := &Groups{items: make(map[string][]models.NewsItem)}
	for _, item := range items {
		topic := item.PrimaryTopic()
		if topic == "" {
			topic = UncategorizedTopic
		}
		if _, ok := g.items[topic]; !ok {
			g.order = append(g.order, topic)
		}
		g.items[topic] = append(g.items[topic], item)
	}
	return g
}

// Topics returns the group keys in first-seen order
func (g *Groups) Topics() []string {
	return append([]string(nil), g.order...)
}

// Items returns the items grouped under topic
func (g *Groups) Items(topic string) []models.NewsItem {
	return g.items[topic]
}

// Len returns the number of groups
func (g *Groups) Len() int {
	return len(g.order)
}
