package models

import "time"

// NewsItem is a feed entry normalized for classification and publication.
// It is never persisted; only its ID reaches the ledger.
type NewsItem struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Content         string    `json:"content,omitempty"`
	Link            string    `json:"link"`
	PubDate         time.Time `json:"pubDate"`
	Source          string    `json:"source"`    // Feed name
	SourceURL       string    `json:"sourceUrl"` // Feed URL
	MatchedKeywords []string  `json:"matchedKeywords"`
	Topics          []string  `json:"topics"`
}

// PrimaryTopic returns the topic the item is grouped under, or "" if none
func (n *NewsItem) PrimaryTopic() string {
	if len(n.Topics) == 0 {
		return ""
	}
	return n.Topics[0]
}
