package models

import "time"

// ProcessedItemRecord marks an item as handled
type ProcessedItemRecord struct {
	ItemID              string    `json:"itemId"`
	ProcessedAt         time.Time `json:"processedAt"`
	PublishedContentID  string    `json:"confluencePageId,omitempty"`
	PublishedContentURL string    `json:"confluencePageUrl,omitempty"`
}

// Ledger maps item IDs to their processing records
type Ledger map[string]ProcessedItemRecord

// Prune removes records processed before cutoff and returns how many were dropped
func (l Ledger) Prune(cutoff time.Time) int {
	removed := 0
	for id, rec := range l {
		if rec.ProcessedAt.Before(cutoff) {
			delete(l, id)
			removed++
		}
	}
	return removed
}
