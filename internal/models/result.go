package models

import (
	"fmt"
	"time"
)

// ProcessingResult summarizes one run of the publication pipeline
type ProcessingResult struct {
	RunID           string        `json:"runId,omitempty"`
	TotalFeeds      int           `json:"totalFeeds"`
	SuccessfulFeeds int           `json:"successfulFeeds"`
	TotalItems      int           `json:"totalItems"`
	FilteredItems   int           `json:"filteredItems"`
	PublishedItems  int           `json:"publishedItems"`
	SkippedItems    int           `json:"skippedItems"`
	Errors          []string      `json:"errors"`
	Duration        time.Duration `json:"duration,omitempty"`
}

// AddError appends a human-readable error to the result
func (r *ProcessingResult) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
