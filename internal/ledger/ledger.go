// Package ledger records which news items have already been published so
// that repeated runs do not publish them twice.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/internal/storage"
	"github.com/wikinews-agent/pkg/logger"
)

// Key is the store key holding the processed-item mapping
const Key = "processed_items"

// ConfigSource supplies the current deduplication window
type ConfigSource interface {
	Load(ctx context.Context) *models.AppConfig
}

// Ledger is a store-backed set of processed item records
type Ledger struct {
	store  storage.Store
	config ConfigSource
	log    *logger.Logger
	now    func() time.Time
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock overrides the wall clock
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a ledger
func New(store storage.Store, config ConfigSource, log *logger.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		config: config,
		log:    log.WithComponent("ledger"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List returns every record currently held
func (l *Ledger) List(ctx context.Context) (models.Ledger, error) {
	records := models.Ledger{}
	if _, err := l.store.Get(ctx, Key, &records); err != nil {
		return nil, fmt.Errorf("failed to load processed items: %w", err)
	}
	if records == nil {
		records = models.Ledger{}
	}
	return records, nil
}

// IsProcessed reports whether an item has a record
func (l *Ledger) IsProcessed(ctx context.Context, itemID string) (bool, error) {
	records, err := l.List(ctx)
	if err != nil {
		return false, err
	}
	_, ok := records[itemID]
	return ok, nil
}

// MarkProcessed upserts a record for the item and evicts records older than
// the configured deduplication window.
func (l *Ledger) MarkProcessed(ctx context.Context, itemID, contentID, contentURL string) error {
	records, err := l.List(ctx)
	if err != nil {
		return err
	}

	now := l.now()
	records[itemID] = models.ProcessedItemRecord{
		ItemID:              itemID,
		ProcessedAt:         now,
		PublishedContentID:  contentID,
		PublishedContentURL: contentURL,
	}

	removed := records.Prune(l.cutoff(ctx, now))

	if err := l.store.Set(ctx, Key, records); err != nil {
		return fmt.Errorf("failed to save processed items: %w", err)
	}

	l.log.Debug().
		Str("item_id", itemID).
		Str("content_id", contentID).
		Int("evicted", removed).
		Msg("Item marked as processed")
	return nil
}

// Prune evicts expired records without adding one
func (l *Ledger) Prune(ctx context.Context) (int, error) {
	records, err := l.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := records.Prune(l.cutoff(ctx, l.now()))
	if removed == 0 {
		return 0, nil
	}

	if err := l.store.Set(ctx, Key, records); err != nil {
		return 0, fmt.Errorf("failed to save processed items: %w", err)
	}
	l.log.Info().Int("evicted", removed).Msg("Pruned processed items")
	return removed, nil
}

func (l *Ledger) cutoff(ctx context.Context, now time.Time) time.Time {
	return now.Add(-l.config.Load(ctx).DeduplicationWindow())
}
