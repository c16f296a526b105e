package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/internal/storage"
)

// Repository implements storage.Store on a SQLite key-value table
type Repository struct {
	db *gorm.DB
}

var _ storage.Store = (*Repository)(nil)

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	if dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&models.KVRecord{})
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get loads the row for key and decodes its value into dest
func (r *Repository) Get(ctx context.Context, key string, dest any) (bool, error) {
	var rec models.KVRecord
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := storage.Decode(key, []byte(rec.Value), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set upserts the row for key
func (r *Repository) Set(ctx context.Context, key string, value any) error {
	data, err := storage.Encode(key, value)
	if err != nil {
		return err
	}

	rec := models.KVRecord{Key: key, Value: string(data)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
