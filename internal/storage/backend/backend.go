// Package backend opens the configured storage.Store implementation.
package backend

import (
	"fmt"

	"github.com/wikinews-agent/internal/config"
	"github.com/wikinews-agent/internal/storage"
	"github.com/wikinews-agent/internal/storage/memory"
	"github.com/wikinews-agent/internal/storage/redis"
	"github.com/wikinews-agent/internal/storage/sheets"
	"github.com/wikinews-agent/internal/storage/sqlite"
	"github.com/wikinews-agent/pkg/logger"
)

// Open creates and migrates the store selected by cfg.Driver
func Open(cfg config.DatabaseConfig, log *logger.Logger) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)

	switch cfg.Driver {
	case "sqlite", "":
		store, err = sqlite.New(cfg.DSN)
	case "redis":
		store, err = redis.New(cfg.DSN, cfg.Prefix)
	case "sheets":
		store, err = sheets.New(sheets.Config{
			SpreadsheetID:      cfg.DSN,
			ServiceAccountJSON: cfg.ServiceAccountJSON,
			CredentialsFile:    cfg.CredentialsFile,
		}, log)
	case "memory":
		store = memory.New()
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}
