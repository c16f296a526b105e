// Package app wires the configured components into a runnable agent.
package app

import (
	"fmt"

	"github.com/wikinews-agent/internal/actions"
	"github.com/wikinews-agent/internal/agent/publisher"
	"github.com/wikinews-agent/internal/ai"
	"github.com/wikinews-agent/internal/classifier"
	"github.com/wikinews-agent/internal/config"
	"github.com/wikinews-agent/internal/confluence"
	"github.com/wikinews-agent/internal/ledger"
	"github.com/wikinews-agent/internal/settings"
	"github.com/wikinews-agent/internal/source"
	"github.com/wikinews-agent/internal/source/rss"
	"github.com/wikinews-agent/internal/storage"
	"github.com/wikinews-agent/internal/storage/backend"
	"github.com/wikinews-agent/internal/tracker"
	"github.com/wikinews-agent/pkg/logger"
	"github.com/wikinews-agent/pkg/ratelimit"
)

// App holds the wired components shared by the CLI and the scheduler
type App struct {
	Store    storage.Store
	Settings *settings.Service
	Ledger   *ledger.Ledger
	Agent    *publisher.Agent
	Actions  *actions.Handler
	Tracker  *tracker.SheetsTracker
}

// New opens the store and builds the pipeline from cfg
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	dbCfg := cfg.Database
	if dbCfg.Driver == "sheets" && dbCfg.CredentialsFile == "" && dbCfg.ServiceAccountJSON == "" {
		dbCfg.CredentialsFile = cfg.Tracker.CredentialsFile
		dbCfg.ServiceAccountJSON = cfg.Tracker.ServiceAccountJSON
	}

	store, err := backend.Open(dbCfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Database.Driver, err)
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("Storage ready")

	limiter := ratelimit.New(ratelimit.Limits{
		ConfluenceRequestsPerMinute: cfg.RateLimit.ConfluenceRequestsPerMinute,
		AnthropicRequestsPerMinute:  cfg.RateLimit.AnthropicRequestsPerMinute,
		FeedRequestsPerSecond:       cfg.RateLimit.FeedRequestsPerSecond,
	})

	settingsSvc := settings.NewService(store, log)
	processed := ledger.New(store, settingsSvc, log)
	ingester := source.NewIngester(rss.New(cfg.Feeds, limiter, log), log)
	wiki := confluence.NewClient(cfg.Confluence, limiter, log)

	var opts []publisher.Option
	if cfg.SummarizationAvailable() {
		opts = append(opts, publisher.WithSummarizer(ai.NewClient(cfg.Anthropic, limiter, log)))
		log.Info().Str("model", cfg.Anthropic.Model).Msg("Summarization available")
	}

	t, err := tracker.NewSheetsTracker(cfg.Tracker, log)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create tracker")
	} else if t != nil {
		opts = append(opts, publisher.WithTracker(t))
	}

	agent := publisher.NewAgent(settingsSvc, ingester, classifier.New(log), processed, wiki, log, opts...)

	return &App{
		Store:    store,
		Settings: settingsSvc,
		Ledger:   processed,
		Agent:    agent,
		Actions:  actions.NewHandler(settingsSvc, agent, log),
		Tracker:  t,
	}, nil
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}
