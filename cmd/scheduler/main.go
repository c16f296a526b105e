package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/wikinews-agent/internal/actions"
	"github.com/wikinews-agent/internal/app"
	"github.com/wikinews-agent/internal/config"
	"github.com/wikinews-agent/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wikinews-scheduler",
		Short: "Background scheduler for the wiki news agent",
		Long: `Processes all feeds on a fixed interval and serves the operator
action API. This daemon should be run as a service for autonomous operation.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting Wiki News Scheduler")

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.Tracker != nil {
		if err := a.Tracker.InitializeSheet(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracker sheet")
		}
	}

	spec := scheduleSpec(cfg.Scheduler.Cron, a.Settings.Load(ctx).ScheduleIntervalMinutes)

	// Overlapping runs would race on the ledger
	c := cron.New(
		cron.WithLogger(cronLogger{log}),
		cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
	)

	_, err = c.AddFunc(spec, func() {
		if err := a.Agent.RunScheduled(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled processing failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule processing job: %w", err)
	}
	log.Info().Str("schedule", spec).Msg("Processing job scheduled")

	httpServer := &http.Server{
		Addr:              cfg.Scheduler.HTTPAddr,
		Handler:           actions.NewRouter(a.Actions, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// processFeeds runs synchronously
		WriteTimeout: 10 * time.Minute,
	}

	go func() {
		log.Info().Str("addr", cfg.Scheduler.HTTPAddr).Msg("Action server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Action server failed")
			stop()
		}
	}()

	// Start scheduler
	c.Start()
	log.Info().Msg("Scheduler started")

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Action server shutdown")
	}

	select {
	case <-c.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("Timed out waiting for running job")
	}

	return nil
}

// scheduleSpec returns the cron override when set, otherwise an @every spec
// built from the stored interval in minutes.
func scheduleSpec(override string, intervalMinutes int) string {
	if override != "" {
		return override
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 360
	}
	return fmt.Sprintf("@every %dm", intervalMinutes)
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
