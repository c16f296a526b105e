package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wikinews-agent/internal/actions"
	"github.com/wikinews-agent/internal/app"
	"github.com/wikinews-agent/internal/config"
	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/pkg/logger"
)

var (
	cfgFile  string
	cfg      *config.Config
	log      *logger.Logger
	agentApp *app.App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wikinews",
		Short: "Publish news feeds to a Confluence wiki",
		Long: `An agent that reads RSS/Atom feeds, keeps the items matching each feed's
keywords, and publishes them as pages in the mapped Confluence spaces.`,
		PersistentPreRunE:  initializeApp,
		PersistentPostRunE: closeApp,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(feedsCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(trackerCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	agentApp, err = app.New(cfg, log)
	if err != nil {
		return err
	}
	return nil
}

func closeApp(cmd *cobra.Command, args []string) error {
	if agentApp == nil {
		return nil
	}
	return agentApp.Close()
}

// handle runs an action in-process and turns a failed response into an error
func handle(ctx context.Context, action string, payload any) (actions.Response, error) {
	req := actions.Request{Action: action}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return actions.Response{}, err
		}
		req.Payload = raw
	}

	resp := agentApp.Actions.Handle(ctx, req)
	if !resp.Success {
		return resp, fmt.Errorf("%s failed: %s", action, resp.Error)
	}
	return resp, nil
}

// ============ PROCESS COMMAND ============

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Fetch all enabled feeds and publish new items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			resp, err := handle(context.Background(), actions.ActionProcessFeeds, nil)
			if err != nil {
				return err
			}
			result := resp.Result

			fmt.Printf("\n=== Processing Results ===\n")
			fmt.Printf("Run ID:           %s\n", result.RunID)
			fmt.Printf("Feeds:            %d/%d\n", result.SuccessfulFeeds, result.TotalFeeds)
			fmt.Printf("Items Fetched:    %d\n", result.TotalItems)
			fmt.Printf("Items Matched:    %d\n", result.FilteredItems)
			fmt.Printf("Items Published:  %d\n", result.PublishedItems)
			fmt.Printf("Items Skipped:    %d\n", result.SkippedItems)
			fmt.Printf("Duration:         %s\n", result.Duration)

			if len(result.Errors) > 0 {
				fmt.Printf("\nErrors:\n")
				for _, e := range result.Errors {
					fmt.Printf("  - %s\n", e)
				}
			}

			return nil
		},
	}
}

// ============ CONFIG COMMANDS ============

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Stored feed and routing configuration",
	}

	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSaveCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := handle(context.Background(), actions.ActionGetConfig, nil)
			if err != nil {
				return err
			}
			return printJSON(resp.Config)
		},
	}
}

func configSaveCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Replace the stored configuration with a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			var appCfg models.AppConfig
			if err := json.Unmarshal(data, &appCfg); err != nil {
				return fmt.Errorf("failed to parse %s: %w", file, err)
			}

			if _, err := handle(context.Background(), actions.ActionSaveConfig, map[string]any{"config": appCfg}); err != nil {
				return err
			}

			fmt.Printf("Configuration saved: %d feeds, %d topic mappings\n", len(appCfg.Feeds), len(appCfg.TopicRoutes))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON configuration file")
	cmd.MarkFlagRequired("file")
	return cmd
}

// ============ FEED COMMANDS ============

func feedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage feed sources",
	}

	cmd.AddCommand(feedsListCmd())
	cmd.AddCommand(feedsUpsertCmd())
	cmd.AddCommand(feedsRemoveCmd())
	return cmd
}

func feedsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg := agentApp.Settings.Load(context.Background())

			if len(appCfg.Feeds) == 0 {
				fmt.Println("No feeds configured")
				return nil
			}

			fmt.Printf("\n=== Feeds (%d) ===\n\n", len(appCfg.Feeds))
			for _, f := range appCfg.Feeds {
				status := "enabled"
				if !f.Enabled {
					status = "disabled"
				}
				last := "never"
				if f.LastProcessed != nil {
					last = f.LastProcessed.Format(time.RFC3339)
				}

				fmt.Printf("[%s] %s (%s)\n", f.ID, f.Name, status)
				fmt.Printf("  URL:            %s\n", f.URL)
				fmt.Printf("  Keywords:       %s\n", strings.Join(f.Keywords, ", "))
				fmt.Printf("  Last processed: %s\n", last)
				fmt.Println()
			}
			return nil
		},
	}
}

func feedsUpsertCmd() *cobra.Command {
	var feed models.FeedSource
	var disabled bool

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Add a feed or replace the feed with the same ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			feed.Enabled = !disabled
			if _, err := handle(context.Background(), actions.ActionUpsertFeed, map[string]any{"feed": feed}); err != nil {
				return err
			}
			fmt.Printf("Feed %s saved\n", feed.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&feed.ID, "id", "", "Feed ID")
	cmd.Flags().StringVar(&feed.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&feed.URL, "url", "", "RSS/Atom URL")
	cmd.Flags().StringSliceVar(&feed.Keywords, "keywords", nil, "Comma-separated keywords")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Store the feed disabled")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("url")
	return cmd
}

func feedsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [feed-id]",
		Short: "Remove a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := handle(context.Background(), actions.ActionRemoveFeed, map[string]any{"feedId": args[0]}); err != nil {
				return err
			}
			fmt.Printf("Feed %s removed\n", args[0])
			return nil
		},
	}
}

// ============ ROUTE COMMANDS ============

func routesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Manage topic to space mappings",
	}

	cmd.AddCommand(routesListCmd())
	cmd.AddCommand(routesUpsertCmd())
	cmd.AddCommand(routesRemoveCmd())
	return cmd
}

func routesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List topic mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg := agentApp.Settings.Load(context.Background())

			if len(appCfg.TopicRoutes) == 0 {
				fmt.Println("No topic mappings configured")
				return nil
			}

			fmt.Printf("\n=== Topic Mappings (%d) ===\n\n", len(appCfg.TopicRoutes))
			for _, r := range appCfg.TopicRoutes {
				parent := "-"
				switch {
				case r.ParentContainerID != "":
					parent = "id " + r.ParentContainerID
				case r.ParentContainerTitle != "":
					parent = r.ParentContainerTitle
				}
				fmt.Printf("%-30s -> %-10s parent: %s\n", r.Topic, r.TargetSpace, parent)
			}
			return nil
		},
	}
}

func routesUpsertCmd() *cobra.Command {
	var route models.TopicRoute

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Add a topic mapping or replace the one with the same topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := handle(context.Background(), actions.ActionUpsertTopicMapping, map[string]any{"mapping": route}); err != nil {
				return err
			}
			fmt.Printf("Topic mapping %q saved\n", route.Topic)
			return nil
		},
	}

	cmd.Flags().StringVar(&route.Topic, "topic", "", "Topic (matched against feed keywords)")
	cmd.Flags().StringVar(&route.TargetSpace, "space", "", "Destination space key")
	cmd.Flags().StringVar(&route.ParentContainerID, "parent-id", "", "Parent page ID")
	cmd.Flags().StringVar(&route.ParentContainerTitle, "parent-title", "", "Parent page title, looked up when no ID is set")
	cmd.MarkFlagRequired("topic")
	cmd.MarkFlagRequired("space")
	return cmd
}

func routesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [topic]",
		Short: "Remove a topic mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := handle(context.Background(), actions.ActionRemoveTopicMapping, map[string]any{"topic": args[0]}); err != nil {
				return err
			}
			fmt.Printf("Topic mapping %q removed\n", args[0])
			return nil
		},
	}
}

// ============ LEDGER COMMANDS ============

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect processed items",
	}

	cmd.AddCommand(ledgerListCmd())
	cmd.AddCommand(ledgerPruneCmd())
	return cmd
}

func ledgerListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processed items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := agentApp.Ledger.List(context.Background())
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No processed items")
				return nil
			}

			sorted := make([]models.ProcessedItemRecord, 0, len(records))
			for _, rec := range records {
				sorted = append(sorted, rec)
			}
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i].ProcessedAt.After(sorted[j].ProcessedAt)
			})
			if limit > 0 && len(sorted) > limit {
				sorted = sorted[:limit]
			}

			fmt.Printf("\n=== Processed Items (%d of %d) ===\n\n", len(sorted), len(records))
			for _, rec := range sorted {
				fmt.Printf("%s  %s  page %s\n", rec.ItemID, rec.ProcessedAt.Format(time.RFC3339), orDash(rec.PublishedContentID))
				if rec.PublishedContentURL != "" {
					fmt.Printf("    %s\n", rec.PublishedContentURL)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum items to show (0 for all)")
	return cmd
}

func ledgerPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop records older than the deduplication window",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := agentApp.Ledger.Prune(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d records\n", removed)
			return nil
		},
	}
}

// ============ TRACKER COMMANDS ============

func trackerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Google Sheets publication tracker",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the tracker sheet and header row",
		RunE: func(cmd *cobra.Command, args []string) error {
			if agentApp.Tracker == nil {
				return fmt.Errorf("tracker is not enabled")
			}
			if err := agentApp.Tracker.InitializeSheet(context.Background()); err != nil {
				return err
			}
			fmt.Println("Tracker sheet initialized")
			return nil
		},
	})
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
