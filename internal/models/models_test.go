package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wikinews-agent/internal/models"
)

func validConfig() *models.AppConfig {
	return &models.AppConfig{
		Feeds: []models.FeedSource{
			{ID: "a", Name: "A", URL: "https://a/feed", Keywords: []string{"AI"}, Enabled: true},
		},
		TopicRoutes: []models.TopicRoute{
			{Topic: "AI", TargetSpace: "AI"},
		},
		ScheduleIntervalMinutes: 60,
		DeduplicationWindowDays: 30,
	}
}

func TestAppConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Feeds = append(cfg.Feeds, cfg.Feeds[0])
	require.ErrorContains(t, cfg.Validate(), "duplicate feed id")

	cfg = validConfig()
	cfg.TopicRoutes = append(cfg.TopicRoutes, cfg.TopicRoutes[0])
	require.ErrorContains(t, cfg.Validate(), "duplicate topic mapping")

	cfg = validConfig()
	cfg.DeduplicationWindowDays = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.TopicRoutes[0].TargetSpace = ""
	require.Error(t, cfg.Validate())
}

func TestFindRoute(t *testing.T) {
	cfg := validConfig()
	r, ok := cfg.FindRoute("AI")
	require.True(t, ok)
	require.Equal(t, "AI", r.TargetSpace)

	_, ok = cfg.FindRoute("ai")
	require.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	cfg := validConfig()
	clone := cfg.Clone()
	clone.Feeds[0].Keywords[0] = "changed"
	clone.TopicRoutes[0].Topic = "changed"

	require.Equal(t, "AI", cfg.Feeds[0].Keywords[0])
	require.Equal(t, "AI", cfg.TopicRoutes[0].Topic)
}

func TestAppConfigJSONShape(t *testing.T) {
	raw := `{"feeds":[{"id":"x","name":"X","url":"u","keywords":["k"],"enabled":true}],
		"topicMappings":[{"topic":"k","spaceKey":"S","parentPageTitle":"P"}],
		"scheduleInterval":360,"enableAISummarization":false,"deduplicationWindow":30}`

	var cfg models.AppConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	require.Equal(t, "S", cfg.TopicRoutes[0].TargetSpace)
	require.Equal(t, "P", cfg.TopicRoutes[0].ParentContainerTitle)
	require.Equal(t, 360, cfg.ScheduleIntervalMinutes)
	require.Equal(t, 30, cfg.DeduplicationWindowDays)
}

func TestLedgerPrune(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	l := models.Ledger{
		"old":   {ItemID: "old", ProcessedAt: now.Add(-48 * time.Hour)},
		"fresh": {ItemID: "fresh", ProcessedAt: now.Add(-time.Hour)},
	}

	removed := l.Prune(now.Add(-24 * time.Hour))
	require.Equal(t, 1, removed)
	require.Contains(t, l, "fresh")
	require.NotContains(t, l, "old")
}
