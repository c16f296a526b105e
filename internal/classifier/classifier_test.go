package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikinews-agent/internal/classifier"
	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/pkg/logger"
)

func item(id, title, desc, content string) models.NewsItem {
	return models.NewsItem{ID: id, Title: title, Description: desc, Content: content, MatchedKeywords: []string{}, Topics: []string{}}
}

func TestClassifyScenarioA(t *testing.T) {
	c := classifier.New(logger.Nop())
	feed := models.FeedSource{ID: "f", Keywords: []string{"AI"}}
	items := []models.NewsItem{
		item("1", "AI updates", "", ""),
		item("2", "Gardening", "Growing tomatoes", ""),
	}

	got := c.Classify(items, feed, nil)
	require.Len(t, got, 1)
	require.Equal(t, "1", got[0].ID)
	require.Equal(t, []string{"AI"}, got[0].MatchedKeywords)
}

func TestClassifyEmptyKeywords(t *testing.T) {
	c := classifier.New(logger.Nop())
	got := c.Classify([]models.NewsItem{item("1", "AI", "", "")}, models.FeedSource{}, nil)
	require.Empty(t, got)
}

func TestClassifyCaseInsensitiveAcrossFields(t *testing.T) {
	c := classifier.New(logger.Nop())
	feed := models.FeedSource{Keywords: []string{"Rovo Agent", "forge", "Intelligence"}}
	items := []models.NewsItem{
		item("title", "New ROVO AGENT features", "", ""),
		item("desc", "x", "Built on Forge", ""),
		item("content", "x", "y", "<p>atlassian intelligence</p>"),
		item("none", "x", "y", "z"),
	}

	got := c.Classify(items, feed, nil)
	require.Len(t, got, 3)
	require.Equal(t, []string{"Rovo Agent"}, got[0].MatchedKeywords)
	require.Equal(t, []string{"forge"}, got[1].MatchedKeywords)
	require.Equal(t, []string{"Intelligence"}, got[2].MatchedKeywords)
}

func TestClassifyMatchedKeywordOrderFollowsFeed(t *testing.T) {
	c := classifier.New(logger.Nop())
	feed := models.FeedSource{Keywords: []string{"Rovo", "AI", "Forge"}}
	got := c.Classify([]models.NewsItem{item("1", "Forge and AI meet Rovo", "", "")}, feed, nil)
	require.Equal(t, []string{"Rovo", "AI", "Forge"}, got[0].MatchedKeywords)
}

func TestClassifyTopicsFromRoutes(t *testing.T) {
	c := classifier.New(logger.Nop())
	feed := models.FeedSource{Keywords: []string{"AI", "Rovo Agent", "Atlassian Intelligence"}}
	routes := []models.TopicRoute{
		{Topic: "Atlassian Intelligence", TargetSpace: "AI"},
		{Topic: "Rovo Agent", TargetSpace: "AI"},
	}

	got := c.Classify([]models.NewsItem{item("1", "Rovo Agent brings Atlassian Intelligence and AI", "", "")}, feed, routes)
	require.Len(t, got, 1)
	require.Equal(t, []string{"AI", "Rovo Agent", "Atlassian Intelligence"}, got[0].MatchedKeywords)
	require.Equal(t, []string{"Atlassian Intelligence", "Rovo Agent"}, got[0].Topics)
}

func TestClassifyPrimaryTopicFollowsRouteOrder(t *testing.T) {
	c := classifier.New(logger.Nop())
	feed := models.FeedSource{Keywords: []string{"Rovo", "Forge"}}
	routes := []models.TopicRoute{
		{Topic: "Forge", TargetSpace: "FRG"},
		{Topic: "Rovo", TargetSpace: "RV"},
	}

	got := c.Classify([]models.NewsItem{item("1", "Rovo on Forge", "", "")}, feed, routes)
	require.Len(t, got, 1)
	require.Equal(t, []string{"Rovo", "Forge"}, got[0].MatchedKeywords)
	require.Equal(t, []string{"Forge", "Rovo"}, got[0].Topics)
	require.Equal(t, "Forge", got[0].PrimaryTopic())

	groups := classifier.GroupByTopic(got)
	require.Equal(t, []string{"Forge"}, groups.Topics())
}

func TestClassifyTopicFallback(t *testing.T) {
	c := classifier.New(logger.Nop())
	feed := models.FeedSource{Keywords: []string{"AI", "Forge"}}
	routes := []models.TopicRoute{{Topic: "Rovo Agent", TargetSpace: "AI"}}

	got := c.Classify([]models.NewsItem{item("1", "AI on Forge", "", "")}, feed, routes)
	require.Equal(t, got[0].MatchedKeywords, got[0].Topics)
	require.Equal(t, []string{"AI", "Forge"}, got[0].Topics)
}

func TestClassifyRouteMatchIsExact(t *testing.T) {
	c := classifier.New(logger.Nop())
	feed := models.FeedSource{Keywords: []string{"ai"}}
	routes := []models.TopicRoute{{Topic: "AI", TargetSpace: "AI"}}

	got := c.Classify([]models.NewsItem{item("1", "AI news", "", "")}, feed, routes)
	require.Equal(t, []string{"ai"}, got[0].Topics)
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	c := classifier.New(logger.Nop())
	in := []models.NewsItem{item("1", "AI", "", "")}
	_ = c.Classify(in, models.FeedSource{Keywords: []string{"AI"}}, nil)
	require.Empty(t, in[0].MatchedKeywords)
	require.Empty(t, in[0].Topics)
}

func TestGroupByTopic(t *testing.T) {
	items := []models.NewsItem{
		{ID: "1", Topics: []string{"Rovo Agent", "AI"}},
		{ID: "2", Topics: []string{"AI"}},
		{ID: "3", Topics: []string{}},
		{ID: "4", Topics: []string{"Rovo Agent"}},
	}

	g := classifier.GroupByTopic(items)
	require.Equal(t, []string{"Rovo Agent", "AI", classifier.UncategorizedTopic}, g.Topics())
	require.Equal(t, 3, g.Len())

	ids := func(items []models.NewsItem) []string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}
	require.Equal(t, []string{"1", "4"}, ids(g.Items("Rovo Agent")))
	require.Equal(t, []string{"2"}, ids(g.Items("AI")))
	require.Equal(t, []string{"3"}, ids(g.Items(classifier.UncategorizedTopic)))

	total := 0
	for _, topic := range g.Topics() {
		total += len(g.Items(topic))
	}
	require.Equal(t, len(items), total)
}

func TestGroupByTopicEmpty(t *testing.T) {
	g := classifier.GroupByTopic(nil)
	require.Zero(t, g.Len())
	require.Empty(t, g.Topics())
}
