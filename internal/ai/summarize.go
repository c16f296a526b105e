package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wikinews-agent/internal/models"
)

// maxSourceChars bounds how much item text is sent to the model
const maxSourceChars = 6000

// stripMarkdownCodeBlock removes markdown code block delimiters from AI responses
func stripMarkdownCodeBlock(response string) string {
	response = strings.TrimSpace(response)

	// Find the first { which starts valid JSON
	startIdx := strings.Index(response, "{")
	if startIdx == -1 {
		return response
	}

	// Find the last } which ends valid JSON
	endIdx := strings.LastIndex(response, "}")
	if endIdx == -1 || endIdx < startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// Summarize produces a short plain-text summary of a news item
func (c *Client) Summarize(ctx context.Context, item models.NewsItem) (string, error) {
	text := item.Content
	if text == "" {
		text = item.Description
	}
	if len(text) > maxSourceChars {
		text = text[:maxSourceChars]
	}

	userPrompt := fmt.Sprintf(SummaryUserPrompt,
		item.Title,
		item.Source,
		item.Link,
		strings.Join(item.Topics, ", "),
		text,
	)

	response, err := c.CompleteWithJSON(ctx, SummarySystemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	var parsed summaryResponse
	if err := json.Unmarshal([]byte(stripMarkdownCodeBlock(response)), &parsed); err != nil {
		c.log.Error().
			Err(err).
			Str("response", response).
			Msg("Failed to parse summary response")
		return "", fmt.Errorf("failed to parse summary response: %w", err)
	}

	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		return "", fmt.Errorf("empty summary")
	}
	return summary, nil
}
