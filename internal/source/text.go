package source

import (
	"html"
	"strings"
)

// cleanText removes HTML tags and extra whitespace
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "<br>", " ")
	text = strings.ReplaceAll(text, "<br/>", " ")
	text = strings.ReplaceAll(text, "<br />", " ")
	text = strings.ReplaceAll(text, "</p>", " ")
	text = strings.ReplaceAll(text, "<p>", "")

	// Remove remaining HTML tags
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
		} else if r == '>' {
			inTag = false
		} else if !inTag {
			result.WriteRune(r)
		}
	}

	text = html.UnescapeString(result.String())
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimSpace(text)
}
