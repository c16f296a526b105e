package source

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Fetcher retrieves and parses a remote RSS/Atom document
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*gofeed.Feed, error)
}

// GenerateItemID derives the stable item identifier from the feed name, the
// item link and the raw item title.
func GenerateItemID(source, link, title string) string {
	data := fmt.Sprintf("%s|%s|%s", source, link, title)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)[:16]
}
