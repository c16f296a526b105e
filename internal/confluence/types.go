package confluence

import "strings"

// Content is the subset of Confluence content metadata the agent uses
type Content struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Space   *Space   `json:"space,omitempty"`
	Version *Version `json:"version,omitempty"`
	Links   Links    `json:"_links"`
}

// Space identifies a Confluence space
type Space struct {
	Key string `json:"key"`
}

// Version is a content version
type Version struct {
	Number int `json:"number"`
}

// Links holds the hypermedia links returned with content
type Links struct {
	WebUI string `json:"webui"`
	Base  string `json:"base,omitempty"`
	Self  string `json:"self,omitempty"`
}

// WebURL resolves the browser URL of the content. baseURL is the site URL
// and is only used when the response carries no base link.
func (c *Content) WebURL(baseURL string) string {
	webui := c.Links.WebUI
	if webui == "" {
		return ""
	}
	if strings.HasPrefix(webui, "http://") || strings.HasPrefix(webui, "https://") {
		return webui
	}

	base := c.Links.Base
	if base == "" {
		base = strings.TrimRight(baseURL, "/") + "/wiki"
	}
	return strings.TrimRight(base, "/") + webui
}

// CreateContentRequest is the body of a create-content call
type CreateContentRequest struct {
	Title     string     `json:"title"`
	Space     Space      `json:"space"`
	Type      string     `json:"type"`
	Body      Body       `json:"body"`
	Ancestors []Ancestor `json:"ancestors,omitempty"`
}

// Body wraps the storage representation of a page
type Body struct {
	Storage Storage `json:"storage"`
}

// Storage is a page body in a given representation
type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// Ancestor references a parent page
type Ancestor struct {
	ID string `json:"id"`
}

// NewPageRequest builds a storage-format page creation request
func NewPageRequest(spaceKey, title, body, parentID string) CreateContentRequest {
	req := CreateContentRequest{
		Title: title,
		Space: Space{Key: spaceKey},
		Type:  "page",
		Body: Body{Storage: Storage{
			Value:          body,
			Representation: "storage",
		}},
	}
	if parentID != "" {
		req.Ancestors = []Ancestor{{ID: parentID}}
	}
	return req
}

type searchResponse struct {
	Results []Content `json:"results"`
	Size    int       `json:"size"`
}
