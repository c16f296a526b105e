package confluence

import (
	"html/template"
	"strings"

	"github.com/wikinews-agent/internal/models"
)

var pageTemplate = template.Must(template.New("page").Parse(`<h2>Summary</h2>
<p>{{.Summary}}</p>

<h2>Details</h2>
<table>
  <tr>
    <th>Source</th>
    <td>{{.Source}}</td>
  </tr>
  <tr>
    <th>Published</th>
    <td>{{.Published}}</td>
  </tr>
  <tr>
    <th>Link</th>
    <td><a href="{{.Link}}">{{.Link}}</a></td>
  </tr>
  <tr>
    <th>Topics</th>
    <td>{{.Topics}}</td>
  </tr>
</table>
{{if .Content}}
<h2>Full Content</h2><div>{{.Content}}</div>
{{end}}
<hr/>
<p><em>Automatically aggregated by AI News Aggregator</em></p>`))

type pageData struct {
	Summary   string
	Source    string
	Published string
	Link      string
	Topics    string
	Content   template.HTML
}

// RenderPage renders a news item as a storage-format page body. A non-empty
// summary replaces the item description. The item content is embedded as-is.
func RenderPage(item models.NewsItem, summary string) (string, error) {
	if summary == "" {
		summary = item.Description
	}
	if summary == "" {
		summary = "No description available."
	}

	topics := strings.Join(item.Topics, ", ")
	if topics == "" {
		topics = "N/A"
	}

	data := pageData{
		Summary:   summary,
		Source:    item.Source,
		Published: item.PubDate.Format("January 2, 2006"),
		Link:      item.Link,
		Topics:    topics,
		Content:   template.HTML(item.Content),
	}

	var b strings.Builder
	if err := pageTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
