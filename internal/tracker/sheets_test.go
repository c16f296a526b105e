package tracker_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/wikinews-agent/internal/config"
	"github.com/wikinews-agent/internal/tracker"
	"github.com/wikinews-agent/pkg/logger"
)

type fakeSheets struct {
	mu       sync.Mutex
	sheets   []string
	header   [][]interface{}
	appended [][]interface{}
	created  []string
}

func (f *fakeSheets) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.created = append(f.created, rq.AddSheet.Properties.Title)
			f.sheets = append(f.sheets, rq.AddSheet.Properties.Title)
		}
		fmt.Fprint(w, `{}`)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.appended = append(f.appended, vr.Values...)
		fmt.Fprint(w, `{"updates":{"updatedRows":1}}`)
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.header = vr.Values
		fmt.Fprint(w, `{}`)
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		body, _ := json.Marshal(map[string]any{"values": f.header})
		w.Write(body)
	case r.Method == http.MethodGet:
		var sheets []map[string]any
		for _, s := range f.sheets {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": s}})
		}
		body, _ := json.Marshal(map[string]any{"sheets": sheets})
		w.Write(body)
	default:
		http.NotFound(w, r)
	}
}

func newTracker(t *testing.T, f *fakeSheets) *tracker.SheetsTracker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)

	cfg := config.TrackerConfig{Enabled: true, SpreadsheetID: "sheet-1", SheetName: "Publications"}
	tr, err := tracker.NewSheetsTracker(cfg, logger.Nop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	require.NotNil(t, tr)
	return tr
}

func TestDisabledTrackerIsNil(t *testing.T) {
	tr, err := tracker.NewSheetsTracker(config.TrackerConfig{}, logger.Nop())
	require.NoError(t, err)
	require.Nil(t, tr)
}

func TestEnabledTrackerRequiresCredentials(t *testing.T) {
	_, err := tracker.NewSheetsTracker(config.TrackerConfig{Enabled: true, SpreadsheetID: "x"}, logger.Nop())
	require.Error(t, err)
}

func TestInitializeSheet(t *testing.T) {
	f := &fakeSheets{sheets: []string{"Sheet1"}}
	tr := newTracker(t, f)

	require.NoError(t, tr.InitializeSheet(context.Background()))
	require.Equal(t, []string{"Publications"}, f.created)
	require.Len(t, f.header, 1)
	require.Len(t, f.header[0], len(tracker.SheetColumns))
	require.Equal(t, "Item ID", f.header[0][0])

	// Second call finds both the sheet and the headers
	require.NoError(t, tr.InitializeSheet(context.Background()))
	require.Equal(t, []string{"Publications"}, f.created)
}

func TestTrackPublication(t *testing.T) {
	f := &fakeSheets{}
	tr := newTracker(t, f)

	published := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	tracked := time.Date(2025, 5, 2, 9, 30, 0, 0, time.UTC)
	err := tr.TrackPublication(context.Background(), tracker.Publication{
		ItemID:      "abc123",
		Title:       "Rovo Agent GA",
		Source:      "Atlassian Blog",
		Topic:       "Rovo Agent",
		Space:       "AI",
		ContentID:   "100",
		URL:         "https://site/wiki/x/100",
		PublishedAt: published,
		TrackedAt:   tracked,
	})
	require.NoError(t, err)

	require.Len(t, f.appended, 1)
	require.Equal(t, []interface{}{
		"abc123", "Rovo Agent GA", "Atlassian Blog", "Rovo Agent", "AI", "100",
		"https://site/wiki/x/100", "2025-05-01T08:00:00Z", "2025-05-02T09:30:00Z",
	}, f.appended[0])
}
