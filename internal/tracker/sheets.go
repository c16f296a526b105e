package tracker

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/wikinews-agent/internal/config"
	"github.com/wikinews-agent/pkg/logger"
)

// SheetColumns defines the column headers for the publication log sheet
var SheetColumns = []string{
	"Item ID",
	"Title",
	"Source",
	"Topic",
	"Space",
	"Content ID",
	"URL",
	"Published At",
	"Tracked At",
}

// Publication is one page created by the agent
type Publication struct {
	ItemID      string
	Title       string
	Source      string
	Topic       string
	Space       string
	ContentID   string
	URL         string
	PublishedAt time.Time // Item publication date from the feed
	TrackedAt   time.Time
}

// SheetsTracker appends published pages to a Google Sheet
type SheetsTracker struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
}

// NewSheetsTracker creates a new Google Sheets tracker. It returns nil when
// tracking is disabled.
func NewSheetsTracker(cfg config.TrackerConfig, log *logger.Logger, opts ...option.ClientOption) (*SheetsTracker, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	ctx := context.Background()

	// Service account JSON first (for env var injection)
	switch {
	case cfg.ServiceAccountJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case len(opts) == 0:
		return nil, fmt.Errorf("no Google credentials provided: set credentials_file or service_account_json")
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Publications"
	}

	return &SheetsTracker{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		log:           log.WithComponent("sheets-tracker"),
	}, nil
}

// InitializeSheet creates the sheet and headers if they don't exist
func (t *SheetsTracker) InitializeSheet(ctx context.Context) error {
	if err := t.ensureSheetExists(ctx); err != nil {
		return err
	}

	readRange := fmt.Sprintf("%s!A1:I1", t.sheetName)
	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(resp.Values) == 0 {
		t.log.Info().Msg("Initializing sheet with headers")
		return t.writeHeaders(ctx)
	}

	t.log.Debug().Msg("Sheet already has headers")
	return nil
}

// ensureSheetExists creates the sheet if it doesn't exist
func (t *SheetsTracker) ensureSheetExists(ctx context.Context) error {
	spreadsheet, err := t.service.Spreadsheets.Get(t.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == t.sheetName {
			t.log.Debug().Str("sheet", t.sheetName).Msg("Sheet already exists")
			return nil
		}
	}

	t.log.Info().Str("sheet", t.sheetName).Msg("Creating new sheet")
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: t.sheetName,
					},
				},
			},
		},
	}

	_, err = t.service.Spreadsheets.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	return nil
}

// writeHeaders writes column headers to the first row
func (t *SheetsTracker) writeHeaders(ctx context.Context) error {
	var headerRow []interface{}
	for _, col := range SheetColumns {
		headerRow = append(headerRow, col)
	}

	writeRange := fmt.Sprintf("%s!A1", t.sheetName)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{headerRow},
	}

	_, err := t.service.Spreadsheets.Values.Update(t.spreadsheetID, writeRange, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	t.log.Info().Msg("Sheet headers initialized")
	return nil
}

// TrackPublication appends a row for a newly created page
func (t *SheetsTracker) TrackPublication(ctx context.Context, p Publication) error {
	if p.TrackedAt.IsZero() {
		p.TrackedAt = time.Now()
	}

	row := []interface{}{
		p.ItemID,
		p.Title,
		p.Source,
		p.Topic,
		p.Space,
		p.ContentID,
		p.URL,
		formatTime(p.PublishedAt),
		formatTime(p.TrackedAt),
	}

	appendRange := fmt.Sprintf("%s!A:I", t.sheetName)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := t.service.Spreadsheets.Values.Append(t.spreadsheetID, appendRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	t.log.Debug().
		Str("item_id", p.ItemID).
		Str("content_id", p.ContentID).
		Msg("Tracked publication")

	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
