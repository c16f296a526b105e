package sheets

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/wikinews-agent/internal/storage"
	"github.com/wikinews-agent/pkg/logger"
)

const (
	defaultSheetName = "Store"

	// Google Sheets rejects cells with more characters than this
	maxCellLength = 50000
)

var headers = []string{"Key", "Value", "Updated At"}

// Config holds configuration for the Sheets store
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	CredentialsFile    string
}

// Store implements storage.Store with one row per key in a Google Sheet
type Store struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
	mu            sync.Mutex
}

var _ storage.Store = (*Store)(nil)

// New creates a new Sheets store. Extra client options are applied after
// the credentials.
func New(cfg Config, log *logger.Logger, opts ...option.ClientOption) (*Store, error) {
	ctx := context.Background()

	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}

	switch {
	case cfg.ServiceAccountJSON != "":
		opts = append([]option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}, opts...)
	case cfg.CredentialsFile != "":
		opts = append([]option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, opts...)
	case len(opts) == 0:
		return nil, fmt.Errorf("no Google credentials provided")
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	return &Store{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		log:           log.WithComponent("sheets-store"),
	}, nil
}

// Migrate creates the sheet and its header row if they don't exist
func (s *Store) Migrate() error {
	ctx := context.Background()

	if err := s.ensureSheetExists(ctx); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", s.sheetName, err)
	}

	s.log.Info().Str("sheet", s.sheetName).Msg("Sheets store migrated successfully")
	return nil
}

// Close is a no-op for Sheets
func (s *Store) Close() error {
	return nil
}

// Get finds the row for key and decodes its value into dest
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return false, err
	}

	for _, row := range rows {
		if cell(row, 0) != key {
			continue
		}
		if err := storage.Decode(key, []byte(cell(row, 1)), dest); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Set updates the row for key in place, or appends one
func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := storage.Encode(key, value)
	if err != nil {
		return err
	}
	if n := utf8.RuneCount(data); n > maxCellLength {
		return fmt.Errorf("value for %s is %d characters, sheet cells hold at most %d", key, n, maxCellLength)
	}

	row := []interface{}{key, string(data), time.Now().UTC().Format(time.RFC3339)}

	// Serialize find-then-write so concurrent Sets never append the same key twice
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ctx)
	if err != nil {
		return err
	}

	for i, existing := range rows {
		if cell(existing, 0) == key {
			// Data starts on row 2
			return s.updateRow(ctx, i+2, row)
		}
	}
	return s.appendRow(ctx, row)
}

func (s *Store) ensureSheetExists(ctx context.Context) error {
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	sheetExists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == s.sheetName {
			sheetExists = true
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", s.sheetName).Msg("Creating new sheet")
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{
					AddSheet: &sheets.AddSheetRequest{
						Properties: &sheets.SheetProperties{
							Title: s.sheetName,
						},
					},
				},
			},
		}
		_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	readRange := fmt.Sprintf("%s!A1:C1", s.sheetName)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(resp.Values) == 0 {
		var headerRow []interface{}
		for _, h := range headers {
			headerRow = append(headerRow, h)
		}
		if err := s.updateRow(ctx, 1, headerRow); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
		s.log.Info().Str("sheet", s.sheetName).Msg("Headers initialized")
	}

	return nil
}

func (s *Store) readRows(ctx context.Context) ([][]interface{}, error) {
	readRange := fmt.Sprintf("%s!A2:C", s.sheetName)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.sheetName, err)
	}
	return resp.Values, nil
}

func (s *Store) appendRow(ctx context.Context, row []interface{}) error {
	appendRange := fmt.Sprintf("%s!A:C", s.sheetName)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, appendRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

func (s *Store) updateRow(ctx context.Context, rowNum int, row []interface{}) error {
	updateRange := fmt.Sprintf("%s!A%d:C%d", s.sheetName, rowNum, rowNum)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, updateRange, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}
	return nil
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	if s, ok := row[idx].(string); ok {
		return s
	}
	return fmt.Sprintf("%v", row[idx])
}
