package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/checksheet/internal/config"
)

var errNoRange = errors.New("summary sheet range is required")

// Repository is where finished checksheet summaries are exported and read back.
type Repository interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// SummarySheet stores summary rows in one Google spreadsheet.
type SummarySheet struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewSummarySheet authenticates with the service account in cfg.
// Extra client options are appended after the credentials.
func NewSummarySheet(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*SummarySheet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = append([]option.ClientOption{
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	}, opts...)
	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect summary spreadsheet %s: %w", cfg.SpreadsheetID, err)
	}

	return newSummarySheet(service, cfg.SpreadsheetID, logger), nil
}

func newSummarySheet(service *sheetsapi.Service, spreadsheetID string, logger *zap.Logger) *SummarySheet {
	return &SummarySheet{service: service, spreadsheetID: spreadsheetID, logger: logger}
}

// AppendRows adds one row per inspected property under the existing summaries.
// Values are written as entered so notes such as "08" keep their leading zero.
func (s *SummarySheet) AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return errNoRange
	}
	if len(rows) == 0 {
		return nil
	}

	call := s.service.Spreadsheets.Values.Append(s.spreadsheetID, sheetRange, &sheetsapi.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("export %d summary rows to %s: %w", len(rows), sheetRange, err)
	}

	s.logger.Debug("summary exported", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// ReadRange returns the summary rows previously exported to sheetRange.
func (s *SummarySheet) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, errNoRange
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("load summary history from %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}
