package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/internal/repository/mongodb"
	repo "github.com/mamadbah2/checksheet/internal/repository/sheets"
)

const summaryDataRange = "Summary!A:I"

// ExportedRow is one previously exported summary line.
type ExportedRow struct {
	ExportedAt time.Time `json:"exportedAt"`
	PONumber   string    `json:"poNumber"`
	ItemCode   string    `json:"itemCode"`
	Category   string    `json:"category"`
	Property   string    `json:"property"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
}

// Service exports checksheet summaries and reads back their history.
// Both backends are optional.
type Service struct {
	sheets      repo.Repository
	evaluations mongodb.Repository
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires a new reporting service instance. sheets and evaluations may be nil.
func NewService(sheets repo.Repository, evaluations mongodb.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sheets: sheets, evaluations: evaluations, logger: logger, now: time.Now}
}

// ExportEnabled reports whether a spreadsheet is configured.
func (s *Service) ExportEnabled() bool { return s.sheets != nil }

// Export appends the summary rows to the spreadsheet and returns how many were written.
func (s *Service) Export(ctx context.Context, sum Summary) (int, error) {
	if s.sheets == nil {
		return 0, apperrors.New(apperrors.KindValidation, "summary export is not configured")
	}

	rows := sum.Rows(s.now())
	if err := s.sheets.AppendRows(ctx, summaryDataRange, rows); err != nil {
		return 0, apperrors.Wrap(apperrors.KindRemoteUnavailable, err, "export summary")
	}

	s.logger.Info("summary exported",
		zap.String("container", sum.ContainerCode),
		zap.String("item_code", sum.ItemCode),
		zap.Int("rows", len(rows)))
	return len(rows), nil
}

// ExportHistory returns exported rows of containerCode, oldest first.
func (s *Service) ExportHistory(ctx context.Context, containerCode string) ([]ExportedRow, error) {
	if s.sheets == nil {
		return nil, apperrors.New(apperrors.KindValidation, "summary export is not configured")
	}

	rows, err := s.sheets.ReadRange(ctx, summaryDataRange)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindRemoteUnavailable, err, "load summary range")
	}

	var out []ExportedRow
	for _, row := range rows {
		if len(row) < 8 || cell(row, 1) != containerCode {
			continue
		}

		exportedAt, err := time.Parse(time.RFC3339, cell(row, 0))
		if err != nil {
			s.logger.Debug("skip summary row with invalid timestamp", zap.Any("value", row[0]), zap.Error(err))
			continue
		}

		out = append(out, ExportedRow{
			ExportedAt: exportedAt,
			PONumber:   cell(row, 2),
			ItemCode:   cell(row, 3),
			Category:   cell(row, 4),
			Property:   cell(row, 5),
			Status:     cell(row, 6),
			Notes:      cell(row, 7),
		})
	}
	return out, nil
}

// Evaluations returns archived finalize attempts of containerCode, newest first.
func (s *Service) Evaluations(ctx context.Context, containerCode string, limit int64) ([]models.EvaluationRecord, error) {
	if s.evaluations == nil {
		return nil, apperrors.New(apperrors.KindValidation, "evaluation archive is not configured")
	}
	records, err := s.evaluations.ListEvaluations(ctx, containerCode, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindRemoteUnavailable, err, "list evaluations")
	}
	return records, nil
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return fmt.Sprint(row[i])
}
