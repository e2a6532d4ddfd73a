package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/internal/service/siblings"
)

// Status is the outcome of a finalize attempt.
type Status string

const (
	StatusFinalized        Status = "FINALIZED"
	StatusAlreadyFinalized Status = "ALREADY_FINALIZED"
	StatusIncomplete       Status = "INCOMPLETE"
)

// relevantSuffixes are the item code types that carry a checksheet.
var relevantSuffixes = map[string]struct{}{
	"Q": {}, "R": {}, "A": {}, "B": {}, "AW": {}, "BW": {}, "T": {}, "U": {}, "N": {},
}

// IsRelevant reports whether the item's code suffix requires checks.
func IsRelevant(itemCode string) bool {
	_, ok := relevantSuffixes[siblings.Parse(itemCode).Suffix]
	return ok
}

// Store is the slice of the record store the evaluator needs.
type Store interface {
	GetContainerFinalized(ctx context.Context, containerCode string) (bool, error)
	FinalizeContainer(ctx context.Context, containerCode string) error
	ListItemsByContainer(ctx context.Context, trackingNumber string) ([]models.Item, error)
	ListProperties(ctx context.Context) ([]models.Property, error)
	ListChecks(ctx context.Context, scope models.Scope) ([]models.ItemPropertyCheck, error)
}

// Archive keeps a record of each evaluation. Optional.
type Archive interface {
	SaveEvaluation(ctx context.Context, record models.EvaluationRecord) error
}

// Result is the evaluator's verdict for a container.
type Result struct {
	Status   Status               `json:"status"`
	Expected int                  `json:"expected"`
	Actual   int                  `json:"actual"`
	Missing  []models.MissingItem `json:"missing,omitempty"`
}

// Evaluator decides whether a container's checksheet may be finalized.
type Evaluator struct {
	store   Store
	archive Archive
	logger  *zap.Logger
	now     func() time.Time
}

// NewEvaluator wires an evaluator. archive may be nil.
func NewEvaluator(store Store, archive Archive, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{store: store, archive: archive, logger: logger, now: time.Now}
}

// Evaluate finalizes containerCode when every relevant item holds one check
// per catalog property. Completeness is a count comparison: the total number
// of checks across relevant items must equal items x properties.
func (e *Evaluator) Evaluate(ctx context.Context, userID int, containerCode string) (Result, error) {
	done, err := e.store.GetContainerFinalized(ctx, containerCode)
	if err != nil {
		return Result{}, fmt.Errorf("get container status: %w", err)
	}
	if done {
		e.logger.Info("container already finalized", zap.String("container", containerCode))
		return Result{Status: StatusAlreadyFinalized}, nil
	}

	props, err := e.store.ListProperties(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list properties: %w", err)
	}
	items, err := e.relevantItems(ctx, containerCode)
	if err != nil {
		return Result{}, err
	}

	total := len(props)
	res := Result{Expected: len(items) * total}

	for _, item := range items {
		checks, err := e.store.ListChecks(ctx, models.Scope{
			UserID:        userID,
			ContainerCode: containerCode,
			PONumber:      item.PONumber(),
			ItemCode:      item.ItemCode,
		})
		if err != nil {
			return Result{}, fmt.Errorf("list checks for %s: %w", item.ItemCode, err)
		}
		res.Actual += len(checks)
		if len(checks) < total {
			res.Missing = append(res.Missing, models.MissingItem{ItemCode: item.ItemCode, PONumber: item.PONumber()})
		}
	}

	if res.Actual == res.Expected {
		if err := e.store.FinalizeContainer(ctx, containerCode); err != nil {
			return Result{}, fmt.Errorf("finalize container: %w", err)
		}
		res.Status = StatusFinalized
	} else {
		res.Status = StatusIncomplete
	}

	e.logger.Info("container evaluated",
		zap.String("container", containerCode),
		zap.String("status", string(res.Status)),
		zap.Int("expected", res.Expected),
		zap.Int("actual", res.Actual),
		zap.Int("missing", len(res.Missing)))
	e.archiveResult(ctx, userID, containerCode, res)
	return res, nil
}

func (e *Evaluator) relevantItems(ctx context.Context, containerCode string) ([]models.Item, error) {
	items, err := e.store.ListItemsByContainer(ctx, containerCode)
	if err != nil {
		return nil, fmt.Errorf("list container items: %w", err)
	}
	out := items[:0:0]
	for _, item := range items {
		if IsRelevant(item.ItemCode) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (e *Evaluator) archiveResult(ctx context.Context, userID int, containerCode string, res Result) {
	if e.archive == nil {
		return
	}
	record := models.EvaluationRecord{
		ContainerCode: containerCode,
		UserID:        userID,
		Status:        string(res.Status),
		Expected:      res.Expected,
		Actual:        res.Actual,
		Missing:       res.Missing,
		EvaluatedAt:   e.now().UTC(),
	}
	if err := e.archive.SaveEvaluation(ctx, record); err != nil {
		e.logger.Warn("failed to archive evaluation", zap.String("container", containerCode), zap.Error(err))
	}
}
