package checks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/internal/service/siblings"
)

// Outcome reports what a recorded check was written to.
type Outcome struct {
	// Check is the stored record for the originating item.
	Check   models.ItemPropertyCheck   `json:"check"`
	Written []models.ItemPropertyCheck `json:"written"`
	Failed  []models.MissingItem       `json:"failed,omitempty"`
}

// Engine writes a check to its item and, for dimension properties, to every
// sibling item code in the same container.
type Engine struct {
	repo   Repository
	items  ItemSource
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine wires a propagation engine.
func NewEngine(repo Repository, items ItemSource, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, items: items, logger: logger, now: time.Now}
}

// Record stores check for its own scope and fans it out to siblings when
// property is a case or box dimension. Items carrying the same code under
// another purchase order count as siblings. Writes are create-or-update keyed
// by property id, so repeated calls never duplicate a record.
func (e *Engine) Record(ctx context.Context, check models.ItemPropertyCheck, property models.Property) (Outcome, error) {
	check.DateChecked = e.now().UTC()

	if !siblings.Applies(property.Category) {
		return e.recordSingle(ctx, check)
	}

	pool, err := e.items.ListItemsByContainer(ctx, check.ContainerCode)
	if err != nil {
		return Outcome{}, fmt.Errorf("load container items: %w", err)
	}

	group := targets(check, siblings.Group(check.ItemCode, pool))
	if len(group) <= 1 {
		return e.recordSingle(ctx, check)
	}

	codes := make([]string, 0, len(group))
	for _, item := range group {
		codes = append(codes, item.ItemCode)
	}
	e.logger.Debug("propagating check",
		zap.String("item_code", check.ItemCode),
		zap.Strings("sibling_codes", siblings.FindSiblings(check.ItemCode, codes)),
		zap.Int("targets", len(group)))
	return e.fanOut(ctx, check, group)
}

func (e *Engine) recordSingle(ctx context.Context, check models.ItemPropertyCheck) (Outcome, error) {
	stored, err := e.createOrUpdate(ctx, check)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Check: stored, Written: []models.ItemPropertyCheck{stored}}, nil
}

// fanOut writes one derived check per target, sequentially and in order.
// A sibling failure is logged and skipped; only the originating item's
// failure is returned.
func (e *Engine) fanOut(ctx context.Context, check models.ItemPropertyCheck, group []models.Item) (Outcome, error) {
	var (
		out       Outcome
		originErr error
		origin    bool
	)

	for _, item := range group {
		isOrigin := item.ItemCode == check.ItemCode && item.PONumber() == check.PurchaseOrderNumber.String()
		derived := check.ForItem(item)

		stored, err := e.createOrUpdate(ctx, derived)
		if err != nil {
			if isOrigin && !origin {
				originErr = err
				origin = true
				continue
			}
			e.logger.Warn("sibling check write failed",
				zap.String("item_code", item.ItemCode),
				zap.String("po", item.PONumber()),
				zap.Int("property_id", check.PropertyID),
				zap.Error(err))
			out.Failed = append(out.Failed, models.MissingItem{ItemCode: item.ItemCode, PONumber: item.PONumber()})
			continue
		}

		if isOrigin && !origin {
			out.Check = stored
			origin = true
		}
		out.Written = append(out.Written, stored)
	}

	if originErr != nil {
		return out, fmt.Errorf("record check for %s: %w", check.ItemCode, originErr)
	}
	if out.Check.ID == 0 {
		return out, apperrors.Newf(apperrors.KindInternal, "no id resolved for %s", check.ItemCode)
	}
	return out, nil
}

// createOrUpdate reads the item's checks and updates the record for the
// property when present, else creates one.
func (e *Engine) createOrUpdate(ctx context.Context, check models.ItemPropertyCheck) (models.ItemPropertyCheck, error) {
	existing, err := e.repo.ListChecks(ctx, check.Scope())
	if err != nil {
		return models.ItemPropertyCheck{}, fmt.Errorf("fetch existing checks: %w", err)
	}

	if prev, ok := models.FindByProperty(existing, check.PropertyID); ok {
		check.ID = prev.ID
		stored, err := e.repo.UpdateCheck(ctx, check)
		if err != nil {
			return models.ItemPropertyCheck{}, fmt.Errorf("update check %d: %w", check.ID, err)
		}
		return stored, nil
	}

	check.ID = 0
	stored, err := e.repo.CreateCheck(ctx, check)
	if err != nil {
		return models.ItemPropertyCheck{}, fmt.Errorf("create check: %w", err)
	}
	return stored, nil
}

// targets puts the originating item first when the pool does not carry it.
func targets(check models.ItemPropertyCheck, group []models.Item) []models.Item {
	for _, item := range group {
		if item.ItemCode == check.ItemCode && item.PONumber() == check.PurchaseOrderNumber.String() {
			return group
		}
	}
	self := models.Item{ItemCode: check.ItemCode, PurchaseOrderNumber: check.PurchaseOrderNumber, TrackingNumber: check.ContainerCode}
	return append([]models.Item{self}, group...)
}
