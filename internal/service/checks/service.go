package checks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/domain/models"
)

// Subject is the item a worker is checking, with who is checking it and where.
type Subject struct {
	UserID        int
	ContainerCode string
	Item          models.Item
}

// Scope returns the check lookup scope of the subject.
func (s Subject) Scope() models.Scope {
	return models.Scope{
		UserID:        s.UserID,
		ContainerCode: s.ContainerCode,
		PONumber:      s.Item.PONumber(),
		ItemCode:      s.Item.ItemCode,
	}
}

// Service is the save pathway: validation, coalescing and propagation.
type Service struct {
	repo   Repository
	engine *Engine
	gate   *Gate
	logger *zap.Logger
}

// NewService wires the save pathway.
func NewService(repo Repository, items ItemSource, window time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		engine: NewEngine(repo, items, logger.Named("propagation")),
		gate:   NewGate(window),
		logger: logger,
	}
}

// Save validates entry and records the resulting check for subject.
func (s *Service) Save(ctx context.Context, subject Subject, prop models.Property, entry Entry) (Outcome, error) {
	notes, err := NormalizeEntry(prop, entry)
	if err != nil {
		return Outcome{}, err
	}

	check := models.ItemPropertyCheck{
		UserID:              subject.UserID,
		PropertyID:          prop.ID,
		ItemCode:            subject.Item.ItemCode,
		ContainerCode:       subject.ContainerCode,
		Status:              entry.Status,
		Notes:               notes,
		PurchaseOrderNumber: subject.Item.PurchaseOrderNumber,
	}
	if err := check.Validate(); err != nil {
		return Outcome{}, err
	}

	scope := fmt.Sprintf("%d|%s|%s|%s|%d",
		check.UserID, check.ContainerCode, check.PurchaseOrderNumber, check.ItemCode, check.PropertyID)
	payload := string(check.Status) + "|" + check.Notes

	// joined callers share this flight, so it must outlive the caller that started it
	flightCtx := context.WithoutCancel(ctx)
	value, err, coalesced := s.gate.Do(scope, payload, func() (any, error) {
		return s.engine.Record(flightCtx, check, prop)
	})
	if err != nil {
		return Outcome{}, err
	}

	outcome, _ := value.(Outcome)
	s.logger.Info("check recorded",
		zap.String("item_code", check.ItemCode),
		zap.String("po", check.PurchaseOrderNumber.String()),
		zap.Int("property_id", check.PropertyID),
		zap.String("status", string(check.Status)),
		zap.Int("written", len(outcome.Written)),
		zap.Int("failed", len(outcome.Failed)),
		zap.Bool("coalesced", coalesced))
	return outcome, nil
}

// Latest returns the most recent check per property for subject.
func (s *Service) Latest(ctx context.Context, subject Subject) ([]models.ItemPropertyCheck, error) {
	checks, err := s.repo.ListChecks(ctx, subject.Scope())
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	return models.LatestChecks(checks), nil
}
