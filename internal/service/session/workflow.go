package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/internal/service/checks"
	"github.com/mamadbah2/checksheet/internal/service/completion"
	"github.com/mamadbah2/checksheet/internal/service/packing"
	"github.com/mamadbah2/checksheet/internal/service/reporting"
	"github.com/mamadbah2/checksheet/pkg/clients/checksheets"
	"github.com/mamadbah2/checksheet/pkg/metrics"
)

var (
	errNoItem    = apperrors.New(apperrors.KindValidation, "scan an item first")
	errNoPacking = apperrors.New(apperrors.KindValidation, "packing order check has not been started")
)

// Resolution is the outcome of scanning a carton label.
type Resolution struct {
	Scan       models.QRPayload   `json:"scan"`
	Containers []models.Container `json:"containers"`
	Container  string             `json:"container"`
	Item       models.Item        `json:"item"`
}

// PropertyEntry is a property with the value the entry form starts from.
type PropertyEntry struct {
	models.Property
	Value  string             `json:"value"`
	Status models.CheckStatus `json:"status"`
}

// CheckInput is a worker's entry for one property.
type CheckInput struct {
	PropertyID int                `json:"propertyId" binding:"required,gt=0"`
	Status     models.CheckStatus `json:"status" binding:"required,oneof=Pass Fail"`
	Notes      string             `json:"notes"`
}

// Rejection is a packing scan that was refused.
type Rejection struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
}

// KeysResult is the outcome of feeding a batch of keystrokes.
type KeysResult struct {
	Accepted []packing.ScanRecord `json:"accepted"`
	Rejected []Rejection          `json:"rejected"`
	Snapshot packing.Snapshot     `json:"snapshot"`
}

// Workflow drives a worker session through scan, check entry, packing
// verification and finalization. Operations on one session are serialized.
type Workflow struct {
	store      checksheets.Client
	sessions   *Manager
	checks     *checks.Service
	evaluator  *completion.Evaluator
	reports    *reporting.Service
	terminator rune
	metrics    *metrics.InspectionMetrics
	logger     *zap.Logger
}

// NewWorkflow wires the session workflow.
func NewWorkflow(
	store checksheets.Client,
	sessions *Manager,
	checkService *checks.Service,
	evaluator *completion.Evaluator,
	reports *reporting.Service,
	terminator rune,
	logger *zap.Logger,
) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		store:      store,
		sessions:   sessions,
		checks:     checkService,
		evaluator:  evaluator,
		reports:    reports,
		terminator: terminator,
		logger:     logger,
	}
}

// WithMetrics records workflow outcomes on m.
func (w *Workflow) WithMetrics(m *metrics.InspectionMetrics) *Workflow {
	w.metrics = m
	return w
}

// Users lists the workers that may open a session.
func (w *Workflow) Users(ctx context.Context) ([]models.User, error) {
	return w.store.ListUsers(ctx)
}

// Start opens a session for userID.
func (w *Workflow) Start(ctx context.Context, userID int) (View, error) {
	user, err := w.store.GetUser(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	s := w.sessions.Create(user)
	w.logger.Info("session started", zap.String("session_id", s.ID), zap.Int("user_id", user.ID))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(), nil
}

// End closes a session.
func (w *Workflow) End(id string) error {
	if !w.sessions.Delete(id) {
		return apperrors.Newf(apperrors.KindNotFound, "session %s", id)
	}
	w.logger.Info("session ended", zap.String("session_id", id))
	return nil
}

// View returns the current state of a session.
func (w *Workflow) View(id string) (View, error) {
	var view View
	err := w.with(id, func(s *Session) error {
		view = s.viewLocked()
		return nil
	})
	return view, err
}

// Scan resolves a carton label to its container and item. Containers of the
// purchase order are searched in order and the first match is selected.
func (w *Workflow) Scan(ctx context.Context, id, payload string) (Resolution, error) {
	var res Resolution
	err := w.with(id, func(s *Session) error {
		scan, err := models.ParseQRPayload(payload)
		if err != nil {
			return err
		}

		containers, err := w.store.ListContainersByPO(ctx, scan.PurchaseOrder)
		if err != nil {
			return fmt.Errorf("list containers of po %s: %w", scan.PurchaseOrder, err)
		}

		matches := make(map[string]models.Item)
		var found []models.Container
		for _, c := range containers {
			items, err := w.store.ListItemsByContainer(ctx, c.TrackingNumber)
			if err != nil {
				return fmt.Errorf("list items of container %s: %w", c.TrackingNumber, err)
			}
			for _, item := range items {
				if item.ItemCode == scan.ItemCode && item.PONumber() == scan.PurchaseOrder {
					matches[c.TrackingNumber] = item
					found = append(found, c)
					break
				}
			}
		}
		if len(found) == 0 {
			return apperrors.Newf(apperrors.KindNotFound, "item %s of po %s is not on any container", scan.ItemCode, scan.PurchaseOrder)
		}

		props, err := w.store.ListProperties(ctx)
		if err != nil {
			return fmt.Errorf("list properties: %w", err)
		}

		s.clearScanLocked()
		s.Scan = &scan
		s.Containers = found
		s.matches = matches
		s.Properties = models.OrderForEntry(props)
		s.selectLocked(found[0].TrackingNumber)

		res = Resolution{Scan: scan, Containers: found, Container: s.Container, Item: *s.Item}
		w.logger.Info("label resolved",
			zap.String("session_id", s.ID),
			zap.String("item_code", scan.ItemCode),
			zap.String("po", scan.PurchaseOrder),
			zap.Int("containers", len(found)))
		return nil
	})
	return res, err
}

// SelectContainer switches to another container holding the scanned item.
func (w *Workflow) SelectContainer(id, trackingNumber string) (View, error) {
	var view View
	err := w.with(id, func(s *Session) error {
		if s.Item == nil {
			return errNoItem
		}
		if _, ok := s.matches[trackingNumber]; !ok {
			return apperrors.Newf(apperrors.KindNotFound, "container %s does not hold the scanned item", trackingNumber)
		}
		if trackingNumber != s.Container {
			s.selectLocked(trackingNumber)
		}
		view = s.viewLocked()
		return nil
	})
	return view, err
}

func (s *Session) selectLocked(trackingNumber string) {
	item := s.matches[trackingNumber]
	s.Container = trackingNumber
	s.Item = &item
	s.Packing = nil
}

// Properties lists the catalog in entry order. Notes of an existing check
// take precedence over the value derived from the item.
func (w *Workflow) Properties(ctx context.Context, id string) ([]PropertyEntry, error) {
	var out []PropertyEntry
	err := w.with(id, func(s *Session) error {
		if s.Item == nil {
			return errNoItem
		}
		latest, err := w.checks.Latest(ctx, subjectOf(s))
		if err != nil {
			return err
		}

		out = make([]PropertyEntry, 0, len(s.Properties))
		for _, prop := range s.Properties {
			entry := PropertyEntry{Property: prop, Value: prop.Prefill(*s.Item)}
			if check, ok := models.FindByProperty(latest, prop.ID); ok {
				entry.Status = check.Status
				if check.Notes != "" {
					entry.Value = check.Notes
				}
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

// SaveCheck validates and records one property check, propagating it to
// sibling items where the property category calls for it.
func (w *Workflow) SaveCheck(ctx context.Context, id string, in CheckInput) (checks.Outcome, error) {
	var out checks.Outcome
	err := w.with(id, func(s *Session) error {
		if s.Item == nil {
			return errNoItem
		}
		prop, ok := models.FindProperty(s.Properties, in.PropertyID)
		if !ok {
			return apperrors.Newf(apperrors.KindNotFound, "property %d", in.PropertyID)
		}

		entry := checks.Entry{
			Status:           in.Status,
			Value:            in.Notes,
			PackingSatisfied: s.Packing != nil && s.Packing.AllSatisfied(),
		}
		var err error
		out, err = w.checks.Save(ctx, subjectOf(s), prop, entry)
		if err == nil {
			w.metrics.CheckRecorded(string(in.Status), len(out.Failed))
		}
		return err
	})
	return out, err
}

// Summary returns the latest-check summary of the current item.
func (w *Workflow) Summary(ctx context.Context, id string) (reporting.Summary, error) {
	var sum reporting.Summary
	err := w.with(id, func(s *Session) error {
		var err error
		sum, err = w.summaryLocked(ctx, s)
		return err
	})
	return sum, err
}

func (w *Workflow) summaryLocked(ctx context.Context, s *Session) (reporting.Summary, error) {
	if s.Item == nil {
		return reporting.Summary{}, errNoItem
	}
	latest, err := w.checks.Latest(ctx, subjectOf(s))
	if err != nil {
		return reporting.Summary{}, err
	}
	return reporting.BuildSummary(s.User.ID, s.Container, *s.Item, s.Properties, latest), nil
}

// Export appends the current item's summary to the spreadsheet.
func (w *Workflow) Export(ctx context.Context, id string) (int, error) {
	var n int
	err := w.with(id, func(s *Session) error {
		sum, err := w.summaryLocked(ctx, s)
		if err != nil {
			return err
		}
		n, err = w.reports.Export(ctx, sum)
		return err
	})
	return n, err
}

// Status reports per-item progress across the current container.
func (w *Workflow) Status(ctx context.Context, id string) ([]completion.ItemProgress, error) {
	var out []completion.ItemProgress
	err := w.with(id, func(s *Session) error {
		if s.Item == nil {
			return errNoItem
		}
		var err error
		out, err = w.evaluator.Progress(ctx, s.User.ID, s.Container, *s.Item)
		return err
	})
	return out, err
}

// Finalize evaluates the current container and finalizes it when complete.
func (w *Workflow) Finalize(ctx context.Context, id string) (completion.Result, error) {
	var res completion.Result
	err := w.with(id, func(s *Session) error {
		if s.Container == "" {
			return errNoItem
		}
		var err error
		res, err = w.evaluator.Evaluate(ctx, s.User.ID, s.Container)
		if err == nil {
			w.metrics.Evaluated(string(res.Status))
		}
		return err
	})
	return res, err
}

// StartPacking opens a packing-order verifier for the current item's size run,
// replacing any previous one.
func (w *Workflow) StartPacking(ctx context.Context, id string) (packing.Snapshot, error) {
	var snap packing.Snapshot
	err := w.with(id, func(s *Session) error {
		if s.Item == nil {
			return errNoItem
		}
		v, err := packing.Open(ctx, w.store, w.store, packing.SizeRunFor(s.Item.ItemCode), w.terminator)
		if err != nil {
			return err
		}
		s.Packing = v
		snap = v.Snapshot()
		return nil
	})
	return snap, err
}

// PackingScan matches one UPC against the size manifest.
func (w *Workflow) PackingScan(ctx context.Context, id, upc string) (packing.ScanRecord, packing.Snapshot, error) {
	var (
		rec  packing.ScanRecord
		snap packing.Snapshot
	)
	err := w.withPacking(id, func(v *packing.Verifier) error {
		var err error
		rec, err = v.Scan(ctx, upc)
		w.countScan(err)
		snap = v.Snapshot()
		return err
	})
	return rec, snap, err
}

// PackingKeys feeds raw scanner keystrokes. A refused scan does not stop the
// batch; it is reported and the following keys are still processed.
func (w *Workflow) PackingKeys(ctx context.Context, id, keys string) (KeysResult, error) {
	res := KeysResult{Accepted: []packing.ScanRecord{}, Rejected: []Rejection{}}
	err := w.withPacking(id, func(v *packing.Verifier) error {
		for _, key := range keys {
			rec, ready, err := v.Feed(ctx, key)
			if ready {
				w.countScan(err)
			}
			switch {
			case err != nil:
				res.Rejected = append(res.Rejected, Rejection{Kind: apperrors.KindOf(err), Message: err.Error()})
			case ready:
				res.Accepted = append(res.Accepted, rec)
			}
		}
		res.Snapshot = v.Snapshot()
		return nil
	})
	return res, err
}

// PackingReset clears packing progress, keeping the manifest.
func (w *Workflow) PackingReset(id string) (packing.Snapshot, error) {
	var snap packing.Snapshot
	err := w.withPacking(id, func(v *packing.Verifier) error {
		v.Reset()
		snap = v.Snapshot()
		return nil
	})
	return snap, err
}

// PackingSnapshot returns the packing-order state.
func (w *Workflow) PackingSnapshot(id string) (packing.Snapshot, error) {
	var snap packing.Snapshot
	err := w.withPacking(id, func(v *packing.Verifier) error {
		snap = v.Snapshot()
		return nil
	})
	return snap, err
}

func (w *Workflow) countScan(err error) {
	if err != nil {
		w.metrics.PackingScan(string(apperrors.KindOf(err)))
		return
	}
	w.metrics.PackingScan("accepted")
}

func (w *Workflow) with(id string, fn func(s *Session) error) error {
	s, ok := w.sessions.Get(id)
	if !ok {
		return apperrors.Newf(apperrors.KindNotFound, "session %s", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (w *Workflow) withPacking(id string, fn func(v *packing.Verifier) error) error {
	return w.with(id, func(s *Session) error {
		if s.Packing == nil {
			return errNoPacking
		}
		return fn(s.Packing)
	})
}

func subjectOf(s *Session) checks.Subject {
	return checks.Subject{UserID: s.User.ID, ContainerCode: s.Container, Item: *s.Item}
}
