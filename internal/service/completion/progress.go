package completion

import (
	"context"
	"fmt"

	"github.com/mamadbah2/checksheet/internal/domain/models"
)

// ItemProgress is how many properties of one item carry a status.
type ItemProgress struct {
	ItemCode string `json:"itemCode"`
	PONumber string `json:"poNumber"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	Current  bool   `json:"current"`
}

// Complete reports whether every property of the item has a status.
func (p ItemProgress) Complete() bool { return p.Total > 0 && p.Done >= p.Total }

// Progress lists per-item status counts for the relevant items of a
// container. current marks the item the worker is on.
func (e *Evaluator) Progress(ctx context.Context, userID int, containerCode string, current models.Item) ([]ItemProgress, error) {
	props, err := e.store.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	items, err := e.relevantItems(ctx, containerCode)
	if err != nil {
		return nil, err
	}

	out := make([]ItemProgress, 0, len(items))
	for _, item := range items {
		checks, err := e.store.ListChecks(ctx, models.Scope{
			UserID:        userID,
			ContainerCode: containerCode,
			PONumber:      item.PONumber(),
			ItemCode:      item.ItemCode,
		})
		if err != nil {
			return nil, fmt.Errorf("list checks for %s: %w", item.ItemCode, err)
		}
		out = append(out, ItemProgress{
			ItemCode: item.ItemCode,
			PONumber: item.PONumber(),
			Done:     models.CountStatused(checks),
			Total:    len(props),
			Current:  item.ItemCode == current.ItemCode && item.PONumber() == current.PONumber(),
		})
	}
	return out, nil
}
