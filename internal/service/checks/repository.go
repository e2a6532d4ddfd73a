package checks

import (
	"context"

	"github.com/mamadbah2/checksheet/internal/domain/models"
)

// Repository is the remote check store as seen by the workflow. Every call is
// a fresh remote read or write; nothing is cached.
type Repository interface {
	ListChecks(ctx context.Context, scope models.Scope) ([]models.ItemPropertyCheck, error)
	CreateCheck(ctx context.Context, check models.ItemPropertyCheck) (models.ItemPropertyCheck, error)
	UpdateCheck(ctx context.Context, check models.ItemPropertyCheck) (models.ItemPropertyCheck, error)
}

// ItemSource lists the items loaded into a container.
type ItemSource interface {
	ListItemsByContainer(ctx context.Context, trackingNumber string) ([]models.Item, error)
}
