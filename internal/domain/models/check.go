package models

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mamadbah2/checksheet/internal/apperrors"
)

// CheckStatus is the outcome recorded for a property.
type CheckStatus string

const (
	StatusPass CheckStatus = "Pass"
	StatusFail CheckStatus = "Fail"
	StatusNone CheckStatus = ""
)

// ItemPropertyCheck is one recorded property check. ID is zero until the
// store has assigned one.
type ItemPropertyCheck struct {
	ID                  int         `json:"id"`
	UserID              int         `json:"userId" validate:"gt=0"`
	PropertyID          int         `json:"propertyId" validate:"gt=0"`
	ItemCode            string      `json:"itemCode" validate:"required"`
	ContainerCode       string      `json:"containerCode" validate:"required"`
	Status              CheckStatus `json:"status" validate:"omitempty,oneof=Pass Fail"`
	Notes               string      `json:"notes"`
	DateChecked         time.Time   `json:"dateChecked"`
	PurchaseOrderNumber FlexString  `json:"purchaseOrderNumber" validate:"required"`
}

// Scope identifies the item a set of checks belongs to for one user.
type Scope struct {
	UserID        int
	ContainerCode string
	PONumber      string
	ItemCode      string
}

// Scope returns the lookup scope of the check.
func (c ItemPropertyCheck) Scope() Scope {
	return Scope{
		UserID:        c.UserID,
		ContainerCode: c.ContainerCode,
		PONumber:      c.PurchaseOrderNumber.String(),
		ItemCode:      c.ItemCode,
	}
}

// ForItem derives the same check for another item, keeping status, notes and date.
func (c ItemPropertyCheck) ForItem(item Item) ItemPropertyCheck {
	out := c
	out.ID = 0
	out.ItemCode = item.ItemCode
	out.PurchaseOrderNumber = item.PurchaseOrderNumber
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural invariants before the check is written.
func (c ItemPropertyCheck) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err, "invalid property check")
	}
	return nil
}

// FindByProperty returns the first check recorded for propertyID.
func FindByProperty(checks []ItemPropertyCheck, propertyID int) (ItemPropertyCheck, bool) {
	for _, c := range checks {
		if c.PropertyID == propertyID {
			return c, true
		}
	}
	return ItemPropertyCheck{}, false
}

// LatestChecks keeps the most recent check per property, newest first.
func LatestChecks(checks []ItemPropertyCheck) []ItemPropertyCheck {
	sorted := append([]ItemPropertyCheck(nil), checks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateChecked.After(sorted[j].DateChecked)
	})

	seen := make(map[int]struct{}, len(sorted))
	out := make([]ItemPropertyCheck, 0, len(sorted))
	for _, c := range sorted {
		if _, ok := seen[c.PropertyID]; ok {
			continue
		}
		seen[c.PropertyID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// CountStatused counts checks that carry a Pass or Fail status.
func CountStatused(checks []ItemPropertyCheck) int {
	n := 0
	for _, c := range checks {
		if c.Status != StatusNone {
			n++
		}
	}
	return n
}
