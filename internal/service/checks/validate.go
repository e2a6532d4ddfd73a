package checks

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/domain/models"
)

var dateCodePattern = regexp.MustCompile(`^[A-Z][0-3][0-9][A-Z]$`)

// Entry is what the worker submitted for one property.
type Entry struct {
	Status models.CheckStatus
	Value  string
	// PackingSatisfied is the verifier's gate for packing-order properties.
	PackingSatisfied bool
}

// NormalizeEntry validates entry against the property type and returns the
// notes to store. Typed text is stored upper-cased.
func NormalizeEntry(prop models.Property, entry Entry) (string, error) {
	if entry.Status != models.StatusPass && entry.Status != models.StatusFail {
		return "", apperrors.Newf(apperrors.KindValidation, "status must be Pass or Fail, got %q", entry.Status)
	}

	value := strings.TrimSpace(entry.Value)

	switch {
	case prop.Type == models.PropertyPackingOrder:
		if entry.Status == models.StatusPass && !entry.PackingSatisfied {
			return "", apperrors.New(apperrors.KindValidation, "all items must be checked before passing")
		}
		return strings.ToUpper(value), nil

	case prop.Type == models.PropertySelect:
		if value == "" {
			return "", apperrors.New(apperrors.KindValidation, "please select an option")
		}
		if !prop.HasOption(value) {
			return "", apperrors.Newf(apperrors.KindValidation, "%q is not an option of %s", value, prop.Name)
		}
		return value, nil

	case prop.Type == models.PropertyDateCode:
		value = strings.ToUpper(value)
		if entry.Status == models.StatusPass && !validDateCode(value) {
			return "", apperrors.New(apperrors.KindValidation,
				"invalid date code format: must look like A01B with a day between 01 and 31")
		}
		return value, nil

	case prop.IsDimension():
		if value == "" {
			return "", apperrors.New(apperrors.KindValidation, "please enter a valid number")
		}
		if _, err := decimal.NewFromString(value); err != nil {
			return "", apperrors.Wrap(apperrors.KindValidation, err, "please enter a valid number")
		}
		return value, nil

	default:
		return strings.ToUpper(value), nil
	}
}

func validDateCode(code string) bool {
	if !dateCodePattern.MatchString(code) {
		return false
	}
	day, err := strconv.Atoi(code[1:3])
	return err == nil && day >= 1 && day <= 31
}
