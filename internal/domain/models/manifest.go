package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Size is a shoe size as the store reports it, e.g. "7" or "7.5".
type Size FlexString

func (s *Size) UnmarshalJSON(data []byte) error {
	return (*FlexString)(s).UnmarshalJSON(data)
}

func (s Size) String() string { return string(s) }

// Equal compares sizes numerically when both parse, textually otherwise.
func (s Size) Equal(other Size) bool {
	a, errA := decimal.NewFromString(strings.TrimSpace(string(s)))
	b, errB := decimal.NewFromString(strings.TrimSpace(string(other)))
	if errA == nil && errB == nil {
		return a.Equal(b)
	}
	return strings.EqualFold(strings.TrimSpace(string(s)), strings.TrimSpace(string(other)))
}

// SizeEntry is one (size, quantity) pair of a size run.
type SizeEntry struct {
	Size     Size    `json:"size"`
	Quantity FlexInt `json:"quantity"`
}

// SizeManifest is the ordered size run expected in one carton.
type SizeManifest struct {
	SizeRun string      `json:"sizeRun,omitempty"`
	Sizes   []SizeEntry `json:"sizes"`
}

// QuantityFor returns the required quantity of the first entry matching size.
func (m SizeManifest) QuantityFor(size Size) (int, bool) {
	for _, e := range m.Sizes {
		if e.Size.Equal(size) {
			return int(e.Quantity), true
		}
	}
	return 0, false
}

// Shoe is the store's description of a single UPC.
type Shoe struct {
	UPC      string `json:"upc,omitempty"`
	Size     Size   `json:"size"`
	ItemCode string `json:"itemCode,omitempty"`
}
