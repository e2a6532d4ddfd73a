// Package siblings decides which item codes mirror each other's dimension checks.
package siblings

import (
	"strings"

	"github.com/mamadbah2/checksheet/internal/domain/models"
)

// Code is an item code split into its comparable parts.
type Code struct {
	Raw    string
	Base   string
	Suffix string
}

// Parse splits code into base (first two hyphen segments) and suffix (last segment).
func Parse(code string) Code {
	parts := strings.Split(code, "-")
	head := parts
	if len(head) > 2 {
		head = head[:2]
	}
	return Code{
		Raw:    code,
		Base:   strings.Join(head, "-"),
		Suffix: parts[len(parts)-1],
	}
}

// pairingClass maps each paired suffix to its class label.
var pairingClass = map[string]string{
	"Q": "QR", "R": "QR",
	"AW": "AWBW", "BW": "AWBW",
	"A": "AB", "B": "AB",
	"N": "NTU", "T": "NTU", "U": "NTU",
}

// ClassOf returns the pairing class of a suffix.
func ClassOf(suffix string) (string, bool) {
	class, ok := pairingClass[suffix]
	return class, ok
}

// Related reports whether a and b share a base and a pairing class.
// Every paired code is related to itself.
func Related(a, b string) bool {
	ca, cb := Parse(a), Parse(b)
	if ca.Base != cb.Base {
		return false
	}
	classA, okA := ClassOf(ca.Suffix)
	classB, okB := ClassOf(cb.Suffix)
	return okA && okB && classA == classB
}

// FindSiblings returns the distinct codes in pool, other than candidate,
// that are related to candidate. Pool order is preserved.
func FindSiblings(candidate string, pool []string) []string {
	var out []string
	seen := map[string]struct{}{candidate: {}}
	for _, code := range pool {
		if _, dup := seen[code]; dup {
			continue
		}
		if Related(candidate, code) {
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out
}

// Group returns every item in pool related to candidate, including items
// carrying the candidate code itself, in pool order. Repeated entries for the
// same code and purchase order are collapsed.
func Group(candidate string, pool []models.Item) []models.Item {
	var out []models.Item
	seen := make(map[[2]string]struct{})
	for _, item := range pool {
		if !Related(candidate, item.ItemCode) {
			continue
		}
		key := [2]string{item.ItemCode, item.PONumber()}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Applies reports whether sibling propagation is used for a property category.
func Applies(category string) bool {
	return models.IsSiblingCategory(category)
}
