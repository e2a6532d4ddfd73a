package models

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/mamadbah2/checksheet/internal/apperrors"
)

// Property categories that share checks between sibling item codes.
const (
	CategoryCaseDimensions = "case dimensions"
	CategoryBoxDimensions  = "box dimensions"
)

// PropertyType drives how a property is entered and validated.
type PropertyType string

const (
	PropertyText         PropertyType = "text"
	PropertyDimension    PropertyType = "dimension"
	PropertyDateCode     PropertyType = "dateCode"
	PropertySelect       PropertyType = "select"
	PropertyPackingOrder PropertyType = "packingOrder"

	// Free-text properties prefilled from the scanned item.
	PropertyColorName   PropertyType = "colorName"
	PropertyDescription PropertyType = "description"
	PropertyFactory     PropertyType = "factory"
	PropertyItemCode    PropertyType = "itemCode"
	PropertyUPCCode     PropertyType = "upcCode"
)

var dimensionNames = map[string]struct{}{
	"case length": {}, "case width": {}, "case height": {}, "case weight": {},
	"box length": {}, "box width": {}, "box height": {}, "box weight": {},
}

// Option is one choice of a single-select property.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PropertyRecord is the stored shape of a property; options are JSON text.
type PropertyRecord struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Options  string `json:"options"`
}

// Property is a catalog entry with its options already parsed.
type Property struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Type     PropertyType `json:"type"`
	Options  []Option     `json:"options,omitempty"`
}

// SharesAcrossSiblings reports whether checks on this property propagate to sibling codes.
func (p Property) SharesAcrossSiblings() bool {
	return IsSiblingCategory(p.Category)
}

// IsSiblingCategory reports whether category is case or box dimensions.
func IsSiblingCategory(category string) bool {
	return category == CategoryCaseDimensions || category == CategoryBoxDimensions
}

// IsDimension reports whether the property takes a numeric measurement.
func (p Property) IsDimension() bool {
	if p.Type == PropertyDimension {
		return true
	}
	_, ok := dimensionNames[strings.ToLower(strings.TrimSpace(p.Name))]
	return ok
}

// HasOption reports whether value is one of the select options.
func (p Property) HasOption(value string) bool {
	for _, opt := range p.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Prefill returns the default entry for this property derived from the item.
func (p Property) Prefill(item Item) string {
	switch p.Type {
	case PropertyColorName:
		return item.ColorName
	case PropertyDescription:
		head, _, _ := strings.Cut(item.Description, " - ")
		return head
	case PropertyFactory:
		return item.FactoryCode
	case PropertyItemCode:
		if item.ItemCode == "" {
			return ""
		}
		return item.ItemCode[len(item.ItemCode)-1:]
	case PropertyUPCCode:
		return item.UPCCode
	default:
		return ""
	}
}

// ParseProperty converts a stored record into a typed property.
func ParseProperty(rec PropertyRecord) (Property, error) {
	prop := Property{
		ID:       rec.ID,
		Name:     rec.Name,
		Category: rec.Category,
		Type:     PropertyType(rec.Type),
	}
	if prop.Type == "" {
		prop.Type = PropertyText
	}
	if prop.Type != PropertySelect {
		return prop, nil
	}

	raw := strings.TrimSpace(rec.Options)
	if raw == "" {
		return Property{}, apperrors.Newf(apperrors.KindValidation, "property %q is a select without options", rec.Name)
	}
	if err := json.Unmarshal([]byte(raw), &prop.Options); err != nil {
		return Property{}, apperrors.Wrap(apperrors.KindValidation, err, "parse options of property "+rec.Name)
	}
	if len(prop.Options) == 0 {
		return Property{}, apperrors.Newf(apperrors.KindValidation, "property %q is a select without options", rec.Name)
	}
	return prop, nil
}

// ParseCatalog parses every record, failing on the first invalid one.
func ParseCatalog(records []PropertyRecord) ([]Property, error) {
	out := make([]Property, 0, len(records))
	for _, rec := range records {
		prop, err := ParseProperty(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, prop)
	}
	return out, nil
}

// OrderForEntry returns a copy with case-dimension properties first, otherwise catalog order.
func OrderForEntry(props []Property) []Property {
	out := append([]Property(nil), props...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Category == CategoryCaseDimensions && out[j].Category != CategoryCaseDimensions
	})
	return out
}

// FindProperty looks a property up by id.
func FindProperty(props []Property, id int) (Property, bool) {
	for _, p := range props {
		if p.ID == id {
			return p, true
		}
	}
	return Property{}, false
}
