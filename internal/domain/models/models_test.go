package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/checksheet/internal/apperrors"
)

func encodeQR(text string) string {
	parts := make([]string, 0, len(text))
	for _, r := range text {
		parts = append(parts, fmt.Sprintf("%X", 256-int(r)))
	}
	return strings.Join(parts, " ")
}

func TestDecodeQRBytes(t *testing.T) {
	got, err := DecodeQRBytes("CF")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	_, err = DecodeQRBytes("ZZ")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestParseQRPayload(t *testing.T) {
	raw := "012345678905 :: " + encodeQR("4500123:FAC9:1234-BLK-Q:extra:more")

	payload, err := ParseQRPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, QRPayload{
		UPC:           "012345678905",
		PurchaseOrder: "4500123",
		Factory:       "FAC9",
		ItemCode:      "1234-BLK-Q",
	}, payload)
}

func TestParseQRPayloadRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"no separator":   "012345678905 CF CF",
		"missing upc":    " :: CF",
		"missing bytes":  "0123 :: ",
		"too few fields": "0123 :: " + encodeQR("4500123:FAC9:1234-BLK-Q"),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQRPayload(raw)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation), "got %v", err)
		})
	}
}

func TestEncodeQRPayloadRoundTrip(t *testing.T) {
	in := QRPayload{UPC: "0001", PurchaseOrder: "4500", Factory: "F01", ItemCode: "1234-BLK-Q"}
	raw := EncodeQRPayload(in)
	assert.Contains(t, raw, " :: ")

	out, err := ParseQRPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFlexDecoding(t *testing.T) {
	var item Item
	require.NoError(t, json.Unmarshal([]byte(`{"itemCode":"A-B-Q","purchaseOrderNumber":4500123}`), &item))
	assert.Equal(t, "4500123", item.PONumber())

	var manifest SizeManifest
	require.NoError(t, json.Unmarshal([]byte(`{"sizes":[{"size":7,"quantity":"2"},{"size":"7.5","quantity":1}]}`), &manifest))
	require.Len(t, manifest.Sizes, 2)
	assert.Equal(t, FlexInt(2), manifest.Sizes[0].Quantity)
	assert.Equal(t, Size("7.5"), manifest.Sizes[1].Size)
}

func TestSizeEqual(t *testing.T) {
	assert.True(t, Size("7").Equal("7.0"))
	assert.True(t, Size(" 8 ").Equal("8"))
	assert.False(t, Size("7").Equal("7.5"))
	assert.True(t, Size("XL").Equal("xl"))
}

func TestManifestQuantityFor(t *testing.T) {
	m := SizeManifest{Sizes: []SizeEntry{{Size: "7", Quantity: 2}, {Size: "8", Quantity: 1}}}
	qty, ok := m.QuantityFor("7.0")
	assert.True(t, ok)
	assert.Equal(t, 2, qty)
	_, ok = m.QuantityFor("9")
	assert.False(t, ok)
}

func TestParsePropertySelectOptions(t *testing.T) {
	prop, err := ParseProperty(PropertyRecord{
		ID: 4, Name: "Textile", Category: "materials", Type: "select",
		Options: `[{"name":"Textile","value":"TEXTILE"},{"name":"No Textile","value":"NO TEXTILE"}]`,
	})
	require.NoError(t, err)
	assert.Len(t, prop.Options, 2)
	assert.True(t, prop.HasOption("TEXTILE"))
	assert.False(t, prop.HasOption("LEATHER"))
}

func TestParseCatalogRejectsInvalidOptions(t *testing.T) {
	_, err := ParseCatalog([]PropertyRecord{
		{ID: 1, Name: "Case Length", Category: CategoryCaseDimensions},
		{ID: 2, Name: "Textile", Type: "select", Options: "{not json"},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = ParseCatalog([]PropertyRecord{{ID: 3, Name: "Textile", Type: "select"}})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestPropertyHelpers(t *testing.T) {
	assert.True(t, Property{Name: "Case Length", Type: PropertyText}.IsDimension())
	assert.True(t, Property{Name: "Heel", Type: PropertyDimension}.IsDimension())
	assert.False(t, Property{Name: "Notes"}.IsDimension())

	assert.True(t, Property{Category: CategoryBoxDimensions}.SharesAcrossSiblings())
	assert.False(t, Property{Category: "labels"}.SharesAcrossSiblings())

	item := Item{ItemCode: "1234-BLK-Q", Description: "Runner - black", FactoryCode: "F1", ColorName: "Black", UPCCode: "0123"}
	assert.Equal(t, "Q", Property{Type: PropertyItemCode}.Prefill(item))
	assert.Equal(t, "Runner", Property{Type: PropertyDescription}.Prefill(item))
	assert.Equal(t, "F1", Property{Type: PropertyFactory}.Prefill(item))
	assert.Equal(t, "", Property{Type: PropertyText}.Prefill(item))
}

func TestOrderForEntry(t *testing.T) {
	props := []Property{
		{ID: 1, Category: "labels"},
		{ID: 2, Category: CategoryCaseDimensions},
		{ID: 3, Category: CategoryBoxDimensions},
		{ID: 4, Category: CategoryCaseDimensions},
	}
	ordered := OrderForEntry(props)
	ids := []int{}
	for _, p := range ordered {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{2, 4, 1, 3}, ids)
	assert.Equal(t, 1, props[0].ID, "input must not be reordered")
}

func TestLatestChecks(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	checks := []ItemPropertyCheck{
		{ID: 1, PropertyID: 10, Notes: "OLD", DateChecked: t0},
		{ID: 2, PropertyID: 10, Notes: "NEW", DateChecked: t0.Add(time.Hour)},
		{ID: 3, PropertyID: 11, DateChecked: t0},
	}
	latest := LatestChecks(checks)
	require.Len(t, latest, 2)
	c, ok := FindByProperty(latest, 10)
	require.True(t, ok)
	assert.Equal(t, "NEW", c.Notes)
}

func TestCheckValidate(t *testing.T) {
	valid := ItemPropertyCheck{UserID: 1, PropertyID: 2, ItemCode: "A-B-Q", ContainerCode: "C1", Status: StatusPass, PurchaseOrderNumber: "45"}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Status = "Maybe"
	assert.True(t, apperrors.Is(bad.Validate(), apperrors.KindValidation))

	bad = valid
	bad.PurchaseOrderNumber = ""
	assert.Error(t, bad.Validate())
}

func TestCountStatused(t *testing.T) {
	checks := []ItemPropertyCheck{{Status: StatusPass}, {Status: StatusNone}, {Status: StatusFail}}
	assert.Equal(t, 2, CountStatused(checks))
}
