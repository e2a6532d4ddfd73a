package models

import (
	"strconv"
	"strings"

	"github.com/mamadbah2/checksheet/internal/apperrors"
)

const (
	qrSeparator    = "::"
	qrFieldDivider = ":"
	qrMinFields    = 4
)

// QRPayload is the decoded content of a carton label.
type QRPayload struct {
	UPC           string `json:"upc"`
	PurchaseOrder string `json:"purchaseOrder"`
	Factory       string `json:"factory"`
	ItemCode      string `json:"itemCode"`
}

var errBadQR = apperrors.New(apperrors.KindValidation, "please scan a valid QR code")

// DecodeQRBytes turns a space-delimited hex byte list into text. Each byte h
// maps to the character |h - 256|.
func DecodeQRBytes(hexList string) (string, error) {
	var b strings.Builder
	for _, tok := range strings.Fields(hexList) {
		v, err := strconv.ParseInt(tok, 16, 32)
		if err != nil {
			return "", apperrors.Wrap(apperrors.KindValidation, err, "decode qr byte "+tok)
		}
		d := v - 256
		if d < 0 {
			d = -d
		}
		b.WriteRune(rune(d))
	}
	return b.String(), nil
}

// ParseQRPayload splits "<upc> :: <hex bytes>" and extracts the colon fields.
func ParseQRPayload(raw string) (QRPayload, error) {
	upc, hexData, ok := strings.Cut(raw, qrSeparator)
	upc = strings.TrimSpace(upc)
	hexData = strings.TrimSpace(hexData)
	if !ok || upc == "" || hexData == "" {
		return QRPayload{}, errBadQR
	}

	text, err := DecodeQRBytes(hexData)
	if err != nil {
		return QRPayload{}, err
	}

	parts := strings.Split(text, qrFieldDivider)
	if len(parts) < qrMinFields {
		return QRPayload{}, errBadQR
	}

	return QRPayload{
		UPC:           upc,
		PurchaseOrder: parts[0],
		Factory:       parts[1],
		ItemCode:      parts[2],
	}, nil
}

// EncodeQRPayload renders p in the label format read by ParseQRPayload.
// The field list carries an empty trailing field.
func EncodeQRPayload(p QRPayload) string {
	text := strings.Join([]string{p.PurchaseOrder, p.Factory, p.ItemCode, ""}, qrFieldDivider)
	parts := make([]string, 0, len(text))
	for _, r := range text {
		parts = append(parts, strconv.FormatInt(int64(256-r), 16))
	}
	return p.UPC + " " + qrSeparator + " " + strings.ToUpper(strings.Join(parts, " "))
}
