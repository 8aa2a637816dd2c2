// Package qrcode renders receivable payloads as QR images.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length of the rendered PNG in pixels.
const DefaultSize = 256

// Encoder implements usecase.PayloadEncoder with PNG QR codes.
type Encoder struct {
	size  int
	level qr.RecoveryLevel
}

// NewEncoder creates an Encoder. A non-positive size uses DefaultSize.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{size: size, level: qr.Medium}
}

// Encode returns the payload as a base64 encoded PNG.
func (e *Encoder) Encode(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", errors.New("qrcode: empty payload")
	}

	png, err := qr.Encode(string(payload), e.level, e.size)
	if err != nil {
		return "", fmt.Errorf("qrcode: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
