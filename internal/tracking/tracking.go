// Package tracking renders order tracking links as QR codes.
package tracking

import (
	"errors"
	"strings"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

// Encoder builds tracking URLs under a public base URL.
type Encoder struct {
	baseURL string
	size    int
}

func New(baseURL string) *Encoder {
	return &Encoder{baseURL: strings.TrimRight(baseURL, "/"), size: defaultSize}
}

// URL is the customer-facing tracking link of an order.
func (e *Encoder) URL(orderID string) string {
	return e.baseURL + "/orders/" + orderID
}

// PNG encodes the tracking URL of orderID. size <= 0 uses the default.
func (e *Encoder) PNG(orderID string, size int) ([]byte, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.New("order id required")
	}
	if size <= 0 {
		size = e.size
	}
	if size > 1024 {
		size = 1024
	}
	return qrcode.Encode(e.URL(orderID), qrcode.Medium, size)
}

// Terminal renders the tracking URL as a block-character QR code.
func (e *Encoder) Terminal(orderID string) (string, error) {
	q, err := qrcode.New(e.URL(orderID), qrcode.Low)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
