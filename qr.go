package solpay

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// defaultQRSize is the rendered PNG edge length in pixels.
const defaultQRSize = 256

// QRCode renders the payment link for p as a PNG suitable for scanning by
// mobile wallet apps. Size is the image edge length in pixels; values <= 0
// fall back to the default 256.
func QRCode(p PaymentURL, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}

	qr, err := qrcode.New(EncodeURL(p), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code as PNG: %w", err)
	}
	return png, nil
}

// QRCodeBase64 renders the payment link as a base64-encoded PNG for
// embedding in JSON or HTML.
func QRCodeBase64(p PaymentURL, size int) (string, error) {
	png, err := QRCode(p, size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
