package solpay

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestQRCode_DefaultSize(t *testing.T) {
	data, err := QRCode(PaymentURL{Recipient: testKey(0x01)}, 0)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, pngMagic))

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, 256, cfg.Height)
}

func TestQRCode_CustomSize(t *testing.T) {
	amount := mustDecimal(t, "1.5")
	data, err := QRCode(PaymentURL{
		Recipient: testKey(0x01),
		Amount:    &amount,
		Memo:      "invoice-7",
	}, 512)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Width)
}

func TestQRCodeBase64(t *testing.T) {
	encoded, err := QRCodeBase64(PaymentURL{Recipient: testKey(0x01)}, 128)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, pngMagic))
}
