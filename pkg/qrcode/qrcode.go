package qrcode

import (
	"encoding/base64"
	"fmt"

	qrc "github.com/skip2/go-qrcode"
)

// DataURL renders content as a QR code PNG and returns it as a data URL
// suitable for direct embedding in an <img> tag.
func DataURL(content string, size int) (string, error) {
	png, err := qrc.Encode(content, qrc.High, size)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
