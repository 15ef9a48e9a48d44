package qr

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// Base64PNG renders a pix copy-and-paste code as a base64-encoded PNG.
// The output is a pure function of the input string.
func Base64PNG(pixCode string) (string, error) {
	png, err := qrcode.Encode(pixCode, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
