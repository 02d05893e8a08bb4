package service

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRCodeSize is the edge length of generated QR images in pixels.
const QRCodeSize = 256

// RecipeURL is the public frontend address of a recipe.
func RecipeURL(domain string, id uint) string {
	return fmt.Sprintf("https://%s/recipes/%d/", domain, id)
}

// QRCodePNG encodes url as a PNG QR code.
func QRCodePNG(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, QRCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
