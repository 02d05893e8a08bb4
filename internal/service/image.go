package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize caps decoded uploads at 10MB.
const MaxImageSize = 10 << 20

// AvatarSize bounds avatar width and height in pixels.
const AvatarSize = 512

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

// ImageUpload is a raw uploaded image plus the type the client claimed.
type ImageUpload struct {
	Data         []byte
	DeclaredType string
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>".
func DecodeDataURI(field, value string) (*ImageUpload, error) {
	header, payload, ok := strings.Cut(value, ";base64,")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, NewValidationError(field, "Expected a base64 encoded data URI.")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+3 {
		return nil, NewValidationError(field, "Image size must not exceed 10MB.")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, NewValidationError(field, "Invalid base64 image data.")
	}
	return &ImageUpload{Data: data, DeclaredType: strings.ToLower(strings.TrimPrefix(header, "data:"))}, nil
}

// ReadUpload reads a multipart file, refusing anything over MaxImageSize.
func ReadUpload(field string, r io.Reader, declaredType string) (*ImageUpload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &ImageUpload{Data: data, DeclaredType: strings.ToLower(declaredType)}, nil
}

// Inspect enforces the size cap and the allowed formats, and checks that
// the payload actually decodes. It returns the file extension and the
// sniffed content type.
func (u *ImageUpload) Inspect(field string) (ext, contentType string, err error) {
	if len(u.Data) == 0 {
		return "", "", NewValidationError(field, "The submitted file is empty.")
	}
	if len(u.Data) > MaxImageSize {
		return "", "", NewValidationError(field, "Image size must not exceed 10MB.")
	}
	if u.DeclaredType != "" && u.DeclaredType != "application/octet-stream" {
		if _, ok := allowedImageTypes[u.DeclaredType]; !ok {
			return "", "", NewValidationError(field, "Supported formats: JPEG, PNG, GIF.")
		}
	}

	contentType = mimetype.Detect(u.Data).String()
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", "", NewValidationError(field, "Supported formats: JPEG, PNG, GIF.")
	}
	if _, err := imaging.Decode(bytes.NewReader(u.Data)); err != nil {
		return "", "", NewValidationError(field, "Upload a valid image. The file is either not an image or corrupted.")
	}
	return ext, contentType, nil
}

// NormalizeAvatar shrinks the image to fit AvatarSize, keeping its format.
func NormalizeAvatar(data []byte, ext string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode avatar: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= AvatarSize && b.Dy() <= AvatarSize {
		return data, nil
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, AvatarSize, AvatarSize, imaging.Lanczos), format); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
