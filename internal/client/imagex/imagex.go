// Package imagex re-encodes receipt images before upload. Decoding the
// pixels and writing a fresh JPEG drops every embedded metadata block —
// EXIF, GPS, maker notes — that a camera photo may carry. This runs on
// every draft before any network transmission; it is a privacy requirement,
// not an optimization.
package imagex

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

const jpegQuality = 85

// Sanitize decodes a base64 image of any supported format and returns it
// re-encoded as a metadata-free base64 JPEG with its new media type.
func Sanitize(imageBase64 string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", "", fmt.Errorf("decode base64: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", "", fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", "", fmt.Errorf("encode image: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), "image/jpeg", nil
}
