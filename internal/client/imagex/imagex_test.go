package imagex

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(40 * x), G: uint8(40 * y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestSanitize_ReencodesToJPEG(t *testing.T) {
	out, mime, err := Sanitize(pngBase64(t))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	raw, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)

	decoded, err := imaging.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
	assert.Equal(t, 4, decoded.Bounds().Dy())
}

func TestSanitize_RejectsGarbage(t *testing.T) {
	_, _, err := Sanitize("!!!not-base64!!!")
	require.Error(t, err)

	_, _, err = Sanitize(base64.StdEncoding.EncodeToString([]byte("not an image")))
	require.Error(t, err)
}
