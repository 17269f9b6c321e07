package download

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectImageFormat(t *testing.T) {
	format, err := detectImageFormat(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	jpegHeader := append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 16)...)
	format, err = detectImageFormat(jpegHeader)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	gifHeader := append([]byte("GIF89a"), make([]byte, 16)...)
	format, err = detectImageFormat(gifHeader)
	require.NoError(t, err)
	assert.Equal(t, "gif", format)

	_, err = detectImageFormat([]byte("not an image, just text"))
	assert.Error(t, err)

	_, err = detectImageFormat([]byte{0x01})
	assert.Error(t, err)
}

func TestConvertImageToJPEG(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "out.jpg")

	require.NoError(t, ConvertImageToJPEG(pngBytes(t), outputPath))

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.True(t, len(written) > 3)
	// JPEG magic bytes prove the conversion happened.
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, written[:3])
}

func TestConvertImageToJPEGPassthrough(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "out.jpg")

	// Plausible JPEG bytes are written as-is, no re-encode.
	original := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("fakejpegbody")...)
	require.NoError(t, ConvertImageToJPEG(original, outputPath))

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, original, written)
}

func TestConvertImageToJPEGEmpty(t *testing.T) {
	assert.Error(t, ConvertImageToJPEG(nil, filepath.Join(t.TempDir(), "out.jpg")))
}
