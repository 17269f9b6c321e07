package download

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"
)

const jpegQuality = 90

var errUnknownFormat = errors.New("unknown image format")

// detectImageFormat sniffs the container format from the leading
// bytes. Proxied downloads lose the upstream Content-Type, so the
// payload itself is the only reliable signal.
func detectImageFormat(data []byte) (string, error) {
	if len(data) < 12 {
		return "", errors.New("data too short to determine format")
	}
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "jpeg", nil
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "png", nil
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif", nil
	case bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP":
		return "webp", nil
	}
	return "", errUnknownFormat
}

// ConvertImageToJPEG normalizes downloaded image bytes to a JPEG file
// at outputPath. JPEG input is written as-is; PNG, GIF and WebP are
// decoded and re-encoded.
func ConvertImageToJPEG(imgBytes []byte, outputPath string) error {
	if len(imgBytes) == 0 {
		return errors.New("empty image data")
	}

	format, err := detectImageFormat(imgBytes)
	if err != nil {
		return err
	}
	if format == "jpeg" {
		return saveRawBytes(imgBytes, outputPath)
	}

	img, err := decodeImage(imgBytes, format)
	if err != nil {
		return fmt.Errorf("decode %s image: %w", format, err)
	}
	return imaging.Save(img, outputPath, imaging.JPEGQuality(jpegQuality))
}

func decodeImage(data []byte, format string) (image.Image, error) {
	reader := bytes.NewReader(data)
	switch format {
	case "png":
		return png.Decode(reader)
	case "gif":
		return gif.Decode(reader)
	case "webp":
		return webp.Decode(reader)
	}
	return nil, errUnknownFormat
}

// saveRawBytes writes media bytes verbatim. Video payloads take this
// path too.
func saveRawBytes(data []byte, outputPath string) error {
	return os.WriteFile(outputPath, data, 0644)
}
