package fetch

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly"
)

// DecompressBody detects and decompresses a gzip or Brotli response
// body. Some of the CORS proxies forward upstream bodies verbatim
// without honoring Accept-Encoding, so the magic bytes are checked
// regardless of headers.
//
// Returns the (possibly unchanged) body and whether decompression
// was performed.
func DecompressBody(body []byte, contentEncoding string) ([]byte, bool, error) {
	if len(body) == 0 {
		return body, false, nil
	}

	// gzip magic bytes
	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, false, err
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, false, err
		}
		return decompressed, true, nil
	}

	// Brotli has no magic bytes; trust the header, then a first-byte
	// heuristic that covers most streams in practice.
	if contentEncoding == "br" || (len(body) >= 1 && body[0] >= 0x80 && body[0] <= 0x8f) {
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			// Not Brotli or corrupted
			return body, false, nil
		}
		return decompressed, true, nil
	}

	// Not compressed
	return body, false, nil
}

// DecompressCollyResponse decompresses a Colly response body in-place.
// Meant for OnResponse callbacks.
func DecompressCollyResponse(r *colly.Response, logPrefix string) (bool, error) {
	if r == nil || len(r.Body) == 0 {
		return false, nil
	}

	if logPrefix == "" {
		logPrefix = "[fetch]"
	}

	originalSize := len(r.Body)

	decompressed, was, err := DecompressBody(r.Body, r.Headers.Get("Content-Encoding"))
	if err != nil {
		return false, err
	}
	if !was {
		return false, nil
	}

	r.Body = decompressed
	log.Printf("%s Decompressed response: %d bytes -> %d bytes", logPrefix, originalSize, len(decompressed))
	return true, nil
}
