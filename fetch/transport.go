package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Response is the minimal view of an HTTP response the scraping
// core needs. Bodies are decompressed before they get here.
type Response struct {
	StatusCode int
	Body       string
}

// Transport is the single I/O primitive of the core: issue a GET
// with a per-attempt timeout and return status plus body text.
// Swappable for testing.
type Transport interface {
	Get(ctx context.Context, url string, timeout time.Duration) (*Response, error)
}

// HTTPTransport is the production Transport. It sends browser-like
// headers, keeps cookies across requests, and decompresses gzip and
// Brotli bodies transparently.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates the default transport with a
// publicsuffix-aware cookie jar.
func NewHTTPTransport() (*HTTPTransport, error) {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &HTTPTransport{
		client: &http.Client{Jar: jar},
	}, nil
}

// Get performs a single GET attempt. The timeout bounds this attempt
// only; retry policy belongs to the caller.
func (t *HTTPTransport) Get(ctx context.Context, url string, timeout time.Duration) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	decompressed, _, err := DecompressBody(bodyBytes, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       string(decompressed),
	}, nil
}
