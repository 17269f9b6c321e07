package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"
)

// ErrAllProxiesExhausted is returned when the primary API and every
// fallback proxy failed for one target URL. A single pass through the
// attempt list, no re-looping.
var ErrAllProxiesExhausted = errors.New("all proxy services failed")

// Fetch profiles. Listing pages use fast mode (low timeout, first
// fallback only); one-off detail fetches use full patience.
const (
	fastTimeout = 5 * time.Second
	fullTimeout = 10 * time.Second

	fastAttemptDelay = 500 * time.Millisecond
	fullAttemptDelay = 2 * time.Second
)

// ProxyFetcher fetches target URLs through a primary proxy API with
// an ordered chain of fallback CORS proxies. The external services
// are individually unreliable (rate limits, downtime); layering them
// with short timeouts keeps a single dead proxy from stalling the
// whole page load.
type ProxyFetcher struct {
	primaryBase string
	fallbacks   []string
	transport   Transport
}

// NewProxyFetcher creates a fetcher over the given primary API base
// and fallback proxy templates.
func NewProxyFetcher(primaryBase string, fallbacks []string, transport Transport) *ProxyFetcher {
	return &ProxyFetcher{
		primaryBase: primaryBase,
		fallbacks:   fallbacks,
		transport:   transport,
	}
}

// proxyEnvelope is the JSON shape the proxy services answer with.
// allorigins uses "contents", others use "body", some return the
// page as a bare JSON string.
type proxyEnvelope struct {
	Contents string `json:"contents"`
	Body     string `json:"body"`
}

// Fetch retrieves targetURL through the proxy chain and returns the
// page text. fastMode trades completeness for latency: 5s attempts,
// 500ms between attempts, and only the first fallback is tried.
func (f *ProxyFetcher) Fetch(ctx context.Context, targetURL string, fastMode bool) (string, error) {
	timeout := fullTimeout
	delay := fullAttemptDelay
	maxFallbacks := len(f.fallbacks)
	if fastMode {
		timeout = fastTimeout
		delay = fastAttemptDelay
		if maxFallbacks > 1 {
			maxFallbacks = 1
		}
	}

	encoded := url.QueryEscape(targetURL)

	// Primary API first
	primaryURL := f.primaryBase + "/proxy-debug?url=" + encoded
	if contents, ok := f.tryPrimary(ctx, primaryURL, timeout); ok {
		return contents, nil
	}

	// Fallback proxies in declared order
	for i := 0; i < maxFallbacks; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		fallbackURL := f.fallbacks[i] + encoded
		if contents, ok := f.tryFallback(ctx, fallbackURL, timeout); ok {
			return contents, nil
		}
	}

	log.Printf("[ProxyFetcher] Exhausted %d attempts for %s", 1+maxFallbacks, targetURL)
	return "", fmt.Errorf("%w: %s", ErrAllProxiesExhausted, targetURL)
}

// VideoProxyURL wraps a media URL in the primary API's streaming
// endpoint, which adds the CORS and range-request headers video
// playback needs.
func (f *ProxyFetcher) VideoProxyURL(mediaURL string) string {
	return f.primaryBase + "/video-proxy?url=" + url.QueryEscape(mediaURL)
}

// tryPrimary attempts the primary API, which always answers JSON
// with a contents field.
func (f *ProxyFetcher) tryPrimary(ctx context.Context, proxyURL string, timeout time.Duration) (string, bool) {
	resp, err := f.transport.Get(ctx, proxyURL, timeout)
	if err != nil {
		log.Printf("[ProxyFetcher] Primary proxy failed: %v", err)
		return "", false
	}
	if resp.StatusCode != 200 {
		log.Printf("[ProxyFetcher] Primary proxy returned status %d", resp.StatusCode)
		return "", false
	}

	var envelope proxyEnvelope
	if err := json.Unmarshal([]byte(resp.Body), &envelope); err != nil {
		log.Printf("[ProxyFetcher] Primary proxy returned non-JSON body")
		return "", false
	}
	if envelope.Contents == "" {
		log.Printf("[ProxyFetcher] Primary proxy response missing contents")
		return "", false
	}

	return envelope.Contents, true
}

// tryFallback attempts one fallback proxy. Response formats differ
// per service: JSON with contents, JSON with body, a bare JSON
// string, or the raw page text.
func (f *ProxyFetcher) tryFallback(ctx context.Context, proxyURL string, timeout time.Duration) (string, bool) {
	resp, err := f.transport.Get(ctx, proxyURL, timeout)
	if err != nil {
		log.Printf("[ProxyFetcher] Fallback proxy failed: %v", err)
		return "", false
	}
	if resp.StatusCode != 200 {
		log.Printf("[ProxyFetcher] Fallback proxy returned status %d", resp.StatusCode)
		return "", false
	}

	raw := []byte(resp.Body)

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Not JSON at all: accept the raw body as page text if
		// non-empty.
		if resp.Body != "" {
			return resp.Body, true
		}
		return "", false
	}

	switch v := decoded.(type) {
	case string:
		if v != "" {
			return v, true
		}
	case map[string]any:
		if contents, ok := v["contents"].(string); ok && contents != "" {
			return contents, true
		}
		if body, ok := v["body"].(string); ok && body != "" {
			return body, true
		}
	}

	// Valid JSON in an unrecognized shape: reject and let the next
	// proxy try.
	return "", false
}
