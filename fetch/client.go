package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"dirty4/challenge"

	"github.com/gocolly/colly"
)

// APIClient handles direct (unproxied) requests against the JSON
// REST backend using colly. Proxied fallback is the caller's job.
type APIClient struct {
	markers []string
	timeout time.Duration
}

// NewAPIClient creates a client. markers configure challenge
// detection; nil uses the built-in list.
func NewAPIClient(markers []string) *APIClient {
	return &APIClient{
		markers: markers,
		timeout: 10 * time.Second,
	}
}

// newCollector builds a fresh collector per request. Colly keeps
// OnResponse/OnError callbacks registered forever, so sharing one
// collector across requests would replay stale handlers.
func (c *APIClient) newCollector() *colly.Collector {
	collector := colly.NewCollector(
		colly.UserAgent(browserUserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(c.timeout)
	return collector
}

// FetchRaw makes a GET request and returns the decompressed body.
// The colly request itself is not cancellable mid-flight, so the
// context is checked before dispatch.
func (c *APIClient) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := c.newCollector()

	var responseData []byte
	var statusCode int
	var fetchErr error

	collector.OnResponse(func(r *colly.Response) {
		if _, err := DecompressCollyResponse(r, "[APIClient]"); err != nil {
			log.Printf("[APIClient] Failed to decompress response: %v", err)
		}

		statusCode = r.StatusCode
		responseData = r.Body

		if blocked, info := challenge.Detect(r.StatusCode, string(r.Body), c.markers); blocked {
			log.Printf("[APIClient] Challenge detected: %v", info.Indicators)
			fetchErr = &challenge.BlockedError{
				URL:        url,
				StatusCode: info.StatusCode,
				Indicators: info.Indicators,
			}
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("request failed: %w", err)

		if r == nil {
			return
		}
		if blocked, info := challenge.Detect(r.StatusCode, string(r.Body), c.markers); blocked {
			log.Printf("[APIClient] Challenge detected on error: %v", info.Indicators)
			fetchErr = &challenge.BlockedError{
				URL:        url,
				StatusCode: info.StatusCode,
				Indicators: info.Indicators,
			}
		}
	})

	if err := collector.Visit(url); err != nil {
		return nil, fmt.Errorf("failed to visit URL: %w", err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if statusCode != 200 {
		return nil, fmt.Errorf("API returned status %d", statusCode)
	}

	return responseData, nil
}

// FetchJSON makes a GET request and unmarshals the JSON response.
func (c *APIClient) FetchJSON(ctx context.Context, url string, result any) error {
	body, err := c.FetchRaw(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}
