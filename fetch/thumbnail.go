package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"
)

// ErrThumbnailUnavailable is returned when every retry candidate
// for a failed thumbnail was tried without success.
var ErrThumbnailUnavailable = errors.New("thumbnail unavailable through all proxies")

// ThumbnailResolver turns a thumbnail that failed to load into an
// ordered retry sequence: image-proxy rewrites first, then the
// original URL verbatim as a last resort.
type ThumbnailResolver struct {
	proxies   []string
	transport Transport
}

// NewThumbnailResolver creates a resolver over image-proxy URL
// templates (%s is replaced by the encoded original URL).
func NewThumbnailResolver(proxies []string, transport Transport) *ThumbnailResolver {
	return &ThumbnailResolver{
		proxies:   proxies,
		transport: transport,
	}
}

// Candidates returns the retry URLs for a failed thumbnail, in the
// order they should be tried.
func (r *ThumbnailResolver) Candidates(original string) []string {
	encoded := url.QueryEscape(original)

	candidates := make([]string, 0, len(r.proxies)+1)
	for _, template := range r.proxies {
		candidates = append(candidates, fmt.Sprintf(template, encoded))
	}
	candidates = append(candidates, original)
	return candidates
}

// Resolve tries each candidate in order and returns the first URL
// that answers with a non-empty 200. One loop over an explicit
// candidate list; no nested retry ladders.
func (r *ThumbnailResolver) Resolve(ctx context.Context, original string) (string, error) {
	for _, candidate := range r.Candidates(original) {
		resp, err := r.transport.Get(ctx, candidate, 5*time.Second)
		if err != nil {
			log.Printf("[Thumbnails] Candidate failed: %v", err)
			continue
		}
		if resp.StatusCode == 200 && resp.Body != "" {
			return candidate, nil
		}
		log.Printf("[Thumbnails] Candidate returned status %d: %s", resp.StatusCode, candidate)
	}

	return "", fmt.Errorf("%w: %s", ErrThumbnailUnavailable, original)
}
