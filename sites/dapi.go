package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"dirty4/models"
	"dirty4/parser"
)

const apiBase = "https://api.rule34.xxx/index.php"

// sampleIDPrefix marks the synthetic record the API adapter emits
// when every attempt fails. Consumers can always tell it apart from
// real data by the prefix.
const sampleIDPrefix = "sample-"

// DAPI is the REST source adapter over the booru's DAPI-style JSON
// endpoint. Unlike the scrape adapter it gets full media URLs
// eagerly, so ResolveFullMedia is a no-op for its records.
type DAPI struct {
	client  JSONClient
	fetcher PageFetcher
}

// NewDAPI creates the REST adapter. The proxy fetcher is the
// last-resort path for when direct API calls are blocked.
func NewDAPI(client JSONClient, fetcher PageFetcher) *DAPI {
	return &DAPI{client: client, fetcher: fetcher}
}

// ID implements Source.
func (s *DAPI) ID() models.SourceID {
	return models.SourceAPI
}

// apiPost is one post object as the JSON endpoint returns it.
type apiPost struct {
	ID         json.Number `json:"id"`
	FileURL    string      `json:"file_url"`
	SampleURL  string      `json:"sample_url"`
	PreviewURL string      `json:"preview_url"`
	Tags       string      `json:"tags"`
}

// queryVariants builds the attempt list for one search. The endpoint
// is inconsistent about pagination across deployments, so after the
// canonical 0-based pid the adapter retries without a page parameter,
// with a 1-based pid, and with the alternate parameter name.
func (s *DAPI) queryVariants(query string, page int) []string {
	base := fmt.Sprintf("%s?page=dapi&s=post&q=index&json=1&limit=%d&tags=%s",
		apiBase, PageSize, url.QueryEscape(query))
	return []string{
		fmt.Sprintf("%s&pid=%d", base, page),
		base,
		fmt.Sprintf("%s&pid=%d", base, page+1),
		fmt.Sprintf("%s&page=%d", base, page),
	}
}

// ListPage implements Source. Direct JSON GETs across the URL
// variants, then the proxy chain, then the sentinel sample record —
// the adapter never leaves the screen completely empty on its own.
func (s *DAPI) ListPage(ctx context.Context, query string, page int) ([]models.MediaPost, error) {
	variants := s.queryVariants(query, page)

	for _, apiURL := range variants {
		var raw []apiPost
		if err := s.client.FetchJSON(ctx, apiURL, &raw); err != nil {
			log.Printf("<dapi> Direct attempt failed: %v", err)
			continue
		}
		if len(raw) == 0 {
			continue
		}
		return mapAPIPosts(raw), nil
	}

	// Direct calls blocked or empty everywhere; go through the proxy
	// chain with the canonical URL.
	if contents, err := s.fetcher.Fetch(ctx, variants[0], false); err == nil {
		var raw []apiPost
		if jsonErr := json.Unmarshal([]byte(contents), &raw); jsonErr == nil && len(raw) > 0 {
			return mapAPIPosts(raw), nil
		}
		log.Printf("<dapi> Proxied response was not a usable post array")
	} else {
		log.Printf("<dapi> Proxy fallback failed: %v", err)
	}

	log.Printf("<dapi> All attempts failed, returning sample record")
	return []models.MediaPost{samplePost()}, nil
}

// ResolveFullMedia implements Source. API records arrive with their
// full media URL already set.
func (s *DAPI) ResolveFullMedia(_ context.Context, post models.MediaPost) (models.MediaPost, error) {
	return post, nil
}

// IsSample reports whether a post is the adapter's synthetic
// fallback record rather than real data.
func IsSample(post models.MediaPost) bool {
	return strings.HasPrefix(post.ID, sampleIDPrefix)
}

func mapAPIPosts(raw []apiPost) []models.MediaPost {
	posts := make([]models.MediaPost, 0, len(raw))
	for _, p := range raw {
		full := p.FileURL
		if full == "" {
			full = p.SampleURL
		}
		full = parser.AbsoluteURL(full, rule34Base)

		posts = append(posts, models.MediaPost{
			ID:           p.ID.String(),
			Source:       models.SourceAPI,
			ThumbnailURL: parser.AbsoluteURL(p.PreviewURL, rule34Base),
			FullMediaURL: full,
			IsVideo:      parser.IsVideoURL(full),
			Artists:      strings.Fields(p.Tags),
		})
	}
	return posts
}

// samplePost is the deliberate "never show a completely broken
// screen" record.
func samplePost() models.MediaPost {
	return models.MediaPost{
		ID:           sampleIDPrefix + "1",
		Source:       models.SourceAPI,
		ThumbnailURL: "https://picsum.photos/seed/dirty4/200/200",
		FullMediaURL: "https://picsum.photos/seed/dirty4/800/800",
		Title:        "Sample image (API unavailable)",
	}
}
