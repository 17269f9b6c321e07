package sites

import (
	"context"

	"dirty4/models"
)

// PageSize is the number of posts one listing page carries; the
// scraped site paginates with a pid offset in multiples of it and the
// aggregator truncates merged results to it.
const PageSize = 42

// PageFetcher is the proxy-chain surface the adapters fetch pages
// through.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string, fastMode bool) (string, error)
	VideoProxyURL(mediaURL string) string
}

// JSONClient is the direct JSON API surface the REST adapter calls
// before falling back to the proxy chain.
type JSONClient interface {
	FetchJSON(ctx context.Context, url string, result any) error
}

// Source is one backend that can answer tag searches. Both adapters
// produce the same normalized MediaPost shape; everything
// source-specific stays behind this interface.
type Source interface {
	// ID identifies the backend on every record it produces.
	ID() models.SourceID

	// ListPage returns the posts for a 0-based results page. An empty
	// slice with a nil error means the query has no more pages.
	ListPage(ctx context.Context, query string, page int) ([]models.MediaPost, error)

	// ResolveFullMedia fills in the full-size media URL, video flag,
	// and artist tags for a post. Already-resolved posts are returned
	// unchanged, so calling twice is safe.
	ResolveFullMedia(ctx context.Context, post models.MediaPost) (models.MediaPost, error)
}

// Registry holds the registered sources in registration order.
type Registry struct {
	order   []models.SourceID
	sources map[models.SourceID]Source
}

// NewRegistry creates an empty source registry.
//
// Add new sources here in the future:
//
//	registry.Register(NewSomeSource(...))
func NewRegistry() *Registry {
	return &Registry{sources: make(map[models.SourceID]Source)}
}

// Register adds a source. Re-registering a source ID replaces the
// previous adapter.
func (r *Registry) Register(s Source) {
	if _, exists := r.sources[s.ID()]; !exists {
		r.order = append(r.order, s.ID())
	}
	r.sources[s.ID()] = s
}

// Get returns the source for an ID.
func (r *Registry) Get(id models.SourceID) (Source, bool) {
	s, ok := r.sources[id]
	return s, ok
}

// All returns the registered sources in registration order.
func (r *Registry) All() []Source {
	all := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.sources[id])
	}
	return all
}
