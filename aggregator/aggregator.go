package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"

	"dirty4/models"
	"dirty4/sites"
)

// ErrNoResults is returned when every source came back empty or
// failed. One dead source is non-fatal; all of them is.
var ErrNoResults = errors.New("no results from any source")

// Aggregator runs a tag search against every registered source
// concurrently and merges the results into one page.
type Aggregator struct {
	registry *sites.Registry
}

// New creates an aggregator over a source registry.
func New(registry *sites.Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

// Search fans the query out to all sources, merges their records,
// shuffles, and truncates to one page. A source failure is swallowed
// and logged; the search only fails with ErrNoResults when nothing
// at all came back.
//
// Shuffling keeps the page from always leading with one source's
// content: concatenation order would group results by source.
func (a *Aggregator) Search(ctx context.Context, query string, page int) ([]models.MediaPost, error) {
	sources := a.registry.All()

	var (
		mu     sync.Mutex
		merged []models.MediaPost
		wg     sync.WaitGroup
	)
	for _, src := range sources {
		wg.Add(1)
		go func(src sites.Source) {
			defer wg.Done()

			posts, err := src.ListPage(ctx, query, page)
			if err != nil {
				log.Printf("[Aggregator] Source %s failed: %v", src.ID(), err)
				return
			}
			log.Printf("[Aggregator] Source %s returned %d posts", src.ID(), len(posts))

			mu.Lock()
			merged = append(merged, posts...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: %q page %d", ErrNoResults, query, page)
	}

	merged = dedupe(merged)
	shuffle(merged)
	if len(merged) > sites.PageSize {
		merged = merged[:sites.PageSize]
	}
	return merged, nil
}

// dedupe drops repeated (source, id) records, keeping the first
// occurrence. The same numeric id from two different sources is two
// distinct posts.
func dedupe(posts []models.MediaPost) []models.MediaPost {
	type key struct {
		source models.SourceID
		id     string
	}
	seen := make(map[key]bool, len(posts))
	out := posts[:0]
	for _, post := range posts {
		k := key{post.Source, post.ID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, post)
	}
	return out
}

// shuffle is an in-place Fisher-Yates pass. Membership is preserved;
// only order changes.
func shuffle(posts []models.MediaPost) {
	for i := len(posts) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		posts[i], posts[j] = posts[j], posts[i]
	}
}
