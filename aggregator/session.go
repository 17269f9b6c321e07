package aggregator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"dirty4/models"
)

// ErrStale is returned when a newer search started while this one
// was still in flight. The stale results are discarded, never merged.
var ErrStale = errors.New("search superseded by a newer one")

// Session owns one user-facing result set. Each search gets a
// monotonically increasing sequence number; a response whose number
// is no longer current belongs to a search the user already
// abandoned, so it is dropped instead of overwriting the newer page.
type Session struct {
	agg *Aggregator
	seq atomic.Uint64

	mu        sync.Mutex
	installed uint64
	query     string
	page      int
	current   []models.MediaPost
}

// NewSession creates a session over an aggregator.
func NewSession(agg *Aggregator) *Session {
	return &Session{agg: agg}
}

// Search runs an aggregated search and, if it is still the newest
// one when it completes, installs the results as the session's
// current page. Returns ErrStale otherwise.
func (s *Session) Search(ctx context.Context, query string, page int) ([]models.MediaPost, error) {
	token := s.seq.Add(1)

	posts, err := s.agg.Search(ctx, query, page)

	// The staleness check has to happen under the same lock as the
	// install: checked outside it, a newer search could install
	// between the check and the lock and then be overwritten here.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq.Load() != token || token <= s.installed {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	s.installed = token
	s.query = query
	s.page = page
	s.current = posts

	return snapshot(posts), nil
}

// Current returns a snapshot of the session's result set.
func (s *Session) Current() []models.MediaPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.current)
}

// Update replaces the stored record matching the post's (source, id)
// identity, caching lazily resolved media on the current page. A post
// from an older page is ignored.
func (s *Session) Update(post models.MediaPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.current {
		if s.current[i].Source == post.Source && s.current[i].ID == post.ID {
			s.current[i] = post
			return
		}
	}
}

// Query returns the query and page the current result set belongs to.
func (s *Session) Query() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query, s.page
}

func snapshot(posts []models.MediaPost) []models.MediaPost {
	out := make([]models.MediaPost, len(posts))
	copy(out, posts)
	return out
}
