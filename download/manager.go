package download

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dirty4/fetch"
	"dirty4/models"
	"dirty4/parser"
	"dirty4/sites"
)

const (
	// mediaTimeout bounds one media file transfer. Full-size files
	// can be tens of megabytes, so this is far looser than the page
	// fetch profiles.
	mediaTimeout = 60 * time.Second

	defaultPageDelay = 2 * time.Second
	defaultItemDelay = 500 * time.Millisecond
)

// ProgressFunc reports batch progress: items done, items total, and a
// short status line.
type ProgressFunc func(done, total int, status string)

// Options configures one batch run.
type Options struct {
	Query string
	// MaxImages caps the batch; 0 means every result the query has.
	MaxImages int
	OutputDir string

	// PageDelay spaces listing-page scrapes, ItemDelay spaces media
	// downloads. Zero values get conservative defaults; hammering the
	// site gets the whole proxy chain rate-limited.
	PageDelay time.Duration
	ItemDelay time.Duration

	Progress ProgressFunc
}

// Summary is the outcome of one batch run.
type Summary struct {
	Collected  int
	Downloaded int
	Failed     int
}

// Manager walks listing pages for a query, resolves each post to its
// full-size media, and writes the files to disk with non-JPEG images
// converted to JPEG.
type Manager struct {
	source    *sites.Rule34
	transport fetch.Transport
}

// NewManager creates a batch download manager. The transport is used
// for the media transfers themselves; page fetches go through the
// source adapter's proxy chain.
func NewManager(source *sites.Rule34, transport fetch.Transport) *Manager {
	return &Manager{source: source, transport: transport}
}

// Run executes one batch download.
func (m *Manager) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Query == "" {
		return nil, fmt.Errorf("empty download query")
	}
	if opts.PageDelay <= 0 {
		opts.PageDelay = defaultPageDelay
	}
	if opts.ItemDelay <= 0 {
		opts.ItemDelay = defaultItemDelay
	}
	if opts.Progress == nil {
		opts.Progress = func(int, int, string) {}
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	posts, err := m.collect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return &Summary{}, nil
	}
	log.Printf("[Download] Found %d posts to download", len(posts))

	summary := &Summary{Collected: len(posts)}
	limiter := parser.NewRateLimiter(opts.ItemDelay)
	defer limiter.Stop()

	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if i > 0 {
			limiter.Wait()
		}
		opts.Progress(i+1, len(posts), fmt.Sprintf("Downloading item %d", i+1))

		if err := m.downloadOne(ctx, post, opts.OutputDir); err != nil {
			log.Printf("[Download] Failed %s: %v", post.ID, err)
			summary.Failed++
			continue
		}
		summary.Downloaded++
	}

	log.Printf("[Download] Completed: %d downloaded, %d failed", summary.Downloaded, summary.Failed)
	return summary, nil
}

// collect walks listing pages until the cap is hit or a page comes
// back empty, which is the end of the query's results.
func (m *Manager) collect(ctx context.Context, opts Options) ([]models.MediaPost, error) {
	var posts []models.MediaPost
	limiter := parser.NewRateLimiter(opts.PageDelay)
	defer limiter.Stop()

	for page := 0; opts.MaxImages == 0 || len(posts) < opts.MaxImages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if page > 0 {
			limiter.Wait()
		}
		opts.Progress(len(posts), opts.MaxImages, fmt.Sprintf("Scraping page %d", page+1))

		pagePosts, err := m.source.ListPage(ctx, opts.Query, page)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			// Later pages failing just ends collection early.
			log.Printf("[Download] Page %d failed, stopping collection: %v", page+1, err)
			break
		}
		if len(pagePosts) == 0 {
			break
		}
		posts = append(posts, pagePosts...)
	}

	if opts.MaxImages > 0 && len(posts) > opts.MaxImages {
		posts = posts[:opts.MaxImages]
	}
	return posts, nil
}

// downloadOne resolves a post's full media and writes it to disk,
// falling back through the precomputed direct URL guesses when the
// detail page resolves nothing usable.
func (m *Manager) downloadOne(ctx context.Context, post models.MediaPost, outputDir string) error {
	resolved, err := m.source.ResolveFullMedia(ctx, post)
	if err != nil {
		log.Printf("[Download] Resolve failed for %s, trying direct URLs: %v", post.ID, err)
		resolved = post
	}

	candidates := make([]string, 0, 1+len(resolved.DirectURLs))
	if resolved.FullMediaURL != "" {
		candidates = append(candidates, resolved.FullMediaURL)
	}
	candidates = append(candidates, resolved.DirectURLs...)
	if len(candidates) == 0 {
		return fmt.Errorf("no media URL for post %s", post.ID)
	}

	var lastErr error
	for _, mediaURL := range candidates {
		if err := m.fetchAndSave(ctx, resolved, mediaURL, outputDir); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (m *Manager) fetchAndSave(ctx context.Context, post models.MediaPost, mediaURL, outputDir string) error {
	resp, err := m.transport.Get(ctx, mediaURL, mediaTimeout)
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("bad response status %d for %s", resp.StatusCode, mediaURL)
	}
	if len(resp.Body) == 0 {
		return fmt.Errorf("empty response body for %s", mediaURL)
	}

	data := []byte(resp.Body)

	// Videos are saved as-is; images are normalized to JPEG.
	if post.IsVideo || parser.IsVideoURL(mediaURL) {
		ext := filepath.Ext(mediaURL)
		if i := strings.Index(ext, "?"); i >= 0 {
			ext = ext[:i]
		}
		if ext == "" {
			ext = ".mp4"
		}
		name := fmt.Sprintf("rule34_%s%s", post.ID, ext)
		return saveRawBytes(data, filepath.Join(outputDir, name))
	}

	name := fmt.Sprintf("rule34_%s.jpg", post.ID)
	return ConvertImageToJPEG(data, filepath.Join(outputDir, name))
}
