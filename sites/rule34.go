package sites

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dirty4/challenge"
	"dirty4/fetch"
	"dirty4/models"
	"dirty4/parser"
)

const (
	rule34Base = "https://rule34.xxx"
	// rule34Marker identifies site-hosted media in the post parser's
	// whole-page fallback scan.
	rule34Marker = "rule34"

	maxSuggestions = 8
)

// rule34MediaBases are the direct-media hosts used for full-size URL
// guesses when the detail page gives nothing.
var rule34MediaBases = []string{
	"https://img.rule34.xxx/images/",
	"https://wimg.rule34.xxx/images/",
}

// Rule34 is the HTML-scraping source adapter. Listing and post pages
// are fetched through the proxy chain; full media resolution is lazy
// because every detail page costs a full-patience proxy round trip.
type Rule34 struct {
	patterns models.Patterns
	fetcher  PageFetcher

	// useBrowser enables the headless-browser render fallback when a
	// page comes back as a bot-protection interstitial.
	useBrowser bool
}

// NewRule34 creates the scrape adapter.
func NewRule34(patterns models.Patterns, fetcher PageFetcher, useBrowser bool) *Rule34 {
	return &Rule34{
		patterns:   patterns,
		fetcher:    fetcher,
		useBrowser: useBrowser,
	}
}

// ID implements Source.
func (s *Rule34) ID() models.SourceID {
	return models.SourceScrape
}

// ListingURL builds the paginated tag-search URL. Pages are 0-based;
// the site paginates with a pid offset in post counts.
func (s *Rule34) ListingURL(query string, page int) string {
	return fmt.Sprintf("%s/index.php?page=post&s=list&tags=%s&pid=%d",
		rule34Base, url.QueryEscape(query), page*PageSize)
}

// ListPage implements Source. Listing fetches use fast mode: a slow
// proxy should cost at most one short attempt chain, not stall the
// whole search.
func (s *Rule34) ListPage(ctx context.Context, query string, page int) ([]models.MediaPost, error) {
	listURL := s.ListingURL(query, page)
	log.Printf("<rule34> Fetching listing page %d: %s", page+1, listURL)

	html, err := s.fetchHTML(ctx, listURL, true)
	if err != nil {
		return nil, err
	}

	summaries, err := parser.ParseListing(html, parser.ListingOptions{
		SiteBase:   rule34Base,
		MediaBases: rule34MediaBases,
		Exclude:    s.patterns.ExcludeSubstrings,
	})
	if err != nil {
		return nil, fmt.Errorf("rule34 listing page %d: %w", page, err)
	}

	posts := make([]models.MediaPost, 0, len(summaries))
	for _, sum := range summaries {
		posts = append(posts, models.MediaPost{
			ID:            sum.ID,
			Source:        models.SourceScrape,
			ThumbnailURL:  sum.ThumbnailURL,
			DetailPageURL: sum.DetailPageURL,
			Title:         sum.Title,
			DirectURLs:    sum.DirectURLs,
		})
	}
	return posts, nil
}

// ResolveFullMedia implements Source. The detail fetch uses full
// patience: the user is already waiting on a single post, so trying
// every proxy beats failing fast.
func (s *Rule34) ResolveFullMedia(ctx context.Context, post models.MediaPost) (models.MediaPost, error) {
	if post.Resolved() || post.DetailPageURL == "" {
		return post, nil
	}

	html, err := s.fetchHTML(ctx, post.DetailPageURL, false)
	if err != nil {
		return post, err
	}

	details, err := parser.ParsePost(html, parser.PostOptions{
		SiteBase:        rule34Base,
		SiteMarker:      rule34Marker,
		MediaSelectors:  s.patterns.MediaSelectors,
		ArtistSelectors: s.patterns.ArtistSelectors,
		Exclude:         s.patterns.ExcludeSubstrings,
	})
	if err != nil {
		return post, fmt.Errorf("rule34 post %s: %w", post.ID, err)
	}

	if details.FullMediaURL != "" {
		post.FullMediaURL = details.FullMediaURL
		post.IsVideo = details.IsVideo
	} else {
		// Degraded but valid: the caller keeps showing the thumbnail.
		log.Printf("<rule34> Post %s resolved no full media, keeping thumbnail", post.ID)
	}
	if len(details.Artists) > 0 {
		post.Artists = details.Artists
	}
	return post, nil
}

// VideoURL returns the playable URL for a resolved video post. Video
// hosts reject cross-origin range requests, so playback goes through
// the primary API's streaming proxy.
func (s *Rule34) VideoURL(post models.MediaPost) string {
	if !post.IsVideo || post.FullMediaURL == "" {
		return post.FullMediaURL
	}
	return s.fetcher.VideoProxyURL(post.FullMediaURL)
}

// fetchHTML runs one proxied page fetch with challenge detection.
// When the browser fallback is enabled, a blocked page gets one real
// render before the challenge is surfaced to the caller.
func (s *Rule34) fetchHTML(ctx context.Context, pageURL string, fastMode bool) (string, error) {
	html, err := s.fetcher.Fetch(ctx, pageURL, fastMode)
	if err != nil {
		return "", err
	}

	blocked, info := challenge.DetectHTML(html, s.patterns.ChallengeMarkers)
	if !blocked {
		return html, nil
	}

	if s.useBrowser {
		log.Printf("<rule34> Challenge detected on %s, attempting browser render", pageURL)
		rendered, berr := fetch.BrowserFetchHTML(ctx, pageURL, s.patterns.ChallengeMarkers)
		if berr == nil {
			return rendered, nil
		}
		log.Printf("<rule34> Browser render failed: %v", berr)
	}

	return "", &challenge.BlockedError{
		URL:        pageURL,
		StatusCode: info.StatusCode,
		Indicators: info.Indicators,
	}
}

var tagHrefPattern = regexp.MustCompile(`tags=([^&]+)`)

// popularTags is the static suggestion fallback for when the live
// site gives nothing usable.
var popularTags = []string{
	"ahri", "jinx", "lux", "katarina", "sona", "miss_fortune", "akali", "riven",
	"league_of_legends", "pokemon", "naruto", "one_piece", "overwatch",
	"genshin_impact", "solo", "blonde_hair", "brown_hair", "long_hair",
	"short_hair", "blue_eyes", "sakimichan", "personalami", "cutesexyrobutts",
	"dandon_fuga", "neocoill",
}

// SuggestTags returns up to 8 tag completions for a partial query.
// It scrapes tag links and tag-class spans out of a wildcard search
// results page, falling back to the static popular-tag list. Never
// fails: an unreachable site just degrades to the static list.
func (s *Rule34) SuggestTags(ctx context.Context, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) < 2 {
		return nil
	}

	searchURL := fmt.Sprintf("%s/index.php?page=post&s=list&tags=%s*",
		rule34Base, url.QueryEscape(query))

	var scraped []string
	if html, err := s.fetcher.Fetch(ctx, searchURL, true); err == nil {
		scraped = extractTags(html, query)
	} else {
		log.Printf("<rule34> Suggestion fetch failed: %v", err)
	}
	if len(scraped) > 0 {
		return scraped
	}

	fallback := make([]string, 0, maxSuggestions)
	for _, tag := range popularTags {
		if strings.Contains(tag, query) {
			fallback = append(fallback, tag)
			if len(fallback) == maxSuggestions {
				break
			}
		}
	}
	return fallback
}

// extractTags pulls candidate tag names out of a results page: the
// tags= parameter of tag links plus the text of tag-class spans.
func extractTags(html, query string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if len(tag) <= 1 || !strings.Contains(tag, query) || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	doc.Find("a[href*='tags=']").Each(func(_ int, link *goquery.Selection) {
		match := tagHrefPattern.FindStringSubmatch(link.AttrOr("href", ""))
		if match == nil {
			return
		}
		if decoded, err := url.QueryUnescape(match[1]); err == nil {
			add(decoded)
		}
	})
	doc.Find(".tag, .tag-type-general, .tag-type-character, .tag-type-copyright, .tag-type-artist").
		Each(func(_ int, span *goquery.Selection) {
			add(span.Text())
		})

	if len(tags) > maxSuggestions {
		tags = tags[:maxSuggestions]
	}
	return tags
}
