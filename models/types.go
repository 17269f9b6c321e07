package models

// SourceID identifies which backend produced a MediaPost.
// IDs are only unique within a source, so (SourceID, ID) is the
// real identity of a record.
type SourceID string

const (
	// SourceScrape is the HTML-scraped listing/post-page backend.
	SourceScrape SourceID = "scraped_site"
	// SourceAPI is the JSON REST backend.
	SourceAPI SourceID = "rest_api"
)

// MediaPost is the normalized record every source adapter produces.
// Field names shift from page to page on the scraped site (thumbUrl,
// thumbnailUrl, preview_url...); adapters normalize into this single
// shape and nothing ambiguous leaks past them.
type MediaPost struct {
	ID            string   `json:"id"`
	Source        SourceID `json:"source"`
	ThumbnailURL  string   `json:"thumbnail_url"`
	FullMediaURL  string   `json:"full_media_url,omitempty"`
	DetailPageURL string   `json:"detail_page_url,omitempty"`
	IsVideo       bool     `json:"is_video"`
	Artists       []string `json:"artists,omitempty"`
	Title         string   `json:"title"`

	// DirectURLs are precomputed full-media guesses (extension ×
	// media subdomain) used as a download fallback when the detail
	// page gives nothing.
	DirectURLs []string `json:"direct_urls,omitempty"`
}

// Resolved reports whether the full media URL has been confirmed.
// A resolved post is never re-fetched.
func (p *MediaPost) Resolved() bool {
	return p.FullMediaURL != ""
}

// Displayable reports whether the record can be shown at all.
func (p *MediaPost) Displayable() bool {
	return p.ThumbnailURL != ""
}

// DisplayTitle returns the title, falling back to "Item <id>".
func (p *MediaPost) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return "Item " + p.ID
}

// Patterns holds the site-specific heuristics: proxy templates,
// content denylist, challenge markers, and media/artist selectors.
// These drift as the third-party sites change, so they are loaded
// from patterns.json with the compiled-in defaults as fallback.
type Patterns struct {
	// PrimaryAPIBase is the base URL of the primary proxy API.
	PrimaryAPIBase string `json:"primary_api_base"`

	// FallbackProxies are CORS proxy URL templates; the encoded
	// target URL is appended to each.
	FallbackProxies []string `json:"fallback_proxies"`

	// ExcludeSubstrings filters site-injected non-content images
	// (merch, mascots, banners, UI chrome) out of listings.
	ExcludeSubstrings []string `json:"exclude_substrings"`

	// ChallengeMarkers are body substrings that indicate a
	// bot-protection interstitial rather than real content.
	ChallengeMarkers []string `json:"challenge_markers"`

	// MediaSelectors locate the primary content element on a post
	// page, tried in order.
	MediaSelectors []string `json:"media_selectors"`

	// ArtistSelectors locate artist tag links on a post page,
	// tried in order.
	ArtistSelectors []string `json:"artist_selectors"`

	// ThumbProxies are image-proxy URL templates tried when a
	// thumbnail fails to load; %s is replaced by the encoded
	// original URL.
	ThumbProxies []string `json:"thumb_proxies"`
}

// DefaultPatterns returns the compiled-in heuristics known to work
// against the live sites as of this release.
func DefaultPatterns() Patterns {
	return Patterns{
		PrimaryAPIBase: "https://dirty4-vercel.vercel.app/api",
		FallbackProxies: []string{
			"https://api.allorigins.win/get?url=",
			"https://thingproxy.freeboard.io/fetch/",
			"https://cors.eu.org/",
			"https://proxy.cors.sh/",
			"https://corsproxy.io/?",
		},
		ExcludeSubstrings: []string{
			"rule34_merch",
			"r34chibi",
			"mascot",
			"banner",
			"ad_",
			"advertisement",
			"sponsor",
			"promo",
			"logo",
			"button",
			"icon",
			"ui_",
			"navigation",
		},
		ChallengeMarkers: []string{
			"cf-browser-verification",
			"challenge-form",
			"/cdn-cgi/challenge-platform/",
			"cf-chl-",
			"are you human",
			"captcha",
		},
		MediaSelectors: []string{
			"img#image",
			".content img",
			"img[src*='/images/']",
			"img[onclick*='Note']",
			"img[style*='max-width']",
			"#gelcomVideoPlayer source",
			"video source",
		},
		ArtistSelectors: []string{
			".tag-type-artist a",
			"a[href*='tags='][href*='artist']",
			".tag-type-artist",
			".tag-container .artist a",
		},
		ThumbProxies: []string{
			"https://images.weserv.nl/?url=%s&w=200&h=200&fit=cover",
			"https://wsrv.nl/?url=%s&w=200&h=200&fit=cover",
		},
	}
}
