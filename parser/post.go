package parser

import (
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PostDetails is what the post page parser recovers from a detail
// page: the full-size media URL and the post's artist tags.
type PostDetails struct {
	FullMediaURL string
	IsVideo      bool
	Artists      []string
}

// PostOptions carries the site-specific knobs for post page
// extraction.
type PostOptions struct {
	// SiteBase is the origin used to absolutize relative URLs.
	SiteBase string
	// SiteMarker is a hostname fragment that identifies media hosted
	// by the site itself, used by the whole-page fallback scan.
	SiteMarker string
	// MediaSelectors are tried in order to locate the main media
	// element. A <source> element means the post is a video.
	MediaSelectors []string
	// ArtistSelectors are tried in order to locate artist tag links.
	ArtistSelectors []string
	// Exclude is the non-content denylist.
	Exclude []string
}

// artistTagColor is the inline style value the site assigns to artist
// tag links on themes that skip the tag-type class.
const artistTagColor = "170, 170, 0"

// ParsePost extracts the full media URL and artist names from a post
// detail page. A page with no recognizable media element yields empty
// details with a nil error so callers can fall back to direct URL
// guesses.
func ParsePost(html string, opts PostOptions) (*PostDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse post html: %w", err)
	}

	details := &PostDetails{
		FullMediaURL: findFullMedia(doc, opts),
		Artists:      findArtists(doc, opts.ArtistSelectors),
	}
	details.IsVideo = IsVideoURL(details.FullMediaURL)

	if details.FullMediaURL == "" {
		log.Printf("[Parser] post page had no recognizable media element")
	}
	return details, nil
}

func findFullMedia(doc *goquery.Document, opts PostOptions) string {
	for _, selector := range opts.MediaSelectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			src := imageSource(el)
			if src == "" || IsExcluded(src, opts.Exclude) {
				return true
			}
			found = src
			return false
		})
		if found != "" {
			return AbsoluteURL(found, opts.SiteBase)
		}
	}

	// Fallback: scan every image on the page for something that looks
	// like full-size site-hosted content rather than a preview.
	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		src := el.AttrOr("src", "")
		if src == "" || strings.Contains(src, "thumbnail") || strings.Contains(src, "sample") {
			return true
		}
		if IsExcluded(src, opts.Exclude) {
			return true
		}
		if !strings.Contains(src, "/images/") && !strings.Contains(src, opts.SiteMarker) {
			return true
		}
		found = src
		return false
	})
	return AbsoluteURL(found, opts.SiteBase)
}

// findArtists collects distinct artist names: the first non-empty
// match per configured selector, then a heuristic pass over all tag
// links for pages where the dedicated selectors miss.
func findArtists(doc *goquery.Document, selectors []string) []string {
	if len(selectors) == 0 {
		selectors = defaultArtistSelectors
	}

	seen := make(map[string]bool)
	var artists []string
	add := func(raw string) {
		name := CleanArtistName(raw)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		artists = append(artists, name)
	}

	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			add(el.Text())
		})
	}

	if len(artists) > 0 {
		return artists
	}

	// No dedicated artist markup. Walk every tag link and classify by
	// href or by the artist tag color.
	doc.Find("a[href*='tags=']").Each(func(_ int, link *goquery.Selection) {
		text := strings.TrimSpace(link.Text())
		href := link.AttrOr("href", "")
		if href == "" || len(text) <= 2 {
			return
		}
		isArtist := strings.Contains(href, "artist") ||
			strings.Contains(href, "type%3Aartist") ||
			strings.Contains(link.AttrOr("style", ""), artistTagColor) ||
			link.HasClass("tag-type-artist")
		if isArtist {
			add(text)
		}
	})
	return artists
}

var defaultArtistSelectors = []string{
	".tag-type-artist a",
	"a[href*='tags='][href*='artist']",
	".tag-type-artist",
	"a[href*='&tags='][style*='color']",
	".tag-container .artist a",
}

// CleanArtistName strips the leading "?" wiki-link glyphs the site
// prepends to tag text.
func CleanArtistName(raw string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "?"))
}
