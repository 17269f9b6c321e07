package parser

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PostSummary is one thumbnail cell extracted from a search results
// page. Detail fields (full media, artists) come from the post page
// parser later.
type PostSummary struct {
	ID            string
	ThumbnailURL  string
	DetailPageURL string
	Title         string
	DirectURLs    []string
}

// ListingOptions carries the site-specific knobs for listing
// extraction so the selectors stay configurable alongside the other
// patterns.
type ListingOptions struct {
	// SiteBase is the origin used to absolutize relative URLs,
	// e.g. "https://rule34.xxx".
	SiteBase string
	// MediaBases are the direct-media URL prefixes used to guess
	// full-size locations from a thumbnail hash, e.g.
	// "https://img.rule34.xxx/images/".
	MediaBases []string
	// Exclude is the non-content denylist applied to thumbnail URLs.
	Exclude []string
}

var (
	postIDPattern    = regexp.MustCompile(`id=(\d+)`)
	viewPostSelector = `a[href*='page=post&s=view&id=']`
	// Secondary thumbnail-cell selectors for markup variants that do
	// not use the canonical view-post anchor shape.
	fallbackSelectors = `.preview a, a .preview, .thumb a, a .thumb, span[id^='s'] a`
)

// ParseListing extracts post summaries from a search results page.
// Zero anchors on a page that fetched fine means the query has no
// further pages, so an empty slice with a nil error is the
// end-of-pagination signal, not a failure.
func ParseListing(html string, opts ListingOptions) ([]PostSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	anchors := doc.Find(viewPostSelector)
	if anchors.Length() == 0 {
		anchors = doc.Find(fallbackSelectors)
	}

	var posts []PostSummary
	seen := make(map[string]bool)
	anchors.Each(func(_ int, cell *goquery.Selection) {
		// Fallback selectors can land on the preview element itself;
		// the enclosing anchor carries the post link either way.
		anchor := cell
		if !cell.Is("a") {
			anchor = cell.Closest("a")
		}
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return
		}
		idMatch := postIDPattern.FindStringSubmatch(href)
		if idMatch == nil {
			return
		}
		// The comma-separated fallback selectors can match both an
		// anchor and its inner preview element, giving two nodes for
		// the same cell.
		if seen[idMatch[1]] {
			return
		}
		// Some themes link with a bare query string relative to the
		// booru's front controller.
		if strings.HasPrefix(href, "?") {
			href = "/index.php" + href
		}

		img := findThumbnailImage(cell)
		if img == nil || img.Length() == 0 {
			return
		}
		src := imageSource(img)
		if src == "" {
			return
		}
		thumbURL := AbsoluteURL(src, opts.SiteBase)
		if IsExcluded(thumbURL, opts.Exclude) {
			return
		}

		title := img.AttrOr("title", "")
		if title == "" {
			title = img.AttrOr("alt", "")
		}

		seen[idMatch[1]] = true
		posts = append(posts, PostSummary{
			ID:            idMatch[1],
			ThumbnailURL:  thumbURL,
			DetailPageURL: AbsoluteURL(href, opts.SiteBase),
			Title:         strings.TrimSpace(title),
			DirectURLs:    GuessDirectURLs(idMatch[1], thumbURL, opts.MediaBases),
		})
	})

	log.Printf("[Parser] listing page yielded %d posts", len(posts))
	return posts, nil
}

// findThumbnailImage locates the preview image for a results anchor.
// Markup varies between themes, so check inside the anchor first,
// then the enclosing cell, then the anchor's parent.
func findThumbnailImage(anchor *goquery.Selection) *goquery.Selection {
	if anchor.Is("img") {
		return anchor
	}
	if img := anchor.Find("img"); img.Length() > 0 {
		return img.First()
	}
	if cell := anchor.Closest("span, div"); cell.Length() > 0 {
		if img := cell.Find("img"); img.Length() > 0 {
			return img.First()
		}
	}
	if img := anchor.Parent().Find("img"); img.Length() > 0 {
		return img.First()
	}
	return nil
}

// imageSource reads the preview source, preferring a real src over
// lazy-load placeholder attributes.
func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-original"} {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

// GuessDirectURLs derives candidate full-size media URLs for a post.
// When the thumbnail URL carries a cache-buster query the full file
// is keyed by that value rather than the post ID, and it lives under
// one of the media hosts with one of a handful of extensions.
func GuessDirectURLs(postID, thumbURL string, mediaBases []string) []string {
	key := postID
	if idx := strings.LastIndex(thumbURL, "?"); idx >= 0 && idx < len(thumbURL)-1 {
		key = thumbURL[idx+1:]
	}
	if key == "" {
		return nil
	}

	guesses := make([]string, 0, len(mediaBases)*4)
	for _, base := range mediaBases {
		for _, ext := range []string{".jpg", ".png", ".gif", ".webp"} {
			guesses = append(guesses, base+key+ext)
		}
	}
	return guesses
}
