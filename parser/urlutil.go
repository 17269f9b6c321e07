package parser

import (
	"regexp"
	"strings"
)

var videoExtPattern = regexp.MustCompile(`(?i)\.(mp4|webm|mov|avi|wmv)(\?.*)?$`)

var imageExtPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// AbsoluteURL normalizes protocol-relative and root-relative URLs
// against the site base. Already-absolute URLs pass through.
func AbsoluteURL(raw, siteBase string) string {
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return strings.TrimSuffix(siteBase, "/") + raw
	case !strings.HasPrefix(raw, "http"):
		return strings.TrimSuffix(siteBase, "/") + "/" + raw
	default:
		return raw
	}
}

// IsExcluded reports whether a URL matches the non-content denylist
// (merch, mascots, banners, ads, UI chrome). Case-insensitive
// substring match, same as the site interleaves them.
func IsExcluded(url string, denylist []string) bool {
	lower := strings.ToLower(url)
	for _, pattern := range denylist {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// IsVideoURL classifies a resolved media URL by extension.
func IsVideoURL(url string) bool {
	return videoExtPattern.MatchString(url)
}

// FileExtension returns the image extension of a URL including the
// dot, defaulting to ".jpg" when unrecognizable.
func FileExtension(url string) string {
	if match := imageExtPattern.FindString(url); match != "" {
		return strings.ToLower(match)
	}
	return ".jpg"
}
