package challenge

import (
	"strings"
)

// Info describes why a response was classified as a challenge page.
type Info struct {
	StatusCode int
	Reason     string
	Indicators []string
}

// defaultMarkers are the body substrings checked when the caller
// supplies no configured marker list.
var defaultMarkers = []string{
	"cf-browser-verification",
	"challenge-form",
	"/cdn-cgi/challenge-platform/",
	"cf-chl-",
	"are you human",
	"captcha",
}

// Detect inspects a response status and body and determines whether
// the site is blocking or challenging the request. markers may be nil,
// in which case the built-in list is used.
func Detect(statusCode int, body string, markers []string) (bool, *Info) {
	if markers == nil {
		markers = defaultMarkers
	}

	lower := strings.ToLower(body)

	indicators := []string{}
	match := false

	// Status-based
	if statusCode == 403 {
		indicators = append(indicators, "403 Forbidden")
		match = true
	}
	if statusCode == 503 {
		indicators = append(indicators, "503 Service Unavailable")
		match = true
	}
	if statusCode == 429 {
		indicators = append(indicators, "429 Rate limit")
	}

	// Body-based detection
	for _, marker := range markers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			indicators = append(indicators, "contains '"+marker+"'")
			match = true
		}
	}

	if match {
		return true, &Info{
			StatusCode: statusCode,
			Reason:     "anti-bot challenge detected",
			Indicators: indicators,
		}
	}

	return false, nil
}

// DetectHTML is a convenience wrapper for callers that only have a
// body (proxied fetches lose the upstream status code).
func DetectHTML(body string, markers []string) (bool, *Info) {
	return Detect(200, body, markers)
}
