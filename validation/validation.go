package validation

import (
	"errors"
	"strings"
)

// maxQueryTags keeps one search from expanding into an unbounded tag
// expression the booru rejects anyway.
const maxQueryTags = 20

// ValidateSearchQuery checks a tag query before it is handed to the
// source adapters. It only works with raw strings, so it can be
// called from any layer without an import cycle.
func ValidateSearchQuery(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("please enter a search query")
	}

	tags := strings.Fields(query)
	if len(tags) > maxQueryTags {
		return errors.New("too many tags in one query")
	}

	for _, tag := range tags {
		// Leading - negates a tag, which the sites accept; a bare -
		// or pure wildcard is a malformed expression.
		trimmed := strings.TrimPrefix(tag, "-")
		if trimmed == "" {
			return errors.New("empty negated tag in query")
		}
		if strings.Trim(trimmed, "*") == "" {
			return errors.New("wildcard-only tag in query: " + tag)
		}
	}
	return nil
}

// ValidatePage checks a 0-based page index.
func ValidatePage(page int) error {
	if page < 0 {
		return errors.New("page must not be negative")
	}
	return nil
}

// ValidateDownload checks the batch download inputs.
func ValidateDownload(query string, maxImages int, outputDir string) error {
	if err := ValidateSearchQuery(query); err != nil {
		return err
	}
	if maxImages < 0 {
		return errors.New("max images must not be negative")
	}
	if outputDir == "" {
		return errors.New("output location is required")
	}
	return nil
}
