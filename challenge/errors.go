package challenge

import (
	"errors"
	"fmt"
)

// BlockedError is returned when a bot-protection challenge page
// is detected instead of real content. It is distinct from plain
// fetch exhaustion so callers can tell the user what happened
// rather than silently showing zero results.
type BlockedError struct {
	URL        string
	StatusCode int
	Indicators []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked_by_challenge: status=%d url=%s", e.StatusCode, e.URL)
}

// IsBlocked checks if an error is a BlockedError, unwrapping as
// needed.
func IsBlocked(err error) (*BlockedError, bool) {
	var blockErr *BlockedError
	if errors.As(err, &blockErr) {
		return blockErr, true
	}
	return nil, false
}
