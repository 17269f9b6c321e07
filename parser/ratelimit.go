package parser

import (
	"time"
)

// RateLimiter spaces out sequential page and media fetches so the
// site (and the proxies in front of it) never see a burst.
type RateLimiter struct {
	ticker *time.Ticker
}

// NewRateLimiter creates a limiter that releases one operation per
// interval. Call Wait before each fetch and Stop when done:
//
//	limiter := parser.NewRateLimiter(2 * time.Second)
//	defer limiter.Stop()
//	for _, page := range pages {
//	    limiter.Wait()
//	    // fetch the next listing page
//	}
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{ticker: time.NewTicker(interval)}
}

// Wait blocks until the next tick.
func (rl *RateLimiter) Wait() {
	<-rl.ticker.C
}

// Stop releases the ticker.
func (rl *RateLimiter) Stop() {
	rl.ticker.Stop()
}
