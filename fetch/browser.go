package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"dirty4/challenge"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// BrowserSession drives a headless browser for pages the plain HTTP
// path cannot get past: when a listing fetch trips a bot challenge,
// a real render is attempted once before the block is surfaced.
type BrowserSession struct {
	ctx     context.Context
	cancel  context.CancelFunc
	markers []string
}

// NewBrowserSession creates a headless browser context. markers
// configure challenge detection on rendered pages.
func NewBrowserSession(ctx context.Context, markers []string) (*BrowserSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(browserUserAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	return &BrowserSession{
		ctx:     browserCtx,
		cancel:  func() { cancelBrowser(); cancelAlloc() },
		markers: markers,
	}, nil
}

// Navigate loads a URL and waits for the body (or waitSelector when
// given). Returns a BlockedError if the rendered page is still a
// challenge interstitial.
func (bs *BrowserSession) Navigate(url, waitSelector string) error {
	ctx, cancel := context.WithTimeout(bs.ctx, 30*time.Second)
	defer cancel()

	tasks := []chromedp.Action{
		emulation.SetUserAgentOverride(browserUserAgent),
		chromedp.Navigate(url),
	}
	if waitSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
	} else {
		tasks = append(tasks, chromedp.WaitReady("body"))
	}

	if err := chromedp.Run(ctx, tasks...); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	// Give the interstitial a moment to redirect if it is going to
	time.Sleep(2 * time.Second)

	html, err := bs.HTML()
	if err != nil {
		log.Printf("[Browser] Warning: could not read HTML after navigation: %v", err)
		return nil
	}

	if blocked, info := challenge.DetectHTML(html, bs.markers); blocked {
		log.Printf("[Browser] Challenge still present after render: %v", info.Indicators)
		return &challenge.BlockedError{
			URL:        url,
			StatusCode: info.StatusCode,
			Indicators: info.Indicators,
		}
	}

	return nil
}

// HTML returns the current page HTML.
func (bs *BrowserSession) HTML() (string, error) {
	ctx, cancel := context.WithTimeout(bs.ctx, 10*time.Second)
	defer cancel()

	var html string
	err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html))
	return html, err
}

// Close shuts the browser down.
func (bs *BrowserSession) Close() {
	if bs.cancel != nil {
		bs.cancel()
	}
}

// BrowserFetchHTML renders a URL in a one-shot headless browser
// session and returns the HTML.
func BrowserFetchHTML(ctx context.Context, url string, markers []string) (string, error) {
	session, err := NewBrowserSession(ctx, markers)
	if err != nil {
		return "", fmt.Errorf("failed to create browser session: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(url, ""); err != nil {
		return "", err
	}

	return session.HTML()
}
