package main

// CLI entry point. All scraping, aggregation, and persistence logic
// lives in the packages below; this file only wires flags to them.
//
// Package structure:
// - models/     : Data structures (MediaPost, Patterns)
// - config/     : Configuration (patterns, starred store, logging, version)
// - challenge/  : Bot-challenge detection and errors
// - fetch/      : Proxy chain, API client, browser fallback, thumbnails
// - parser/     : Listing and post page parsers
// - sites/      : Source adapters and registry
// - aggregator/ : Concurrent multi-source search
// - download/   : Batch media downloads

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dirty4/aggregator"
	"dirty4/challenge"
	"dirty4/config"
	"dirty4/download"
	"dirty4/fetch"
	"dirty4/models"
	"dirty4/sites"
	"dirty4/validation"
)

func main() {
	var (
		searchQuery = flag.String("search", "", "tag query to search")
		page        = flag.Int("page", 0, "0-based results page")
		doDownload  = flag.Bool("download", false, "batch download the search results")
		maxImages   = flag.Int("max", 0, "max items to download (0 = all)")
		outputDir   = flag.String("out", ".", "download output directory")
		resolve     = flag.Bool("resolve", false, "resolve full media URLs for search results")
		suggest     = flag.String("suggest", "", "print tag suggestions for a partial query")
		useBrowser  = flag.Bool("browser", false, "use a headless browser when a page is challenge-blocked")
		listStarred = flag.Bool("starred", false, "list starred items")
		star        = flag.String("star", "", "toggle star for source:id (e.g. scraped_site:12345)")
		clearStars  = flag.Bool("clear-stars", false, "remove all starred items")
		showLogs    = flag.Bool("logs", false, "print the application log")
		follow      = flag.Bool("follow", false, "with -logs, follow new lines")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("dirty4 %s (%s, built %s)\n", config.Version, config.GitCommit, config.BuildTime)
		return
	}

	if err := config.InitLogging(); err != nil {
		log.Printf("[Main] File logging unavailable: %v", err)
	}
	defer config.CloseLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options{
		searchQuery: *searchQuery,
		page:        *page,
		doDownload:  *doDownload,
		maxImages:   *maxImages,
		outputDir:   *outputDir,
		resolve:     *resolve,
		suggest:     *suggest,
		useBrowser:  *useBrowser,
		listStarred: *listStarred,
		star:        *star,
		clearStars:  *clearStars,
		showLogs:    *showLogs,
		follow:      *follow,
	}); err != nil {
		log.Printf("[Main] %v", err)
		os.Exit(1)
	}
}

type options struct {
	searchQuery string
	page        int
	doDownload  bool
	maxImages   int
	outputDir   string
	resolve     bool
	suggest     string
	useBrowser  bool
	listStarred bool
	star        string
	clearStars  bool
	showLogs    bool
	follow      bool
}

func run(ctx context.Context, opts options) error {
	switch {
	case opts.showLogs:
		if opts.follow {
			err := config.FollowLog(ctx, os.Stdout)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		return config.PrintLog(os.Stdout)

	case opts.clearStars:
		starred := config.LoadStarred()
		starred.Clear()
		if err := config.SaveStarred(starred); err != nil {
			return err
		}
		fmt.Println("Starred items cleared")
		return nil

	case opts.listStarred:
		starred := config.LoadStarred()
		if len(starred.Posts) == 0 {
			fmt.Println("No starred items")
			return nil
		}
		for _, post := range starred.Posts {
			printPost(post)
		}
		return nil
	}

	// Everything below talks to the network.
	app, err := newApp(opts.useBrowser)
	if err != nil {
		return err
	}

	switch {
	case opts.suggest != "":
		for _, tag := range app.scrape.SuggestTags(ctx, opts.suggest) {
			fmt.Println(tag)
		}
		return nil

	case opts.star != "":
		return app.toggleStar(opts.star)

	case opts.doDownload:
		if err := validation.ValidateDownload(opts.searchQuery, opts.maxImages, opts.outputDir); err != nil {
			return err
		}
		manager := download.NewManager(app.scrape, app.transport)
		summary, err := manager.Run(ctx, download.Options{
			Query:     opts.searchQuery,
			MaxImages: opts.maxImages,
			OutputDir: opts.outputDir,
			Progress: func(done, total int, status string) {
				fmt.Printf("\r%-50s [%d/%d]", status, done, total)
			},
		})
		if err != nil {
			return err
		}
		fmt.Printf("\nDownloaded %d of %d items (%d failed)\n",
			summary.Downloaded, summary.Collected, summary.Failed)
		return nil

	case opts.searchQuery != "":
		return app.search(ctx, opts.searchQuery, opts.page, opts.resolve)
	}

	flag.Usage()
	return nil
}

// app bundles the wired-up core components for one CLI invocation.
type app struct {
	patterns  models.Patterns
	transport *fetch.HTTPTransport
	scrape    *sites.Rule34
	registry  *sites.Registry
	session   *aggregator.Session
}

func newApp(useBrowser bool) (*app, error) {
	patterns := config.LoadPatterns()

	transport, err := fetch.NewHTTPTransport()
	if err != nil {
		return nil, fmt.Errorf("init transport: %w", err)
	}

	fetcher := fetch.NewProxyFetcher(patterns.PrimaryAPIBase, patterns.FallbackProxies, transport)
	client := fetch.NewAPIClient(patterns.ChallengeMarkers)
	scrape := sites.NewRule34(patterns, fetcher, useBrowser)

	registry := sites.NewRegistry()
	registry.Register(scrape)
	registry.Register(sites.NewDAPI(client, fetcher))

	return &app{
		patterns:  patterns,
		transport: transport,
		scrape:    scrape,
		registry:  registry,
		session:   aggregator.NewSession(aggregator.New(registry)),
	}, nil
}

// resolvePost routes lazy media resolution to the adapter that
// produced the post. On failure the post is returned as-is, still
// displayable through its thumbnail.
func (a *app) resolvePost(ctx context.Context, post models.MediaPost) models.MediaPost {
	src, ok := a.registry.Get(post.Source)
	if !ok {
		return post
	}
	resolved, err := src.ResolveFullMedia(ctx, post)
	if err != nil {
		log.Printf("[Main] Resolve failed for %s: %v", post.ID, err)
		return post
	}
	return resolved
}

func (a *app) search(ctx context.Context, query string, page int, resolve bool) error {
	if err := validation.ValidateSearchQuery(query); err != nil {
		return err
	}
	if err := validation.ValidatePage(page); err != nil {
		return err
	}

	posts, err := a.session.Search(ctx, query, page)
	if err != nil {
		if blocked, ok := challenge.IsBlocked(err); ok {
			return fmt.Errorf("site is challenge-blocked (status %d); retry with -browser: %w",
				blocked.StatusCode, err)
		}
		return err
	}

	for _, post := range posts {
		if resolve && !post.Resolved() {
			post = a.resolvePost(ctx, post)
			a.session.Update(post)
		}
		printPost(post)
	}
	fmt.Printf("%d results for %q page %d\n", len(posts), query, page)
	return nil
}

// toggleStar stars or unstars one post from the current result set by
// its source:id key. The starred copy keeps whatever resolution state
// the post had.
func (a *app) toggleStar(key string) error {
	source, id, found := strings.Cut(key, ":")
	if !found || id == "" {
		return fmt.Errorf("star key must be source:id, got %q", key)
	}

	// Stars normally come from a browsing session; a bare CLI star
	// fetches nothing, it just records identity for scrape posts.
	post := models.MediaPost{
		ID:     id,
		Source: models.SourceID(source),
	}

	starred := config.LoadStarred()
	nowStarred := starred.Toggle(post)
	if err := config.SaveStarred(starred); err != nil {
		return err
	}
	if nowStarred {
		fmt.Printf("Starred %s\n", key)
	} else {
		fmt.Printf("Unstarred %s\n", key)
	}
	return nil
}

func printPost(post models.MediaPost) {
	marker := " "
	if sites.IsSample(post) {
		marker = "S"
	} else if post.IsVideo {
		marker = "V"
	}

	line := fmt.Sprintf("%s %-12s %-10s %s", marker, post.Source, post.ID, post.DisplayTitle())
	if len(post.Artists) > 0 {
		// API records carry the whole tag string as artists; keep the
		// line readable.
		shown := post.Artists
		if len(shown) > 6 {
			shown = shown[:6]
		}
		line += " [" + strings.Join(shown, ", ")
		if len(post.Artists) > 6 {
			line += ", ..."
		}
		line += "]"
	}
	fmt.Println(line)
	if post.ThumbnailURL != "" {
		fmt.Printf("    thumb: %s\n", post.ThumbnailURL)
	}
	if post.FullMediaURL != "" {
		fmt.Printf("    media: %s\n", post.FullMediaURL)
	}
}
