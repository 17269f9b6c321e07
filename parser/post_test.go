package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirty4/models"
)

func testPostOpts() PostOptions {
	patterns := models.DefaultPatterns()
	return PostOptions{
		SiteBase:        "https://rule34.xxx",
		SiteMarker:      "rule34",
		MediaSelectors:  patterns.MediaSelectors,
		ArtistSelectors: patterns.ArtistSelectors,
		Exclude:         patterns.ExcludeSubstrings,
	}
}

func TestParsePostMainImage(t *testing.T) {
	html := `<html><body>
<div class="sidebar"><ul class="tag-sidebar">
  <li class="tag-type-artist"><a href="index.php?page=post&s=list&tags=some_artist">some_artist</a></li>
</ul></div>
<div class="content">
  <img id="image" src="//wimg.rule34.xxx/images/55/full_ccc.jpg" alt="">
</div>
</body></html>`

	details, err := ParsePost(html, testPostOpts())
	require.NoError(t, err)
	assert.Equal(t, "https://wimg.rule34.xxx/images/55/full_ccc.jpg", details.FullMediaURL)
	assert.False(t, details.IsVideo)
	assert.Equal(t, []string{"some_artist"}, details.Artists)
}

func TestParsePostVideo(t *testing.T) {
	html := `<html><body>
<video id="gelcomVideoPlayer"><source src="/images/7/clip.mp4" type="video/mp4"></video>
</body></html>`

	details, err := ParsePost(html, testPostOpts())
	require.NoError(t, err)
	assert.Equal(t, "https://rule34.xxx/images/7/clip.mp4", details.FullMediaURL)
	assert.True(t, details.IsVideo)
}

func TestParsePostFallbackScan(t *testing.T) {
	// None of the dedicated selectors match; the whole-page scan must
	// skip thumbnails, samples, and denylisted images.
	html := `<html><body>
<img src="https://w.example/thumbnails/1/thumbnail_a.jpg">
<img src="https://w.example/samples/1/sample_a.jpg">
<img src="https://cdn.example/site_logo.png">
<img src="https://cdn.rule34.xxx/full/1/real_a.jpg">
</body></html>`

	opts := testPostOpts()
	opts.MediaSelectors = []string{"img#does-not-exist"}

	details, err := ParsePost(html, opts)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.rule34.xxx/full/1/real_a.jpg", details.FullMediaURL)
}

func TestParsePostNoMedia(t *testing.T) {
	details, err := ParsePost("<html><body><p>deleted</p></body></html>", testPostOpts())
	require.NoError(t, err)
	// Degraded but valid: caller keeps the thumbnail.
	assert.Empty(t, details.FullMediaURL)
	assert.False(t, details.IsVideo)
}

func TestParsePostArtistDedupe(t *testing.T) {
	// Two selectors match the same artist name; it must appear once.
	html := `<html><body>
<li class="tag-type-artist"><a href="index.php?page=post&s=list&tags=artist_one">artist_one</a></li>
<a href="index.php?page=post&s=list&tags=artist_one&type=artist">artist_one</a>
<img id="image" src="/images/1/a.jpg">
</body></html>`

	details, err := ParsePost(html, testPostOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{"artist_one"}, details.Artists)
}

func TestParsePostMultipleArtists(t *testing.T) {
	html := `<html><body>
<li class="tag-type-artist"><a href="?tags=artist_one">artist_one</a></li>
<li class="tag-type-artist"><a href="?tags=artist_two">? artist_two</a></li>
<img id="image" src="/images/1/a.jpg">
</body></html>`

	details, err := ParsePost(html, testPostOpts())
	require.NoError(t, err)
	// Leading ? glyphs stripped, both names kept.
	assert.Contains(t, details.Artists, "artist_one")
	assert.Contains(t, details.Artists, "artist_two")
}

func TestParsePostArtistHeuristicFallback(t *testing.T) {
	// No dedicated artist markup anywhere; the fallback pass
	// classifies tag links by the artist tag color.
	html := `<html><body>
<a href="index.php?page=post&s=list&tags=blue_hair">blue_hair</a>
<a href="index.php?page=post&s=list&tags=colored_tag" style="color: rgb(170, 170, 0);">colored_artist</a>
<img id="image" src="/images/1/a.jpg">
</body></html>`

	details, err := ParsePost(html, testPostOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{"colored_artist"}, details.Artists)
}

func TestCleanArtistName(t *testing.T) {
	assert.Equal(t, "name", CleanArtistName("??name"))
	assert.Equal(t, "name", CleanArtistName("  ?name  "))
	assert.Equal(t, "name", CleanArtistName("name"))
	assert.Equal(t, "", CleanArtistName("???"))
}
