package sites

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirty4/challenge"
	"dirty4/models"
)

const rule34ListingHTML = `<html><body>
<span id="s100"><a href="index.php?page=post&s=view&id=100">
  <img class="preview" src="//wimg.rule34.xxx/thumbnails/10/thumb_aaa.jpg?100" title="first post">
</a></span>
<span id="s200"><a href="index.php?page=post&s=view&id=200">
  <img class="preview" src="//wimg.rule34.xxx/thumbnails/20/thumb_bbb.jpg?200">
</a></span>
</body></html>`

func newTestRule34(fetcher PageFetcher) *Rule34 {
	return NewRule34(models.DefaultPatterns(), fetcher, false)
}

func TestRule34ListPage(t *testing.T) {
	adapter := newTestRule34(nil)
	listURL := adapter.ListingURL("blue_hair", 2)
	// 0-based page, pid offset in post counts.
	assert.Equal(t, "https://rule34.xxx/index.php?page=post&s=list&tags=blue_hair&pid=84", listURL)

	fetcher := &fakePageFetcher{responses: map[string]string{listURL: rule34ListingHTML}}
	adapter = newTestRule34(fetcher)

	posts, err := adapter.ListPage(context.Background(), "blue_hair", 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, "100", first.ID)
	assert.Equal(t, models.SourceScrape, first.Source)
	assert.Equal(t, "https://rule34.xxx/index.php?page=post&s=view&id=100", first.DetailPageURL)
	// Full media stays unresolved until the detail view needs it.
	assert.False(t, first.Resolved())
	assert.Len(t, first.DirectURLs, 8)
}

func TestRule34ListPageBlocked(t *testing.T) {
	adapter := newTestRule34(nil)
	listURL := adapter.ListingURL("blue_hair", 0)

	fetcher := &fakePageFetcher{responses: map[string]string{
		listURL: "<html>Checking your browser... cf-browser-verification</html>",
	}}
	adapter = newTestRule34(fetcher)

	_, err := adapter.ListPage(context.Background(), "blue_hair", 0)
	require.Error(t, err)
	blocked, ok := challenge.IsBlocked(err)
	require.True(t, ok)
	assert.Equal(t, listURL, blocked.URL)
}

func TestRule34ResolveFullMedia(t *testing.T) {
	detailURL := "https://rule34.xxx/index.php?page=post&s=view&id=100"
	fetcher := &fakePageFetcher{responses: map[string]string{
		detailURL: `<html><body>
<li class="tag-type-artist"><a href="?tags=artist_one">artist_one</a></li>
<img id="image" src="//wimg.rule34.xxx/images/10/full_aaa.jpg">
</body></html>`,
	}}
	adapter := newTestRule34(fetcher)

	post := models.MediaPost{
		ID:            "100",
		Source:        models.SourceScrape,
		ThumbnailURL:  "https://wimg.rule34.xxx/thumbnails/10/thumb_aaa.jpg",
		DetailPageURL: detailURL,
	}

	resolved, err := adapter.ResolveFullMedia(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, "https://wimg.rule34.xxx/images/10/full_aaa.jpg", resolved.FullMediaURL)
	assert.Equal(t, []string{"artist_one"}, resolved.Artists)
	assert.Len(t, fetcher.calls, 1)

	// Second resolve is a no-op: the record caches its resolution.
	again, err := adapter.ResolveFullMedia(context.Background(), resolved)
	require.NoError(t, err)
	assert.Equal(t, resolved, again)
	assert.Len(t, fetcher.calls, 1)
}

func TestRule34ResolveKeepsThumbnailWhenNoMedia(t *testing.T) {
	detailURL := "https://rule34.xxx/index.php?page=post&s=view&id=100"
	fetcher := &fakePageFetcher{responses: map[string]string{
		detailURL: "<html><body><p>post deleted</p></body></html>",
	}}
	adapter := newTestRule34(fetcher)

	post := models.MediaPost{
		ID:            "100",
		Source:        models.SourceScrape,
		ThumbnailURL:  "https://wimg.rule34.xxx/thumbnails/10/thumb_aaa.jpg",
		DetailPageURL: detailURL,
	}

	resolved, err := adapter.ResolveFullMedia(context.Background(), post)
	require.NoError(t, err)
	assert.Empty(t, resolved.FullMediaURL)
	assert.Equal(t, post.ThumbnailURL, resolved.ThumbnailURL)
}

func TestRule34VideoURL(t *testing.T) {
	adapter := newTestRule34(&fakePageFetcher{})

	video := models.MediaPost{IsVideo: true, FullMediaURL: "https://media.example/v.mp4"}
	assert.Equal(t, "https://primary.example/api/video-proxy?url=https://media.example/v.mp4",
		adapter.VideoURL(video))

	image := models.MediaPost{FullMediaURL: "https://media.example/a.jpg"}
	assert.Equal(t, "https://media.example/a.jpg", adapter.VideoURL(image))
}

func TestSuggestTags(t *testing.T) {
	adapter := newTestRule34(&fakePageFetcher{})

	// Short query: no suggestions at all.
	assert.Empty(t, adapter.SuggestTags(context.Background(), "a"))

	// Unreachable site: static popular-tag fallback filtered by the
	// query.
	tags := adapter.SuggestTags(context.Background(), "poke")
	assert.Equal(t, []string{"pokemon"}, tags)
}

func TestSuggestTagsScraped(t *testing.T) {
	suggestHTML := `<html><body>
<a href="index.php?page=post&s=list&tags=blue_hair">blue_hair</a>
<a href="index.php?page=post&s=list&tags=blue_eyes">blue_eyes</a>
<a href="index.php?page=post&s=list&tags=red_hair">red_hair</a>
<span class="tag-type-general">blue_dress</span>
</body></html>`

	fetcher := &fakePageFetcher{responses: map[string]string{
		"https://rule34.xxx/index.php?page=post&s=list&tags=blue*": suggestHTML,
	}}
	adapter := newTestRule34(fetcher)

	tags := adapter.SuggestTags(context.Background(), "blue")
	assert.Equal(t, []string{"blue_hair", "blue_eyes", "blue_dress"}, tags)
}
