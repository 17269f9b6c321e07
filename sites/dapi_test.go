package sites

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirty4/models"
)

// fakeJSONClient scripts FetchJSON responses per URL.
type fakeJSONClient struct {
	responses map[string]string
	calls     []string
}

func (c *fakeJSONClient) FetchJSON(_ context.Context, url string, result any) error {
	c.calls = append(c.calls, url)
	body, ok := c.responses[url]
	if !ok {
		return errors.New("api unreachable")
	}
	return json.Unmarshal([]byte(body), result)
}

// fakePageFetcher scripts proxy-chain fetches per target URL.
type fakePageFetcher struct {
	responses map[string]string
	calls     []string
}

func (f *fakePageFetcher) Fetch(_ context.Context, targetURL string, _ bool) (string, error) {
	f.calls = append(f.calls, targetURL)
	body, ok := f.responses[targetURL]
	if !ok {
		return "", errors.New("all proxy services failed")
	}
	return body, nil
}

func (f *fakePageFetcher) VideoProxyURL(mediaURL string) string {
	return "https://primary.example/api/video-proxy?url=" + mediaURL
}

const dapiBody = `[
  {"id": 9001, "file_url": "https://img.example/images/1/full.jpg",
   "sample_url": "https://img.example/samples/1/sample.jpg",
   "preview_url": "https://img.example/thumbnails/1/thumb.jpg",
   "tags": "artist_one blue_hair solo"},
  {"id": 9002, "file_url": "https://img.example/images/2/full.webm",
   "preview_url": "https://img.example/thumbnails/2/thumb.jpg",
   "tags": "artist_two"}
]`

func TestDAPIListPageDirect(t *testing.T) {
	adapter := NewDAPI(&fakeJSONClient{responses: map[string]string{}}, &fakePageFetcher{})
	firstVariant := adapter.queryVariants("blue_hair", 0)[0]

	client := &fakeJSONClient{responses: map[string]string{firstVariant: dapiBody}}
	adapter = NewDAPI(client, &fakePageFetcher{})

	posts, err := adapter.ListPage(context.Background(), "blue_hair", 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, "9001", first.ID)
	assert.Equal(t, models.SourceAPI, first.Source)
	// Full media is eager for API records.
	assert.Equal(t, "https://img.example/images/1/full.jpg", first.FullMediaURL)
	assert.Equal(t, "https://img.example/thumbnails/1/thumb.jpg", first.ThumbnailURL)
	assert.Equal(t, []string{"artist_one", "blue_hair", "solo"}, first.Artists)
	assert.False(t, first.IsVideo)
	assert.Empty(t, first.DetailPageURL)

	assert.True(t, posts[1].IsVideo)
	assert.Len(t, client.calls, 1)
}

func TestDAPIListPageVariantRetry(t *testing.T) {
	adapter := NewDAPI(&fakeJSONClient{}, &fakePageFetcher{})
	variants := adapter.queryVariants("blue_hair", 1)
	require.Len(t, variants, 4)

	// First variant answers an empty array, third has the goods.
	client := &fakeJSONClient{responses: map[string]string{
		variants[0]: `[]`,
		variants[2]: dapiBody,
	}}
	adapter = NewDAPI(client, &fakePageFetcher{})

	posts, err := adapter.ListPage(context.Background(), "blue_hair", 1)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Len(t, client.calls, 3)
}

func TestDAPIListPageProxyFallback(t *testing.T) {
	adapter := NewDAPI(&fakeJSONClient{}, &fakePageFetcher{})
	firstVariant := adapter.queryVariants("blue_hair", 0)[0]

	fetcher := &fakePageFetcher{responses: map[string]string{firstVariant: dapiBody}}
	adapter = NewDAPI(&fakeJSONClient{}, fetcher)

	posts, err := adapter.ListPage(context.Background(), "blue_hair", 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Len(t, fetcher.calls, 1)
}

func TestDAPIListPageSampleFallback(t *testing.T) {
	// Every variant empty, proxy chain dead: the sentinel sample
	// record comes back, clearly marked as such.
	adapter := NewDAPI(&fakeJSONClient{}, &fakePageFetcher{})

	posts, err := adapter.ListPage(context.Background(), "blue_hair", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, IsSample(posts[0]))
	assert.Equal(t, models.SourceAPI, posts[0].Source)
	assert.NotEmpty(t, posts[0].ThumbnailURL)
}

func TestIsSample(t *testing.T) {
	assert.True(t, IsSample(models.MediaPost{ID: "sample-1"}))
	assert.False(t, IsSample(models.MediaPost{ID: "9001"}))
}

func TestDAPIResolveIsNoOp(t *testing.T) {
	adapter := NewDAPI(&fakeJSONClient{}, &fakePageFetcher{})
	post := models.MediaPost{ID: "1", Source: models.SourceAPI, FullMediaURL: "https://img.example/a.jpg"}

	resolved, err := adapter.ResolveFullMedia(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, post, resolved)
}
