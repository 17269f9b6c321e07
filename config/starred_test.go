package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirty4/models"
)

func testPost() models.MediaPost {
	return models.MediaPost{
		ID:           "100",
		Source:       models.SourceScrape,
		ThumbnailURL: "https://wimg.rule34.xxx/thumbnails/10/thumb_aaa.jpg?100",
		Artists:      []string{"artist_one", "artist_two"},
		Title:        "first post",
	}
}

func TestStarredRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	starred := LoadStarred()
	require.Empty(t, starred.Posts)

	post := testPost()
	assert.True(t, starred.Toggle(post))
	require.NoError(t, SaveStarred(starred))

	// Serialize/deserialize must preserve identity, thumbnail, and
	// artists exactly.
	loaded := LoadStarred()
	require.Len(t, loaded.Posts, 1)
	assert.Equal(t, post.ID, loaded.Posts[0].ID)
	assert.Equal(t, post.Source, loaded.Posts[0].Source)
	assert.Equal(t, post.ThumbnailURL, loaded.Posts[0].ThumbnailURL)
	assert.Equal(t, post.Artists, loaded.Posts[0].Artists)
	assert.True(t, loaded.Contains(post))
}

func TestStarredToggle(t *testing.T) {
	var starred Starred
	post := testPost()

	assert.True(t, starred.Toggle(post))
	assert.True(t, starred.Contains(post))

	// Same numeric ID from the other source is a different record.
	apiPost := post
	apiPost.Source = models.SourceAPI
	assert.False(t, starred.Contains(apiPost))

	assert.False(t, starred.Toggle(post))
	assert.False(t, starred.Contains(post))
	assert.Empty(t, starred.Posts)
}

func TestStarredClear(t *testing.T) {
	var starred Starred
	starred.Toggle(testPost())
	starred.Clear()
	assert.Empty(t, starred.Posts)
}

func TestLoadPatternsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	patterns := LoadPatterns()
	defaults := models.DefaultPatterns()
	assert.Equal(t, defaults.FallbackProxies, patterns.FallbackProxies)
	assert.Equal(t, defaults.ExcludeSubstrings, patterns.ExcludeSubstrings)

	// First load seeded the file; edits to it survive a reload.
	patterns.FallbackProxies = []string{"https://my-proxy.example/?url="}
	require.NoError(t, SavePatterns(patterns))
	reloaded := LoadPatterns()
	assert.Equal(t, []string{"https://my-proxy.example/?url="}, reloaded.FallbackProxies)
}
