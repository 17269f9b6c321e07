package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"dirty4/models"
	"dirty4/sites"
)

// recordingSource notes which adapter was asked to resolve.
type recordingSource struct {
	id       models.SourceID
	resolved *models.SourceID
}

func (s *recordingSource) ID() models.SourceID { return s.id }

func (s *recordingSource) ListPage(_ context.Context, _ string, _ int) ([]models.MediaPost, error) {
	return nil, nil
}

func (s *recordingSource) ResolveFullMedia(_ context.Context, post models.MediaPost) (models.MediaPost, error) {
	*s.resolved = s.id
	post.FullMediaURL = "https://img.example/" + post.ID + ".jpg"
	return post, nil
}

func TestResolvePostRoutesBySource(t *testing.T) {
	var resolvedBy models.SourceID
	registry := sites.NewRegistry()
	registry.Register(&recordingSource{id: models.SourceScrape, resolved: &resolvedBy})
	registry.Register(&recordingSource{id: models.SourceAPI, resolved: &resolvedBy})
	a := &app{registry: registry}

	post := a.resolvePost(context.Background(), models.MediaPost{ID: "7", Source: models.SourceAPI})
	assert.Equal(t, models.SourceAPI, resolvedBy)
	assert.Equal(t, "https://img.example/7.jpg", post.FullMediaURL)

	post = a.resolvePost(context.Background(), models.MediaPost{ID: "8", Source: models.SourceScrape})
	assert.Equal(t, models.SourceScrape, resolvedBy)
	assert.Equal(t, "https://img.example/8.jpg", post.FullMediaURL)

	// An unregistered source is returned untouched.
	unknown := models.MediaPost{ID: "9", Source: "somewhere_else"}
	assert.Equal(t, unknown, a.resolvePost(context.Background(), unknown))
}
