package services

import (
	"context"
	"strings"
	"testing"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedsOf(t *testing.T, f *fixture, id string) int64 {
	var engagement models.Engagement
	require.NoError(t, f.db.Where("testimonial_id = ?", id).First(&engagement).Error)
	return engagement.Embeds
}

func TestEmbedService_CountsEveryFetchButOEmbed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := f.input("Embeddable")
	input.Media = MediaInput{Type: models.MediaImage, URL: "https://example.com/a.png", Description: "portrait"}
	created := f.create(t, f.contributor, input, models.StatusApproved)

	code, err := f.embeds.Code(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, code, `data-testimonial-id="`+created.ID+`"`)
	assert.Contains(t, code, `<img src="https://example.com/a.png"`)
	assert.Contains(t, code, "Ana Torres")
	assert.Equal(t, int64(1), embedsOf(t, f, created.ID))

	preview, err := f.embeds.Preview(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(preview, "<!DOCTYPE html>"))
	assert.Contains(t, preview, code)
	assert.Contains(t, preview, "/api/v1/public/embeds/"+created.ID+"/oembed")
	assert.Equal(t, int64(2), embedsOf(t, f, created.ID))

	script, err := f.embeds.Script(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, script, "document.currentScript")
	assert.Contains(t, script, "insertBefore")
	assert.NotContains(t, script, "</blockquote>")
	assert.Equal(t, int64(3), embedsOf(t, f, created.ID))

	bundle, err := f.embeds.Bundle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, code, bundle.HTML)
	assert.Contains(t, bundle.Script, "http://localhost:8080/api/v1/public/embed/"+created.ID+".js")
	assert.Equal(t, int64(4), embedsOf(t, f, created.ID))

	oembed, err := f.embeds.OEmbed(ctx, created.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "rich", oembed.Type)
	assert.Equal(t, "1.0", oembed.Version)
	assert.Equal(t, "Embeddable", oembed.Title)
	assert.Equal(t, "Ana Torres", oembed.AuthorName)
	assert.Equal(t, 600, oembed.Width)
	assert.Equal(t, 400, oembed.Height)
	assert.Contains(t, oembed.HTML, "<iframe")
	assert.Equal(t, int64(4), embedsOf(t, f, created.ID))

	small, err := f.embeds.OEmbed(ctx, created.ID, 320, 200)
	require.NoError(t, err)
	assert.Equal(t, 320, small.Width)
	assert.Equal(t, 200, small.Height)
}

func TestEmbedService_EscapesContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := f.input("<script>alert(1)</script>")
	input.Content = `Great "course" & <b>mentors</b>`
	created := f.create(t, f.contributor, input, models.StatusApproved)

	code, err := f.embeds.Code(ctx, created.ID)
	require.NoError(t, err)
	assert.NotContains(t, code, "<script>")
	assert.NotContains(t, code, "<b>")
	assert.Contains(t, code, "&lt;b&gt;mentors&lt;/b&gt;")
}

func TestEmbedService_OnlyApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.create(t, f.contributor, f.input("Pending"), models.StatusPending)

	_, err := f.embeds.Code(ctx, pending.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = f.embeds.OEmbed(ctx, pending.ID, 0, 0)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Zero(t, embedsOf(t, f, pending.ID))
}
