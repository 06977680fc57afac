package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Categories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	categories, err := f.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 5)
	assert.Equal(t, "Career", categories[0].Name)

	created, err := f.catalog.CreateCategory(ctx, "Open Source")
	require.NoError(t, err)
	assert.Equal(t, "open-source", created.Slug)

	_, err = f.catalog.CreateCategory(ctx, "open source")
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	_, err = f.catalog.CreateCategory(ctx, "!!!")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	require.NoError(t, f.catalog.DeleteCategory(ctx, created.ID))
	assert.True(t, apperrors.Is(f.catalog.DeleteCategory(ctx, created.ID), apperrors.KindNotFound))

	f.create(t, f.contributor, f.input("Uses technology"), models.StatusPending)
	assert.True(t, apperrors.Is(f.catalog.DeleteCategory(ctx, f.category.ID), apperrors.KindConflict))
}

func TestCatalogService_Tags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tag, err := f.catalog.CreateTag(ctx, " Career-Change ")
	require.NoError(t, err)
	assert.Equal(t, "career-change", tag.Name)

	_, err = f.catalog.CreateTag(ctx, "career-change")
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	input := f.input("Tagged")
	input.TagIDs = []string{tag.ID, testutil.Tag(t, f.db, "remote").ID}
	created := f.create(t, f.contributor, input, models.StatusPending)

	require.NoError(t, f.catalog.DeleteTag(ctx, tag.ID))
	got, err := f.testimonials.Get(ctx, f.contributor, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "remote", got.Tags[0].Name)

	tags, err := f.catalog.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 6)
}
