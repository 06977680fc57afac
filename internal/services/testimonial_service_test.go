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

func TestTestimonialService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tag := testutil.Tag(t, f.db, "bootcamp")
	input := f.input("From zero to developer")
	input.TagIDs = []string{tag.ID, tag.ID}

	created, err := f.testimonials.Create(ctx, f.contributor, input)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, f.contributor.UserID, created.OwnerID)
	assert.Nil(t, created.Multimedia)
	require.NotNil(t, created.Engagement)
	assert.Zero(t, created.Engagement.Views)

	got, err := f.testimonials.Get(ctx, f.contributor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "From zero to developer", got.Title)
	assert.Equal(t, "Ana Torres", got.Author)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "Engineer", got.Position)
	assert.Equal(t, "The bootcamp changed my career", got.Content)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Technology", got.Category.Name)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "bootcamp", got.Tags[0].Name)
}

func TestTestimonialService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		mutate    func(*TestimonialInput)
		wantField string
	}{
		{"missing content", func(in *TestimonialInput) { in.Content = " " }, "content"},
		{"missing author", func(in *TestimonialInput) { in.Author = "" }, "author"},
		{"missing company", func(in *TestimonialInput) { in.Company = "" }, "company"},
		{"missing category", func(in *TestimonialInput) { in.CategoryID = "" }, "categoryId"},
		{"unknown category", func(in *TestimonialInput) { in.CategoryID = "missing" }, "categoryId"},
		{"unknown tag", func(in *TestimonialInput) { in.TagIDs = []string{"missing"} }, "tagIds"},
		{"image without file or url", func(in *TestimonialInput) {
			in.Media = MediaInput{Type: models.MediaImage, Description: "a photo"}
		}, "image"},
		{"video without file or url", func(in *TestimonialInput) {
			in.Media = MediaInput{Type: models.MediaVideo, Description: "a clip"}
		}, "video"},
		{"image with file and url", func(in *TestimonialInput) {
			in.Media = MediaInput{Type: models.MediaImage, File: testutil.FileHeader(t, "a.png", testutil.PNG), URL: "https://example.com/a.png", Description: "x"}
		}, "image"},
		{"media without description", func(in *TestimonialInput) {
			in.Media = MediaInput{Type: models.MediaVideo, URL: "https://youtu.be/abc"}
		}, "mediaDescription"},
		{"invalid media url", func(in *TestimonialInput) {
			in.Media = MediaInput{Type: models.MediaImage, URL: "javascript:alert(1)", Description: "x"}
		}, "mediaUrl"},
		{"unknown content type", func(in *TestimonialInput) {
			in.Media = MediaInput{Type: "audio"}
		}, "contentType"},
		{"upload of the wrong kind", func(in *TestimonialInput) {
			in.Media = MediaInput{Type: models.MediaVideo, File: testutil.FileHeader(t, "a.png", testutil.PNG), Description: "x"}
		}, "video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := f.input("Invalid")
			tt.mutate(&input)

			_, err := f.testimonials.Create(ctx, f.contributor, input)
			require.Error(t, err)
			appErr := apperrors.As(err)
			assert.Equal(t, apperrors.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Fields, tt.wantField)
		})
	}

	var count int64
	f.db.Model(&models.Testimonial{}).Count(&count)
	assert.Zero(t, count)
}

func TestTestimonialService_CreateWithMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := f.input("Video story")
	input.Media = MediaInput{Type: models.MediaVideo, URL: "https://www.youtube.com/watch?v=abc", Description: "interview"}
	byURL, err := f.testimonials.Create(ctx, f.contributor, input)
	require.NoError(t, err)
	require.NotNil(t, byURL.Multimedia)
	assert.Equal(t, models.MediaVideo, byURL.Multimedia.Type)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", byURL.Multimedia.URL)
	assert.Empty(t, byURL.Multimedia.StoragePath)

	input = f.input("Image story")
	input.Media = MediaInput{Type: models.MediaImage, File: testutil.FileHeader(t, "team.png", testutil.PNG), Description: "the team"}
	byFile, err := f.testimonials.Create(ctx, f.contributor, input)
	require.NoError(t, err)
	require.NotNil(t, byFile.Multimedia)
	assert.Equal(t, "team.png", byFile.Multimedia.FileName)
	assert.Contains(t, byFile.Multimedia.URL, "http://localhost:8080/uploads/testimonials/")

	exists, err := f.storage.Exists(ctx, byFile.Multimedia.StoragePath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTestimonialService_OwnershipPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := identityOf(testutil.CreateUser(t, f.db, "other@example.com", models.RoleContributor))
	created := f.create(t, f.contributor, f.input("Mine"), models.StatusPending)

	_, err := f.testimonials.Get(ctx, other, created.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	_, err = f.testimonials.Get(ctx, f.operator, created.ID)
	assert.NoError(t, err)

	title := "Edited"
	_, err = f.testimonials.Update(ctx, f.operator, created.ID, TestimonialUpdate{Title: &title})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	_, err = f.testimonials.Update(ctx, other, created.ID, TestimonialUpdate{Title: &title})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	assert.True(t, apperrors.Is(f.testimonials.Delete(ctx, other, created.ID), apperrors.KindForbidden))

	updated, err := f.testimonials.Update(ctx, f.admin, created.ID, TestimonialUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
}

func TestTestimonialService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.contributor, f.input("Mine 1"), models.StatusPending)
	f.create(t, f.contributor, f.input("Mine 2"), models.StatusApproved)
	f.create(t, f.operator, f.input("Someone else"), models.StatusPending)

	own, err := f.testimonials.List(ctx, f.contributor, TestimonialFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), own.Total)

	all, err := f.testimonials.List(ctx, f.admin, TestimonialFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)

	approvedOnly, err := f.testimonials.List(ctx, f.admin, TestimonialFilter{Status: models.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), approvedOnly.Total)

	queue, err := f.testimonials.Moderation(ctx, TestimonialFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), queue.Total)
	for _, item := range queue.Testimonials {
		assert.Equal(t, models.StatusPending, item.Status)
	}

	_, err = f.testimonials.List(ctx, f.admin, TestimonialFilter{Status: "archived"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestTestimonialService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.create(t, f.contributor, f.input("Moderate me"), models.StatusPending)

	reviewed, err := f.testimonials.UpdateStatus(ctx, created.ID, models.StatusInReview)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, reviewed.Status)

	_, err = f.testimonials.UpdateStatus(ctx, created.ID, models.StatusPending)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	approvedT, err := f.testimonials.UpdateStatus(ctx, created.ID, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approvedT.Status)

	_, err = f.testimonials.UpdateStatus(ctx, created.ID, models.StatusRejected)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.testimonials.UpdateStatus(ctx, created.ID, "archived")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.testimonials.UpdateStatus(ctx, "missing", models.StatusApproved)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestTestimonialService_UpdateIsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mentoring := testutil.Tag(t, f.db, "mentoring")
	remote := testutil.Tag(t, f.db, "remote")
	input := f.input("Original")
	input.TagIDs = []string{mentoring.ID}
	input.Media = MediaInput{Type: models.MediaImage, File: testutil.FileHeader(t, "a.png", testutil.PNG), Description: "old"}
	created := f.create(t, f.contributor, input, models.StatusPending)
	oldPath := created.Multimedia.StoragePath

	content := "Rewritten content"
	tags := []string{remote.ID}
	updated, err := f.testimonials.Update(ctx, f.contributor, created.ID, TestimonialUpdate{
		Content: &content,
		TagIDs:  &tags,
		Media:   &MediaInput{Type: models.MediaVideo, URL: "https://vimeo.com/1", Description: "new"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rewritten content", updated.Content)
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "Ana Torres", updated.Author)
	assert.Equal(t, models.StatusPending, updated.Status)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "remote", updated.Tags[0].Name)
	require.NotNil(t, updated.Multimedia)
	assert.Equal(t, models.MediaVideo, updated.Multimedia.Type)

	exists, err := f.storage.Exists(ctx, oldPath)
	require.NoError(t, err)
	assert.False(t, exists)

	none := MediaInput{Type: models.MediaNone}
	noTags := []string{}
	cleared, err := f.testimonials.Update(ctx, f.contributor, created.ID, TestimonialUpdate{Media: &none, TagIDs: &noTags})
	require.NoError(t, err)
	assert.Nil(t, cleared.Multimedia)
	assert.Empty(t, cleared.Tags)

	blank := ""
	_, err = f.testimonials.Update(ctx, f.contributor, created.ID, TestimonialUpdate{Author: &blank})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestTestimonialService_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := f.input("Short lived")
	input.TagIDs = []string{testutil.Tag(t, f.db, "success").ID}
	input.Media = MediaInput{Type: models.MediaImage, File: testutil.FileHeader(t, "a.png", testutil.PNG), Description: "pic"}
	created := f.create(t, f.contributor, input, models.StatusApproved)
	path := created.Multimedia.StoragePath

	require.NoError(t, f.testimonials.Delete(ctx, f.contributor, created.ID))

	_, err := f.testimonials.Get(ctx, f.admin, created.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = f.public.Get(ctx, created.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	var count int64
	f.db.Model(&models.Multimedia{}).Where("testimonial_id = ?", created.ID).Count(&count)
	assert.Zero(t, count)
	f.db.Model(&models.Engagement{}).Where("testimonial_id = ?", created.ID).Count(&count)
	assert.Zero(t, count)
	f.db.Table("testimonial_tags").Where("testimonial_id = ?", created.ID).Count(&count)
	assert.Zero(t, count)

	exists, err := f.storage.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.True(t, apperrors.Is(f.testimonials.Delete(ctx, f.admin, created.ID), apperrors.KindNotFound))
}
