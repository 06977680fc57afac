package services

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicService_ListOnlyApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.contributor, f.input("Approved"), models.StatusApproved)
	f.create(t, f.contributor, f.input("Pending"), models.StatusPending)
	f.create(t, f.contributor, f.input("Rejected"), models.StatusRejected)
	f.create(t, f.contributor, f.input("In review"), models.StatusInReview)

	page, err := f.public.List(ctx, PublicFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Testimonials, 1)
	for _, item := range page.Testimonials {
		assert.Equal(t, models.StatusApproved, item.Status)
	}
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageLimit, page.Limit)
}

func TestPublicService_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		f.create(t, f.contributor, f.input(fmt.Sprintf("Story %d", i)), models.StatusApproved)
	}

	page, err := f.public.List(ctx, PublicFilter{Page: Page{Page: 2, Limit: 6}})
	require.NoError(t, err)
	assert.Len(t, page.Testimonials, 4)
	assert.Equal(t, int64(10), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 6, page.Limit)
	assert.Equal(t, 2, page.TotalPages)

	capped, err := f.public.List(ctx, PublicFilter{Page: Page{Page: 1, Limit: 500}})
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, capped.Limit)
	assert.Len(t, capped.Testimonials, 10)

	beyond, err := f.public.List(ctx, PublicFilter{Page: Page{Page: 5, Limit: 6}})
	require.NoError(t, err)
	assert.Empty(t, beyond.Testimonials)
	assert.NotNil(t, beyond.Testimonials)

	huge, err := f.public.List(ctx, PublicFilter{Page: Page{Page: math.MaxInt, Limit: MaxPageLimit}})
	require.NoError(t, err)
	assert.Empty(t, huge.Testimonials)
	assert.Equal(t, int64(10), huge.Total)
}

func TestPage_NormalizeClampsOffset(t *testing.T) {
	page := Page{Page: math.MaxInt, Limit: MaxPageLimit}.Normalize()
	assert.Equal(t, maxPage, page.Page)
	assert.Positive(t, page.Offset())
	assert.LessOrEqual(t, page.Offset(), math.MaxInt32)

	assert.Equal(t, Page{Page: 1, Limit: DefaultPageLimit}, Page{Page: -3}.Normalize())
}

func TestPublicService_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	career := testutil.Category(t, f.db, "Career")
	remote := testutil.Tag(t, f.db, "remote")
	mentoring := testutil.Tag(t, f.db, "mentoring")

	text := f.input("Plain text")
	text.TagIDs = []string{remote.ID}
	f.create(t, f.contributor, text, models.StatusApproved)

	image := f.input("With image")
	image.CategoryID = career.ID
	image.TagIDs = []string{mentoring.ID}
	image.Media = MediaInput{Type: models.MediaImage, URL: "https://example.com/a.png", Description: "pic"}
	f.create(t, f.contributor, image, models.StatusApproved)

	video := f.input("With video")
	video.CategoryID = career.ID
	video.Media = MediaInput{Type: models.MediaVideo, URL: "https://youtu.be/x", Description: "clip"}
	f.create(t, f.contributor, video, models.StatusApproved)

	yes, no := true, false
	tests := []struct {
		name   string
		filter PublicFilter
		want   []string
	}{
		{"category by slug", PublicFilter{Category: "career"}, []string{"With image", "With video"}},
		{"category by name", PublicFilter{Category: "CAREER"}, []string{"With image", "With video"}},
		{"category by id", PublicFilter{Category: career.ID}, []string{"With image", "With video"}},
		{"unknown category", PublicFilter{Category: "cooking"}, nil},
		{"tags any match", PublicFilter{Tags: []string{"Remote", "mentoring"}}, []string{"Plain text", "With image"}},
		{"has multimedia", PublicFilter{HasMultimedia: &yes}, []string{"With image", "With video"}},
		{"without multimedia", PublicFilter{HasMultimedia: &no}, []string{"Plain text"}},
		{"media image", PublicFilter{MediaType: "image"}, []string{"With image"}},
		{"media none", PublicFilter{MediaType: "none"}, []string{"Plain text"}},
		{"media all", PublicFilter{MediaType: "all"}, []string{"Plain text", "With image", "With video"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.public.List(ctx, tt.filter)
			require.NoError(t, err)
			titles := []string{}
			for _, item := range page.Testimonials {
				titles = append(titles, item.Title)
			}
			assert.ElementsMatch(t, tt.want, titles)
			assert.Equal(t, int64(len(tt.want)), page.Total)
		})
	}

	_, err := f.public.List(ctx, PublicFilter{MediaType: "audio"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = f.public.List(ctx, PublicFilter{Sort: "random"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestPublicService_Sort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, f.contributor, f.input("First"), models.StatusApproved)
	f.create(t, f.contributor, f.input("Second"), models.StatusApproved)
	// Distinct timestamps keep newest/oldest deterministic
	f.db.Model(&models.Testimonial{}).Where("id = ?", first.ID).Update("created_at", time.Now().Add(-time.Hour))

	for i := 0; i < 3; i++ {
		_, err := f.public.Get(ctx, first.ID)
		require.NoError(t, err)
	}

	titles := func(sort string) []string {
		page, err := f.public.List(ctx, PublicFilter{Sort: sort})
		require.NoError(t, err)
		out := []string{}
		for _, item := range page.Testimonials {
			out = append(out, item.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Second", "First"}, titles("newest"))
	assert.Equal(t, []string{"First", "Second"}, titles("oldest"))
	assert.Equal(t, []string{"First", "Second"}, titles("views"))
	assert.Equal(t, []string{"First", "Second"}, titles("popular"))
}

func TestPublicService_GetCountsViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.create(t, f.contributor, f.input("Counted"), models.StatusApproved)

	got, err := f.public.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Engagement.Views)

	got, err = f.public.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Engagement.Views)

	pending := f.create(t, f.contributor, f.input("Hidden"), models.StatusPending)
	_, err = f.public.Get(ctx, pending.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	var engagement models.Engagement
	require.NoError(t, f.db.Where("testimonial_id = ?", pending.ID).First(&engagement).Error)
	assert.Zero(t, engagement.Views)
}

func TestPublicService_SearchRelatedMultimedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	career := testutil.Category(t, f.db, "Career")
	remote := testutil.Tag(t, f.db, "remote")

	base := f.input("Remote work")
	base.TagIDs = []string{remote.ID}
	base.Media = MediaInput{Type: models.MediaImage, URL: "https://example.com/a.png", Description: "pic"}
	baseT := f.create(t, f.contributor, base, models.StatusApproved)

	sameCategory := f.input("Same category")
	f.create(t, f.contributor, sameCategory, models.StatusApproved)

	sharedTag := f.input("Shared tag")
	sharedTag.CategoryID = career.ID
	sharedTag.TagIDs = []string{remote.ID}
	f.create(t, f.contributor, sharedTag, models.StatusApproved)

	unrelated := f.input("Unrelated")
	unrelated.CategoryID = career.ID
	f.create(t, f.contributor, unrelated, models.StatusApproved)

	related, err := f.public.Related(ctx, baseT.ID, 0)
	require.NoError(t, err)
	titles := []string{}
	for _, item := range related {
		titles = append(titles, item.Title)
	}
	assert.ElementsMatch(t, []string{"Same category", "Shared tag"}, titles)

	found, err := f.public.Search(ctx, "REMOTE", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.Total)

	_, err = f.public.Search(ctx, "  ", Page{})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	media, err := f.public.Multimedia(ctx, baseT.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", media.URL)

	plain := f.create(t, f.contributor, f.input("No media"), models.StatusApproved)
	_, err = f.public.Multimedia(ctx, plain.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestPublicService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withMedia := f.input("Media")
	withMedia.Media = MediaInput{Type: models.MediaVideo, URL: "https://youtu.be/x", Description: "clip"}
	a := f.create(t, f.contributor, withMedia, models.StatusApproved)
	f.create(t, f.contributor, f.input("Text"), models.StatusApproved)
	f.create(t, f.contributor, f.input("Pending"), models.StatusPending)

	_, err := f.public.Get(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.embeds.Code(ctx, a.ID)
	require.NoError(t, err)

	stats, err := f.public.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalTestimonials)
	assert.Equal(t, int64(1), stats.TotalViews)
	assert.Equal(t, int64(1), stats.TotalEmbeds)
	assert.Equal(t, int64(1), stats.TestimonialsWithMedia)

	byCategory, err := f.public.StatsByCategory(ctx)
	require.NoError(t, err)
	assert.Len(t, byCategory, 5)
	for _, c := range byCategory {
		if c.CategoryName == "Technology" {
			assert.Equal(t, "technology", c.Slug)
			assert.Equal(t, int64(2), c.TotalTestimonials)
			assert.Equal(t, int64(1), c.TestimonialsWithMedia)
		} else {
			assert.Zero(t, c.TotalTestimonials)
		}
	}
}
