package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vidora/vidora/internal/domain"
	"github.com/vidora/vidora/internal/storage"
	apperrors "github.com/vidora/vidora/pkg/errors"
	"github.com/vidora/vidora/pkg/pagination"
)

func newVideoServiceFixture() (*VideoService, *mockVideoRepository, *mockWatchHistoryRepository, *mockVideoCache, *mockStorage, *mockPublisher) {
	videoRepo := new(mockVideoRepository)
	historyRepo := new(mockWatchHistoryRepository)
	cache := new(mockVideoCache)
	store := new(mockStorage)
	producer := new(mockPublisher)
	svc := NewVideoService(videoRepo, historyRepo, cache, store, producer, newTestLogger())
	return svc, videoRepo, historyRepo, cache, store, producer
}

func ownedVideo() *domain.Video {
	now := time.Now().UTC()
	return &domain.Video{
		ID:           "video-1",
		OwnerID:      "owner-1",
		Title:        "Original title",
		Description:  "Original description",
		VideoURL:     "https://cdn.example.com/media/videos/v1.mp4",
		ThumbnailURL: "https://cdn.example.com/media/thumbnails/t1.jpg",
		Duration:     120,
		Views:        10,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func uploadInput(key string) *storage.UploadInput {
	return &storage.UploadInput{Key: key, ContentType: "application/octet-stream", Data: strings.NewReader("x")}
}

// --- List ---

func TestVideoList_InvalidSortField(t *testing.T) {
	svc, _, _, _, _, _ := newVideoServiceFixture()

	_, err := svc.List(context.Background(), domain.VideoFilter{SortBy: "password_hash"}, pagination.DefaultParams())

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestVideoList_CacheHitSkipsRepository(t *testing.T) {
	svc, videoRepo, _, cache, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	params := pagination.Params{Page: 1, PerPage: 10}
	filter := domain.VideoFilter{Query: "go", PublishedOnly: true}

	cache.On("Get", ctx, filter, params).Return([]domain.Video{*ownedVideo()}, int64(1), nil)

	result, err := svc.List(ctx, domain.VideoFilter{Query: "go"}, params)

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
	videoRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestVideoList_CacheMissFallsThrough(t *testing.T) {
	svc, videoRepo, _, cache, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	params := pagination.Params{Page: 1, PerPage: 10}
	filter := domain.VideoFilter{PublishedOnly: true}

	cache.On("Get", ctx, filter, params).Return(nil, int64(0), apperrors.ErrNotFound)
	videoRepo.On("List", ctx, filter, params).Return([]domain.Video{*ownedVideo()}, int64(1), nil)
	cache.On("Set", ctx, filter, params, mock.AnythingOfType("[]domain.Video"), int64(1)).Return(nil)

	result, err := svc.List(ctx, domain.VideoFilter{}, params)

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
	cache.AssertExpectations(t)
}

func TestVideoList_CacheErrorsAreNonFatal(t *testing.T) {
	svc, videoRepo, _, cache, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	params := pagination.Params{Page: 1, PerPage: 10}
	filter := domain.VideoFilter{PublishedOnly: true}

	cache.On("Get", ctx, filter, params).Return(nil, int64(0), errors.New("redis down"))
	videoRepo.On("List", ctx, filter, params).Return([]domain.Video{}, int64(0), nil)
	cache.On("Set", ctx, filter, params, mock.AnythingOfType("[]domain.Video"), int64(0)).Return(errors.New("redis down"))

	_, err := svc.List(ctx, domain.VideoFilter{}, params)

	require.NoError(t, err)
}

// --- Publish ---

func TestVideoPublish_Success(t *testing.T) {
	svc, videoRepo, _, cache, store, producer := newVideoServiceFixture()
	ctx := context.Background()

	store.On("Upload", ctx, mock.AnythingOfType("*storage.UploadInput")).
		Return(&storage.UploadResult{Key: "k", URL: "https://cdn.example.com/media/k"}, nil).Twice()
	videoRepo.On("Create", ctx, mock.AnythingOfType("*domain.Video")).Return(nil)
	cache.On("Invalidate", ctx).Return(nil)
	producer.On("PublishVideoPublished", ctx, mock.AnythingOfType("*domain.Video")).Return(nil)

	video, err := svc.Publish(ctx, "owner-1", PublishInput{
		Title:       "My video",
		Description: "About things",
		Duration:    33.4,
		Video:       uploadInput("videos/v.mp4"),
		Thumbnail:   uploadInput("thumbnails/t.jpg"),
	})

	require.NoError(t, err)
	assert.Equal(t, "owner-1", video.OwnerID)
	assert.True(t, video.IsPublished)
	assert.NotEmpty(t, video.ID)
	videoRepo.AssertExpectations(t)
}

func TestVideoPublish_MissingFiles(t *testing.T) {
	svc, _, _, _, _, _ := newVideoServiceFixture()

	_, err := svc.Publish(context.Background(), "owner-1", PublishInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Publish(context.Background(), "owner-1", PublishInput{
		Title: "t", Description: "d", Video: uploadInput("v"),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// --- Get ---

func TestVideoGet_IncrementsViewsAndAppendsHistory(t *testing.T) {
	svc, videoRepo, historyRepo, _, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	v := ownedVideo()

	videoRepo.On("GetByID", ctx, v.ID).Return(v, nil)
	videoRepo.On("IncrementViews", ctx, v.ID).Return(nil)
	historyRepo.On("Append", ctx, mock.MatchedBy(func(e *domain.WatchHistoryEntry) bool {
		return e.UserID == "viewer-1" && e.Video.ID == v.ID
	})).Return(nil)

	got, err := svc.Get(ctx, v.ID, "viewer-1")

	require.NoError(t, err)
	assert.Equal(t, int64(11), got.Views)
	historyRepo.AssertExpectations(t)
}

func TestVideoGet_AnonymousSkipsHistory(t *testing.T) {
	svc, videoRepo, historyRepo, _, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	v := ownedVideo()

	videoRepo.On("GetByID", ctx, v.ID).Return(v, nil)
	videoRepo.On("IncrementViews", ctx, v.ID).Return(nil)

	_, err := svc.Get(ctx, v.ID, "")

	require.NoError(t, err)
	historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestVideoGet_NotFound(t *testing.T) {
	svc, videoRepo, _, _, _, _ := newVideoServiceFixture()
	ctx := context.Background()

	videoRepo.On("GetByID", ctx, "missing").Return(nil, apperrors.NotFound("video", "missing"))

	_, err := svc.Get(ctx, "missing", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Update / Delete / TogglePublish ownership ---

func TestVideoUpdate_NonOwnerIsForbidden(t *testing.T) {
	svc, videoRepo, _, _, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	v := ownedVideo()

	videoRepo.On("GetByID", ctx, v.ID).Return(v, nil)

	_, err := svc.Update(ctx, "someone-else", v.ID, UpdateVideoInput{Title: strPtr("Hijacked")})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	videoRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestVideoUpdate_OwnerCanUpdate(t *testing.T) {
	svc, videoRepo, _, cache, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	v := ownedVideo()

	videoRepo.On("GetByID", ctx, v.ID).Return(v, nil)
	videoRepo.On("Update", ctx, mock.AnythingOfType("*domain.Video")).Return(nil)
	cache.On("Invalidate", ctx).Return(nil)

	got, err := svc.Update(ctx, v.OwnerID, v.ID, UpdateVideoInput{Title: strPtr("New title")})

	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	cache.AssertExpectations(t)
}

func TestVideoDelete_NonOwnerIsForbidden(t *testing.T) {
	svc, videoRepo, _, _, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	v := ownedVideo()

	videoRepo.On("GetByID", ctx, v.ID).Return(v, nil)

	err := svc.Delete(ctx, "someone-else", v.ID)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	videoRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestVideoDelete_OwnerRemovesMediaAndPublishesEvent(t *testing.T) {
	svc, videoRepo, _, cache, store, producer := newVideoServiceFixture()
	ctx := context.Background()
	v := ownedVideo()

	videoRepo.On("GetByID", ctx, v.ID).Return(v, nil)
	videoRepo.On("Delete", ctx, v.ID).Return(nil)
	store.On("Delete", ctx, "videos/v1.mp4").Return(nil)
	store.On("Delete", ctx, "thumbnails/t1.jpg").Return(nil)
	cache.On("Invalidate", ctx).Return(nil)
	producer.On("PublishVideoDeleted", ctx, v).Return(nil)

	require.NoError(t, svc.Delete(ctx, v.OwnerID, v.ID))
	store.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestVideoTogglePublish_FlipsFlag(t *testing.T) {
	svc, videoRepo, _, cache, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	v := ownedVideo()
	v.IsPublished = true

	videoRepo.On("GetByID", ctx, v.ID).Return(v, nil)
	videoRepo.On("Update", ctx, mock.AnythingOfType("*domain.Video")).Return(nil)
	cache.On("Invalidate", ctx).Return(nil)

	got, err := svc.TogglePublish(ctx, v.OwnerID, v.ID)

	require.NoError(t, err)
	assert.False(t, got.IsPublished)
}

func TestVideoTogglePublish_NonOwnerIsForbidden(t *testing.T) {
	svc, videoRepo, _, _, _, _ := newVideoServiceFixture()
	ctx := context.Background()
	v := ownedVideo()

	videoRepo.On("GetByID", ctx, v.ID).Return(v, nil)

	_, err := svc.TogglePublish(ctx, "someone-else", v.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestStorageKeyFromURL(t *testing.T) {
	assert.Equal(t, "videos/v1.mp4", storageKeyFromURL("https://cdn.example.com/media/videos/v1.mp4"))
	assert.Equal(t, "", storageKeyFromURL("https://cdn.example.com/"))
}
