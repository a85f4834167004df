package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidora/vidora/internal/domain"
	"github.com/vidora/vidora/internal/event"
	"github.com/vidora/vidora/internal/repository"
	"github.com/vidora/vidora/internal/storage"
	apperrors "github.com/vidora/vidora/pkg/errors"
	"github.com/vidora/vidora/pkg/pagination"
)

// validSortFields are the accepted sort_by values for video listings.
var validSortFields = map[string]bool{
	"created_at": true,
	"views":      true,
	"duration":   true,
	"title":      true,
}

// VideoCache caches listing pages keyed by filter and pagination.
type VideoCache interface {
	Get(ctx context.Context, filter domain.VideoFilter, params pagination.Params) ([]domain.Video, int64, error)
	Set(ctx context.Context, filter domain.VideoFilter, params pagination.Params, videos []domain.Video, totalCount int64) error
	Invalidate(ctx context.Context) error
}

// VideoService implements the business logic for video operations.
type VideoService struct {
	videoRepo   repository.VideoRepository
	historyRepo repository.WatchHistoryRepository
	cache       VideoCache
	store       storage.Storage
	producer    event.Publisher
	logger      *slog.Logger
}

// NewVideoService creates a new video service.
func NewVideoService(
	videoRepo repository.VideoRepository,
	historyRepo repository.WatchHistoryRepository,
	cache VideoCache,
	store storage.Storage,
	producer event.Publisher,
	logger *slog.Logger,
) *VideoService {
	return &VideoService{
		videoRepo:   videoRepo,
		historyRepo: historyRepo,
		cache:       cache,
		store:       store,
		producer:    producer,
		logger:      logger,
	}
}

// PublishInput holds the parameters for publishing a new video.
type PublishInput struct {
	Title       string
	Description string
	Duration    float64
	Video       *storage.UploadInput
	Thumbnail   *storage.UploadInput
}

// UpdateVideoInput holds the parameters for updating a video. Nil fields are
// left unchanged.
type UpdateVideoInput struct {
	Title       *string
	Description *string
	Thumbnail   *storage.UploadInput
}

// List returns published videos matching the filter, served through the cache.
func (s *VideoService) List(ctx context.Context, filter domain.VideoFilter, params pagination.Params) (pagination.Result[domain.Video], error) {
	if filter.SortBy != "" && !validSortFields[filter.SortBy] {
		return pagination.Result[domain.Video]{}, apperrors.Validation(fmt.Sprintf("invalid sort field %q", filter.SortBy))
	}
	filter.PublishedOnly = true

	if videos, total, err := s.cache.Get(ctx, filter, params); err == nil {
		return pagination.NewResult(videos, int(total), params), nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "video list cache read failed", slog.String("error", err.Error()))
	}

	videos, total, err := s.videoRepo.List(ctx, filter, params)
	if err != nil {
		return pagination.Result[domain.Video]{}, fmt.Errorf("list videos: %w", err)
	}

	if err := s.cache.Set(ctx, filter, params, videos, total); err != nil {
		s.logger.WarnContext(ctx, "video list cache write failed", slog.String("error", err.Error()))
	}

	return pagination.NewResult(videos, int(total), params), nil
}

// Publish uploads the video and thumbnail files and creates the video record.
func (s *VideoService) Publish(ctx context.Context, ownerID string, input PublishInput) (*domain.Video, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	if title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if description == "" {
		return nil, apperrors.Validation("description is required")
	}
	if input.Video == nil {
		return nil, apperrors.Validation("video file is required")
	}
	if input.Thumbnail == nil {
		return nil, apperrors.Validation("thumbnail is required")
	}

	videoRes, err := s.store.Upload(ctx, input.Video)
	if err != nil {
		s.logger.ErrorContext(ctx, "video upload failed", slog.String("error", err.Error()))
		return nil, apperrors.Validation("video upload failed")
	}

	thumbRes, err := s.store.Upload(ctx, input.Thumbnail)
	if err != nil {
		s.logger.ErrorContext(ctx, "thumbnail upload failed", slog.String("error", err.Error()))
		return nil, apperrors.Validation("thumbnail upload failed")
	}

	now := time.Now().UTC()
	video := &domain.Video{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        title,
		Description:  description,
		VideoURL:     videoRes.URL,
		ThumbnailURL: thumbRes.URL,
		Duration:     input.Duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	s.invalidateListings(ctx)

	if err := s.producer.PublishVideoPublished(ctx, video); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish video.published event",
			slog.String("video_id", video.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "video published",
		slog.String("video_id", video.ID),
		slog.String("owner_id", ownerID),
	)

	return video, nil
}

// Get returns a video by ID. The view counter is bumped, and when viewerID is
// set the view is appended to that user's watch history.
func (s *VideoService) Get(ctx context.Context, id, viewerID string) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.videoRepo.IncrementViews(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "view counter update failed",
			slog.String("video_id", id),
			slog.String("error", err.Error()),
		)
	} else {
		video.Views++
	}

	if viewerID != "" {
		entry := &domain.WatchHistoryEntry{
			ID:        uuid.New().String(),
			UserID:    viewerID,
			Video:     domain.Video{ID: id},
			WatchedAt: time.Now().UTC(),
		}
		if err := s.historyRepo.Append(ctx, entry); err != nil {
			s.logger.WarnContext(ctx, "watch history append failed",
				slog.String("video_id", id),
				slog.String("user_id", viewerID),
				slog.String("error", err.Error()),
			)
		}
	}

	return video, nil
}

// Update modifies a video's title, description, or thumbnail. Only the owner
// may update.
func (s *VideoService) Update(ctx context.Context, userID, videoID string, input UpdateVideoInput) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video.OwnerID != userID {
		return nil, apperrors.Forbidden("you do not own this video")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.Validation("title cannot be empty")
		}
		video.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.Validation("description cannot be empty")
		}
		video.Description = description
	}
	if input.Thumbnail != nil {
		thumbRes, err := s.store.Upload(ctx, input.Thumbnail)
		if err != nil {
			s.logger.ErrorContext(ctx, "thumbnail upload failed", slog.String("error", err.Error()))
			return nil, apperrors.Validation("thumbnail upload failed")
		}
		s.deleteMedia(ctx, video.ThumbnailURL)
		video.ThumbnailURL = thumbRes.URL
	}

	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}

	s.invalidateListings(ctx)

	return video, nil
}

// Delete removes a video and its stored media. Only the owner may delete.
func (s *VideoService) Delete(ctx context.Context, userID, videoID string) error {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	if video.OwnerID != userID {
		return apperrors.Forbidden("you do not own this video")
	}

	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	s.deleteMedia(ctx, video.VideoURL)
	s.deleteMedia(ctx, video.ThumbnailURL)
	s.invalidateListings(ctx)

	if err := s.producer.PublishVideoDeleted(ctx, video); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish video.deleted event",
			slog.String("video_id", video.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "video deleted",
		slog.String("video_id", videoID),
		slog.String("owner_id", userID),
	)

	return nil
}

// TogglePublish flips the published flag. Only the owner may toggle.
func (s *VideoService) TogglePublish(ctx context.Context, userID, videoID string) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video.OwnerID != userID {
		return nil, apperrors.Forbidden("you do not own this video")
	}

	video.IsPublished = !video.IsPublished

	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, fmt.Errorf("toggle publish: %w", err)
	}

	s.invalidateListings(ctx)

	return video, nil
}

// invalidateListings drops cached listing pages. Failures are logged only.
func (s *VideoService) invalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "video list cache invalidation failed", slog.String("error", err.Error()))
	}
}

// deleteMedia removes a stored object by its public URL, best effort.
func (s *VideoService) deleteMedia(ctx context.Context, rawURL string) {
	key := storageKeyFromURL(rawURL)
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "media delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// storageKeyFromURL extracts the object key (the last two path segments) from
// a public media URL.
func storageKeyFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	return strings.Join(segments[len(segments)-2:], "/")
}
