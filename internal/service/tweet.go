package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidora/vidora/internal/domain"
	"github.com/vidora/vidora/internal/repository"
	apperrors "github.com/vidora/vidora/pkg/errors"
	"github.com/vidora/vidora/pkg/pagination"
)

// maxTweetLength caps tweet content.
const maxTweetLength = 500

// TweetService implements the business logic for tweet operations.
type TweetService struct {
	tweetRepo repository.TweetRepository
	logger    *slog.Logger
}

// NewTweetService creates a new tweet service.
func NewTweetService(tweetRepo repository.TweetRepository, logger *slog.Logger) *TweetService {
	return &TweetService{
		tweetRepo: tweetRepo,
		logger:    logger,
	}
}

// Create posts a new tweet for the owner.
func (s *TweetService) Create(ctx context.Context, ownerID, content string) (*domain.Tweet, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tweet := &domain.Tweet{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tweetRepo.Create(ctx, tweet); err != nil {
		return nil, fmt.Errorf("create tweet: %w", err)
	}

	s.logger.InfoContext(ctx, "tweet created",
		slog.String("tweet_id", tweet.ID),
		slog.String("owner_id", ownerID),
	)

	return tweet, nil
}

// ListByUser returns a user's tweets, most recent first.
func (s *TweetService) ListByUser(ctx context.Context, ownerID string, params pagination.Params) (pagination.Result[domain.Tweet], error) {
	tweets, total, err := s.tweetRepo.ListByOwner(ctx, ownerID, params)
	if err != nil {
		return pagination.Result[domain.Tweet]{}, fmt.Errorf("list tweets: %w", err)
	}

	return pagination.NewResult(tweets, int(total), params), nil
}

// Update replaces a tweet's content. Only the owner may update.
func (s *TweetService) Update(ctx context.Context, userID, tweetID, content string) (*domain.Tweet, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}

	if tweet.OwnerID != userID {
		return nil, apperrors.Forbidden("you do not own this tweet")
	}

	content, err = normalizeContent(content)
	if err != nil {
		return nil, err
	}
	tweet.Content = content

	if err := s.tweetRepo.Update(ctx, tweet); err != nil {
		return nil, fmt.Errorf("update tweet: %w", err)
	}

	return tweet, nil
}

// Delete removes a tweet. Only the owner may delete.
func (s *TweetService) Delete(ctx context.Context, userID, tweetID string) error {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		return err
	}

	if tweet.OwnerID != userID {
		return apperrors.Forbidden("you do not own this tweet")
	}

	if err := s.tweetRepo.Delete(ctx, tweetID); err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}

	s.logger.InfoContext(ctx, "tweet deleted",
		slog.String("tweet_id", tweetID),
		slog.String("owner_id", userID),
	)

	return nil
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.Validation("content is required")
	}
	if len(content) > maxTweetLength {
		return "", apperrors.Validation(fmt.Sprintf("content exceeds %d characters", maxTweetLength))
	}
	return content, nil
}
