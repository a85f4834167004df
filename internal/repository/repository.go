package repository

import (
	"context"

	"github.com/vidora/vidora/internal/domain"
	"github.com/vidora/vidora/pkg/pagination"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUserNameOrEmail retrieves a user matching either identifier.
	// Empty arguments never match.
	GetByUserNameOrEmail(ctx context.Context, userName, email string) (*domain.User, error)

	// Update modifies an existing user's profile fields.
	Update(ctx context.Context, user *domain.User) error

	// UpdateRefreshTokenHash overwrites the stored refresh token hash for the
	// user. A nil hash clears it.
	UpdateRefreshTokenHash(ctx context.Context, userID string, tokenHash *string) error

	// UpdatePasswordHash replaces the user's password hash.
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// VideoRepository defines the interface for video persistence operations.
type VideoRepository interface {
	// Create inserts a new video into the store.
	Create(ctx context.Context, video *domain.Video) error

	// GetByID retrieves a video with its owner projection.
	GetByID(ctx context.Context, id string) (*domain.Video, error)

	// List returns videos matching the filter, with owner projections, plus
	// the total match count.
	List(ctx context.Context, filter domain.VideoFilter, params pagination.Params) ([]domain.Video, int64, error)

	// Update modifies an existing video in the store.
	Update(ctx context.Context, video *domain.Video) error

	// Delete removes a video from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// IncrementViews bumps the view counter by one.
	IncrementViews(ctx context.Context, id string) error
}

// TweetRepository defines the interface for tweet persistence operations.
type TweetRepository interface {
	// Create inserts a new tweet into the store.
	Create(ctx context.Context, tweet *domain.Tweet) error

	// GetByID retrieves a tweet with its owner projection.
	GetByID(ctx context.Context, id string) (*domain.Tweet, error)

	// ListByOwner returns the owner's tweets, most recent first, plus the
	// total count.
	ListByOwner(ctx context.Context, ownerID string, params pagination.Params) ([]domain.Tweet, int64, error)

	// Update modifies an existing tweet in the store.
	Update(ctx context.Context, tweet *domain.Tweet) error

	// Delete removes a tweet from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// SubscriptionRepository defines the interface for subscription persistence operations.
type SubscriptionRepository interface {
	// Get retrieves the subscription for the given pair, if any.
	Get(ctx context.Context, subscriberID, channelID string) (*domain.Subscription, error)

	// Create inserts a new subscription.
	Create(ctx context.Context, sub *domain.Subscription) error

	// Delete removes the subscription for the given pair.
	Delete(ctx context.Context, subscriberID, channelID string) error

	// ListSubscribers returns the public profiles of users subscribed to the channel.
	ListSubscribers(ctx context.Context, channelID string) ([]domain.Profile, error)

	// ListChannels returns the public profiles of channels the subscriber follows.
	ListChannels(ctx context.Context, subscriberID string) ([]domain.Profile, error)
}

// WatchHistoryRepository defines the interface for watch history persistence operations.
type WatchHistoryRepository interface {
	// Append records a video view for the user.
	Append(ctx context.Context, entry *domain.WatchHistoryEntry) error

	// ListByUser returns the user's history, most recent first, with video and
	// owner projections, plus the total count.
	ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.WatchHistoryEntry, int64, error)
}
