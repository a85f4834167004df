package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidora/vidora/internal/domain"
	apperrors "github.com/vidora/vidora/pkg/errors"
)

// SubscriptionRepository implements repository.SubscriptionRepository using PostgreSQL.
type SubscriptionRepository struct {
	db DB
}

// NewSubscriptionRepository creates a new PostgreSQL-backed subscription repository.
func NewSubscriptionRepository(db DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Get retrieves the subscription for the given pair, if any.
func (r *SubscriptionRepository) Get(ctx context.Context, subscriberID, channelID string) (*domain.Subscription, error) {
	query := `
		SELECT id, subscriber_id, channel_id, created_at
		FROM subscriptions
		WHERE subscriber_id = $1 AND channel_id = $2`

	var s domain.Subscription
	err := r.db.QueryRow(ctx, query, subscriberID, channelID).Scan(
		&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}

	return &s, nil
}

// Create inserts a new subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, s.ID, s.SubscriberID, s.ChannelID, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("subscription", "subscriber and channel")
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// Delete removes the subscription for the given pair.
func (r *SubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	query := `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`

	ct, err := r.db.Exec(ctx, query, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ListSubscribers returns the public profiles of users subscribed to the channel.
func (r *SubscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]domain.Profile, error) {
	query := `
		SELECT u.id, u.user_name, u.full_name, u.avatar_url
		FROM subscriptions s
		JOIN users u ON u.id = s.subscriber_id
		WHERE s.channel_id = $1
		ORDER BY s.created_at DESC`

	return r.scanProfiles(ctx, query, channelID)
}

// ListChannels returns the public profiles of channels the subscriber follows.
func (r *SubscriptionRepository) ListChannels(ctx context.Context, subscriberID string) ([]domain.Profile, error) {
	query := `
		SELECT u.id, u.user_name, u.full_name, u.avatar_url
		FROM subscriptions s
		JOIN users u ON u.id = s.channel_id
		WHERE s.subscriber_id = $1
		ORDER BY s.created_at DESC`

	return r.scanProfiles(ctx, query, subscriberID)
}

func (r *SubscriptionRepository) scanProfiles(ctx context.Context, query string, args ...any) ([]domain.Profile, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.UserName, &p.FullName, &p.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}
