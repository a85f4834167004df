package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vidora/vidora/internal/domain"
	"github.com/vidora/vidora/internal/repository"
	apperrors "github.com/vidora/vidora/pkg/errors"
)

// SubscriptionService implements the business logic for channel subscriptions.
type SubscriptionService struct {
	subRepo  repository.SubscriptionRepository
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	logger *slog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Toggle subscribes the user to the channel, or unsubscribes when a
// subscription already exists. Returns true when the user ends up subscribed.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, apperrors.Validation("cannot subscribe to your own channel")
	}

	if _, err := s.userRepo.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, apperrors.NotFound("channel", channelID)
		}
		return false, fmt.Errorf("load channel: %w", err)
	}

	_, err := s.subRepo.Get(ctx, subscriberID, channelID)
	switch {
	case err == nil:
		if err := s.subRepo.Delete(ctx, subscriberID, channelID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return false, fmt.Errorf("unsubscribe: %w", err)
		}
		s.logger.InfoContext(ctx, "unsubscribed",
			slog.String("subscriber_id", subscriberID),
			slog.String("channel_id", channelID),
		)
		return false, nil

	case errors.Is(err, apperrors.ErrNotFound):
		sub := &domain.Subscription{
			ID:           uuid.New().String(),
			SubscriberID: subscriberID,
			ChannelID:    channelID,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.subRepo.Create(ctx, sub); err != nil {
			// A concurrent toggle won the race; treat as subscribed.
			if errors.Is(err, apperrors.ErrConflict) {
				return true, nil
			}
			return false, fmt.Errorf("subscribe: %w", err)
		}
		s.logger.InfoContext(ctx, "subscribed",
			slog.String("subscriber_id", subscriberID),
			slog.String("channel_id", channelID),
		)
		return true, nil

	default:
		return false, fmt.Errorf("load subscription: %w", err)
	}
}

// ChannelSubscribers returns the public profiles of the channel's subscribers.
func (s *SubscriptionService) ChannelSubscribers(ctx context.Context, channelID string) ([]domain.Profile, error) {
	if _, err := s.userRepo.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("channel", channelID)
		}
		return nil, fmt.Errorf("load channel: %w", err)
	}

	profiles, err := s.subRepo.ListSubscribers(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	return profiles, nil
}

// SubscribedChannels returns the public profiles of channels the user follows.
func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriberID string) ([]domain.Profile, error) {
	profiles, err := s.subRepo.ListChannels(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("list subscribed channels: %w", err)
	}

	return profiles, nil
}
