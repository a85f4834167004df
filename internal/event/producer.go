package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vidora/vidora/internal/domain"
	pkgkafka "github.com/vidora/vidora/pkg/kafka"
)

// Kafka topic constants for domain events.
const (
	TopicUserRegistered = "vidora.user.registered"
	TopicVideoPublished = "vidora.video.published"
	TopicVideoDeleted   = "vidora.video.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeUser  = "user"
	AggregateTypeVideo = "video"
)

// Source identifier for events originating from this service.
const Source = "vidora-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// VideoPublishedData is the payload for a video.published event.
type VideoPublishedData struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
}

// VideoDeletedData is the payload for a video.deleted event.
type VideoDeletedData struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
}

// Publisher is the event publishing interface the services depend on.
// Publish failures are logged by callers and never fail the request.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishVideoPublished(ctx context.Context, video *domain.Video) error
	PublishVideoDeleted(ctx context.Context, video *domain.Video) error
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		UserName: user.UserName,
		Email:    user.Email,
		FullName: user.FullName,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishVideoPublished publishes a video.published event.
func (p *Producer) PublishVideoPublished(ctx context.Context, video *domain.Video) error {
	data := VideoPublishedData{
		ID:      video.ID,
		OwnerID: video.OwnerID,
		Title:   video.Title,
	}

	event, err := pkgkafka.NewEvent(TopicVideoPublished, video.ID, AggregateTypeVideo, Source, data)
	if err != nil {
		return fmt.Errorf("create video.published event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicVideoPublished, event); err != nil {
		return fmt.Errorf("publish video.published event: %w", err)
	}

	p.logger.DebugContext(ctx, "published video.published event",
		slog.String("video_id", video.ID),
	)

	return nil
}

// PublishVideoDeleted publishes a video.deleted event.
func (p *Producer) PublishVideoDeleted(ctx context.Context, video *domain.Video) error {
	data := VideoDeletedData{
		ID:      video.ID,
		OwnerID: video.OwnerID,
	}

	event, err := pkgkafka.NewEvent(TopicVideoDeleted, video.ID, AggregateTypeVideo, Source, data)
	if err != nil {
		return fmt.Errorf("create video.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicVideoDeleted, event); err != nil {
		return fmt.Errorf("publish video.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published video.deleted event",
		slog.String("video_id", video.ID),
	)

	return nil
}
