package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidora/vidora/internal/domain"
	apperrors "github.com/vidora/vidora/pkg/errors"
	"github.com/vidora/vidora/pkg/pagination"
)

// TweetRepository implements repository.TweetRepository using PostgreSQL.
type TweetRepository struct {
	db DB
}

// NewTweetRepository creates a new PostgreSQL-backed tweet repository.
func NewTweetRepository(db DB) *TweetRepository {
	return &TweetRepository{db: db}
}

// Create inserts a new tweet into the database.
func (r *TweetRepository) Create(ctx context.Context, t *domain.Tweet) error {
	query := `
		INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, t.ID, t.OwnerID, t.Content, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert tweet: %w", err)
	}

	return nil
}

// GetByID retrieves a tweet with its owner projection.
func (r *TweetRepository) GetByID(ctx context.Context, id string) (*domain.Tweet, error) {
	query := `
		SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at,
		       u.id, u.user_name, u.full_name, u.avatar_url
		FROM tweets t
		JOIN users u ON u.id = t.owner_id
		WHERE t.id = $1`

	var (
		t     domain.Tweet
		owner domain.Profile
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt,
		&owner.ID, &owner.UserName, &owner.FullName, &owner.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("tweet", id)
		}
		return nil, fmt.Errorf("scan tweet: %w", err)
	}

	t.Owner = &owner
	return &t, nil
}

// ListByOwner returns the owner's tweets, most recent first, with the total count.
func (r *TweetRepository) ListByOwner(ctx context.Context, ownerID string, params pagination.Params) ([]domain.Tweet, int64, error) {
	query := `
		SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at,
		       u.id, u.user_name, u.full_name, u.avatar_url,
		       count(*) OVER() AS total_count
		FROM tweets t
		JOIN users u ON u.id = t.owner_id
		WHERE t.owner_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, ownerID, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list tweets: %w", err)
	}
	defer rows.Close()

	var (
		tweets     []domain.Tweet
		totalCount int64
	)

	for rows.Next() {
		var (
			t     domain.Tweet
			owner domain.Profile
		)
		if err := rows.Scan(
			&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt,
			&owner.ID, &owner.UserName, &owner.FullName, &owner.AvatarURL,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan tweet row: %w", err)
		}
		t.Owner = &owner
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tweets: %w", err)
	}

	return tweets, totalCount, nil
}

// Update modifies an existing tweet in the database.
func (r *TweetRepository) Update(ctx context.Context, t *domain.Tweet) error {
	t.UpdatedAt = time.Now().UTC()

	query := `UPDATE tweets SET content = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, t.Content, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update tweet: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tweet", t.ID)
	}

	return nil
}

// Delete removes a tweet from the database by its ID.
func (r *TweetRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tweets WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tweet", id)
	}

	return nil
}
