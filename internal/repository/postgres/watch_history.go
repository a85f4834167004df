package postgres

import (
	"context"
	"fmt"

	"github.com/vidora/vidora/internal/domain"
	"github.com/vidora/vidora/pkg/pagination"
)

// WatchHistoryRepository implements repository.WatchHistoryRepository using PostgreSQL.
type WatchHistoryRepository struct {
	db DB
}

// NewWatchHistoryRepository creates a new PostgreSQL-backed watch history repository.
func NewWatchHistoryRepository(db DB) *WatchHistoryRepository {
	return &WatchHistoryRepository{db: db}
}

// Append records a video view for the user.
func (r *WatchHistoryRepository) Append(ctx context.Context, e *domain.WatchHistoryEntry) error {
	query := `
		INSERT INTO watch_history (id, user_id, video_id, watched_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, e.ID, e.UserID, e.Video.ID, e.WatchedAt)
	if err != nil {
		return fmt.Errorf("insert watch history entry: %w", err)
	}

	return nil
}

// ListByUser returns the user's history, most recent first, with video and
// owner projections plus the total count.
func (r *WatchHistoryRepository) ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.WatchHistoryEntry, int64, error) {
	query := `
		SELECT h.id, h.user_id, h.watched_at,
		       v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       u.id, u.user_name, u.full_name, u.avatar_url,
		       count(*) OVER() AS total_count
		FROM watch_history h
		JOIN videos v ON v.id = h.video_id
		JOIN users u ON u.id = v.owner_id
		WHERE h.user_id = $1
		ORDER BY h.watched_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list watch history: %w", err)
	}
	defer rows.Close()

	var (
		entries    []domain.WatchHistoryEntry
		totalCount int64
	)

	for rows.Next() {
		var (
			e     domain.WatchHistoryEntry
			owner domain.Profile
		)
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.WatchedAt,
			&e.Video.ID, &e.Video.OwnerID, &e.Video.Title, &e.Video.Description,
			&e.Video.VideoURL, &e.Video.ThumbnailURL, &e.Video.Duration, &e.Video.Views,
			&e.Video.IsPublished, &e.Video.CreatedAt, &e.Video.UpdatedAt,
			&owner.ID, &owner.UserName, &owner.FullName, &owner.AvatarURL,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan watch history row: %w", err)
		}
		e.Video.Owner = &owner
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, totalCount, nil
}
