package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidora/vidora/internal/domain"
	apperrors "github.com/vidora/vidora/pkg/errors"
	"github.com/vidora/vidora/pkg/pagination"
)

// videoSortColumns whitelists the sortable columns for listings.
var videoSortColumns = map[string]string{
	"created_at": "v.created_at",
	"views":      "v.views",
	"duration":   "v.duration",
	"title":      "v.title",
}

// VideoRepository implements repository.VideoRepository using PostgreSQL.
type VideoRepository struct {
	db DB
}

// NewVideoRepository creates a new PostgreSQL-backed video repository.
func NewVideoRepository(db DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video into the database.
func (r *VideoRepository) Create(ctx context.Context, v *domain.Video) error {
	query := `
		INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		v.ID,
		v.OwnerID,
		v.Title,
		v.Description,
		v.VideoURL,
		v.ThumbnailURL,
		v.Duration,
		v.Views,
		v.IsPublished,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// GetByID retrieves a video with its owner projection.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	query := `
		SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       u.id, u.user_name, u.full_name, u.avatar_url
		FROM videos v
		JOIN users u ON u.id = v.owner_id
		WHERE v.id = $1`

	var (
		v     domain.Video
		owner domain.Profile
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
		&owner.ID, &owner.UserName, &owner.FullName, &owner.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("video", id)
		}
		return nil, fmt.Errorf("scan video: %w", err)
	}

	v.Owner = &owner
	return &v, nil
}

// List returns videos matching the filter, with owner projections and the
// total match count.
func (r *VideoRepository) List(ctx context.Context, filter domain.VideoFilter, params pagination.Params) ([]domain.Video, int64, error) {
	var (
		conditions []string
		args       []any
	)
	argIndex := 1

	if filter.PublishedOnly {
		conditions = append(conditions, "v.is_published = TRUE")
	}

	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Query+"%")
		argIndex++
	}

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("v.owner_id = $%d", argIndex))
		args = append(args, filter.OwnerID)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	sortColumn, ok := videoSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "v.created_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	// count(*) OVER() gives the total match count in a single query.
	query := fmt.Sprintf(`
		SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       u.id, u.user_name, u.full_name, u.avatar_url,
		       count(*) OVER() AS total_count
		FROM videos v
		JOIN users u ON u.id = v.owner_id
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		whereClause, sortColumn, sortOrder, argIndex, argIndex+1,
	)

	args = append(args, params.PerPage, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var (
		videos     []domain.Video
		totalCount int64
	)

	for rows.Next() {
		var (
			v     domain.Video
			owner domain.Profile
		)
		if err := rows.Scan(
			&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
			&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
			&owner.ID, &owner.UserName, &owner.FullName, &owner.AvatarURL,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan video row: %w", err)
		}
		v.Owner = &owner
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, totalCount, nil
}

// Update modifies an existing video in the database.
func (r *VideoRepository) Update(ctx context.Context, v *domain.Video) error {
	v.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE videos
		SET title = $1, description = $2, thumbnail_url = $3, is_published = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.db.Exec(ctx, query,
		v.Title,
		v.Description,
		v.ThumbnailURL,
		v.IsPublished,
		v.UpdatedAt,
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("video", v.ID)
	}

	return nil
}

// Delete removes a video from the database by its ID.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM videos WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("video", id)
	}

	return nil
}

// IncrementViews bumps the view counter by one.
func (r *VideoRepository) IncrementViews(ctx context.Context, id string) error {
	query := `UPDATE videos SET views = views + 1 WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("video", id)
	}

	return nil
}
