package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidora/vidora/internal/domain"
	apperrors "github.com/vidora/vidora/pkg/errors"
	"github.com/vidora/vidora/pkg/pagination"
)

const keyPrefix = "videos:list:"

// cachedList is the stored shape of one listing page.
type cachedList struct {
	Videos     []domain.Video `json:"videos"`
	TotalCount int64          `json:"total_count"`
}

// VideoCache caches video listing pages in Redis. Mutating any video
// invalidates every cached page.
type VideoCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVideoCache creates a new Redis-backed video listing cache.
func NewVideoCache(client *redis.Client, ttl time.Duration) *VideoCache {
	return &VideoCache{
		client: client,
		ttl:    ttl,
	}
}

// key derives the cache key for a filter/pagination combination.
func key(filter domain.VideoFilter, params pagination.Params) string {
	return fmt.Sprintf("%sq=%s&owner=%s&sort=%s:%s&page=%d&per=%d",
		keyPrefix, filter.Query, filter.OwnerID, filter.SortBy, filter.SortOrder,
		params.Page, params.PerPage)
}

// Get retrieves a cached listing page.
func (c *VideoCache) Get(ctx context.Context, filter domain.VideoFilter, params pagination.Params) ([]domain.Video, int64, error) {
	data, err := c.client.Get(ctx, key(filter, params)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, 0, apperrors.ErrNotFound
		}
		return nil, 0, fmt.Errorf("redis get video list: %w", err)
	}

	var cached cachedList
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, 0, fmt.Errorf("unmarshal video list: %w", err)
	}

	return cached.Videos, cached.TotalCount, nil
}

// Set stores a listing page with the configured TTL.
func (c *VideoCache) Set(ctx context.Context, filter domain.VideoFilter, params pagination.Params, videos []domain.Video, totalCount int64) error {
	data, err := json.Marshal(cachedList{Videos: videos, TotalCount: totalCount})
	if err != nil {
		return fmt.Errorf("marshal video list: %w", err)
	}

	if err := c.client.Set(ctx, key(filter, params), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set video list: %w", err)
	}

	return nil
}

// Invalidate drops every cached listing page.
func (c *VideoCache) Invalidate(ctx context.Context) error {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan video list keys: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del video list keys: %w", err)
	}

	return nil
}
