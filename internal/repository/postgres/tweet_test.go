package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidora/vidora/internal/domain"
	apperrors "github.com/vidora/vidora/pkg/errors"
	"github.com/vidora/vidora/pkg/pagination"
)

func newTweetTestFixture(t *testing.T) (*TweetRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewTweetRepository(mock)
	return repo, mock
}

func sampleTweet() *domain.Tweet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Tweet{
		ID:        "7c2b8d3f-4444-4b44-9d0a-444444444444",
		OwnerID:   "0d4e9b52-1c9f-4a44-9d0a-111111111111",
		Content:   "shipping a new upload pipeline today",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTweetRepository_Create(t *testing.T) {
	repo, mock := newTweetTestFixture(t)
	defer mock.Close()

	tw := sampleTweet()

	mock.ExpectExec("INSERT INTO tweets").
		WithArgs(tw.ID, tw.OwnerID, tw.Content, tw.CreatedAt, tw.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), tw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTweetRepository_GetByID_IncludesOwner(t *testing.T) {
	repo, mock := newTweetTestFixture(t)
	defer mock.Close()

	tw := sampleTweet()

	mock.ExpectQuery("SELECT (.+) FROM tweets t").
		WithArgs(tw.ID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "owner_id", "content", "created_at", "updated_at",
			"u_id", "user_name", "full_name", "avatar_url",
		}).AddRow(
			tw.ID, tw.OwnerID, tw.Content, tw.CreatedAt, tw.UpdatedAt,
			tw.OwnerID, "alice", "Alice Smith", "https://cdn.example.com/a.png",
		))

	got, err := repo.GetByID(context.Background(), tw.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "alice", got.Owner.UserName)
}

func TestTweetRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTweetTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM tweets t").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "owner_id", "content", "created_at", "updated_at",
			"u_id", "user_name", "full_name", "avatar_url",
		}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTweetRepository_ListByOwner(t *testing.T) {
	repo, mock := newTweetTestFixture(t)
	defer mock.Close()

	tw := sampleTweet()
	params := pagination.Params{Page: 1, PerPage: 10, Offset: 0}

	mock.ExpectQuery("SELECT (.+) FROM tweets t").
		WithArgs(tw.OwnerID, params.PerPage, params.Offset).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "owner_id", "content", "created_at", "updated_at",
			"u_id", "user_name", "full_name", "avatar_url", "total_count",
		}).AddRow(
			tw.ID, tw.OwnerID, tw.Content, tw.CreatedAt, tw.UpdatedAt,
			tw.OwnerID, "alice", "Alice Smith", "https://cdn.example.com/a.png", int64(3),
		))

	tweets, total, err := repo.ListByOwner(context.Background(), tw.OwnerID, params)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, tweets, 1)
	assert.Equal(t, tw.Content, tweets[0].Content)
}

func TestTweetRepository_UpdateAndDelete_NotFound(t *testing.T) {
	repo, mock := newTweetTestFixture(t)
	defer mock.Close()

	tw := sampleTweet()

	mock.ExpectExec("UPDATE tweets").
		WithArgs(tw.Content, pgxmock.AnyArg(), tw.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Update(context.Background(), tw), apperrors.ErrNotFound)

	mock.ExpectExec("DELETE FROM tweets").
		WithArgs(tw.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), tw.ID), apperrors.ErrNotFound)
}
