package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidora/vidora/internal/auth"
	"github.com/vidora/vidora/internal/domain"
	"github.com/vidora/vidora/internal/service"
	"github.com/vidora/vidora/internal/storage/memory"
	apperrors "github.com/vidora/vidora/pkg/errors"
	"github.com/vidora/vidora/pkg/health"
	"github.com/vidora/vidora/pkg/pagination"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUserNameOrEmail(ctx context.Context, userName, email string) (*domain.User, error) {
	args := m.Called(ctx, userName, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) UpdateRefreshTokenHash(ctx context.Context, userID string, tokenHash *string) error {
	args := m.Called(ctx, userID, tokenHash)
	return args.Error(0)
}

func (m *mockUserRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

type mockVideoRepository struct {
	mock.Mock
}

func (m *mockVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Video), args.Error(1)
}

func (m *mockVideoRepository) List(ctx context.Context, filter domain.VideoFilter, params pagination.Params) ([]domain.Video, int64, error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Video), args.Get(1).(int64), args.Error(2)
}

func (m *mockVideoRepository) Update(ctx context.Context, video *domain.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *mockVideoRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockVideoRepository) IncrementViews(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockTweetRepository struct {
	mock.Mock
}

func (m *mockTweetRepository) Create(ctx context.Context, tweet *domain.Tweet) error {
	args := m.Called(ctx, tweet)
	return args.Error(0)
}

func (m *mockTweetRepository) GetByID(ctx context.Context, id string) (*domain.Tweet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tweet), args.Error(1)
}

func (m *mockTweetRepository) ListByOwner(ctx context.Context, ownerID string, params pagination.Params) ([]domain.Tweet, int64, error) {
	args := m.Called(ctx, ownerID, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Tweet), args.Get(1).(int64), args.Error(2)
}

func (m *mockTweetRepository) Update(ctx context.Context, tweet *domain.Tweet) error {
	args := m.Called(ctx, tweet)
	return args.Error(0)
}

func (m *mockTweetRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) Get(ctx context.Context, subscriberID, channelID string) (*domain.Subscription, error) {
	args := m.Called(ctx, subscriberID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	args := m.Called(ctx, subscriberID, channelID)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]domain.Profile, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Profile), args.Error(1)
}

func (m *mockSubscriptionRepository) ListChannels(ctx context.Context, subscriberID string) ([]domain.Profile, error) {
	args := m.Called(ctx, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Profile), args.Error(1)
}

type mockWatchHistoryRepository struct {
	mock.Mock
}

func (m *mockWatchHistoryRepository) Append(ctx context.Context, entry *domain.WatchHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockWatchHistoryRepository) ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.WatchHistoryEntry, int64, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.WatchHistoryEntry), args.Get(1).(int64), args.Error(2)
}

// stubPublisher swallows events so handler tests do not need a broker.
type stubPublisher struct{}

func (stubPublisher) PublishUserRegistered(context.Context, *domain.User) error  { return nil }
func (stubPublisher) PublishVideoPublished(context.Context, *domain.Video) error { return nil }
func (stubPublisher) PublishVideoDeleted(context.Context, *domain.Video) error   { return nil }

// nopCache always misses so listing tests exercise the repository path.
type nopCache struct{}

func (nopCache) Get(context.Context, domain.VideoFilter, pagination.Params) ([]domain.Video, int64, error) {
	return nil, 0, apperrors.ErrNotFound
}

func (nopCache) Set(context.Context, domain.VideoFilter, pagination.Params, []domain.Video, int64) error {
	return nil
}

func (nopCache) Invalidate(context.Context) error { return nil }

// ============================================================================
// Test Fixture
// ============================================================================

const (
	testUserID    = "550e8400-e29b-41d4-a716-446655440001"
	testVideoID   = "550e8400-e29b-41d4-a716-446655440002"
	testTweetID   = "550e8400-e29b-41d4-a716-446655440003"
	testChannelID = "550e8400-e29b-41d4-a716-446655440004"
	testPassword  = "correct-horse-battery"
)

type routerFixture struct {
	userRepo    *mockUserRepository
	videoRepo   *mockVideoRepository
	tweetRepo   *mockTweetRepository
	subRepo     *mockSubscriptionRepository
	historyRepo *mockWatchHistoryRepository
	jwtManager  *auth.JWTManager
	router      http.Handler
}

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newRouterFixture wires the full router with real services over mock
// repositories, in-memory storage, and a real JWT manager.
func newRouterFixture() *routerFixture {
	logger := handlerTestLogger()
	jwtManager := auth.NewJWTManager(
		"test-access-secret-that-is-long-enough!!",
		"test-refresh-secret-that-is-long-enough!",
		15*time.Minute,
		7*24*time.Hour,
	)

	f := &routerFixture{
		userRepo:    new(mockUserRepository),
		videoRepo:   new(mockVideoRepository),
		tweetRepo:   new(mockTweetRepository),
		subRepo:     new(mockSubscriptionRepository),
		historyRepo: new(mockWatchHistoryRepository),
		jwtManager:  jwtManager,
	}

	store := memory.New("http://media.test")
	publisher := stubPublisher{}

	userService := service.NewUserService(f.userRepo, f.historyRepo, jwtManager, store, publisher, logger)
	videoService := service.NewVideoService(f.videoRepo, f.historyRepo, nopCache{}, store, publisher, logger)
	tweetService := service.NewTweetService(f.tweetRepo, logger)
	subscriptionService := service.NewSubscriptionService(f.subRepo, f.userRepo, logger)

	f.router = NewRouter(RouterConfig{
		UserService:         userService,
		VideoService:        videoService,
		TweetService:        tweetService,
		SubscriptionService: subscriptionService,
		Users:               f.userRepo,
		JWTManager:          jwtManager,
		HealthHandler:       health.NewHandler(),
		Logger:              logger,
		CORS:                CORSConfig{AllowedOrigins: []string{"http://app.test"}},
	})

	return f
}

func sampleUser() *domain.User {
	now := time.Now().UTC()
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	return &domain.User{
		ID:           testUserID,
		UserName:     "chai",
		Email:        "chai@example.com",
		FullName:     "Chai Aunty",
		PasswordHash: string(hash),
		AvatarURL:    "http://media.test/media/avatars/a.png",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func sampleVideo(ownerID string) *domain.Video {
	now := time.Now().UTC()
	return &domain.Video{
		ID:           testVideoID,
		OwnerID:      ownerID,
		Title:        "Test Video",
		Description:  "A test video",
		VideoURL:     "http://media.test/media/videos/v.mp4",
		ThumbnailURL: "http://media.test/media/thumbnails/t.png",
		Duration:     42.5,
		Views:        7,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func sampleTweet(ownerID string) *domain.Tweet {
	now := time.Now().UTC()
	return &domain.Tweet{
		ID:        testTweetID,
		OwnerID:   ownerID,
		Content:   "hello world",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// authorize generates a valid access token for the user and primes the guard's
// user lookup.
func (f *routerFixture) authorize(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := f.jwtManager.GenerateAccessToken(user.ID, user.UserName, user.Email)
	require.NoError(t, err)
	f.userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	return token
}

func (f *routerFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// cookieValue extracts a named Set-Cookie value from the response, or "" when absent.
func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
