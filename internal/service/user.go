package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidora/vidora/internal/auth"
	"github.com/vidora/vidora/internal/domain"
	"github.com/vidora/vidora/internal/event"
	"github.com/vidora/vidora/internal/repository"
	"github.com/vidora/vidora/internal/storage"
	apperrors "github.com/vidora/vidora/pkg/errors"
	"github.com/vidora/vidora/pkg/pagination"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// UserService implements the business logic for account and session operations.
type UserService struct {
	userRepo    repository.UserRepository
	historyRepo repository.WatchHistoryRepository
	jwtManager  *auth.JWTManager
	store       storage.Storage
	producer    event.Publisher
	logger      *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	historyRepo repository.WatchHistoryRepository,
	jwtManager *auth.JWTManager,
	store storage.Storage,
	producer event.Publisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		historyRepo: historyRepo,
		jwtManager:  jwtManager,
		store:       store,
		producer:    producer,
		logger:      logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	UserName   string
	Email      string
	FullName   string
	Password   string
	Avatar     *storage.UploadInput
	CoverImage *storage.UploadInput
}

// LoginInput holds the parameters for user login. At least one of UserName or
// Email must be set.
type LoginInput struct {
	UserName string
	Email    string
	Password string
}

// Register creates a new user account with uploaded avatar and optional cover image.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	userName := strings.ToLower(strings.TrimSpace(input.UserName))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)

	if userName == "" {
		return nil, apperrors.Validation("user name is required")
	}
	if email == "" {
		return nil, apperrors.Validation("email is required")
	}
	if fullName == "" {
		return nil, apperrors.Validation("full name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	if input.Avatar == nil {
		return nil, apperrors.Validation("avatar is required")
	}

	// Duplicate check happens before any upload; a losing race is still
	// caught by the unique constraint on insert.
	if _, err := s.userRepo.GetByUserNameOrEmail(ctx, userName, email); err == nil {
		return nil, apperrors.Conflict("user", "user_name or email")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	avatarRes, err := s.store.Upload(ctx, input.Avatar)
	if err != nil {
		s.logger.ErrorContext(ctx, "avatar upload failed", slog.String("error", err.Error()))
		return nil, apperrors.Validation("avatar upload failed")
	}

	coverURL, coverKey := "", ""
	if input.CoverImage != nil {
		coverRes, err := s.store.Upload(ctx, input.CoverImage)
		if err != nil {
			s.logger.ErrorContext(ctx, "cover image upload failed", slog.String("error", err.Error()))
			s.discardUploads(ctx, avatarRes.Key)
			return nil, apperrors.Validation("cover image upload failed")
		}
		coverURL, coverKey = coverRes.URL, coverRes.Key
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:            uuid.New().String(),
		UserName:      userName,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  string(hashedPassword),
		AvatarURL:     avatarRes.URL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.discardUploads(ctx, avatarRes.Key, coverKey)
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("user_name", user.UserName),
	)

	return user, nil
}

// Login authenticates a user by user name or email and issues a token pair.
// The stored refresh token hash is only written after the password check
// succeeds, so failed attempts never disturb an existing session.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	userName := strings.ToLower(strings.TrimSpace(input.UserName))
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if userName == "" && email == "" {
		return nil, nil, apperrors.Validation("user name or email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.Validation("password is required")
	}

	identifier := userName
	if identifier == "" {
		identifier = email
	}

	user, err := s.userRepo.GetByUserNameOrEmail(ctx, userName, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NotFound("user", identifier)
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Auth("invalid credentials")
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return user, tokens, nil
}

// Refresh rotates a refresh token: the presented token must match the single
// stored hash exactly, and a successful rotation overwrites it. A superseded
// or already-used token is rejected.
func (s *UserService) Refresh(ctx context.Context, token string) (*domain.TokenPair, error) {
	if token == "" {
		return nil, apperrors.Auth("Unauthorized")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(token)
	if err != nil {
		return nil, apperrors.Auth("Invalid refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Auth("Invalid refresh token")
	}

	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != auth.HashToken(token) {
		return nil, apperrors.Auth("Refresh token is expired or used")
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "refresh token rotated",
		slog.String("user_id", user.ID),
	)

	return tokens, nil
}

// Logout clears the stored refresh token. Calling it with no active session
// is a no-op.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateRefreshTokenHash(ctx, userID, nil); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID),
	)

	return nil
}

// ChangePassword verifies the old password and stores a new hash. Outstanding
// tokens are not rotated.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return apperrors.Validation("old password is incorrect")
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, string(hashedPassword)); err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", userID),
	)

	return nil
}

// UpdateAccount changes the user's full name and email. Tokens and the
// stored refresh token are untouched.
func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))

	if fullName == "" {
		return nil, apperrors.Validation("full name is required")
	}
	if email == "" {
		return nil, apperrors.Validation("email is required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	user.FullName = fullName
	user.Email = email

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict("user", "email")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "account details updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// CurrentUser returns the user for the given ID.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	return user, nil
}

// WatchHistory returns the user's watch history, most recent first.
func (s *UserService) WatchHistory(ctx context.Context, userID string, params pagination.Params) (pagination.Result[domain.WatchHistoryEntry], error) {
	entries, total, err := s.historyRepo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Result[domain.WatchHistoryEntry]{}, fmt.Errorf("list watch history: %w", err)
	}

	return pagination.NewResult(entries, int(total), params), nil
}

// issueTokenPair generates access and refresh tokens and persists the refresh
// token hash. This is the only write to the stored hash on the login and
// refresh paths.
func (s *UserService) issueTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.UserName, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	hash := auth.HashToken(refreshToken)
	if err := s.userRepo.UpdateRefreshTokenHash(ctx, user.ID, &hash); err != nil {
		return nil, fmt.Errorf("store refresh token hash: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// discardUploads removes media that was stored for a registration that did
// not complete. Failures are logged; the account error is what surfaces.
func (s *UserService) discardUploads(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to remove uploaded media",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
}

// validatePassword enforces the minimum password policy.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}
