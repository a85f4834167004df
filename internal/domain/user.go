package domain

import (
	"time"
)

// User represents a registered user (and channel) in the system.
// PasswordHash and RefreshTokenHash are never serialized into responses.
type User struct {
	ID               string    `json:"id"`
	UserName         string    `json:"user_name"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	PasswordHash     string    `json:"-"`
	RefreshTokenHash *string   `json:"-"`
	AvatarURL        string    `json:"avatar_url"`
	CoverImageURL    string    `json:"cover_image_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Profile is the public projection of a user embedded in videos, tweets, and
// subscriber lists.
type Profile struct {
	ID        string `json:"id"`
	UserName  string `json:"user_name"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// Profile returns the public projection of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		UserName:  u.UserName,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// WatchHistoryEntry records a single video view by a user.
type WatchHistoryEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Video     Video     `json:"video"`
	WatchedAt time.Time `json:"watched_at"`
}
