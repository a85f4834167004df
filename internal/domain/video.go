package domain

import "time"

// Video is an uploaded video owned by a user.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Owner is populated on reads that join the owning user.
	Owner *Profile `json:"owner,omitempty"`
}

// VideoFilter narrows and orders video listings.
type VideoFilter struct {
	Query         string
	OwnerID       string
	SortBy        string
	SortOrder     string
	PublishedOnly bool
}
