package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidora/vidora/internal/service"
	"github.com/vidora/vidora/pkg/pagination"
	"github.com/vidora/vidora/pkg/validator"
)

// TweetHandler handles HTTP requests for tweet endpoints.
type TweetHandler struct {
	service *service.TweetService
	logger  *slog.Logger
}

// NewTweetHandler creates a new tweet HTTP handler.
func NewTweetHandler(svc *service.TweetService, logger *slog.Logger) *TweetHandler {
	return &TweetHandler{service: svc, logger: logger}
}

// TweetRequest is the JSON request body for creating or updating a tweet.
type TweetRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}

// Create handles POST /api/v1/tweets.
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req TweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	tweet, err := h.service.Create(r.Context(), user.ID, req.Content)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: tweet})
}

// ListByUser handles GET /api/v1/tweets/user/{userId}.
func (h *TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListByUser(r.Context(), chi.URLParam(r, "userId"), pagination.FromRequest(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h *TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req TweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	tweet, err := h.service.Update(r.Context(), user.ID, chi.URLParam(r, "tweetId"), req.Content)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: tweet})
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"},
		})
		return
	}

	tweetID := chi.URLParam(r, "tweetId")
	if err := h.service.Delete(r.Context(), user.ID, tweetID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": tweetID, "status": "deleted"}})
}
