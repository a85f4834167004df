package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vidora/vidora/internal/domain"
	"github.com/vidora/vidora/internal/service"
	"github.com/vidora/vidora/pkg/pagination"
)

// VideoHandler handles HTTP requests for video endpoints.
type VideoHandler struct {
	service *service.VideoService
	logger  *slog.Logger
}

// NewVideoHandler creates a new video HTTP handler.
func NewVideoHandler(svc *service.VideoService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{service: svc, logger: logger}
}

// List handles GET /api/v1/videos.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.VideoFilter{
		Query:     q.Get("query"),
		OwnerID:   q.Get("owner_id"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}

	result, err := h.service.List(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// Publish handles POST /api/v1/videos (multipart form).
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"},
		})
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeBadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	videoFile, err := formFileUpload(r, "video", "videos")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	thumbnail, err := formFileUpload(r, "thumbnail", "thumbnails")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	video, err := h.service.Publish(r.Context(), user.ID, service.PublishInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Duration:    parseFloat(r.FormValue("duration")),
		Video:       videoFile,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: video})
}

// Get handles GET /api/v1/videos/{videoId}. Authenticated viewers get the
// view recorded in their watch history.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")

	viewerID := ""
	if user, ok := UserFromContext(r.Context()); ok {
		viewerID = user.ID
	}

	video, err := h.service.Get(r.Context(), videoID, viewerID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: video})
}

// Update handles PATCH /api/v1/videos/{videoId} (multipart form).
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"},
		})
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeBadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	thumbnail, err := formFileUpload(r, "thumbnail", "thumbnails")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	input := service.UpdateVideoInput{Thumbnail: thumbnail}
	if v := r.FormValue("title"); v != "" || r.Form.Has("title") {
		input.Title = &v
	}
	if v := r.FormValue("description"); v != "" || r.Form.Has("description") {
		input.Description = &v
	}

	video, err := h.service.Update(r.Context(), user.ID, chi.URLParam(r, "videoId"), input)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: video})
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"},
		})
		return
	}

	videoID := chi.URLParam(r, "videoId")
	if err := h.service.Delete(r.Context(), user.ID, videoID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": videoID, "status": "deleted"}})
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/toggle-publish.
func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"},
		})
		return
	}

	video, err := h.service.TogglePublish(r.Context(), user.ID, chi.URLParam(r, "videoId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: video})
}

// parseFloat parses a form value as float64, returning 0 when empty or invalid.
func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}
