package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidora/vidora/internal/service"
)

// SubscriptionHandler handles HTTP requests for subscription endpoints.
type SubscriptionHandler struct {
	service *service.SubscriptionService
	logger  *slog.Logger
}

// NewSubscriptionHandler creates a new subscription HTTP handler.
func NewSubscriptionHandler(svc *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc, logger: logger}
}

// Toggle handles POST /api/v1/subscriptions/channel/{channelId}.
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"},
		})
		return
	}

	subscribed, err := h.service.Toggle(r.Context(), user.ID, chi.URLParam(r, "channelId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]bool{"subscribed": subscribed}})
}

// Subscribers handles GET /api/v1/subscriptions/channel/{channelId}/subscribers.
func (h *SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ChannelSubscribers(r.Context(), chi.URLParam(r, "channelId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: profiles})
}

// Subscribed handles GET /api/v1/subscriptions/subscribed.
func (h *SubscriptionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"},
		})
		return
	}

	profiles, err := h.service.SubscribedChannels(r.Context(), user.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: profiles})
}
