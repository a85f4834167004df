package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidora/vidora/internal/auth"
	"github.com/vidora/vidora/internal/service"
	"github.com/vidora/vidora/pkg/health"
	"github.com/vidora/vidora/pkg/middleware"
)

// RouterConfig holds the collaborators the router needs.
type RouterConfig struct {
	UserService         *service.UserService
	VideoService        *service.VideoService
	TweetService        *service.TweetService
	SubscriptionService *service.SubscriptionService
	Users               userLoader
	JWTManager          *auth.JWTManager
	HealthHandler       *health.Handler
	Logger              *slog.Logger
	CORS                CORSConfig
	SecureCookies       bool
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("vidora"))
	r.Use(middleware.Tracing("vidora"))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authenticate := Authenticate(cfg.JWTManager, cfg.Users)
	optionalAuth := OptionalAuthenticate(cfg.JWTManager, cfg.Users)

	userHandler := NewUserHandler(cfg.UserService, cfg.Logger, cfg.SecureCookies)
	videoHandler := NewVideoHandler(cfg.VideoService, cfg.Logger)
	tweetHandler := NewTweetHandler(cfg.TweetService, cfg.Logger)
	subscriptionHandler := NewSubscriptionHandler(cfg.SubscriptionService, cfg.Logger)

	r.Route("/api/v1/users", func(r chi.Router) {
		// Register is multipart, so it sits outside the JSON content-type guard.
		r.Post("/register", userHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Post("/login", userHandler.Login)
		})

		// Refresh reads the cookie first, so the body may be empty.
		r.Post("/refresh-token", userHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/logout", userHandler.Logout)
			r.Get("/current", userHandler.CurrentUser)
			r.Get("/history", userHandler.WatchHistory)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Patch("/current", userHandler.UpdateAccount)
				r.Patch("/password", userHandler.ChangePassword)
			})
		})
	})

	r.Route("/api/v1/videos", func(r chi.Router) {
		r.Get("/", videoHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/{videoId}", videoHandler.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", videoHandler.Publish)
			r.Patch("/{videoId}", videoHandler.Update)
			r.Delete("/{videoId}", videoHandler.Delete)
			r.Patch("/{videoId}/toggle-publish", videoHandler.TogglePublish)
		})
	})

	r.Route("/api/v1/tweets", func(r chi.Router) {
		r.Get("/user/{userId}", tweetHandler.ListByUser)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(ContentTypeJSON)

			r.Post("/", tweetHandler.Create)
			r.Patch("/{tweetId}", tweetHandler.Update)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Delete("/{tweetId}", tweetHandler.Delete)
		})
	})

	r.Route("/api/v1/subscriptions", func(r chi.Router) {
		r.Get("/channel/{channelId}/subscribers", subscriptionHandler.Subscribers)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/channel/{channelId}", subscriptionHandler.Toggle)
			r.Get("/subscribed", subscriptionHandler.Subscribed)
		})
	})

	return r
}
