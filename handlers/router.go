package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"fitChallengeAPI/internal/auth"
	"fitChallengeAPI/middleware"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Challenges *ChallengeHandler
	Progress   *ProgressHandler
	Users      *UserHandler
	Posts      *PostHandler
	// Webhooks is optional; nil leaves /webhooks/clerk unmounted.
	Webhooks *WebhookHandler

	Verifier auth.Verifier
	// Limiter is optional; nil disables rate limiting.
	Limiter *middleware.RateLimiter

	MetricsUser string
	MetricsPass string

	Health         func(ctx context.Context) error
	AllowedOrigins []string
	// AccessLog receives combined-format request logs when set.
	AccessLog io.Writer
}

func NewRouter(rc RouterConfig) http.Handler {
	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()
	if rc.Limiter != nil {
		standardRouter.Use(rc.Limiter.Middleware)
	}
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(rc.MetricsUser, rc.MetricsPass)(promhttp.Handler())).Methods("GET")

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if rc.Health != nil {
			if err := rc.Health(ctx); err != nil {
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  "database connection failed",
				})
				return
			}
		}

		respondWithJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "fitChallenge-api",
		})
	}).Methods("GET")

	if rc.Webhooks != nil {
		standardRouter.HandleFunc("/webhooks/clerk", rc.Webhooks.HandleClerkWebhook).Methods("POST")
	}

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/challenges", rc.Challenges.ListChallenges).Methods("GET")
	api.HandleFunc("/challenges", rc.Challenges.CreateChallenge).Methods("POST")
	api.HandleFunc("/challenges/{id}/qr", rc.Challenges.ChallengeQR).Methods("GET")

	api.HandleFunc("/challenge-details", rc.Progress.GetLedger).Methods("POST")
	api.HandleFunc("/challenge-details", rc.Progress.UpdateDay).Methods("PUT")

	api.HandleFunc("/signup", rc.Users.Signup).Methods("POST")
	api.HandleFunc("/login", rc.Users.Login).Methods("POST")
	api.HandleFunc("/logout", rc.Users.Logout).Methods("POST")

	api.HandleFunc("/posts", rc.Posts.ListPosts).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(rc.Verifier))

	protected.HandleFunc("/challenges", rc.Challenges.JoinChallenge).Methods("PUT")
	protected.HandleFunc("/challenges/{id}/progress", rc.Challenges.ProgressSummary).Methods("GET")

	protected.HandleFunc("/profile", rc.Users.GetProfile).Methods("GET")
	protected.HandleFunc("/profile", rc.Users.UpdateAvatar).Methods("POST")
	protected.HandleFunc("/profile", rc.Users.UpdateBody).Methods("PUT")
	protected.HandleFunc("/profile/devices", rc.Users.RegisterDevice).Methods("POST")

	protected.HandleFunc("/posts", rc.Posts.CreatePost).Methods("POST")
	protected.HandleFunc("/posts", rc.Posts.LikePost).Methods("PUT")

	var h http.Handler = r
	if rc.AccessLog != nil {
		h = gorillaHandlers.CombinedLoggingHandler(rc.AccessLog, h)
	}

	origins := rc.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(origins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)
	return corsHandler(h)
}
