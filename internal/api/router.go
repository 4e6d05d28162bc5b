package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxlink-ai/voxlink/internal/events"
	mw "github.com/voxlink-ai/voxlink/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Session handlers
	CreateSession http.HandlerFunc
	GetSession    http.HandlerFunc
	DeleteSession http.HandlerFunc
	SubmitText    http.HandlerFunc
	ToggleCapture http.HandlerFunc
	PlaybackDone  http.HandlerFunc
	GetClip       http.HandlerFunc
	Feed          http.HandlerFunc

	// Chat gateway reachability, reported by readiness
	GatewayReady func() bool
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	SessionRateLimiter func(http.Handler) http.Handler
}

func NewRouter(natsClient *events.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe, always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe, checks NATS and the response gateway
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":  "healthy",
			"nats":    "healthy",
			"gateway": "healthy",
		}

		status := http.StatusOK

		if natsClient != nil && !natsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if natsClient == nil {
			health["nats"] = "not configured"
		}

		if h.GatewayReady != nil && !h.GatewayReady() {
			// Degraded, not down: turns still complete via fallback.
			health["gateway"] = "unreachable"
			health["status"] = "degraded"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			if cfg.SessionRateLimiter != nil {
				r.Use(cfg.SessionRateLimiter)
			}
			r.Post("/", h.CreateSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Post("/text", h.SubmitText)
				r.Post("/capture/toggle", h.ToggleCapture)
				r.Post("/playback-done", h.PlaybackDone)
				r.Get("/clips/{clipID}", h.GetClip)
				r.Get("/feed", h.Feed)
			})
		})
	})

	return r
}
