// Package api provides the HTTP server for focusera.
// Every user route lives under /api/v1 and acts on the authenticated user.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tutu-network/focusera/internal/app/focus"
	"github.com/tutu-network/focusera/internal/domain"
	"github.com/tutu-network/focusera/internal/health"
	"github.com/tutu-network/focusera/internal/infra/metrics"
)

// Server is the focusera HTTP API server.
type Server struct {
	focus          *focus.Service
	auth           *Auth
	limiter        *RateLimiter // nil disables rate limiting
	health         *health.Checker
	metricsEnabled bool
	origins        []string
	version        string
}

// NewServer creates a new API server.
func NewServer(svc *focus.Service, auth *Auth) *Server {
	return &Server{focus: svc, auth: auth, origins: []string{"*"}, version: "dev"}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetRateLimiter sets the per-client limiter for /api/v1.
func (s *Server) SetRateLimiter(l *RateLimiter) { s.limiter = l }

// SetHealth sets the checker reported by /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetAllowedOrigins restricts CORS to the given origins.
func (s *Server) SetAllowedOrigins(origins []string) {
	if len(origins) > 0 {
		s.origins = origins
	}
}

// SetVersion sets the version reported by /api/version.
func (s *Server) SetVersion(v string) { s.version = v }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(monitor)
	r.Use(handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", devUserHeader}),
		handlers.ExposedHeaders([]string{"Content-Length"}),
	))

	r.Get("/health", s.handleHealth)
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Use(s.auth.Middleware)

		r.Get("/profile", s.handleGetProfile)
		r.Post("/profile", s.handleCreateProfile)
		r.Patch("/profile", s.handleUpdateProfile)

		r.Post("/sessions", s.handleCompleteSession)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/eras", s.handleEras)
		r.Get("/eras/{era}", s.handleScene)
		r.Get("/badges", s.handleBadges)
		r.Get("/stats", s.handleStats)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Route("/friends", func(r chi.Router) {
			r.Get("/requests", s.handleFriendRequests)
			r.Post("/requests", s.handleSendFriendRequest)
			r.Post("/{id}/accept", s.handleAcceptFriend)
			r.Post("/{id}/decline", s.handleDeclineFriend)
			r.Delete("/{id}", s.handleRemoveFriend)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleAddTask)
			r.Post("/{id}/toggle", s.handleToggleTask)
			r.Delete("/{id}", s.handleDeleteTask)
		})

		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/{id}/shown", s.handleNotificationShown)
		r.Post("/devices", s.handleRegisterDevice)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// ─── Monitoring ─────────────────────────────────────────────────────────────

// monitor records request counts and latency by chi route pattern, so ids in
// paths do not explode label cardinality.
func monitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ─── Responses ──────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    kind,
		},
	})
}

// writeDomainError maps a service error onto an HTTP status. Anything that
// is not a known domain error came from storage, and clients are told the
// stats are unavailable so they keep showing cached values.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classifyError(err)
	if status == http.StatusServiceUnavailable {
		log.Printf("[api] %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, status, kind, domain.ErrStatsUnavailable.Error())
		return
	}
	writeError(w, status, kind, err.Error())
}

func classifyError(err error) (int, string) {
	is := func(targets ...error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}

	switch {
	case is(domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case is(domain.ErrProfileNotFound, domain.ErrTaskNotFound, domain.ErrUnknownEra,
		domain.ErrNoFriendRequest, domain.ErrNotFriends, domain.ErrNotificationNotFound):
		return http.StatusNotFound, "not_found"
	case is(domain.ErrProfileExists, domain.ErrUsernameTaken, domain.ErrAlreadyFriends,
		domain.ErrRequestPending):
		return http.StatusConflict, "conflict"
	case is(domain.ErrInvalidSession, domain.ErrInvalidUsername, domain.ErrMissingFields,
		domain.ErrInvalidPriority, domain.ErrInvalidDueDate, domain.ErrFriendSelf):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusServiceUnavailable, "unavailable"
	}
}
