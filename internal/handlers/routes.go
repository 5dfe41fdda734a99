package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abrezinsky/courtboard/internal/court"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// urlCourt is the court a /courts/{courtId} or /api/courts/{courtId} request targets
func urlCourt(r *http.Request) string {
	id, _ := court.NormalizeID(chi.URLParam(r, "courtId"))
	return id
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	// WebSocket connections outlive the request timeout
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		if h.staticServer != nil {
			r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))
		}
		r.Handle("/metrics", h.Metrics.Handler())

		// Pages (public)
		r.Get("/", h.handleDashboard)
		r.Get("/login", h.handleLoginPage)
		r.With(h.Limiter.Middleware).Post("/login", h.handleLoginForm)
		r.Post("/logout", h.handleLogoutForm)
		r.Get("/courts/{courtId}/display", h.handleDisplayPage)

		// Control page (protected)
		r.With(h.Auth.RequireCourt(urlCourt)).Get("/courts/{courtId}/control", h.handleControlPage)

		// Remote persistence endpoint (public, any origin)
		r.Route("/api/scoreboard/{courtId}", func(r chi.Router) {
			r.Use(allowAnyOrigin)
			r.Get("/", h.handleGetScoreboard)
			r.Post("/", h.handlePostScoreboard)
			r.Options("/", func(w http.ResponseWriter, r *http.Request) {})
		})

		// Auth API
		r.Group(func(r chi.Router) {
			r.Use(h.Limiter.Middleware)
			r.Post("/api/login", h.handleLogin)
			r.Post("/api/admin/login", h.handleAdminLogin)
		})
		r.Post("/api/logout", h.handleLogout)

		// Read API (public)
		r.Get("/api/courts", h.handleListCourts)
		r.Get("/api/courts/{courtId}/state", h.handleGetState)
		r.Get("/api/courts/{courtId}/view", h.handleGetView)
		r.Get("/api/courts/{courtId}/links", h.handleGetLinks)
		r.Get("/api/courts/{courtId}/qr", h.handleGetQRImage)

		// Control API (protected, per court)
		r.Group(func(r chi.Router) {
			r.Use(h.Limiter.Middleware)
			r.Use(h.Auth.RequireCourtAPI(urlCourt))

			r.Get("/api/courts/{courtId}/history.xlsx", h.handleExportHistory)
			r.Post("/api/courts/{courtId}/points", h.handleAddPoints)
			r.Post("/api/courts/{courtId}/timeout", h.handleToggleTimeout)
			r.Post("/api/courts/{courtId}/reset-set", h.handleResetSet)
			r.Post("/api/courts/{courtId}/swap", h.handleSwap)
			r.Post("/api/courts/{courtId}/finalize-set", h.handleFinalizeSet)
			r.Post("/api/courts/{courtId}/set-score", h.handleAdjustSetScore)
			r.Post("/api/courts/{courtId}/video-review", h.handleVideoReview)
			r.Post("/api/courts/{courtId}/video-review/end", h.handleEndVideoReview)
			r.Post("/api/courts/{courtId}/edit", h.handleEdit)
			r.Post("/api/courts/{courtId}/reset-all", h.handleResetAll)
		})

		// Admin API (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAdminAPI)

			r.Get("/api/admin/settings", h.handleGetSettings)
			r.Post("/api/admin/settings", h.handleUpdateSettings)
			r.Put("/api/admin/settings", h.handleUpdateSettings)
			r.Post("/api/admin/reset-database", h.handleResetDatabase)
			r.Delete("/api/courts/{courtId}/state", h.handleClearCourt)
		})
	})

	return r
}
