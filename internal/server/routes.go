package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"biscuits/internal/domain"
)

// setupRoutes configures all application routes
func (s *Server) setupRoutes() {
	r := s.router

	// Health check endpoint
	r.Get("/health", s.handleHealth)

	// Hosted script, loaded cross-origin by customer sites
	r.Get("/biscuit", s.handleHostedScript)
	r.Options("/biscuit", s.handleHostedPreflight)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
			r.Post("/auth/logout", s.handleLogout)

			r.Get("/options", s.handleOptions)
			r.Get("/services", s.handleServices)
		})

		// Ad widget: anonymous callers allowed, privileged ones recognised
		r.Group(func(r chi.Router) {
			r.Use(s.optionalAuthMiddleware)

			r.Get("/me/privileged", s.handlePrivileged)
			r.Get("/ads/active", s.handleActiveAds)
			r.Post("/ads/{id}/view", s.handleAdView)
			r.Post("/ads/{id}/click", s.handleAdClick)
		})

		// Protected routes - site owners
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/preview", s.handlePreview)

			r.Get("/configurations", s.handleListConfigurations)
			r.Post("/configurations", s.handleCreateConfiguration)
			r.Get("/configurations/{id}", s.handleGetConfiguration)
			r.Put("/configurations/{id}", s.handleUpdateConfiguration)
			r.Delete("/configurations/{id}", s.handleDeleteConfiguration)
			r.Get("/configurations/{id}/code", s.handleConfigurationCode)
			r.Get("/configurations/{id}/qr.png", s.handleConfigurationQR)

			r.Get("/configurations/{id}/banners", s.handleListBanners)
			r.Post("/configurations/{id}/banners", s.handleCreateBanner)
			r.Put("/banners/{id}", s.handleUpdateBanner)
			r.Delete("/banners/{id}", s.handleDeleteBanner)
		})

		// Protected routes - Admin only
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Use(s.roleMiddleware(domain.RoleAdmin))

			r.Get("/admin/ads", s.handleAdminListAds)
			r.Post("/admin/ads", s.handleAdminCreateAd)
			r.Put("/admin/ads/{id}", s.handleAdminUpdateAd)
			r.Delete("/admin/ads/{id}", s.handleAdminDeleteAd)
			r.Get("/admin/stats", s.handleAdminStats)
		})
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
