package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"biscuits/internal/domain"
	"biscuits/internal/events"
	"biscuits/internal/repository"
)

// handleActiveAds lists the ads the rotating widget cycles through
func (s *Server) handleActiveAds(w http.ResponseWriter, r *http.Request) {
	ads, err := s.repos.Ads.ListActive(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to list active ads", err)
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

// handleAdView counts one view
func (s *Server) handleAdView(w http.ResponseWriter, r *http.Request) {
	s.trackAd(w, r, events.TypeView, s.repos.Ads.IncrementViews)
}

// handleAdClick counts one click
func (s *Server) handleAdClick(w http.ResponseWriter, r *http.Request) {
	s.trackAd(w, r, events.TypeClick, s.repos.Ads.IncrementClicks)
}

// trackAd increments a counter unless the caller is privileged, then
// publishes the event in the background.
func (s *Server) trackAd(w http.ResponseWriter, r *http.Request, kind string, increment func(context.Context, string) error) {
	if getUserClaims(r).Privileged() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	id := chi.URLParam(r, "id")
	if err := increment(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Ad not found")
			return
		}
		s.internalError(w, r, "failed to record ad "+kind, err)
		return
	}

	event := events.AdEvent{Type: kind, AdID: id, OccurredAt: time.Now().UTC()}
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.events.Publish(ctx, event); err != nil {
			s.log.Warn("failed to publish ad event", "type", kind, "ad_id", id, "error", err)
		}
	}()

	w.WriteHeader(http.StatusNoContent)
}

// Admin

type adRequest struct {
	Title        *string `json:"title"`
	ImageURL     *string `json:"image_url"`
	LinkURL      *string `json:"link_url"`
	IsActive     *bool   `json:"is_active"`
	DisplayOrder *int    `json:"display_order"`
}

func (req *adRequest) apply(ad *domain.PlatformAd) error {
	if req.Title != nil {
		ad.Title = strings.TrimSpace(*req.Title)
	}
	if req.ImageURL != nil {
		ad.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.LinkURL != nil {
		ad.LinkURL = strings.TrimSpace(*req.LinkURL)
	}
	if req.IsActive != nil {
		ad.IsActive = *req.IsActive
	}
	if req.DisplayOrder != nil {
		ad.DisplayOrder = *req.DisplayOrder
	}

	if ad.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !validHTTPURL(ad.ImageURL) {
		return fmt.Errorf("image_url must be an http or https URL")
	}
	if !validHTTPURL(ad.LinkURL) {
		return fmt.Errorf("link_url must be an http or https URL")
	}
	return nil
}

func (s *Server) handleAdminListAds(w http.ResponseWriter, r *http.Request) {
	ads, err := s.repos.Ads.List(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to list ads", err)
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

func (s *Server) handleAdminCreateAd(w http.ResponseWriter, r *http.Request) {
	var req adRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ad := &domain.PlatformAd{IsActive: true, CreatedBy: getUserClaims(r).UserID}
	if err := req.apply(ad); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repos.Ads.Create(r.Context(), ad); err != nil {
		s.internalError(w, r, "failed to create ad", err)
		return
	}
	writeJSON(w, http.StatusCreated, ad)
}

func (s *Server) handleAdminUpdateAd(w http.ResponseWriter, r *http.Request) {
	ad, err := s.repos.Ads.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.internalError(w, r, "failed to load ad", err)
		return
	}
	if ad == nil {
		writeError(w, http.StatusNotFound, "Ad not found")
		return
	}

	var req adRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.apply(ad); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repos.Ads.Update(r.Context(), ad); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Ad not found")
			return
		}
		s.internalError(w, r, "failed to update ad", err)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

func (s *Server) handleAdminDeleteAd(w http.ResponseWriter, r *http.Request) {
	if err := s.repos.Ads.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Ad not found")
			return
		}
		s.internalError(w, r, "failed to delete ad", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminStats summarizes platform usage
func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	configs, err := s.repos.Configurations.Count(ctx)
	if err != nil {
		s.internalError(w, r, "failed to count configurations", err)
		return
	}
	users, err := s.repos.Users.Count(ctx)
	if err != nil {
		s.internalError(w, r, "failed to count users", err)
		return
	}
	views, clicks, active, err := s.repos.Ads.Totals(ctx)
	if err != nil {
		s.internalError(w, r, "failed to sum ad counters", err)
		return
	}

	writeJSON(w, http.StatusOK, domain.GlobalStats{
		TotalConfigurations: configs,
		TotalUsers:          users,
		TotalViews:          views,
		TotalClicks:         clicks,
		ActiveAds:           active,
	})
}
