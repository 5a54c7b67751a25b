package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"biscuits/internal/domain"
	"biscuits/internal/repository"
	"biscuits/internal/scriptgen"
)

type configurationRequest struct {
	Name             *string        `json:"name"`
	ConfigData       map[string]any `json:"config_data"`
	SelectedServices *[]string      `json:"selected_services"`
	IsActive         *bool          `json:"is_active"`
}

// apply copies the provided fields onto cfg, validating as it goes.
func (req *configurationRequest) apply(cfg *domain.Configuration) error {
	if req.Name != nil {
		cfg.Name = strings.TrimSpace(*req.Name)
	}
	if cfg.Name == "" {
		return fmt.Errorf("name is required")
	}

	if req.ConfigData != nil {
		data, err := domain.NormalizeConfig(req.ConfigData)
		if err != nil {
			return err
		}
		cfg.ConfigData = data
	} else if cfg.ConfigData == nil {
		cfg.ConfigData = domain.DefaultConfig()
	}

	if req.SelectedServices != nil {
		services, err := normalizeServices(*req.SelectedServices)
		if err != nil {
			return err
		}
		cfg.SelectedServices = services
	}

	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}
	return nil
}

// normalizeServices trims ids, drops duplicates and keeps first-seen order.
func normalizeServices(in []string) (domain.StringList, error) {
	out := make(domain.StringList, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, id := range in {
		id = strings.TrimSpace(id)
		if !domain.ValidServiceID(id) {
			return nil, fmt.Errorf("invalid service identifier %q", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// loadOwnedConfiguration writes the error response itself and returns nil
// when the configuration is missing or belongs to someone else.
func (s *Server) loadOwnedConfiguration(w http.ResponseWriter, r *http.Request, id string) *domain.Configuration {
	cfg, err := s.repos.Configurations.GetByID(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "failed to load configuration", err)
		return nil
	}
	claims := getUserClaims(r)
	if cfg == nil || (cfg.UserID != claims.UserID && !claims.Privileged()) {
		writeError(w, http.StatusNotFound, "Configuration not found")
		return nil
	}
	return cfg
}

func (s *Server) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	configs, err := s.repos.Configurations.ListByOwner(r.Context(), getUserClaims(r).UserID)
	if err != nil {
		s.internalError(w, r, "failed to list configurations", err)
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func (s *Server) handleCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req configurationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := &domain.Configuration{
		UserID:           getUserClaims(r).UserID,
		SelectedServices: domain.StringList{},
		IsActive:         true,
	}
	if err := req.apply(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repos.Configurations.Create(r.Context(), cfg); err != nil {
		s.internalError(w, r, "failed to create configuration", err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg := s.loadOwnedConfiguration(w, r, chi.URLParam(r, "id"))
	if cfg == nil {
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg := s.loadOwnedConfiguration(w, r, chi.URLParam(r, "id"))
	if cfg == nil {
		return
	}

	var req configurationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.apply(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repos.Configurations.Update(r.Context(), cfg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Configuration not found")
			return
		}
		s.internalError(w, r, "failed to update configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleDeleteConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg := s.loadOwnedConfiguration(w, r, chi.URLParam(r, "id"))
	if cfg == nil {
		return
	}
	if err := s.repos.Configurations.Delete(r.Context(), cfg.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.internalError(w, r, "failed to delete configuration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConfigurationCode returns the static script and the hosted snippet
func (s *Server) handleConfigurationCode(w http.ResponseWriter, r *http.Request) {
	cfg := s.loadOwnedConfiguration(w, r, chi.URLParam(r, "id"))
	if cfg == nil {
		return
	}
	banners, err := s.repos.Banners.ListByConfig(r.Context(), cfg.ID)
	if err != nil {
		s.internalError(w, r, "failed to load banners", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"script":         scriptgen.InputFor(cfg, banners).Script(),
		"hosted_snippet": scriptgen.HostedSnippet(s.config.BaseURL(), cfg.ID),
		"hosted_url":     scriptgen.HostedURL(s.config.BaseURL(), cfg.ID),
	})
}

// handleConfigurationQR renders a QR code pointing at the hosted script
func (s *Server) handleConfigurationQR(w http.ResponseWriter, r *http.Request) {
	cfg := s.loadOwnedConfiguration(w, r, chi.URLParam(r, "id"))
	if cfg == nil {
		return
	}

	png, err := qrcode.Encode(scriptgen.HostedURL(s.config.BaseURL(), cfg.ID), qrcode.Medium, 256)
	if err != nil {
		s.internalError(w, r, "failed to generate QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Banners

type bannerRequest struct {
	ImageURL     *string `json:"image_url"`
	LinkURL      *string `json:"link_url"`
	Position     *string `json:"position"`
	IsActive     *bool   `json:"is_active"`
	DisplayOrder *int    `json:"display_order"`
}

func (req *bannerRequest) apply(b *domain.Banner) error {
	if req.ImageURL != nil {
		b.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.LinkURL != nil {
		b.LinkURL = strings.TrimSpace(*req.LinkURL)
	}
	if req.Position != nil {
		p, err := domain.ParsePosition(*req.Position)
		if err != nil {
			return err
		}
		b.Position = p
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if req.DisplayOrder != nil {
		b.DisplayOrder = *req.DisplayOrder
	}

	if !validHTTPURL(b.ImageURL) {
		return fmt.Errorf("image_url must be an http or https URL")
	}
	if !validHTTPURL(b.LinkURL) {
		return fmt.Errorf("link_url must be an http or https URL")
	}
	if !b.Position.Valid() {
		return fmt.Errorf("position is required")
	}
	return nil
}

func (s *Server) handleListBanners(w http.ResponseWriter, r *http.Request) {
	cfg := s.loadOwnedConfiguration(w, r, chi.URLParam(r, "id"))
	if cfg == nil {
		return
	}
	banners, err := s.repos.Banners.ListByConfig(r.Context(), cfg.ID)
	if err != nil {
		s.internalError(w, r, "failed to list banners", err)
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

func (s *Server) handleCreateBanner(w http.ResponseWriter, r *http.Request) {
	cfg := s.loadOwnedConfiguration(w, r, chi.URLParam(r, "id"))
	if cfg == nil {
		return
	}

	var req bannerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b := &domain.Banner{ConfigID: cfg.ID, IsActive: true}
	if err := req.apply(b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repos.Banners.Create(r.Context(), b); err != nil {
		s.internalError(w, r, "failed to create banner", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// loadOwnedBanner resolves a banner through its configuration's owner.
func (s *Server) loadOwnedBanner(w http.ResponseWriter, r *http.Request) *domain.Banner {
	b, err := s.repos.Banners.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.internalError(w, r, "failed to load banner", err)
		return nil
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "Banner not found")
		return nil
	}
	cfg, err := s.repos.Configurations.GetByID(r.Context(), b.ConfigID)
	if err != nil {
		s.internalError(w, r, "failed to load configuration", err)
		return nil
	}
	claims := getUserClaims(r)
	if cfg == nil || (cfg.UserID != claims.UserID && !claims.Privileged()) {
		writeError(w, http.StatusNotFound, "Banner not found")
		return nil
	}
	return b
}

func (s *Server) handleUpdateBanner(w http.ResponseWriter, r *http.Request) {
	b := s.loadOwnedBanner(w, r)
	if b == nil {
		return
	}

	var req bannerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.apply(b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repos.Banners.Update(r.Context(), b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Banner not found")
			return
		}
		s.internalError(w, r, "failed to update banner", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBanner(w http.ResponseWriter, r *http.Request) {
	b := s.loadOwnedBanner(w, r)
	if b == nil {
		return
	}
	if err := s.repos.Banners.Delete(r.Context(), b.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.internalError(w, r, "failed to delete banner", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
