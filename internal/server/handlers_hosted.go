package server

import (
	"fmt"
	"net/http"

	"biscuits/internal/scriptgen"
)

// setCORSHeaders lets any site load the hosted script.
func setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-Info, Apikey")
}

// handleHostedPreflight answers CORS preflight requests for the hosted script
func (s *Server) handleHostedPreflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
}

// handleHostedScript serves the embed script of an active configuration
func (s *Server) handleHostedScript(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.internalError(w, r, "panic while serving hosted script", fmt.Errorf("%v", rec))
		}
	}()
	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing configuration ID")
		return
	}

	cfg, err := s.repos.Configurations.GetActiveByID(ctx, id)
	if err != nil {
		s.internalError(w, r, "failed to load configuration", err)
		return
	}
	if cfg == nil {
		writeError(w, http.StatusNotFound, "Configuration not found")
		return
	}

	banners, err := s.repos.Banners.ListByConfig(ctx, cfg.ID)
	if err != nil {
		s.internalError(w, r, "failed to load banners", err)
		return
	}

	script := scriptgen.InputFor(cfg, banners).Script()

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(script))
}
