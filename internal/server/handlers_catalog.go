package server

import (
	"net/http"

	"biscuits/internal/domain"
	"biscuits/internal/scriptgen"
)

// handleOptions serves the banner option catalog with its defaults
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"options":  domain.Options,
		"defaults": domain.DefaultConfig(),
	})
}

// handleServices serves the third-party service catalog
func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": domain.ServiceCategories,
		"services":   domain.Services,
	})
}

// handlePreview renders the script for unsaved values. It validates nothing
// beyond decoding so the preview shows exactly what the editor holds.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var in scriptgen.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"script": in.Script()})
}
