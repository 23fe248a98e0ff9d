package api

import (
	"net/http"
)

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.service.HealthCheck(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
