package server

import (
	"net/http"

	"pillarscan/internal/api"
	"pillarscan/internal/constants"
)

// handleHealth handles GET /api/v1/health
func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, api.HealthResponse{
		Status:  "ok",
		Service: constants.ProjectName,
	})
}
