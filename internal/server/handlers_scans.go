package server

import (
	"net/http"

	"pillarscan/internal/api"
)

// handleCreateScan handles POST /api/v1/scans
func (r *Router) handleCreateScan(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.requireUserID(w, req)
	if !ok {
		return
	}

	var createReq api.CreateScanRequest
	if err := decodeRequestBody(w, req, &createReq); err != nil {
		return
	}

	scan, err := r.svc.CreateScan(req.Context(), userID, &createReq)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, scan.ToResponse())
}

// handleListScans handles GET /api/v1/scans
func (r *Router) handleListScans(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.requireUserID(w, req)
	if !ok {
		return
	}

	scans, err := r.svc.ListScans(req.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]api.ScanResponse, 0, len(scans))
	for _, scan := range scans {
		responses = append(responses, scan.ToResponse())
	}
	writeJSONResponse(w, http.StatusOK, responses)
}

// handleGetScan handles GET /api/v1/scans/{scanID}. Clients poll this
// endpoint for progress; there is no push interface.
func (r *Router) handleGetScan(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.requireUserID(w, req)
	if !ok {
		return
	}

	scanID, ok := getRequiredURLParam(w, req, "scanID")
	if !ok {
		return
	}

	scan, err := r.svc.GetScan(req.Context(), userID, scanID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, scan.ToDetailResponse())
}

// handleDeleteScan handles DELETE /api/v1/scans/{scanID}
func (r *Router) handleDeleteScan(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.requireUserID(w, req)
	if !ok {
		return
	}

	scanID, ok := getRequiredURLParam(w, req, "scanID")
	if !ok {
		return
	}

	if err := r.svc.DeleteScan(req.Context(), userID, scanID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
