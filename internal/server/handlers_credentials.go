package server

import (
	"net/http"

	"pillarscan/internal/api"
)

func credentialResponse(cred *api.Credential) api.CredentialResponse {
	return api.CredentialResponse{
		ID:             cred.CredentialID,
		CredentialName: cred.CredentialName,
		IsActive:       cred.IsActive,
		CreatedAt:      cred.CreatedAt,
	}
}

// handleCreateCredential handles POST /api/v1/credentials
func (r *Router) handleCreateCredential(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.requireUserID(w, req)
	if !ok {
		return
	}

	var createReq api.CreateCredentialRequest
	if err := decodeRequestBody(w, req, &createReq); err != nil {
		return
	}

	cred, err := r.svc.CreateCredential(req.Context(), userID, &createReq)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, credentialResponse(cred))
}

// handleListCredentials handles GET /api/v1/credentials
func (r *Router) handleListCredentials(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.requireUserID(w, req)
	if !ok {
		return
	}

	creds, err := r.svc.ListCredentials(req.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]api.CredentialResponse, 0, len(creds))
	for _, cred := range creds {
		responses = append(responses, credentialResponse(cred))
	}
	writeJSONResponse(w, http.StatusOK, responses)
}

// handleDeleteCredential handles DELETE /api/v1/credentials/{credentialID}
func (r *Router) handleDeleteCredential(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.requireUserID(w, req)
	if !ok {
		return
	}

	credentialID, ok := getRequiredURLParam(w, req, "credentialID")
	if !ok {
		return
	}

	if err := r.svc.DeleteCredential(req.Context(), userID, credentialID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
