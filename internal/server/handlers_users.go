package server

import (
	"net/http"

	"pillarscan/internal/api"
)

func userResponse(user *api.User) api.UserResponse {
	return api.UserResponse{
		ID:        user.UserID,
		Email:     user.Email,
		Username:  user.Username,
		FullName:  user.FullName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

// handleCreateUser handles POST /api/v1/users
func (r *Router) handleCreateUser(w http.ResponseWriter, req *http.Request) {
	var createReq api.CreateUserRequest
	if err := decodeRequestBody(w, req, &createReq); err != nil {
		return
	}

	user, err := r.svc.CreateUser(req.Context(), &createReq)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, userResponse(user))
}

// handleGetCurrentUser handles GET /api/v1/users/me
func (r *Router) handleGetCurrentUser(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.requireUserID(w, req)
	if !ok {
		return
	}

	user, err := r.svc.GetUser(req.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, userResponse(user))
}
