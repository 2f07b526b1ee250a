package orchestrator

import (
	"context"
	"strings"

	"pillarscan/internal/api"
	apperrors "pillarscan/internal/errors"
)

// CreateUser registers a new user. Email and username must both be unused;
// the email check goes through the secondary index, the username check is the
// documented linear scan.
func (s *Service) CreateUser(ctx context.Context, req *api.CreateUserRequest) (*api.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Username == "" {
		return nil, apperrors.ErrBadRequest("email and username are required", nil)
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrConflict("email already registered", nil)
	}

	existing, err = s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrConflict("username already taken", nil)
	}

	user := &api.User{
		Email:        email,
		Username:     req.Username,
		PasswordHash: req.PasswordHash,
		FullName:     req.FullName,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.UserID)
	return user, nil
}

// GetUser fetches one user by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*api.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound("user not found", nil)
	}
	return user, nil
}
