package orchestrator

import (
	"context"

	"pillarscan/internal/api"
	apperrors "pillarscan/internal/errors"
)

// CreateCredential encrypts and stores AWS access keys for the caller.
func (s *Service) CreateCredential(ctx context.Context, userID string, req *api.CreateCredentialRequest) (*api.Credential, error) {
	if req.AccessKey == "" || req.SecretKey == "" {
		return nil, apperrors.ErrBadRequest("access_key and secret_key are required", nil)
	}

	encryptedAccess, err := s.cipher.Encrypt(req.AccessKey)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to encrypt credential", err)
	}
	encryptedSecret, err := s.cipher.Encrypt(req.SecretKey)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to encrypt credential", err)
	}

	cred := &api.Credential{
		UserID:             userID,
		CredentialName:     req.CredentialName,
		EncryptedAccessKey: encryptedAccess,
		EncryptedSecretKey: encryptedSecret,
	}
	if err := s.credentials.CreateCredential(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("credential created", "user_id", userID, "credential_id", cred.CredentialID)
	return cred, nil
}

// ListCredentials returns the caller's credentials, key material excluded by
// the response projection.
func (s *Service) ListCredentials(ctx context.Context, userID string) ([]*api.Credential, error) {
	return s.credentials.ListCredentialsByUser(ctx, userID)
}

// GetCredential fetches one credential. A credential owned by another user is
// reported as not found, never as forbidden.
func (s *Service) GetCredential(ctx context.Context, userID, credentialID string) (*api.Credential, error) {
	cred, err := s.credentials.GetCredentialByID(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.UserID != userID {
		return nil, apperrors.ErrNotFound("credential not found", nil)
	}
	return cred, nil
}

// DeleteCredential removes one of the caller's credentials.
func (s *Service) DeleteCredential(ctx context.Context, userID, credentialID string) error {
	if _, err := s.GetCredential(ctx, userID, credentialID); err != nil {
		return err
	}
	return s.credentials.DeleteCredential(ctx, userID, credentialID)
}
