package server

import (
	"context"

	apperrors "pillarscan/internal/errors"
)

// StaticTokenVerifier is a fixed token-to-user mapping, used for local
// development and tests. Production deployments plug a real identity
// provider in behind the Verifier interface instead.
type StaticTokenVerifier struct {
	tokens map[string]string
}

func NewStaticTokenVerifier(tokens map[string]string) *StaticTokenVerifier {
	return &StaticTokenVerifier{tokens: tokens}
}

func (v *StaticTokenVerifier) Verify(_ context.Context, token string) (string, error) {
	userID, ok := v.tokens[token]
	if !ok {
		return "", apperrors.ErrUnauthorized("invalid token", nil)
	}
	return userID, nil
}
