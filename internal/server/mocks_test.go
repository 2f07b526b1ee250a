package server

import (
	"context"
	"io"
	"log/slog"
	"time"

	"pillarscan/internal/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockService struct {
	createUserFunc func(ctx context.Context, req *api.CreateUserRequest) (*api.User, error)
	getUserFunc    func(ctx context.Context, userID string) (*api.User, error)

	createCredentialFunc func(ctx context.Context, userID string, req *api.CreateCredentialRequest) (*api.Credential, error)
	listCredentialsFunc  func(ctx context.Context, userID string) ([]*api.Credential, error)
	deleteCredentialFunc func(ctx context.Context, userID, credentialID string) error

	createScanFunc func(ctx context.Context, userID string, req *api.CreateScanRequest) (*api.Scan, error)
	listScansFunc  func(ctx context.Context, userID string) ([]*api.Scan, error)
	getScanFunc    func(ctx context.Context, userID, scanID string) (*api.Scan, error)
	deleteScanFunc func(ctx context.Context, userID, scanID string) error
}

func (m *mockService) CreateUser(ctx context.Context, req *api.CreateUserRequest) (*api.User, error) {
	if m.createUserFunc != nil {
		return m.createUserFunc(ctx, req)
	}
	return &api.User{UserID: "user-1", Email: req.Email, Username: req.Username}, nil
}

func (m *mockService) GetUser(ctx context.Context, userID string) (*api.User, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return &api.User{UserID: userID}, nil
}

func (m *mockService) CreateCredential(ctx context.Context, userID string, req *api.CreateCredentialRequest) (*api.Credential, error) {
	if m.createCredentialFunc != nil {
		return m.createCredentialFunc(ctx, userID, req)
	}
	return &api.Credential{CredentialID: "cred-1", UserID: userID, CredentialName: req.CredentialName}, nil
}

func (m *mockService) ListCredentials(ctx context.Context, userID string) ([]*api.Credential, error) {
	if m.listCredentialsFunc != nil {
		return m.listCredentialsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockService) DeleteCredential(ctx context.Context, userID, credentialID string) error {
	if m.deleteCredentialFunc != nil {
		return m.deleteCredentialFunc(ctx, userID, credentialID)
	}
	return nil
}

func (m *mockService) CreateScan(ctx context.Context, userID string, req *api.CreateScanRequest) (*api.Scan, error) {
	if m.createScanFunc != nil {
		return m.createScanFunc(ctx, userID, req)
	}
	return &api.Scan{ScanID: "scan-1", UserID: userID, ScanName: req.ScanName, Status: "pending"}, nil
}

func (m *mockService) ListScans(ctx context.Context, userID string) ([]*api.Scan, error) {
	if m.listScansFunc != nil {
		return m.listScansFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockService) GetScan(ctx context.Context, userID, scanID string) (*api.Scan, error) {
	if m.getScanFunc != nil {
		return m.getScanFunc(ctx, userID, scanID)
	}
	return &api.Scan{ScanID: scanID, UserID: userID, Status: "pending"}, nil
}

func (m *mockService) DeleteScan(ctx context.Context, userID, scanID string) error {
	if m.deleteScanFunc != nil {
		return m.deleteScanFunc(ctx, userID, scanID)
	}
	return nil
}

// newTestRouter builds a router over the mock service with one valid token.
func newTestRouter(svc *mockService) *Router {
	verifier := NewStaticTokenVerifier(map[string]string{"valid-token": "user-1"})
	return NewRouter(svc, verifier, testLogger(), time.Minute)
}
