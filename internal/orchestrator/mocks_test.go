package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"pillarscan/internal/api"
	"pillarscan/internal/constants"
	"pillarscan/internal/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserRepo struct {
	createUserFunc        func(ctx context.Context, user *api.User) error
	getUserByIDFunc       func(ctx context.Context, userID string) (*api.User, error)
	getUserByEmailFunc    func(ctx context.Context, email string) (*api.User, error)
	getUserByUsernameFunc func(ctx context.Context, username string) (*api.User, error)
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user *api.User) error {
	if m.createUserFunc != nil {
		return m.createUserFunc(ctx, user)
	}
	user.UserID = "user-1"
	return nil
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, userID string) (*api.User, error) {
	if m.getUserByIDFunc != nil {
		return m.getUserByIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	if m.getUserByEmailFunc != nil {
		return m.getUserByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (*api.User, error) {
	if m.getUserByUsernameFunc != nil {
		return m.getUserByUsernameFunc(ctx, username)
	}
	return nil, nil
}

type mockCredentialRepo struct {
	createCredentialFunc      func(ctx context.Context, cred *api.Credential) error
	getCredentialByIDFunc     func(ctx context.Context, credentialID string) (*api.Credential, error)
	listCredentialsByUserFunc func(ctx context.Context, userID string) ([]*api.Credential, error)
	deleteCredentialFunc      func(ctx context.Context, userID, credentialID string) error
}

func (m *mockCredentialRepo) CreateCredential(ctx context.Context, cred *api.Credential) error {
	if m.createCredentialFunc != nil {
		return m.createCredentialFunc(ctx, cred)
	}
	cred.CredentialID = "cred-1"
	return nil
}

func (m *mockCredentialRepo) GetCredentialByID(ctx context.Context, credentialID string) (*api.Credential, error) {
	if m.getCredentialByIDFunc != nil {
		return m.getCredentialByIDFunc(ctx, credentialID)
	}
	return nil, nil
}

func (m *mockCredentialRepo) ListCredentialsByUser(ctx context.Context, userID string) ([]*api.Credential, error) {
	if m.listCredentialsByUserFunc != nil {
		return m.listCredentialsByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCredentialRepo) DeleteCredential(ctx context.Context, userID, credentialID string) error {
	if m.deleteCredentialFunc != nil {
		return m.deleteCredentialFunc(ctx, userID, credentialID)
	}
	return nil
}

// memScanRepo holds one scan record and records every update applied to it,
// so tests can assert on the persisted progress sequence.
type memScanRepo struct {
	mu      sync.Mutex
	scan    *api.Scan
	updates []api.ScanUpdate

	markRunningFunc func(ctx context.Context, userID, scanID string, startedAt time.Time) error
	deleteScanFunc  func(ctx context.Context, userID, scanID string) error
}

func (m *memScanRepo) CreateScan(ctx context.Context, scan *api.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if scan.ScanID == "" {
		scan.ScanID = "scan-1"
	}
	scan.Status = string(constants.ScanPending)
	scan.CreatedAt = time.Now().UTC()
	copied := *scan
	m.scan = &copied
	return nil
}

func (m *memScanRepo) GetScanByID(ctx context.Context, scanID string) (*api.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scan == nil || m.scan.ScanID != scanID {
		return nil, nil
	}
	copied := *m.scan
	return &copied, nil
}

func (m *memScanRepo) ListScansByUser(ctx context.Context, userID string) ([]*api.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scan == nil || m.scan.UserID != userID {
		return nil, nil
	}
	copied := *m.scan
	return []*api.Scan{&copied}, nil
}

func (m *memScanRepo) UpdateScan(ctx context.Context, userID, scanID string, update *api.ScanUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scan != nil && update.Status != nil {
		from := constants.ScanStatus(m.scan.Status)
		if !constants.CanTransitionScan(from, constants.ScanStatus(*update.Status)) {
			return database.ErrConditionFailed
		}
	}
	m.updates = append(m.updates, *update)
	if m.scan == nil {
		return nil
	}
	if update.Status != nil {
		m.scan.Status = *update.Status
	}
	if update.Progress != nil {
		m.scan.Progress = *update.Progress
	}
	if update.RegionsScanned != nil {
		m.scan.RegionsScanned = update.RegionsScanned
	}
	if update.Results != nil {
		m.scan.Results = update.Results
	}
	if update.AIRecommendations != nil {
		m.scan.AIRecommendations = *update.AIRecommendations
	}
	if update.ErrorMessage != nil {
		m.scan.ErrorMessage = *update.ErrorMessage
	}
	if update.CompletedAt != nil {
		m.scan.CompletedAt = update.CompletedAt
	}
	return nil
}

func (m *memScanRepo) MarkRunning(ctx context.Context, userID, scanID string, startedAt time.Time) error {
	if m.markRunningFunc != nil {
		return m.markRunningFunc(ctx, userID, scanID, startedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scan != nil {
		if m.scan.Status != string(constants.ScanPending) {
			return database.ErrConditionFailed
		}
		m.scan.Status = string(constants.ScanRunning)
		m.scan.StartedAt = &startedAt
	}
	return nil
}

func (m *memScanRepo) DeleteScan(ctx context.Context, userID, scanID string) error {
	if m.deleteScanFunc != nil {
		return m.deleteScanFunc(ctx, userID, scanID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scan = nil
	return nil
}

// progressValues extracts the persisted progress sequence in order.
func (m *memScanRepo) progressValues() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	values := make([]int, 0, len(m.updates))
	for _, u := range m.updates {
		if u.Progress != nil {
			values = append(values, *u.Progress)
		}
	}
	return values
}

// plainCipher is a reversible no-op cipher for tests.
type plainCipher struct{}

func (plainCipher) Encrypt(plaintext string) (string, error) { return "enc:" + plaintext, nil }

func (plainCipher) Decrypt(encoded string) (string, error) {
	if len(encoded) > 4 && encoded[:4] == "enc:" {
		return encoded[4:], nil
	}
	return encoded, nil
}

type mockScanner struct {
	validateFunc    func(ctx context.Context) (string, error)
	listRegionsFunc func(ctx context.Context) ([]string, error)
	scanRegionFunc  func(ctx context.Context, region string) api.RegionResult
}

func (m *mockScanner) ValidateCredentials(ctx context.Context) (string, error) {
	if m.validateFunc != nil {
		return m.validateFunc(ctx)
	}
	return "123456789012", nil
}

func (m *mockScanner) ListRegions(ctx context.Context) ([]string, error) {
	if m.listRegionsFunc != nil {
		return m.listRegionsFunc(ctx)
	}
	return []string{"us-east-1"}, nil
}

func (m *mockScanner) ScanRegion(ctx context.Context, region string) api.RegionResult {
	if m.scanRegionFunc != nil {
		return m.scanRegionFunc(ctx, region)
	}
	return api.RegionResult{Region: region, Categories: map[string]api.CategorySummary{}}
}

type mockAssessor struct {
	assessFunc func(ctx context.Context, results map[string]api.RegionResult) (*api.Assessment, error)
}

func (m *mockAssessor) Assess(ctx context.Context, results map[string]api.RegionResult) (*api.Assessment, error) {
	if m.assessFunc != nil {
		return m.assessFunc(ctx, results)
	}
	return &api.Assessment{ExecutiveSummary: "summary"}, nil
}

type mockDispatcher struct {
	dispatchFunc func(task Task) error
	dispatched   []Task
}

func (m *mockDispatcher) Dispatch(task Task) error {
	if m.dispatchFunc != nil {
		return m.dispatchFunc(task)
	}
	m.dispatched = append(m.dispatched, task)
	return nil
}
