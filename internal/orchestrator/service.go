// Package orchestrator holds the business logic layer: entity operations with
// ownership enforcement, and the scan state machine that sequences credential
// resolution, multi-region enumeration and multi-agent assessment.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"pillarscan/internal/api"
	"pillarscan/internal/database"
	apperrors "pillarscan/internal/errors"
)

// RegionScanner enumerates and scans one account's regions. A scanner is
// bound to one set of resolved credentials.
type RegionScanner interface {
	ValidateCredentials(ctx context.Context) (string, error)
	ListRegions(ctx context.Context) ([]string, error)
	ScanRegion(ctx context.Context, region string) api.RegionResult
}

// ScannerFactory builds a RegionScanner from decrypted key material. The
// plaintext keys never outlive the call chain rooted here.
type ScannerFactory func(ctx context.Context, accessKey, secretKey string) (RegionScanner, error)

// Assessor turns accumulated region results into the multi-pillar assessment.
type Assessor interface {
	Assess(ctx context.Context, results map[string]api.RegionResult) (*api.Assessment, error)
}

// CredentialCipher is the encryption boundary for stored key material.
type CredentialCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encoded string) (string, error)
}

// TaskDispatcher hands a scan task to the background worker pool.
type TaskDispatcher interface {
	Dispatch(task Task) error
}

// Deps bundles the collaborators a Service needs.
type Deps struct {
	Users        database.UserRepository
	Credentials  database.CredentialRepository
	Scans        database.ScanRepository
	Cipher       CredentialCipher
	Assessor     Assessor
	NewScanner   ScannerFactory
	PhaseTimeout time.Duration
	Logger       *slog.Logger
}

// Service implements every entity operation and owns the scan state machine.
type Service struct {
	users        database.UserRepository
	credentials  database.CredentialRepository
	scans        database.ScanRepository
	cipher       CredentialCipher
	assessor     Assessor
	newScanner   ScannerFactory
	phaseTimeout time.Duration
	dispatcher   TaskDispatcher
	logger       *slog.Logger
}

func NewService(deps Deps) *Service {
	return &Service{
		users:        deps.Users,
		credentials:  deps.Credentials,
		scans:        deps.Scans,
		cipher:       deps.Cipher,
		assessor:     deps.Assessor,
		newScanner:   deps.NewScanner,
		phaseTimeout: deps.PhaseTimeout,
		logger:       deps.Logger,
	}
}

// AttachDispatcher wires the background worker pool in after construction.
// The dispatcher needs the service to run tasks, so the two are linked in a
// second step rather than through the constructor.
func (s *Service) AttachDispatcher(d TaskDispatcher) {
	s.dispatcher = d
}

// phaseContext bounds one external phase of the state machine. A zero
// timeout disables the bound.
func (s *Service) phaseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.phaseTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.phaseTimeout)
}

// requireDispatcher guards scan creation when no worker pool is attached.
func (s *Service) requireDispatcher() error {
	if s.dispatcher == nil {
		return apperrors.ErrServiceUnavailable("scan processing is not available", nil)
	}
	return nil
}
