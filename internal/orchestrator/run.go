package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pillarscan/internal/api"
	"pillarscan/internal/assessment"
	"pillarscan/internal/constants"
	"pillarscan/internal/database"
	apperrors "pillarscan/internal/errors"
)

// Run executes the scan state machine for one task. It is the single entry
// point of the background workers; any failure after the running transition
// marks the scan failed with the failure's description, keeping whatever
// partial results were already persisted.
func (s *Service) Run(ctx context.Context, task Task) {
	log := s.logger.With("scan_id", task.ScanID, "user_id", task.UserID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("scan run panicked", "panic", fmt.Sprint(r))
			s.markFailed(ctx, task, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// The conditional transition doubles as a duplicate-trigger guard: a
	// second run for the same scan finds it already past pending and backs
	// off without touching the record.
	err := s.scans.MarkRunning(ctx, task.UserID, task.ScanID, time.Now().UTC())
	if errors.Is(err, database.ErrConditionFailed) {
		log.Warn("scan already picked up, skipping duplicate run")
		return
	}
	if err != nil {
		log.Error("failed to mark scan running", "error", err.Error())
		s.markFailed(ctx, task, "failed to start scan")
		return
	}

	if err := s.runPhases(ctx, task, log); err != nil {
		log.Error("scan failed", "error", err.Error())
		s.markFailed(ctx, task, apperrors.GetErrorMessage(err))
		return
	}

	log.Info("scan completed")
}

type runLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func (s *Service) runPhases(ctx context.Context, task Task, log runLogger) error {
	scanner, err := s.resolveScanner(ctx, task)
	if err != nil {
		return err
	}

	account, err := s.validateCredentials(ctx, scanner)
	if err != nil {
		return err
	}
	log.Info("credentials validated", "account_id", account)

	regions, err := s.resolveRegions(ctx, scanner, task.Regions)
	if err != nil {
		return err
	}
	log.Info("scanning regions", "regions", regions)

	results, err := s.scanRegions(ctx, task, scanner, regions, log)
	if err != nil {
		return err
	}

	return s.assessAndComplete(ctx, task, results, log)
}

// resolveScanner loads the credential, decrypts the key material and builds
// a scanner bound to it. A missing or foreign credential is a fatal scan
// failure, not a silent skip.
func (s *Service) resolveScanner(ctx context.Context, task Task) (RegionScanner, error) {
	phaseCtx, cancel := s.phaseContext(ctx)
	defer cancel()

	cred, err := s.credentials.GetCredentialByID(phaseCtx, task.CredentialID)
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.UserID != task.UserID {
		return nil, apperrors.ErrNotFound("credential not found", nil)
	}

	accessKey, err := s.cipher.Decrypt(cred.EncryptedAccessKey)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to decrypt credential", err)
	}
	secretKey, err := s.cipher.Decrypt(cred.EncryptedSecretKey)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to decrypt credential", err)
	}

	scanner, err := s.newScanner(phaseCtx, accessKey, secretKey)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to initialize scanner", err)
	}
	return scanner, nil
}

func (s *Service) validateCredentials(ctx context.Context, scanner RegionScanner) (string, error) {
	phaseCtx, cancel := s.phaseContext(ctx)
	defer cancel()

	account, err := scanner.ValidateCredentials(phaseCtx)
	if err != nil {
		return "", apperrors.ErrScanFailed("invalid credentials", err)
	}
	return account, nil
}

func (s *Service) resolveRegions(ctx context.Context, scanner RegionScanner, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	phaseCtx, cancel := s.phaseContext(ctx)
	defer cancel()
	return scanner.ListRegions(phaseCtx)
}

// scanRegions walks the region list sequentially, persisting results and
// monotonic progress after every region. The single-writer discipline is the
// loop itself: no other goroutine writes this scan record while it runs.
func (s *Service) scanRegions(ctx context.Context, task Task, scanner RegionScanner, regions []string, log runLogger) (map[string]api.RegionResult, error) {
	results := make(map[string]api.RegionResult, len(regions))
	scanned := make([]string, 0, len(regions))

	for idx, region := range regions {
		log.Info("scanning region", "region", region)

		phaseCtx, cancel := s.phaseContext(ctx)
		result := scanner.ScanRegion(phaseCtx, region)
		cancel()

		results[region] = result
		scanned = append(scanned, region)

		progress := constants.RegionScanProgress(idx+1, len(regions))
		update := &api.ScanUpdate{
			Progress:       &progress,
			RegionsScanned: scanned,
			Results:        results,
		}
		if err := s.scans.UpdateScan(ctx, task.UserID, task.ScanID, update); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func (s *Service) assessAndComplete(ctx context.Context, task Task, results map[string]api.RegionResult, log runLogger) error {
	progress := constants.AssessmentPhaseStarted
	if err := s.scans.UpdateScan(ctx, task.UserID, task.ScanID, &api.ScanUpdate{Progress: &progress}); err != nil {
		return err
	}

	log.Info("generating recommendations")
	phaseCtx, cancel := s.phaseContext(ctx)
	result, err := s.assessor.Assess(phaseCtx, results)
	cancel()
	if err != nil {
		return err
	}

	recommendations := assessment.FormatRecommendations(result)
	status := string(constants.ScanCompleted)
	done := constants.ScanProgressDone
	completedAt := time.Now().UTC()
	return s.scans.UpdateScan(ctx, task.UserID, task.ScanID, &api.ScanUpdate{
		Status:            &status,
		Progress:          &done,
		AIRecommendations: &recommendations,
		CompletedAt:       &completedAt,
	})
}

// markFailed records the terminal failed state. Already-persisted partial
// results are left untouched.
func (s *Service) markFailed(ctx context.Context, task Task, message string) {
	status := string(constants.ScanFailed)
	update := &api.ScanUpdate{
		Status:       &status,
		ErrorMessage: &message,
	}
	if err := s.scans.UpdateScan(ctx, task.UserID, task.ScanID, update); err != nil {
		if errors.Is(err, database.ErrConditionFailed) {
			s.logger.Warn("scan already terminal, failure not recorded",
				"scan_id", task.ScanID)
			return
		}
		s.logger.Error("failed to record scan failure",
			"scan_id", task.ScanID, "error", err.Error())
	}
}
