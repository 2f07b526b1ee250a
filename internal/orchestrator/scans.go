package orchestrator

import (
	"context"
	"sort"

	"pillarscan/internal/api"
	apperrors "pillarscan/internal/errors"
)

// CreateScan persists a new pending scan and hands it to the worker pool.
// The credential must exist and belong to the caller before any record is
// written.
func (s *Service) CreateScan(ctx context.Context, userID string, req *api.CreateScanRequest) (*api.Scan, error) {
	if req.CredentialID == "" {
		return nil, apperrors.ErrBadRequest("credential_id is required", nil)
	}
	if err := s.requireDispatcher(); err != nil {
		return nil, err
	}
	if _, err := s.GetCredential(ctx, userID, req.CredentialID); err != nil {
		return nil, err
	}

	scan := &api.Scan{
		UserID:       userID,
		CredentialID: req.CredentialID,
		ScanName:     req.ScanName,
	}
	if err := s.scans.CreateScan(ctx, scan); err != nil {
		return nil, err
	}

	task := Task{
		ScanID:       scan.ScanID,
		UserID:       userID,
		CredentialID: req.CredentialID,
		Regions:      req.Regions,
	}
	if err := s.dispatcher.Dispatch(task); err != nil {
		// Close the record out as failed so no scan is left pending with
		// no task behind it.
		s.logger.Error("failed to dispatch scan", "scan_id", scan.ScanID, "error", err.Error())
		s.markFailed(ctx, task, "failed to queue scan: "+apperrors.GetErrorMessage(err))
		return nil, err
	}

	s.logger.Info("scan created", "scan_id", scan.ScanID, "user_id", userID)
	return scan, nil
}

// ListScans returns the caller's scans, newest first.
func (s *Service) ListScans(ctx context.Context, userID string) ([]*api.Scan, error) {
	scans, err := s.scans.ListScansByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(scans, func(i, j int) bool {
		return scans[i].CreatedAt.After(scans[j].CreatedAt)
	})
	return scans, nil
}

// GetScan fetches one scan. A scan owned by another user is reported as not
// found, never as forbidden.
func (s *Service) GetScan(ctx context.Context, userID, scanID string) (*api.Scan, error) {
	scan, err := s.scans.GetScanByID(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if scan == nil || scan.UserID != userID {
		return nil, apperrors.ErrNotFound("scan not found", nil)
	}
	return scan, nil
}

// DeleteScan removes one of the caller's scans.
func (s *Service) DeleteScan(ctx context.Context, userID, scanID string) error {
	if _, err := s.GetScan(ctx, userID, scanID); err != nil {
		return err
	}
	return s.scans.DeleteScan(ctx, userID, scanID)
}
