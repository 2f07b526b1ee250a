package dynamodb

import (
	"context"
	"log/slog"
	"time"

	"pillarscan/internal/api"
	"pillarscan/internal/constants"
	"pillarscan/internal/database"
	apperrors "pillarscan/internal/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// ScanRepository implements database.ScanRepository on the single-table store.
type ScanRepository struct {
	store  database.KeyValueStore
	logger *slog.Logger
}

// NewScanRepository creates a new single-table scan repository.
func NewScanRepository(store database.KeyValueStore, log *slog.Logger) *ScanRepository {
	return &ScanRepository{store: store, logger: log}
}

type scanItem struct {
	PK                string                      `dynamodbav:"PK"`
	SK                string                      `dynamodbav:"SK"`
	GSI1PK            string                      `dynamodbav:"GSI1PK"`
	GSI1SK            string                      `dynamodbav:"GSI1SK"`
	ScanID            string                      `dynamodbav:"scan_id"`
	UserID            string                      `dynamodbav:"user_id"`
	CredentialID      string                      `dynamodbav:"credential_id"`
	ScanName          string                      `dynamodbav:"scan_name"`
	Status            string                      `dynamodbav:"status"`
	Progress          int                         `dynamodbav:"progress"`
	RegionsScanned    []string                    `dynamodbav:"regions_scanned"`
	Results           map[string]api.RegionResult `dynamodbav:"results"`
	AIRecommendations string                      `dynamodbav:"ai_recommendations"`
	ErrorMessage      string                      `dynamodbav:"error_message"`
	StartedAt         *time.Time                  `dynamodbav:"started_at,omitempty"`
	CompletedAt       *time.Time                  `dynamodbav:"completed_at,omitempty"`
	CreatedAt         time.Time                   `dynamodbav:"created_at"`
	UpdatedAt         time.Time                   `dynamodbav:"updated_at"`
}

func (i *scanItem) toAPIScan() *api.Scan {
	return &api.Scan{
		ScanID:            i.ScanID,
		UserID:            i.UserID,
		CredentialID:      i.CredentialID,
		ScanName:          i.ScanName,
		Status:            i.Status,
		Progress:          i.Progress,
		RegionsScanned:    i.RegionsScanned,
		Results:           i.Results,
		AIRecommendations: i.AIRecommendations,
		ErrorMessage:      i.ErrorMessage,
		StartedAt:         i.StartedAt,
		CompletedAt:       i.CompletedAt,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

// CreateScan stores a new scan in pending state with empty results. The scan
// identifier and timestamps are stamped here.
func (r *ScanRepository) CreateScan(ctx context.Context, scan *api.Scan) error {
	now := time.Now().UTC()
	scan.ScanID = uuid.NewString()
	scan.Status = string(constants.ScanPending)
	scan.Progress = 0
	scan.RegionsScanned = []string{}
	scan.Results = map[string]api.RegionResult{}
	scan.CreatedAt = now
	scan.UpdatedAt = now

	item := scanItem{
		PK:             constants.UserKeyPrefix + scan.UserID,
		SK:             constants.ScanKeyPrefix + scan.ScanID,
		GSI1PK:         constants.ScanKeyPrefix + scan.ScanID,
		GSI1SK:         constants.TimestampKeyPrefix + now.Format(time.RFC3339Nano),
		ScanID:         scan.ScanID,
		UserID:         scan.UserID,
		CredentialID:   scan.CredentialID,
		ScanName:       scan.ScanName,
		Status:         scan.Status,
		Progress:       scan.Progress,
		RegionsScanned: scan.RegionsScanned,
		Results:        scan.Results,
		CreatedAt:      scan.CreatedAt,
		UpdatedAt:      scan.UpdatedAt,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.ErrInternalError("failed to marshal scan item", err)
	}
	return r.store.Put(ctx, av)
}

// GetScanByID fetches a scan by identity through the secondary index,
// regardless of owner. The caller must check ownership.
func (r *ScanRepository) GetScanByID(ctx context.Context, scanID string) (*api.Scan, error) {
	items, err := r.store.QueryByIndex(ctx, constants.GSIName, constants.ScanKeyPrefix+scanID, "")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	var item scanItem
	if err := attributevalue.UnmarshalMap(items[0], &item); err != nil {
		return nil, apperrors.ErrInternalError("failed to unmarshal scan item", err)
	}
	return item.toAPIScan(), nil
}

// ListScansByUser returns all scans in the user's partition.
func (r *ScanRepository) ListScansByUser(ctx context.Context, userID string) ([]*api.Scan, error) {
	items, err := r.store.QueryByPrefix(ctx, constants.UserKeyPrefix+userID, constants.ScanKeyPrefix)
	if err != nil {
		return nil, err
	}

	scans := make([]*api.Scan, 0, len(items))
	for _, raw := range items {
		var item scanItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.ErrInternalError("failed to unmarshal scan item", err)
		}
		scans = append(scans, item.toAPIScan())
	}
	return scans, nil
}

// UpdateScan merges the non-nil fields of the update into the stored item.
// Only named attributes are written, so concurrent readers never observe a
// partially-cleared record. A status change is guarded by a conditional
// write: the stored status must be a valid transition source for the new
// status, so a terminal record is never mutated again.
func (r *ScanRepository) UpdateScan(ctx context.Context, userID, scanID string, update *api.ScanUpdate) error {
	updates, err := marshalScanUpdate(update)
	if err != nil {
		return err
	}
	pk := constants.UserKeyPrefix + userID
	sk := constants.ScanKeyPrefix + scanID

	if update.Status != nil {
		sources := constants.ScanTransitionSources(constants.ScanStatus(*update.Status))
		allowed := make([]types.AttributeValue, 0, len(sources))
		for _, from := range sources {
			allowed = append(allowed, &types.AttributeValueMemberS{Value: string(from)})
		}
		return r.store.UpdateIfIn(ctx, pk, sk, updates, "status", allowed)
	}
	return r.store.Update(ctx, pk, sk, updates)
}

// MarkRunning transitions a pending scan to running using a conditional
// write on the stored status. A second trigger for the same scan finds the
// status already past pending and gets database.ErrConditionFailed.
func (r *ScanRepository) MarkRunning(ctx context.Context, userID, scanID string, startedAt time.Time) error {
	updates := database.Item{
		"status":     &types.AttributeValueMemberS{Value: string(constants.ScanRunning)},
		"started_at": &types.AttributeValueMemberS{Value: startedAt.UTC().Format(time.RFC3339Nano)},
		"updated_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
	}
	cond := &types.AttributeValueMemberS{Value: string(constants.ScanPending)}
	return r.store.UpdateIf(ctx, constants.UserKeyPrefix+userID, constants.ScanKeyPrefix+scanID, updates, "status", cond)
}

// DeleteScan removes one scan owned by the given user. Historical results are
// not cascaded anywhere; the record simply disappears.
func (r *ScanRepository) DeleteScan(ctx context.Context, userID, scanID string) error {
	return r.store.Delete(ctx, constants.UserKeyPrefix+userID, constants.ScanKeyPrefix+scanID)
}

func marshalScanUpdate(update *api.ScanUpdate) (database.Item, error) {
	updates := database.Item{}

	set := func(name string, value any) error {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return apperrors.ErrInternalError("failed to marshal scan update field "+name, err)
		}
		updates[name] = av
		return nil
	}

	if update.Status != nil {
		if err := set("status", *update.Status); err != nil {
			return nil, err
		}
	}
	if update.Progress != nil {
		if err := set("progress", *update.Progress); err != nil {
			return nil, err
		}
	}
	if update.RegionsScanned != nil {
		if err := set("regions_scanned", update.RegionsScanned); err != nil {
			return nil, err
		}
	}
	if update.Results != nil {
		if err := set("results", update.Results); err != nil {
			return nil, err
		}
	}
	if update.AIRecommendations != nil {
		if err := set("ai_recommendations", *update.AIRecommendations); err != nil {
			return nil, err
		}
	}
	if update.ErrorMessage != nil {
		if err := set("error_message", *update.ErrorMessage); err != nil {
			return nil, err
		}
	}
	if update.StartedAt != nil {
		if err := set("started_at", *update.StartedAt); err != nil {
			return nil, err
		}
	}
	if update.CompletedAt != nil {
		if err := set("completed_at", *update.CompletedAt); err != nil {
			return nil, err
		}
	}

	if err := set("updated_at", time.Now().UTC()); err != nil {
		return nil, err
	}
	return updates, nil
}
