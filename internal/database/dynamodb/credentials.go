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
	"github.com/google/uuid"
)

// CredentialRepository implements database.CredentialRepository on the
// single-table store.
type CredentialRepository struct {
	store  database.KeyValueStore
	logger *slog.Logger
}

// NewCredentialRepository creates a new single-table credential repository.
func NewCredentialRepository(store database.KeyValueStore, log *slog.Logger) *CredentialRepository {
	return &CredentialRepository{store: store, logger: log}
}

type credentialItem struct {
	PK                 string    `dynamodbav:"PK"`
	SK                 string    `dynamodbav:"SK"`
	GSI1PK             string    `dynamodbav:"GSI1PK"`
	GSI1SK             string    `dynamodbav:"GSI1SK"`
	CredentialID       string    `dynamodbav:"credential_id"`
	UserID             string    `dynamodbav:"user_id"`
	CredentialName     string    `dynamodbav:"credential_name"`
	EncryptedAccessKey string    `dynamodbav:"encrypted_access_key"`
	EncryptedSecretKey string    `dynamodbav:"encrypted_secret_key"`
	IsActive           bool      `dynamodbav:"is_active"`
	CreatedAt          time.Time `dynamodbav:"created_at"`
	UpdatedAt          time.Time `dynamodbav:"updated_at"`
}

func (i *credentialItem) toAPICredential() *api.Credential {
	return &api.Credential{
		CredentialID:       i.CredentialID,
		UserID:             i.UserID,
		CredentialName:     i.CredentialName,
		EncryptedAccessKey: i.EncryptedAccessKey,
		EncryptedSecretKey: i.EncryptedSecretKey,
		IsActive:           i.IsActive,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

// CreateCredential stores a new credential, stamping its identifier and
// timestamps. The key material must already be encrypted by the caller.
func (r *CredentialRepository) CreateCredential(ctx context.Context, cred *api.Credential) error {
	now := time.Now().UTC()
	cred.CredentialID = uuid.NewString()
	cred.IsActive = true
	cred.CreatedAt = now
	cred.UpdatedAt = now

	item := credentialItem{
		PK:                 constants.UserKeyPrefix + cred.UserID,
		SK:                 constants.CredentialPrefix + cred.CredentialID,
		GSI1PK:             constants.CredentialPrefix + cred.CredentialID,
		GSI1SK:             constants.UserKeyPrefix + cred.UserID,
		CredentialID:       cred.CredentialID,
		UserID:             cred.UserID,
		CredentialName:     cred.CredentialName,
		EncryptedAccessKey: cred.EncryptedAccessKey,
		EncryptedSecretKey: cred.EncryptedSecretKey,
		IsActive:           cred.IsActive,
		CreatedAt:          cred.CreatedAt,
		UpdatedAt:          cred.UpdatedAt,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.ErrInternalError("failed to marshal credential item", err)
	}
	return r.store.Put(ctx, av)
}

// GetCredentialByID fetches a credential by identity through the secondary
// index, regardless of owner. The caller must check ownership.
func (r *CredentialRepository) GetCredentialByID(ctx context.Context, credentialID string) (*api.Credential, error) {
	items, err := r.store.QueryByIndex(ctx, constants.GSIName, constants.CredentialPrefix+credentialID, "")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	var item credentialItem
	if err := attributevalue.UnmarshalMap(items[0], &item); err != nil {
		return nil, apperrors.ErrInternalError("failed to unmarshal credential item", err)
	}
	return item.toAPICredential(), nil
}

// ListCredentialsByUser returns all credentials in the user's partition.
func (r *CredentialRepository) ListCredentialsByUser(ctx context.Context, userID string) ([]*api.Credential, error) {
	items, err := r.store.QueryByPrefix(ctx, constants.UserKeyPrefix+userID, constants.CredentialPrefix)
	if err != nil {
		return nil, err
	}

	creds := make([]*api.Credential, 0, len(items))
	for _, raw := range items {
		var item credentialItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.ErrInternalError("failed to unmarshal credential item", err)
		}
		creds = append(creds, item.toAPICredential())
	}
	return creds, nil
}

// DeleteCredential removes one credential owned by the given user.
func (r *CredentialRepository) DeleteCredential(ctx context.Context, userID, credentialID string) error {
	return r.store.Delete(ctx, constants.UserKeyPrefix+userID, constants.CredentialPrefix+credentialID)
}
