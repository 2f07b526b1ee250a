package dynamodb

import (
	"context"
	"log/slog"
	"time"

	"pillarscan/internal/api"
	"pillarscan/internal/constants"
	"pillarscan/internal/database"
	apperrors "pillarscan/internal/errors"
	"pillarscan/internal/logger"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
)

// UserRepository implements database.UserRepository on the single-table store.
type UserRepository struct {
	store  database.KeyValueStore
	logger *slog.Logger
}

// NewUserRepository creates a new single-table user repository.
func NewUserRepository(store database.KeyValueStore, log *slog.Logger) *UserRepository {
	return &UserRepository{store: store, logger: log}
}

// userItem is the stored shape of a user. The database schema stays separate
// from the API types.
type userItem struct {
	PK           string    `dynamodbav:"PK"`
	SK           string    `dynamodbav:"SK"`
	GSI1PK       string    `dynamodbav:"GSI1PK"`
	GSI1SK       string    `dynamodbav:"GSI1SK"`
	UserID       string    `dynamodbav:"user_id"`
	Email        string    `dynamodbav:"email"`
	Username     string    `dynamodbav:"username"`
	PasswordHash string    `dynamodbav:"password_hash"`
	FullName     string    `dynamodbav:"full_name,omitempty"`
	IsActive     bool      `dynamodbav:"is_active"`
	CreatedAt    time.Time `dynamodbav:"created_at"`
	UpdatedAt    time.Time `dynamodbav:"updated_at"`
}

func (i *userItem) toAPIUser() *api.User {
	return &api.User{
		UserID:       i.UserID,
		Email:        i.Email,
		Username:     i.Username,
		PasswordHash: i.PasswordHash,
		FullName:     i.FullName,
		IsActive:     i.IsActive,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

// CreateUser stores a new user, stamping its identifier and timestamps.
// Email uniqueness is enforced by the caller's lookup-before-insert, not here.
func (r *UserRepository) CreateUser(ctx context.Context, user *api.User) error {
	now := time.Now().UTC()
	user.UserID = uuid.NewString()
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now

	item := userItem{
		PK:           constants.UserKeyPrefix + user.UserID,
		SK:           constants.ProfileSortKey,
		GSI1PK:       constants.EmailKeyPrefix + user.Email,
		GSI1SK:       constants.UserKeyPrefix + user.UserID,
		UserID:       user.UserID,
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		FullName:     user.FullName,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.ErrInternalError("failed to marshal user item", err)
	}
	return r.store.Put(ctx, av)
}

// GetUserByID fetches a user by its identifier. Returns nil when absent.
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*api.User, error) {
	raw, err := r.store.Get(ctx, constants.UserKeyPrefix+userID, constants.ProfileSortKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, apperrors.ErrInternalError("failed to unmarshal user item", err)
	}
	return item.toAPIUser(), nil
}

// GetUserByEmail retrieves a user through the EMAIL# secondary index.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	items, err := r.store.QueryByIndex(ctx, constants.GSIName, constants.EmailKeyPrefix+email, "")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(items[0], &item); err != nil {
		return nil, apperrors.ErrInternalError("failed to unmarshal user item", err)
	}
	return item.toAPIUser(), nil
}

// GetUserByUsername walks all user profiles and returns the first
// case-sensitive match. Linear in user count; acceptable for small user
// bases, and the behavior (first match wins) is part of the contract.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*api.User, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)
	reqLogger.Debug("looking up user by username via table scan", "username", username)

	items, err := r.store.ScanPrefix(ctx, constants.UserKeyPrefix, constants.ProfileSortKey)
	if err != nil {
		return nil, err
	}

	for _, raw := range items {
		var item userItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.ErrInternalError("failed to unmarshal user item", err)
		}
		if item.Username == username {
			return item.toAPIUser(), nil
		}
	}
	return nil, nil
}
