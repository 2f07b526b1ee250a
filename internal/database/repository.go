// Package database defines the storage abstractions for pillarscan: a
// single-table key-value store contract and the typed repository interfaces
// built on top of it. These abstractions allow different implementations
// (DynamoDB, in-memory) without changing the business logic layer.
package database

import (
	"context"
	"time"

	"pillarscan/internal/api"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is one row of the single table, keyed by the composite (PK, SK) pair.
type Item = map[string]types.AttributeValue

// KeyValueStore is the single-table storage contract. All operations are
// atomic at the single-item level; there are no multi-item transactions.
// Query operations return an empty slice, never an error, when nothing
// matches. Get returns (nil, nil) for a missing item.
type KeyValueStore interface {
	// Put inserts or fully replaces an item.
	Put(ctx context.Context, item Item) error

	// Get fetches one item by its primary key.
	Get(ctx context.Context, pk, sk string) (Item, error)

	// QueryByPrefix returns all items in a partition whose sort key starts
	// with skPrefix. An empty prefix returns the whole partition, ordered by
	// sort key.
	QueryByPrefix(ctx context.Context, pk, skPrefix string) ([]Item, error)

	// QueryByIndex looks items up through the secondary index. An empty sk
	// matches every item under the index partition key.
	QueryByIndex(ctx context.Context, index, pk, sk string) ([]Item, error)

	// Update merges the named attributes into an existing item. Attributes
	// not named in updates are never touched.
	Update(ctx context.Context, pk, sk string, updates Item) error

	// UpdateIf is Update with a single-attribute equality precondition. It
	// returns ErrConditionFailed when the stored value does not match.
	UpdateIf(ctx context.Context, pk, sk string, updates Item, condAttr string, condValue types.AttributeValue) error

	// UpdateIfIn is Update with a membership precondition: the stored value
	// of condAttr must equal one of condValues. It returns ErrConditionFailed
	// otherwise.
	UpdateIfIn(ctx context.Context, pk, sk string, updates Item, condAttr string, condValues []types.AttributeValue) error

	// ScanPrefix walks the whole table and returns items whose partition key
	// begins with pkPrefix and whose sort key equals sk. O(n) in table size;
	// it exists solely for the username lookup and is documented as a known
	// scaling limit.
	ScanPrefix(ctx context.Context, pkPrefix, sk string) ([]Item, error)

	// Delete removes one item. Deleting a missing item is not an error.
	Delete(ctx context.Context, pk, sk string) error
}

// UserRepository defines user-related storage operations.
type UserRepository interface {
	// CreateUser stores a new user, stamping its ID and timestamps.
	// Email uniqueness is the caller's responsibility (lookup before insert).
	CreateUser(ctx context.Context, user *api.User) error

	// GetUserByID fetches a user by its identifier. Returns nil if absent.
	GetUserByID(ctx context.Context, userID string) (*api.User, error)

	// GetUserByEmail fetches a user through the email secondary index.
	GetUserByEmail(ctx context.Context, email string) (*api.User, error)

	// GetUserByUsername scans the USER# partition prefix linearly and returns
	// the first case-sensitive match. O(n) in user count; a known scaling
	// limit, acceptable for small user bases.
	GetUserByUsername(ctx context.Context, username string) (*api.User, error)
}

// CredentialRepository defines credential-related storage operations.
type CredentialRepository interface {
	// CreateCredential stores a new credential, stamping its ID and timestamps.
	CreateCredential(ctx context.Context, cred *api.Credential) error

	// GetCredentialByID fetches a credential by identity regardless of owner.
	// Callers must check ownership against the embedded UserID themselves.
	GetCredentialByID(ctx context.Context, credentialID string) (*api.Credential, error)

	// ListCredentialsByUser returns all credentials owned by one user.
	ListCredentialsByUser(ctx context.Context, userID string) ([]*api.Credential, error)

	// DeleteCredential removes a credential owned by the given user.
	DeleteCredential(ctx context.Context, userID, credentialID string) error
}

// ScanRepository defines scan-related storage operations.
type ScanRepository interface {
	// CreateScan stores a new scan record in pending state with empty results.
	CreateScan(ctx context.Context, scan *api.Scan) error

	// GetScanByID fetches a scan by identity through the secondary index.
	// Callers must check ownership against the embedded UserID themselves.
	GetScanByID(ctx context.Context, scanID string) (*api.Scan, error)

	// ListScansByUser returns all scans owned by one user.
	ListScansByUser(ctx context.Context, userID string) ([]*api.Scan, error)

	// UpdateScan merges the non-nil fields of the update into the record and
	// refreshes updated_at.
	UpdateScan(ctx context.Context, userID, scanID string, update *api.ScanUpdate) error

	// MarkRunning transitions a pending scan to running, guarded by a
	// conditional write on the stored status. A scan already past pending
	// returns ErrConditionFailed, which makes a duplicate trigger a no-op.
	MarkRunning(ctx context.Context, userID, scanID string, startedAt time.Time) error

	// DeleteScan removes a scan owned by the given user.
	DeleteScan(ctx context.Context, userID, scanID string) error
}
