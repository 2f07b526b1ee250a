// Package constants defines global constants used throughout pillarscan.
package constants

// ProjectName is the canonical service name used in logs and user-facing output.
const ProjectName = "pillarscan"

// Environment identifies the runtime environment the service was started in.
type Environment string

const (
	// Production emits JSON logs and disables development conveniences
	Production Environment = "production"
	// Development emits human-readable colored logs
	Development Environment = "development"
)

// GSIName is the name of the single global secondary index on the table.
const GSIName = "GSI1"

// Attribute names of the table's composite keys.
const (
	AttrPK     = "PK"
	AttrSK     = "SK"
	AttrGSI1PK = "GSI1PK"
	AttrGSI1SK = "GSI1SK"
)

// Key prefixes for the single-table layout. Every item owned by a user lives
// under the USER# partition, so one prefix query lists all of a user's
// credentials or scans.
const (
	UserKeyPrefix      = "USER#"
	CredentialPrefix   = "CRED#"
	ScanKeyPrefix      = "SCAN#"
	EmailKeyPrefix     = "EMAIL#"
	TimestampKeyPrefix = "TIMESTAMP#"
	ProfileSortKey     = "PROFILE"
)

// RequestIDByteSize is the number of random bytes used to generate request IDs.
const RequestIDByteSize = 12
