package testutil

import (
	"time"

	"pillarscan/internal/api"
	"pillarscan/internal/constants"
)

// UserBuilder provides a fluent interface for building test users.
type UserBuilder struct {
	user *api.User
}

// NewUserBuilder creates a new UserBuilder with sensible defaults.
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: &api.User{
			UserID:    "user-1",
			Email:     "test@example.com",
			Username:  "tester",
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		},
	}
}

// WithID sets the user's ID.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.user.UserID = id
	return b
}

// WithEmail sets the user's email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// WithUsername sets the user's username.
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.user.Username = username
	return b
}

// Build returns the constructed User.
func (b *UserBuilder) Build() *api.User {
	return b.user
}

// ScanBuilder provides a fluent interface for building test scans.
type ScanBuilder struct {
	scan *api.Scan
}

// NewScanBuilder creates a new ScanBuilder in pending state.
func NewScanBuilder() *ScanBuilder {
	return &ScanBuilder{
		scan: &api.Scan{
			ScanID:       "scan-1",
			UserID:       "user-1",
			CredentialID: "cred-1",
			ScanName:     "test scan",
			Status:       string(constants.ScanPending),
			CreatedAt:    time.Now().UTC(),
		},
	}
}

// WithID sets the scan's ID.
func (b *ScanBuilder) WithID(id string) *ScanBuilder {
	b.scan.ScanID = id
	return b
}

// WithOwner sets the scan's owning user.
func (b *ScanBuilder) WithOwner(userID string) *ScanBuilder {
	b.scan.UserID = userID
	return b
}

// WithStatus sets the scan's status and, for terminal states, the progress.
func (b *ScanBuilder) WithStatus(status constants.ScanStatus) *ScanBuilder {
	b.scan.Status = string(status)
	if status == constants.ScanCompleted {
		b.scan.Progress = constants.ScanProgressDone
	}
	return b
}

// WithResults sets the scan's accumulated region results.
func (b *ScanBuilder) WithResults(results map[string]api.RegionResult) *ScanBuilder {
	b.scan.Results = results
	regions := make([]string, 0, len(results))
	for region := range results {
		regions = append(regions, region)
	}
	b.scan.RegionsScanned = regions
	return b
}

// Build returns the constructed Scan.
func (b *ScanBuilder) Build() *api.Scan {
	return b.scan
}

// RegionResultFixture builds a single-category region result.
func RegionResultFixture(region string, category string, count int) api.RegionResult {
	return api.RegionResult{
		Region: region,
		Categories: map[string]api.CategorySummary{
			category: {Count: count},
		},
	}
}
