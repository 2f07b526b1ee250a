// Package api defines the shared request, response and domain types used by
// the HTTP handlers, the orchestrator and the repositories.
package api

import "time"

// User is an account that owns credentials and scans. PasswordHash is produced
// by the external identity layer and stored opaquely; it is never serialized
// into API responses.
type User struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Credential holds encrypted AWS access keys for one user. The plaintext key
// material exists only transiently inside the orchestrator while a scan runs.
type Credential struct {
	CredentialID       string    `json:"credential_id"`
	UserID             string    `json:"user_id"`
	CredentialName     string    `json:"credential_name"`
	EncryptedAccessKey string    `json:"-"`
	EncryptedSecretKey string    `json:"-"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CategorySummary is the result of scanning one resource category in one
// region. A failed category scan records its error inline and never aborts
// the sibling categories.
type CategorySummary struct {
	Count   int            `json:"count"`
	Details map[string]int `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// RegionResult maps resource category names to their summaries for one region.
type RegionResult struct {
	Region     string                     `json:"region"`
	Categories map[string]CategorySummary `json:"categories"`
}

// Scan is the durable record of one assessment run. Results grows
// monotonically while the scan is running and is never replaced wholesale.
type Scan struct {
	ScanID            string                  `json:"scan_id"`
	UserID            string                  `json:"user_id"`
	CredentialID      string                  `json:"credential_id"`
	ScanName          string                  `json:"scan_name"`
	Status            string                  `json:"status"`
	Progress          int                     `json:"progress"`
	RegionsScanned    []string                `json:"regions_scanned"`
	Results           map[string]RegionResult `json:"results,omitempty"`
	AIRecommendations string                  `json:"ai_recommendations,omitempty"`
	ErrorMessage      string                  `json:"error_message,omitempty"`
	StartedAt         *time.Time              `json:"started_at,omitempty"`
	CompletedAt       *time.Time              `json:"completed_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// ScanUpdate is a partial update of a scan record. Only non-nil fields are
// written; everything else on the stored item is left untouched.
type ScanUpdate struct {
	Status            *string
	Progress          *int
	RegionsScanned    []string
	Results           map[string]RegionResult
	AIRecommendations *string
	ErrorMessage      *string
	StartedAt         *time.Time
	CompletedAt       *time.Time
}

// PillarAssessment is the outcome of one specialized agent's analysis pass.
// Exactly one of Analysis or Error is populated.
type PillarAssessment struct {
	Pillar     string   `json:"pillar"`
	Agent      string   `json:"agent,omitempty"`
	Analysis   string   `json:"analysis,omitempty"`
	FocusAreas []string `json:"focus_areas,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// PriorityRecommendation is a short extract of one pillar's findings used in
// the assessment overview.
type PriorityRecommendation struct {
	Pillar  string `json:"pillar"`
	Agent   string `json:"agent,omitempty"`
	Summary string `json:"summary"`
}

// Assessment is the aggregated multi-agent output for one scan.
type Assessment struct {
	ExecutiveSummary        string                      `json:"executive_summary"`
	PillarAssessments       map[string]PillarAssessment `json:"pillar_assessments"`
	OverallScore            float64                     `json:"overall_score"`
	PriorityRecommendations []PriorityRecommendation    `json:"priority_recommendations"`
}

// CreateScanRequest starts a new assessment. Regions is optional; when empty
// the orchestrator enumerates all regions enabled for the account.
type CreateScanRequest struct {
	ScanName     string   `json:"scan_name"`
	CredentialID string   `json:"credential_id"`
	Regions      []string `json:"regions,omitempty"`
}

// ScanResponse is the list/summary projection of a scan.
type ScanResponse struct {
	ID             string     `json:"id"`
	ScanName       string     `json:"scan_name"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	RegionsScanned []string   `json:"regions_scanned"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ScanDetailResponse adds the full results and recommendations to the summary
// projection. Clients poll this record; there is no push interface.
type ScanDetailResponse struct {
	ScanResponse
	Results           map[string]RegionResult `json:"results,omitempty"`
	AIRecommendations string                  `json:"ai_recommendations,omitempty"`
	ErrorMessage      string                  `json:"error_message,omitempty"`
}

// CreateCredentialRequest registers AWS access keys for the caller. The keys
// are encrypted before they are stored.
type CreateCredentialRequest struct {
	CredentialName string `json:"credential_name"`
	AccessKey      string `json:"access_key"`
	SecretKey      string `json:"secret_key"`
}

// CredentialResponse never includes key material.
type CredentialResponse struct {
	ID             string    `json:"id"`
	CredentialName string    `json:"credential_name"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateUserRequest registers a new user. The password hash is produced by
// the external identity layer before it reaches this service.
type CreateUserRequest struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	FullName     string `json:"full_name,omitempty"`
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ErrorResponse is the JSON error envelope returned by all handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ToResponse converts a scan record into its summary projection.
func (s *Scan) ToResponse() ScanResponse {
	return ScanResponse{
		ID:             s.ScanID,
		ScanName:       s.ScanName,
		Status:         s.Status,
		Progress:       s.Progress,
		RegionsScanned: s.RegionsScanned,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		CreatedAt:      s.CreatedAt,
	}
}

// ToDetailResponse converts a scan record into its detail projection.
func (s *Scan) ToDetailResponse() ScanDetailResponse {
	return ScanDetailResponse{
		ScanResponse:      s.ToResponse(),
		Results:           s.Results,
		AIRecommendations: s.AIRecommendations,
		ErrorMessage:      s.ErrorMessage,
	}
}
