package model

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus values for a ContractVersion.
const (
	AnalysisPending    = "pending"
	AnalysisInProgress = "in_progress"
	AnalysisCompleted  = "completed"
	AnalysisFailed     = "failed"
)

// NegotiationStatus values for a Contract.
const (
	NegotiationDrafting       = "drafting"
	NegotiationInternalReview = "internal_review"
	NegotiationExternalReview = "external_review"
	NegotiationSigned         = "signed"
	NegotiationArchived       = "archived"
)

// SuggestionStatus values for an AnalysisSuggestion.
const (
	SuggestionSuggested = "suggested"
	SuggestionAccepted  = "accepted"
	SuggestionRejected  = "rejected"
)

// VersionStatus values, used only for autonomously generated versions.
const (
	VersionDraft           = "draft"
	VersionPendingApproval = "pending_approval"
	VersionApproved        = "approved"
	VersionRejected        = "rejected"
)

// Organization owns contracts, clauses and playbook opt-ins. PlanID gates
// compliance-playbook analysis.
type Organization struct {
	ID               uuid.UUID            `json:"id" gorm:"type:uuid;primaryKey"`
	Name             string               `json:"name" gorm:"uniqueIndex;not null"`
	PlanID           string               `json:"plan_id"`
	EnabledPlaybooks []CompliancePlaybook `json:"-" gorm:"many2many:organization_enabled_playbooks"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Contract is a logical document under review. It owns an ordered sequence of
// versions; deleting a contract cascades through its versions.
type Contract struct {
	ID                 uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Filename           string            `json:"filename" gorm:"not null"`
	OrganizationID     uuid.UUID         `json:"organization_id" gorm:"type:uuid;not null;index"`
	Organization       *Organization     `json:"-" gorm:"foreignKey:OrganizationID"`
	Uploader           string            `json:"uploader"`
	NegotiationStatus  string            `json:"negotiation_status" gorm:"not null;default:drafting"`
	SignatureRequestID string            `json:"signature_request_id,omitempty"`
	ObjectKey          string            `json:"-"`
	Versions           []ContractVersion `json:"versions,omitempty" gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// ContractVersion is one snapshot of contract text, immutable once analyzed.
// VersionNumber is strictly increasing per contract, starting at 1; the unique
// index backs the max+1 assignment against racing uploads.
type ContractVersion struct {
	ID              uuid.UUID            `json:"id" gorm:"type:uuid;primaryKey"`
	ContractID      uuid.UUID            `json:"contract_id" gorm:"type:uuid;not null;uniqueIndex:idx_contract_version_number"`
	Contract        *Contract            `json:"-" gorm:"foreignKey:ContractID"`
	VersionNumber   int                  `json:"version_number" gorm:"not null;uniqueIndex:idx_contract_version_number"`
	FullText        *string              `json:"full_text,omitempty"`
	AnalysisStatus  string               `json:"analysis_status" gorm:"not null;default:pending"`
	ErrorMsg        string               `json:"error_msg,omitempty"`
	ParentVersionID *uuid.UUID           `json:"parent_version_id,omitempty" gorm:"type:uuid"`
	VersionStatus   string               `json:"version_status" gorm:"not null;default:draft"`
	Suggestions     []AnalysisSuggestion `json:"suggestions,omitempty" gorm:"foreignKey:ContractVersionID;constraint:OnDelete:CASCADE"`
	Comments        []UserComment        `json:"comments,omitempty" gorm:"foreignKey:ContractVersionID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `json:"created_at"`
}

// AnalysisSuggestion is a positional finding against one version's text.
// StartIndex/EndIndex are half-open byte offsets into that version's FullText
// and are valid only for that exact snapshot. A nil SuggestedText means the
// finding flags without proposing a replacement.
type AnalysisSuggestion struct {
	ID                uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	ContractVersionID uuid.UUID        `json:"contract_version_id" gorm:"type:uuid;not null;index"`
	Version           *ContractVersion `json:"-" gorm:"foreignKey:ContractVersionID"`
	StartIndex        int              `json:"start_index" gorm:"not null"`
	EndIndex          int              `json:"end_index" gorm:"not null"`
	OriginalText      string           `json:"original_text" gorm:"not null"`
	SuggestedText     *string          `json:"suggested_text,omitempty"`
	Comment           string           `json:"comment" gorm:"not null"`
	RiskCategory      string           `json:"risk_category" gorm:"not null"`
	Status            string           `json:"status" gorm:"not null;default:suggested"`
	ConfidenceScore   *float64         `json:"confidence_score,omitempty"`
	IsAutonomous      bool             `json:"is_autonomous" gorm:"not null;default:false"`
}

// UserComment is a positional human annotation. Same offset contract as
// suggestions, but never auto-generated or replaced; append-only.
type UserComment struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ContractVersionID uuid.UUID `json:"contract_version_id" gorm:"type:uuid;not null;index"`
	StartIndex        int       `json:"start_index" gorm:"not null"`
	EndIndex          int       `json:"end_index" gorm:"not null"`
	CommentText       string    `json:"comment_text" gorm:"not null"`
	Author            string    `json:"author"`
	CreatedAt         time.Time `json:"created_at"`
}

// LatestVersion returns the version with the highest number, or nil when
// Versions is not loaded or empty.
func (c *Contract) LatestVersion() *ContractVersion {
	var latest *ContractVersion
	for i := range c.Versions {
		if latest == nil || c.Versions[i].VersionNumber > latest.VersionNumber {
			latest = &c.Versions[i]
		}
	}
	return latest
}

// ValidSuggestionStatus reports whether s is an allowed review decision.
func ValidSuggestionStatus(s string) bool {
	switch s {
	case SuggestionSuggested, SuggestionAccepted, SuggestionRejected:
		return true
	}
	return false
}
