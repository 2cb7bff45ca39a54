package model

import (
	"time"

	"github.com/google/uuid"
)

// MilestoneType values.
const (
	MilestoneEffectiveDate         = "effective_date"
	MilestoneExpirationDate        = "expiration_date"
	MilestoneRenewalNoticeDeadline = "renewal_notice_deadline"
)

// ResponsibleParty values for a TrackedObligation.
const (
	PartyOwnCompany   = "own_company"
	PartyCounterparty = "counterparty"
)

// ObligationStatus values.
const (
	ObligationPending   = "pending"
	ObligationCompleted = "completed"
)

// ContractMilestone is a key date extracted from a signed contract.
type ContractMilestone struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ContractID    uuid.UUID `json:"contract_id" gorm:"type:uuid;not null;index"`
	MilestoneType string    `json:"milestone_type" gorm:"not null"`
	MilestoneDate time.Time `json:"milestone_date" gorm:"not null"`
	Description   string    `json:"description"`
	CreatedByAI   bool      `json:"created_by_ai" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
}

// TrackedObligation is an actionable commitment sentence extracted from a
// signed contract.
type TrackedObligation struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ContractID       uuid.UUID `json:"contract_id" gorm:"type:uuid;not null;index"`
	ObligationText   string    `json:"obligation_text" gorm:"not null"`
	ResponsibleParty string    `json:"responsible_party" gorm:"not null"`
	Status           string    `json:"status" gorm:"not null;default:pending"`
	CreatedByAI      bool      `json:"created_by_ai" gorm:"not null;default:false"`
	CreatedAt        time.Time `json:"created_at"`
}
