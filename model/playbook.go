package model

import (
	"time"

	"github.com/google/uuid"
)

// RiskCategoryGeopolitical marks rules that use the jurisdiction-lookup
// evaluation path instead of plain pattern flagging.
const RiskCategoryGeopolitical = "Geopolitical Risk"

// CompliancePlaybook groups pattern rules. Industry empty means the playbook
// is general and applies to every organization; industry-scoped playbooks run
// only for organizations that enabled them.
type CompliancePlaybook struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"uniqueIndex;not null"`
	Description string         `json:"description"`
	Industry    string         `json:"industry,omitempty"`
	IsActive    bool           `json:"is_active" gorm:"not null"`
	Rules       []PlaybookRule `json:"rules,omitempty" gorm:"foreignKey:PlaybookID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PlaybookRule is a named regex pattern with a risk category. Patterns are
// evaluated case-insensitively; a pattern that fails to compile is skipped at
// evaluation time, never stopping the run.
type PlaybookRule struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PlaybookID   uuid.UUID `json:"playbook_id" gorm:"type:uuid;not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	Pattern      string    `json:"pattern" gorm:"not null"`
	RiskCategory string    `json:"risk_category" gorm:"not null"`
}

// Clause is a titled library entry used as similarity-match input. Analysis
// never mutates clauses.
type Clause struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index"`
	Title          string    `json:"title" gorm:"not null"`
	Category       string    `json:"category,omitempty"`
	Content        string    `json:"content" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
