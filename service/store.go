package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clauseguard/contractreview/backend/model"
)

// Not-found and state-conflict conditions surfaced by the store.
var (
	ErrContractNotFound   = errors.New("contract not found")
	ErrVersionNotFound    = errors.New("contract version not found")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrClauseNotFound     = errors.New("clause not found")
	ErrAnalysisInProgress = errors.New("analysis already in progress for this version")
	ErrInvalidOffsets     = errors.New("suggestion offsets do not match version text")
)

// versionCreateRetries bounds the unique-constraint retry loop for version
// numbering. With the per-contract lock held a single retry should never be
// needed; the constraint is the backstop for lock expiry.
const versionCreateRetries = 3

// Store owns the Contract → ContractVersion → Suggestion/Comment entity model
// and all of its transactional invariants.
type Store struct {
	db     *gorm.DB
	locker *ContractLocker
}

// NewStore wraps a gorm connection. locker may be nil, in which case version
// creation relies on the unique constraint alone (single-instance
// deployments and tests).
func NewStore(db *gorm.DB, locker *ContractLocker) *Store {
	return &Store{db: db, locker: locker}
}

// Migrate creates or updates the schema for every entity the store owns.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&model.Organization{},
		&model.Contract{},
		&model.ContractVersion{},
		&model.AnalysisSuggestion{},
		&model.UserComment{},
		&model.CompliancePlaybook{},
		&model.PlaybookRule{},
		&model.Clause{},
		&model.ContractMilestone{},
		&model.TrackedObligation{},
	)
}

// EnsureOrganization finds an organization by name, creating it with the
// given plan when absent. Used to materialize the config-file user list.
func (s *Store) EnsureOrganization(ctx context.Context, name, planID string) (*model.Organization, error) {
	var org model.Organization
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org = model.Organization{ID: uuid.New(), Name: name, PlanID: planID}
	if err := s.db.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// GetOrganizationByName resolves an organization by its unique name.
func (s *Store) GetOrganizationByName(ctx context.Context, name string) (*model.Organization, error) {
	var org model.Organization
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// CreateContract creates a contract together with its initial version
// (number 1, pending analysis) in one transaction. The caller supplies the
// contract id so the stored-document object key can embed it before the row
// exists.
func (s *Store) CreateContract(ctx context.Context, id, orgID uuid.UUID, filename, uploader, objectKey string) (*model.Contract, error) {
	contract := &model.Contract{
		ID:                id,
		Filename:          filename,
		OrganizationID:    orgID,
		Uploader:          uploader,
		NegotiationStatus: model.NegotiationDrafting,
		ObjectKey:         objectKey,
	}
	version := &model.ContractVersion{
		ID:             uuid.New(),
		ContractID:     contract.ID,
		VersionNumber:  1,
		AnalysisStatus: model.AnalysisPending,
		VersionStatus:  model.VersionDraft,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(contract).Error; err != nil {
			return err
		}
		return tx.Create(version).Error
	})
	if err != nil {
		return nil, err
	}
	contract.Versions = []model.ContractVersion{*version}
	return contract, nil
}

// GetContract loads a contract with its versions ordered by number, scoped to
// the organization.
func (s *Store) GetContract(ctx context.Context, id, orgID uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.WithContext(ctx).
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("version_number ASC") }).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// ListContracts returns the organization's contracts, newest first.
func (s *Store) ListContracts(ctx context.Context, orgID uuid.UUID) ([]model.Contract, error) {
	var contracts []model.Contract
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&contracts).Error
	return contracts, err
}

// DeleteContract removes a contract and everything beneath it: versions with
// their suggestions and comments, plus milestones and obligations. One
// transaction, mirroring the cascade the schema declares.
func (s *Store) DeleteContract(ctx context.Context, id, orgID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contract model.Contract
		if err := tx.Where("id = ? AND organization_id = ?", id, orgID).First(&contract).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}

		versionIDs := tx.Model(&model.ContractVersion{}).Select("id").Where("contract_id = ?", id)
		if err := tx.Where("contract_version_id IN (?)", versionIDs).Delete(&model.AnalysisSuggestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_version_id IN (?)", versionIDs).Delete(&model.UserComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", id).Delete(&model.ContractVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", id).Delete(&model.ContractMilestone{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", id).Delete(&model.TrackedObligation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&contract).Error
	})
}

// SetObjectKey points a contract at its current stored original, updated when
// a new version's document is uploaded.
func (s *Store) SetObjectKey(ctx context.Context, id, orgID uuid.UUID, key string) error {
	res := s.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("object_key", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContractNotFound
	}
	return nil
}

// UpdateNegotiationStatus moves a contract through the negotiation workflow.
func (s *Store) UpdateNegotiationStatus(ctx context.Context, id, orgID uuid.UUID, status string) error {
	res := s.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("negotiation_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContractNotFound
	}
	return nil
}

// GetVersion loads a version with its parent contract and organization, for
// entitlement and authorization checks.
func (s *Store) GetVersion(ctx context.Context, id uuid.UUID) (*model.ContractVersion, error) {
	var version model.ContractVersion
	err := s.db.WithContext(ctx).
		Preload("Contract.Organization").
		Preload("Suggestions").
		Where("id = ?", id).
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// CreateVersion appends a new pending version to a contract. Version numbers
// are max+1; creation is serialized per contract through the locker and
// backed by the (contract_id, version_number) unique constraint with a
// bounded retry, so concurrent uploads never collide or skip.
func (s *Store) CreateVersion(ctx context.Context, contractID uuid.UUID) (*model.ContractVersion, error) {
	unlock, err := s.lockContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.createVersionLocked(ctx, contractID, func(next int) *model.ContractVersion {
		return &model.ContractVersion{
			ID:             uuid.New(),
			ContractID:     contractID,
			VersionNumber:  next,
			AnalysisStatus: model.AnalysisPending,
			VersionStatus:  model.VersionDraft,
		}
	})
}

func (s *Store) lockContract(ctx context.Context, contractID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	if err := s.locker.Acquire(ctx, contractID); err != nil {
		return nil, err
	}
	return func() { _ = s.locker.Release(context.WithoutCancel(ctx), contractID) }, nil
}

func (s *Store) createVersionLocked(ctx context.Context, contractID uuid.UUID, build func(next int) *model.ContractVersion) (*model.ContractVersion, error) {
	var created *model.ContractVersion
	for attempt := 0; attempt < versionCreateRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&model.Contract{}).Where("id = ?", contractID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrContractNotFound
			}

			var highest int
			if err := tx.Model(&model.ContractVersion{}).
				Where("contract_id = ?", contractID).
				Select("COALESCE(MAX(version_number), 0)").
				Scan(&highest).Error; err != nil {
				return err
			}

			created = build(highest + 1)
			return tx.Create(created).Error
		})
		if err == nil {
			return created, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("version number contention on contract %s after %d attempts", contractID, versionCreateRetries)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// BeginAnalysis transitions a version to in_progress. The guard rejects a
// version already in progress so a racing re-trigger cannot run two analysis
// passes over the same version.
func (s *Store) BeginAnalysis(ctx context.Context, versionID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&model.ContractVersion{}).
		Where("id = ? AND analysis_status <> ?", versionID, model.AnalysisInProgress).
		Updates(map[string]any{"analysis_status": model.AnalysisInProgress, "error_msg": ""})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.ContractVersion{}).Where("id = ?", versionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrVersionNotFound
		}
		return ErrAnalysisInProgress
	}
	return nil
}

// CompleteAnalysis atomically replaces a version's suggestion set, stores the
// extracted text and marks the version completed. Delete-then-insert inside a
// single transaction makes re-analysis idempotent: a reader never observes a
// previously-analyzed version with an empty suggestion set.
func (s *Store) CompleteAnalysis(ctx context.Context, versionID uuid.UUID, fullText string, drafts []SuggestionDraft) ([]model.AnalysisSuggestion, error) {
	suggestions := make([]model.AnalysisSuggestion, 0, len(drafts))
	for _, d := range drafts {
		if d.StartIndex < 0 || d.StartIndex >= d.EndIndex || d.EndIndex > len(fullText) {
			return nil, fmt.Errorf("%w: [%d,%d) outside text of length %d", ErrInvalidOffsets, d.StartIndex, d.EndIndex, len(fullText))
		}
		if fullText[d.StartIndex:d.EndIndex] != d.OriginalText {
			return nil, fmt.Errorf("%w: original text mismatch at [%d,%d)", ErrInvalidOffsets, d.StartIndex, d.EndIndex)
		}
		suggestions = append(suggestions, model.AnalysisSuggestion{
			ID:                uuid.New(),
			ContractVersionID: versionID,
			StartIndex:        d.StartIndex,
			EndIndex:          d.EndIndex,
			OriginalText:      d.OriginalText,
			SuggestedText:     d.SuggestedText,
			Comment:           d.Comment,
			RiskCategory:      d.RiskCategory,
			Status:            model.SuggestionSuggested,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ContractVersion{}).
			Where("id = ?", versionID).
			Updates(map[string]any{
				"full_text":       fullText,
				"analysis_status": model.AnalysisCompleted,
				"error_msg":       "",
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionNotFound
		}
		if err := tx.Where("contract_version_id = ?", versionID).Delete(&model.AnalysisSuggestion{}).Error; err != nil {
			return err
		}
		if len(suggestions) == 0 {
			return nil
		}
		return tx.Create(&suggestions).Error
	})
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// FailAnalysis marks a version terminally failed. Analysis must always leave
// an observable terminal status, never a version stuck in in_progress.
func (s *Store) FailAnalysis(ctx context.Context, versionID uuid.UUID, cause string) error {
	return s.db.WithContext(ctx).Model(&model.ContractVersion{}).
		Where("id = ?", versionID).
		Updates(map[string]any{"analysis_status": model.AnalysisFailed, "error_msg": cause}).Error
}

// GetSuggestion loads a suggestion with version and contract preloaded so the
// caller can authorize by organization.
func (s *Store) GetSuggestion(ctx context.Context, id uuid.UUID) (*model.AnalysisSuggestion, error) {
	var suggestion model.AnalysisSuggestion
	err := s.db.WithContext(ctx).
		Preload("Version.Contract").
		Where("id = ?", id).
		First(&suggestion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSuggestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &suggestion, nil
}

// UpdateSuggestionStatus records a human review decision on one suggestion.
func (s *Store) UpdateSuggestionStatus(ctx context.Context, id uuid.UUID, status string) (*model.AnalysisSuggestion, error) {
	if !model.ValidSuggestionStatus(status) {
		return nil, fmt.Errorf("invalid suggestion status %q", status)
	}

	res := s.db.WithContext(ctx).Model(&model.AnalysisSuggestion{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrSuggestionNotFound
	}
	return s.GetSuggestion(ctx, id)
}

// ListSuggestions returns a version's suggestions in positional order.
func (s *Store) ListSuggestions(ctx context.Context, versionID uuid.UUID) ([]model.AnalysisSuggestion, error) {
	var suggestions []model.AnalysisSuggestion
	err := s.db.WithContext(ctx).
		Where("contract_version_id = ?", versionID).
		Order("start_index ASC").
		Find(&suggestions).Error
	return suggestions, err
}

// AddComment appends a positional annotation to a version. Comments are
// append-only and never touched by re-analysis.
func (s *Store) AddComment(ctx context.Context, versionID uuid.UUID, startIndex, endIndex int, text, author string) (*model.UserComment, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.ContractVersion{}).Where("id = ?", versionID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrVersionNotFound
	}

	comment := &model.UserComment{
		ID:                uuid.New(),
		ContractVersionID: versionID,
		StartIndex:        startIndex,
		EndIndex:          endIndex,
		CommentText:       text,
		Author:            author,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a version's comments, oldest first.
func (s *Store) ListComments(ctx context.Context, versionID uuid.UUID) ([]model.UserComment, error) {
	var comments []model.UserComment
	err := s.db.WithContext(ctx).
		Where("contract_version_id = ?", versionID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// CreateRedlineVersion persists an autonomous redline: the derived version
// (parent set, pending approval, analysis implicitly complete) and the
// autonomous suggestion copies, as one atomic unit under the per-contract
// lock.
func (s *Store) CreateRedlineVersion(ctx context.Context, source *model.ContractVersion, newText string, applied []model.AnalysisSuggestion) (*model.ContractVersion, error) {
	unlock, err := s.lockContract(ctx, source.ContractID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var newVersion *model.ContractVersion
	for attempt := 0; attempt < versionCreateRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var highest int
			if err := tx.Model(&model.ContractVersion{}).
				Where("contract_id = ?", source.ContractID).
				Select("COALESCE(MAX(version_number), 0)").
				Scan(&highest).Error; err != nil {
				return err
			}

			newVersion = &model.ContractVersion{
				ID:              uuid.New(),
				ContractID:      source.ContractID,
				VersionNumber:   highest + 1,
				FullText:        &newText,
				AnalysisStatus:  model.AnalysisCompleted,
				ParentVersionID: &source.ID,
				VersionStatus:   model.VersionPendingApproval,
			}
			if err := tx.Create(newVersion).Error; err != nil {
				return err
			}

			copies := make([]model.AnalysisSuggestion, len(applied))
			for i, src := range applied {
				copies[i] = model.AnalysisSuggestion{
					ID:                uuid.New(),
					ContractVersionID: newVersion.ID,
					StartIndex:        src.StartIndex,
					EndIndex:          src.EndIndex,
					OriginalText:      src.OriginalText,
					SuggestedText:     src.SuggestedText,
					Comment:           src.Comment,
					RiskCategory:      src.RiskCategory,
					Status:            model.SuggestionSuggested,
					ConfidenceScore:   src.ConfidenceScore,
					IsAutonomous:      true,
				}
			}
			if len(copies) == 0 {
				return nil
			}
			return tx.Create(&copies).Error
		})
		if err == nil {
			return newVersion, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("version number contention on contract %s after %d attempts", source.ContractID, versionCreateRetries)
}

// PlaybooksForOrganization resolves the playbooks applicable to an
// organization: every active general playbook plus the industry-scoped ones
// the organization enabled, deduplicated, rules preloaded. The result is a
// read snapshot; rules are immutable during an analysis run.
func (s *Store) PlaybooksForOrganization(ctx context.Context, orgID uuid.UUID) ([]model.CompliancePlaybook, error) {
	var general []model.CompliancePlaybook
	if err := s.db.WithContext(ctx).
		Preload("Rules").
		Where("is_active = ? AND (industry IS NULL OR industry = ?)", true, "").
		Find(&general).Error; err != nil {
		return nil, err
	}

	var org model.Organization
	err := s.db.WithContext(ctx).
		Preload("EnabledPlaybooks.Rules").
		Where("id = ?", orgID).
		First(&org).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(general))
	result := make([]model.CompliancePlaybook, 0, len(general)+len(org.EnabledPlaybooks))
	for _, pb := range general {
		seen[pb.ID] = true
		result = append(result, pb)
	}
	for _, pb := range org.EnabledPlaybooks {
		if !pb.IsActive || seen[pb.ID] {
			continue
		}
		seen[pb.ID] = true
		result = append(result, pb)
	}
	return result, nil
}

// CreatePlaybook stores a playbook with its rules.
func (s *Store) CreatePlaybook(ctx context.Context, playbook *model.CompliancePlaybook) error {
	if playbook.ID == uuid.Nil {
		playbook.ID = uuid.New()
	}
	for i := range playbook.Rules {
		if playbook.Rules[i].ID == uuid.Nil {
			playbook.Rules[i].ID = uuid.New()
		}
		playbook.Rules[i].PlaybookID = playbook.ID
	}
	return s.db.WithContext(ctx).Create(playbook).Error
}

// EnablePlaybook opts an organization into an industry-scoped playbook.
func (s *Store) EnablePlaybook(ctx context.Context, orgID, playbookID uuid.UUID) error {
	org := model.Organization{ID: orgID}
	return s.db.WithContext(ctx).Model(&org).
		Association("EnabledPlaybooks").
		Append(&model.CompliancePlaybook{ID: playbookID})
}

// CreateClause adds a clause to the organization's library.
func (s *Store) CreateClause(ctx context.Context, clause *model.Clause) error {
	if clause.ID == uuid.Nil {
		clause.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(clause).Error
}

// ListClauses returns the organization's clause library ordered by title.
func (s *Store) ListClauses(ctx context.Context, orgID uuid.UUID) ([]model.Clause, error) {
	var clauses []model.Clause
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("title ASC").
		Find(&clauses).Error
	return clauses, err
}

// GetClause loads one clause scoped to the organization.
func (s *Store) GetClause(ctx context.Context, id, orgID uuid.UUID) (*model.Clause, error) {
	var clause model.Clause
	err := s.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&clause).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClauseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &clause, nil
}

// DeleteClause removes a clause from the library.
func (s *Store) DeleteClause(ctx context.Context, id, orgID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).Delete(&model.Clause{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrClauseNotFound
	}
	return nil
}

// ReplaceExtractedMilestones swaps the AI-extracted milestones and
// obligations for a contract in one transaction, the same replace discipline
// as suggestion re-analysis. Manually created entries are left alone.
func (s *Store) ReplaceExtractedMilestones(ctx context.Context, contractID uuid.UUID, milestones []model.ContractMilestone, obligations []model.TrackedObligation) error {
	now := time.Now()
	for i := range milestones {
		if milestones[i].ID == uuid.Nil {
			milestones[i].ID = uuid.New()
		}
		milestones[i].ContractID = contractID
		milestones[i].CreatedByAI = true
		milestones[i].CreatedAt = now
	}
	for i := range obligations {
		if obligations[i].ID == uuid.Nil {
			obligations[i].ID = uuid.New()
		}
		obligations[i].ContractID = contractID
		obligations[i].CreatedByAI = true
		obligations[i].CreatedAt = now
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ? AND created_by_ai = ?", contractID, true).Delete(&model.ContractMilestone{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ? AND created_by_ai = ?", contractID, true).Delete(&model.TrackedObligation{}).Error; err != nil {
			return err
		}
		if len(milestones) > 0 {
			if err := tx.Create(&milestones).Error; err != nil {
				return err
			}
		}
		if len(obligations) > 0 {
			if err := tx.Create(&obligations).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListMilestones returns a contract's milestones ordered by date.
func (s *Store) ListMilestones(ctx context.Context, contractID uuid.UUID) ([]model.ContractMilestone, error) {
	var milestones []model.ContractMilestone
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("milestone_date ASC").
		Find(&milestones).Error
	return milestones, err
}

// ListObligations returns a contract's tracked obligations.
func (s *Store) ListObligations(ctx context.Context, contractID uuid.UUID) ([]model.TrackedObligation, error) {
	var obligations []model.TrackedObligation
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&obligations).Error
	return obligations, err
}
