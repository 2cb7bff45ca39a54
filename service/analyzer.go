package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clauseguard/contractreview/backend/config"
	"github.com/clauseguard/contractreview/backend/model"
)

// Analyzer runs the full analysis pipeline over one contract version:
// extraction, heuristic checks, compliance playbooks for entitled plans, the
// atomic suggestion replace, and post-signature extraction. A version always
// ends a run in a terminal status, completed or failed.
type Analyzer struct {
	store      *Store
	rules      *RuleEngine
	heuristics []HeuristicCheck
	notifier   Notifier
	cfg        *config.Config
	log        *slog.Logger
}

func NewAnalyzer(store *Store, rules *RuleEngine, notifier Notifier, cfg *config.Config, log *slog.Logger) *Analyzer {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	a := &Analyzer{
		store:    store,
		rules:    rules,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
	if cfg.HeuristicsEnabled() {
		a.heuristics = DefaultHeuristics()
	}
	return a
}

// Analyze processes the raw document bytes for a version. Safe to call from a
// goroutine; failures are recorded on the version rather than propagated to
// the uploader. Re-running on an already-analyzed version replaces its
// suggestion set atomically, so analysis is idempotent per (version, bytes).
func (a *Analyzer) Analyze(ctx context.Context, versionID uuid.UUID, data []byte, filename string) (err error) {
	log := a.log.With("version_id", versionID, "filename", filename)

	version, err := a.store.GetVersion(ctx, versionID)
	if err != nil {
		log.Error("analysis aborted, version lookup failed", "error", err)
		return err
	}
	contract := version.Contract

	if err := a.store.BeginAnalysis(ctx, versionID); err != nil {
		if errors.Is(err, ErrAnalysisInProgress) {
			log.Warn("analysis already running, skipping")
		} else {
			log.Error("analysis aborted, status transition failed", "error", err)
		}
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panic: %v", r)
			a.fail(ctx, contract, versionID, err, log)
		}
	}()

	text, err := ExtractText(data, filename)
	if err != nil {
		a.fail(ctx, contract, versionID, err, log)
		return err
	}
	log.Info("extracted document text", "bytes", len(text))

	drafts := EvaluateHeuristics(a.heuristics, text)

	if contract != nil && contract.Organization != nil && a.cfg.EntitledPlan(contract.Organization.PlanID) {
		playbooks, perr := a.store.PlaybooksForOrganization(ctx, contract.OrganizationID)
		if perr != nil {
			a.fail(ctx, contract, versionID, perr, log)
			return perr
		}
		log.Info("running compliance playbooks", "organization", contract.Organization.Name, "playbooks", len(playbooks))
		for _, pb := range playbooks {
			drafts = append(drafts, a.rules.Evaluate(pb.Rules, text)...)
		}
	}

	suggestions, err := a.store.CompleteAnalysis(ctx, versionID, text, drafts)
	if err != nil {
		a.fail(ctx, contract, versionID, err, log)
		return err
	}
	log.Info("analysis completed", "suggestions", len(suggestions))

	if contract != nil && contract.NegotiationStatus == model.NegotiationSigned {
		a.extractPostSignature(ctx, contract.ID, text, log)
	}

	if contract != nil {
		a.notifier.Broadcast(ctx, EventAnalysisCompleted, contract.ID.String(), map[string]any{
			"contract_id": contract.ID,
			"version_id":  versionID,
			"suggestions": len(suggestions),
		})
	}
	return nil
}

func (a *Analyzer) fail(ctx context.Context, contract *model.Contract, versionID uuid.UUID, cause error, log *slog.Logger) {
	log.Error("analysis failed", "error", cause)
	if err := a.store.FailAnalysis(ctx, versionID, cause.Error()); err != nil {
		log.Error("could not record analysis failure", "error", err)
	}
	if contract != nil {
		a.notifier.Broadcast(ctx, EventAnalysisFailed, contract.ID.String(), map[string]any{
			"contract_id": contract.ID,
			"version_id":  versionID,
			"error":       cause.Error(),
		})
	}
}

// ExtractSignedContract re-runs post-signature extraction over already
// analyzed text, used when a contract transitions to signed after analysis.
func (a *Analyzer) ExtractSignedContract(ctx context.Context, contractID uuid.UUID, text string) {
	a.extractPostSignature(ctx, contractID, text, a.log.With("contract_id", contractID))
}

// extractPostSignature replaces the AI-extracted milestones and obligations
// for a signed contract. Extraction problems are logged, never failing the
// analysis that already completed.
func (a *Analyzer) extractPostSignature(ctx context.Context, contractID uuid.UUID, text string, log *slog.Logger) {
	milestones := ExtractMilestones(text)
	obligations := ExtractObligations(text)
	if err := a.store.ReplaceExtractedMilestones(ctx, contractID, milestones, obligations); err != nil {
		log.Error("post-signature extraction failed", "contract_id", contractID, "error", err)
		return
	}
	log.Info("post-signature extraction completed",
		"contract_id", contractID,
		"milestones", len(milestones),
		"obligations", len(obligations))
}
